package inmemory

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/busticket/busticket_backend/models"
	"github.com/busticket/busticket_backend/repositories"
)

type PreferencesStore struct {
	mu      sync.Mutex
	byUser  map[primitive.ObjectID]models.UserPreferences
	creates int
}

func NewPreferencesStore() *PreferencesStore {
	return &PreferencesStore{byUser: make(map[primitive.ObjectID]models.UserPreferences)}
}

func (s *PreferencesStore) GetOrCreate(_ context.Context, userID primitive.ObjectID) (*models.UserPreferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byUser[userID]
	if !ok {
		p = s.create(userID)
	}
	return &p, nil
}

func (s *PreferencesStore) Replace(_ context.Context, userID primitive.ObjectID, u models.PreferencesUpdate) (*models.UserPreferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byUser[userID]
	if !ok {
		p = s.create(userID)
	}
	u.Apply(&p)
	p.UpdatedAt = time.Now()
	s.byUser[userID] = p
	return &p, nil
}

func (s *PreferencesStore) SetNotificationType(_ context.Context, userID primitive.ObjectID, channel models.Channel, nt models.NotificationType, enabled bool) (*models.UserPreferences, error) {
	return s.update(userID, func(p *models.UserPreferences) {
		if c := p.Notifications.Channel(channel); c != nil {
			c.Types.Set(nt, enabled)
		}
	})
}

func (s *PreferencesStore) ToggleCategory(_ context.Context, userID primitive.ObjectID, channel models.Channel, enabled bool) (*models.UserPreferences, error) {
	return s.update(userID, func(p *models.UserPreferences) {
		if c := p.Notifications.Channel(channel); c != nil {
			c.Enabled = enabled
		}
	})
}

func (s *PreferencesStore) SetQuietHours(_ context.Context, userID primitive.ObjectID, enabled bool, start, end *string) (*models.UserPreferences, error) {
	return s.update(userID, func(p *models.UserPreferences) {
		p.QuietHours.Enabled = enabled
		if start != nil {
			p.QuietHours.Start = *start
		}
		if end != nil {
			p.QuietHours.End = *end
		}
	})
}

func (s *PreferencesStore) Reset(_ context.Context, userID primitive.ObjectID) (*models.UserPreferences, error) {
	return s.update(userID, func(p *models.UserPreferences) {
		p.ResetToDefaults()
	})
}

// Creates reports how many documents were ever created.
func (s *PreferencesStore) Creates() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creates
}

func (s *PreferencesStore) update(userID primitive.ObjectID, fn func(*models.UserPreferences)) (*models.UserPreferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byUser[userID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	fn(&p)
	p.UpdatedAt = time.Now()
	s.byUser[userID] = p
	return &p, nil
}

// create stores the defaults for userID; callers hold mu.
func (s *PreferencesStore) create(userID primitive.ObjectID) models.UserPreferences {
	now := time.Now()
	p := models.DefaultPreferences(userID)
	p.ID = primitive.NewObjectID()
	p.CreatedAt = now
	p.UpdatedAt = now
	s.byUser[userID] = p
	s.creates++
	return p
}
