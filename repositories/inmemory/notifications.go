// Package inmemory holds map-backed versions of the repositories. They honour
// the same contracts as the Mongo implementations and back the "memory"
// store mode and the test suites.
package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/busticket/busticket_backend/models"
	"github.com/busticket/busticket_backend/repositories"
)

type NotificationStore struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]models.Notification
	now   func() time.Time
}

func NewNotificationStore() *NotificationStore {
	return &NotificationStore{
		items: make(map[primitive.ObjectID]models.Notification),
		now:   time.Now,
	}
}

func (s *NotificationStore) Insert(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prepare(n)
	s.items[n.ID] = clone(*n)
	return nil
}

func (s *NotificationStore) InsertMany(_ context.Context, batch []models.Notification) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range batch {
		s.prepare(&batch[i])
		s.items[batch[i].ID] = clone(batch[i])
	}
	return len(batch), nil
}

func (s *NotificationStore) ListForUser(_ context.Context, userID primitive.ObjectID, page, pageSize int, unreadOnly bool) ([]models.Notification, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := s.filter(func(n models.Notification) bool {
		return n.UserID == userID && (!unreadOnly || !n.Read)
	})
	total := int64(len(matched))

	start := (page - 1) * pageSize
	if start >= len(matched) {
		return []models.Notification{}, total, nil
	}
	end := start + pageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (s *NotificationStore) ListSince(_ context.Context, userID primitive.ObjectID, since time.Time, limit int) ([]models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := s.filter(func(n models.Notification) bool {
		return n.UserID == userID && n.CreatedAt.After(since)
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (s *NotificationStore) CountUnread(_ context.Context, userID primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for _, n := range s.items {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (s *NotificationStore) MarkRead(_ context.Context, userID, id primitive.ObjectID) (*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.items[id]
	if !ok || n.UserID != userID {
		return nil, repositories.ErrNotFound
	}
	n.Read = true
	n.UpdatedAt = s.now()
	s.items[id] = n
	out := clone(n)
	return &out, nil
}

func (s *NotificationStore) MarkAllRead(_ context.Context, userID primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var modified int64
	now := s.now()
	for id, n := range s.items {
		if n.UserID == userID && !n.Read {
			n.Read = true
			n.UpdatedAt = now
			s.items[id] = n
			modified++
		}
	}
	return modified, nil
}

func (s *NotificationStore) Delete(_ context.Context, userID, id primitive.ObjectID) (*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.items[id]
	if !ok || n.UserID != userID {
		return nil, repositories.ErrNotFound
	}
	delete(s.items, id)
	return &n, nil
}

func (s *NotificationStore) ReminderExists(_ context.Context, userID, bookingID primitive.ObjectID, journeyDate string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasReminder(userID, bookingID.Hex(), journeyDate), nil
}

// InsertReminder stores n unless the user already has a reminder for the same
// booking and journey date. The lookup and the insert happen under one lock.
func (s *NotificationStore) InsertReminder(_ context.Context, n *models.Notification) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bookingID, _ := n.Data[models.DataBookingID].(string)
	journeyDate, _ := n.Data[models.DataJourneyDate].(string)
	if s.hasReminder(n.UserID, bookingID, journeyDate) {
		return false, nil
	}
	s.prepare(n)
	s.items[n.ID] = clone(*n)
	return true, nil
}

func (s *NotificationStore) hasReminder(userID primitive.ObjectID, bookingID, journeyDate string) bool {
	for _, n := range s.items {
		if n.UserID != userID || n.Type != models.NotificationTypeReminder {
			continue
		}
		if n.Data[models.DataBookingID] == bookingID && n.Data[models.DataJourneyDate] == journeyDate {
			return true
		}
	}
	return false
}

func (s *NotificationStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, n := range s.items {
		if n.Expired(now) {
			delete(s.items, id)
			deleted++
		}
	}
	return deleted, nil
}

// All returns every stored notification, newest first.
func (s *NotificationStore) All() []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter(func(models.Notification) bool { return true })
}

// filter returns matching items sorted newest first; callers hold mu.
func (s *NotificationStore) filter(match func(models.Notification) bool) []models.Notification {
	out := []models.Notification{}
	for _, n := range s.items {
		if match(n) {
			out = append(out, clone(n))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.Hex() > out[j].ID.Hex()
	})
	return out
}

func (s *NotificationStore) prepare(n *models.Notification) {
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now()
	}
	if n.UpdatedAt.IsZero() {
		n.UpdatedAt = n.CreatedAt
	}
	if n.Data == nil {
		n.Data = map[string]interface{}{}
	}
	if n.Priority == "" {
		n.Priority = models.PriorityMedium
	}
}

func clone(n models.Notification) models.Notification {
	data := make(map[string]interface{}, len(n.Data))
	for k, v := range n.Data {
		data[k] = v
	}
	n.Data = data
	if n.ExpiresAt != nil {
		t := *n.ExpiresAt
		n.ExpiresAt = &t
	}
	return n
}
