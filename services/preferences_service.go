package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/busticket/busticket_backend/models"
)

const preferencesMissing = "user preferences not found"

type PreferencesService struct {
	store  PreferencesStore
	logger zerolog.Logger
}

func NewPreferencesService(store PreferencesStore, logger zerolog.Logger) *PreferencesService {
	return &PreferencesService{
		store:  store,
		logger: logger.With().Str("component", "preferences").Logger(),
	}
}

// Get returns the user's preferences, creating the defaults on first access.
func (s *PreferencesService) Get(ctx context.Context, userID primitive.ObjectID) (*models.UserPreferences, error) {
	prefs, err := s.store.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, internal("failed to retrieve user preferences", err)
	}
	return prefs, nil
}

// Replace overwrites the supplied top-level fields.
func (s *PreferencesService) Replace(ctx context.Context, userID primitive.ObjectID, u models.PreferencesUpdate) (*models.UserPreferences, error) {
	if u.Empty() {
		return nil, invalidArgument("no preference fields supplied")
	}
	if err := validateUpdate(u); err != nil {
		return nil, err
	}
	prefs, err := s.store.Replace(ctx, userID, u)
	if err != nil {
		return nil, internal("failed to update user preferences", err)
	}
	return prefs, nil
}

// SetNotificationType flips one channel/type switch. Both keys must name a
// known channel and type.
func (s *PreferencesService) SetNotificationType(ctx context.Context, userID primitive.ObjectID, category, notificationType string, enabled bool) (*models.UserPreferences, error) {
	channel, err := parseChannel(category)
	if err != nil {
		return nil, err
	}
	nt := models.NotificationType(notificationType)
	if !nt.Valid() {
		return nil, invalidArgument("unknown notification type %q", notificationType)
	}
	prefs, err := s.store.SetNotificationType(ctx, userID, channel, nt, enabled)
	if err != nil {
		return nil, storeError(err, "failed to update notification setting", preferencesMissing)
	}
	return prefs, nil
}

func (s *PreferencesService) ToggleCategory(ctx context.Context, userID primitive.ObjectID, category string, enabled bool) (*models.UserPreferences, error) {
	channel, err := parseChannel(category)
	if err != nil {
		return nil, err
	}
	prefs, err := s.store.ToggleCategory(ctx, userID, channel, enabled)
	if err != nil {
		return nil, storeError(err, "failed to toggle notification category", preferencesMissing)
	}
	return prefs, nil
}

// SetQuietHours updates quiet hours; start and end keep their value when nil.
func (s *PreferencesService) SetQuietHours(ctx context.Context, userID primitive.ObjectID, enabled bool, start, end *string) (*models.UserPreferences, error) {
	for _, v := range []*string{start, end} {
		if v == nil {
			continue
		}
		if _, err := models.ParseClock(*v); err != nil {
			return nil, invalidArgument("%v", err)
		}
	}
	prefs, err := s.store.SetQuietHours(ctx, userID, enabled, start, end)
	if err != nil {
		return nil, storeError(err, "failed to update quiet hours", preferencesMissing)
	}
	return prefs, nil
}

// Reset restores every configurable field to its default.
func (s *PreferencesService) Reset(ctx context.Context, userID primitive.ObjectID) (*models.UserPreferences, error) {
	prefs, err := s.store.Reset(ctx, userID)
	if err != nil {
		return nil, storeError(err, "failed to reset user preferences", preferencesMissing)
	}
	s.logger.Info().Str("user", userID.Hex()).Msg("preferences reset to defaults")
	return prefs, nil
}

func parseChannel(category string) (models.Channel, error) {
	channel := models.Channel(category)
	if !channel.Valid() {
		return "", invalidArgument("unknown notification category %q", category)
	}
	return channel, nil
}

func validateUpdate(u models.PreferencesUpdate) error {
	if u.Language != nil && !u.Language.Valid() {
		return invalidArgument("unsupported language %q", *u.Language)
	}
	if u.Frequency != nil && !u.Frequency.Valid() {
		return invalidArgument("unsupported frequency %q", *u.Frequency)
	}
	if u.Timezone != nil {
		if _, err := time.LoadLocation(*u.Timezone); err != nil || *u.Timezone == "" {
			return invalidArgument("unknown timezone %q", *u.Timezone)
		}
	}
	if u.QuietHours != nil {
		for _, v := range []string{u.QuietHours.Start, u.QuietHours.End} {
			if _, err := models.ParseClock(v); err != nil {
				return invalidArgument("%v", err)
			}
		}
	}
	return nil
}
