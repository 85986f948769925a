package models

import (
	"encoding/json"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Channel is a delivery channel a user can configure.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelPush  Channel = "push"
	ChannelInApp Channel = "inApp"
)

// Channels lists every configurable channel.
var Channels = []Channel{ChannelEmail, ChannelPush, ChannelInApp}

func (c Channel) Valid() bool {
	switch c {
	case ChannelEmail, ChannelPush, ChannelInApp:
		return true
	}
	return false
}

// Language of outgoing messages.
type Language string

const (
	LanguageEnglish  Language = "en"
	LanguageHindi    Language = "hi"
	LanguageMarathi  Language = "mr"
	LanguageGujarati Language = "gu"
)

func (l Language) Valid() bool {
	switch l {
	case LanguageEnglish, LanguageHindi, LanguageMarathi, LanguageGujarati:
		return true
	}
	return false
}

// Frequency controls how often external channels are used.
type Frequency string

const (
	FrequencyImmediate Frequency = "immediate"
	FrequencyHourly    Frequency = "hourly"
	FrequencyDaily     Frequency = "daily"
	FrequencyWeekly    Frequency = "weekly"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyImmediate, FrequencyHourly, FrequencyDaily, FrequencyWeekly:
		return true
	}
	return false
}

const (
	DefaultLanguage        = LanguageEnglish
	DefaultTimezone        = "Asia/Kolkata"
	DefaultFrequency       = FrequencyImmediate
	DefaultQuietHoursStart = "22:00"
	DefaultQuietHoursEnd   = "08:00"
)

// TypeToggles holds one switch per notification type.
type TypeToggles struct {
	Booking  bool `json:"booking" bson:"booking"`
	System   bool `json:"system" bson:"system"`
	Promo    bool `json:"promo" bson:"promo"`
	Reminder bool `json:"reminder" bson:"reminder"`
}

// Enabled reports the switch for t. Unknown types are disabled.
func (t TypeToggles) Enabled(nt NotificationType) bool {
	switch nt {
	case NotificationTypeBooking:
		return t.Booking
	case NotificationTypeSystem:
		return t.System
	case NotificationTypePromo:
		return t.Promo
	case NotificationTypeReminder:
		return t.Reminder
	}
	return false
}

// Set flips the switch for nt and reports whether nt was recognised.
func (t *TypeToggles) Set(nt NotificationType, enabled bool) bool {
	switch nt {
	case NotificationTypeBooking:
		t.Booking = enabled
	case NotificationTypeSystem:
		t.System = enabled
	case NotificationTypePromo:
		t.Promo = enabled
	case NotificationTypeReminder:
		t.Reminder = enabled
	default:
		return false
	}
	return true
}

// ChannelSettings configures a single channel.
type ChannelSettings struct {
	Enabled bool        `json:"enabled" bson:"enabled"`
	Types   TypeToggles `json:"types" bson:"types"`
}

// Allows reports whether a notification of type nt may go out on this channel.
func (c ChannelSettings) Allows(nt NotificationType) bool {
	return c.Enabled && c.Types.Enabled(nt)
}

// NotificationSettings is the closed channel x type matrix.
type NotificationSettings struct {
	Email ChannelSettings `json:"email" bson:"email"`
	Push  ChannelSettings `json:"push" bson:"push"`
	InApp ChannelSettings `json:"inApp" bson:"inApp"`
}

// Channel returns a pointer to the settings of c, or nil for an unknown channel.
func (s *NotificationSettings) Channel(c Channel) *ChannelSettings {
	switch c {
	case ChannelEmail:
		return &s.Email
	case ChannelPush:
		return &s.Push
	case ChannelInApp:
		return &s.InApp
	}
	return nil
}

// UnmarshalJSON starts from the defaults so that omitted keys keep their
// default value instead of decoding as false.
func (s *NotificationSettings) UnmarshalJSON(b []byte) error {
	type plain NotificationSettings
	v := plain(DefaultNotificationSettings())
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*s = NotificationSettings(v)
	return nil
}

// QuietHours suppresses external channels between Start and End (HH:MM).
type QuietHours struct {
	Enabled bool   `json:"enabled" bson:"enabled"`
	Start   string `json:"start" bson:"start"`
	End     string `json:"end" bson:"end"`
}

func (q *QuietHours) UnmarshalJSON(b []byte) error {
	type plain QuietHours
	v := plain(DefaultQuietHours())
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*q = QuietHours(v)
	return nil
}

// Active reports whether t (already in the user's location) falls in the
// quiet window. Windows may wrap midnight; an empty window is never active.
func (q QuietHours) Active(t time.Time) bool {
	if !q.Enabled {
		return false
	}
	start, err := ParseClock(q.Start)
	if err != nil {
		return false
	}
	end, err := ParseClock(q.End)
	if err != nil {
		return false
	}
	now := t.Hour()*60 + t.Minute()
	switch {
	case start == end:
		return false
	case start < end:
		return now >= start && now < end
	default:
		return now >= start || now < end
	}
}

// ParseClock parses "HH:MM" into minutes after midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q, want HH:MM", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// UserPreferences model. One document per user.
type UserPreferences struct {
	ID            primitive.ObjectID   `json:"id,omitempty" bson:"_id,omitempty"`
	UserID        primitive.ObjectID   `json:"user" bson:"user"`
	Notifications NotificationSettings `json:"notifications" bson:"notifications"`
	QuietHours    QuietHours           `json:"quietHours" bson:"quietHours"`
	Language      Language             `json:"language" bson:"language"`
	Timezone      string               `json:"timezone" bson:"timezone"`
	Frequency     Frequency            `json:"frequency" bson:"frequency"`
	CreatedAt     time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt" bson:"updatedAt"`
}

// Location resolves the user's timezone, falling back to UTC.
func (p *UserPreferences) Location() *time.Location {
	if loc, err := time.LoadLocation(p.Timezone); err == nil {
		return loc
	}
	return time.UTC
}

// PreferencesUpdate is a replace request. The owning user is deliberately
// absent so it can never be rewritten.
type PreferencesUpdate struct {
	Notifications *NotificationSettings `json:"notifications,omitempty"`
	QuietHours    *QuietHours           `json:"quietHours,omitempty"`
	Language      *Language             `json:"language,omitempty"`
	Timezone      *string               `json:"timezone,omitempty"`
	Frequency     *Frequency            `json:"frequency,omitempty"`
}

// Empty reports whether the update carries no field.
func (u PreferencesUpdate) Empty() bool {
	return u.Notifications == nil && u.QuietHours == nil && u.Language == nil && u.Timezone == nil && u.Frequency == nil
}

// Apply copies the supplied fields onto p.
func (u PreferencesUpdate) Apply(p *UserPreferences) {
	if u.Notifications != nil {
		p.Notifications = *u.Notifications
	}
	if u.QuietHours != nil {
		p.QuietHours = *u.QuietHours
	}
	if u.Language != nil {
		p.Language = *u.Language
	}
	if u.Timezone != nil {
		p.Timezone = *u.Timezone
	}
	if u.Frequency != nil {
		p.Frequency = *u.Frequency
	}
}

// NotificationSettingRequest flips notifications.<category>.types.<type>.
type NotificationSettingRequest struct {
	Category string `json:"category" validate:"required"`
	Type     string `json:"type" validate:"required"`
	Enabled  *bool  `json:"enabled" validate:"required"`
}

// ToggleCategoryRequest flips notifications.<category>.enabled.
type ToggleCategoryRequest struct {
	Category string `json:"category" validate:"required"`
	Enabled  *bool  `json:"enabled" validate:"required"`
}

// QuietHoursRequest updates quiet hours; start and end are optional.
type QuietHoursRequest struct {
	Enabled *bool   `json:"enabled" validate:"required"`
	Start   *string `json:"start,omitempty" validate:"omitempty,hhmm"`
	End     *string `json:"end,omitempty" validate:"omitempty,hhmm"`
}

func DefaultChannelSettings() ChannelSettings {
	return ChannelSettings{
		Enabled: true,
		Types:   TypeToggles{Booking: true, System: true, Promo: true, Reminder: true},
	}
}

func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{
		Email: DefaultChannelSettings(),
		Push:  DefaultChannelSettings(),
		InApp: DefaultChannelSettings(),
	}
}

func DefaultQuietHours() QuietHours {
	return QuietHours{Enabled: false, Start: DefaultQuietHoursStart, End: DefaultQuietHoursEnd}
}

// DefaultPreferences returns the documented defaults for userID.
func DefaultPreferences(userID primitive.ObjectID) UserPreferences {
	return UserPreferences{
		UserID:        userID,
		Notifications: DefaultNotificationSettings(),
		QuietHours:    DefaultQuietHours(),
		Language:      DefaultLanguage,
		Timezone:      DefaultTimezone,
		Frequency:     DefaultFrequency,
	}
}

// ResetToDefaults clears every user-configurable field back to its default.
func (p *UserPreferences) ResetToDefaults() {
	d := DefaultPreferences(p.UserID)
	p.Notifications = d.Notifications
	p.QuietHours = d.QuietHours
	p.Language = d.Language
	p.Timezone = d.Timezone
	p.Frequency = d.Frequency
}
