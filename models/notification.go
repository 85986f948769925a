package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationType is the category a notification belongs to.
type NotificationType string

const (
	NotificationTypeBooking  NotificationType = "booking"
	NotificationTypeSystem   NotificationType = "system"
	NotificationTypePromo    NotificationType = "promo"
	NotificationTypeReminder NotificationType = "reminder"
)

// NotificationTypes lists every recognised notification type.
var NotificationTypes = []NotificationType{
	NotificationTypeBooking,
	NotificationTypeSystem,
	NotificationTypePromo,
	NotificationTypeReminder,
}

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationTypeBooking, NotificationTypeSystem, NotificationTypePromo, NotificationTypeReminder:
		return true
	}
	return false
}

// Priority of a notification.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Notification model
type Notification struct {
	ID        primitive.ObjectID     `json:"id,omitempty" bson:"_id,omitempty"`
	UserID    primitive.ObjectID     `json:"user" bson:"user"`         // Owner of the notification
	Type      NotificationType       `json:"type" bson:"type"`         // booking, system, promo, reminder
	Title     string                 `json:"title" bson:"title"`       // Short title
	Message   string                 `json:"message" bson:"message"`   // Body text
	Read      bool                   `json:"read" bson:"read"`         // Only ever goes false -> true
	Data      map[string]interface{} `json:"data" bson:"data"`         // Context such as bookingId, busId, seats
	Priority  Priority               `json:"priority" bson:"priority"` // low, medium, high
	ExpiresAt *time.Time             `json:"expiresAt" bson:"expiresAt"`
	CreatedAt time.Time              `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time              `json:"updatedAt" bson:"updatedAt"`
}

// Expired reports whether the notification is eligible for the expiry sweep.
func (n *Notification) Expired(now time.Time) bool {
	return n.ExpiresAt != nil && !n.ExpiresAt.After(now)
}

// Reminder data keys. The journey reminder guard matches on these.
const (
	DataBookingID   = "bookingId"
	DataBusID       = "busId"
	DataSeats       = "seats"
	DataJourneyDate = "journeyDate"
	DataDeparture   = "departure"
)
