package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/busticket/busticket_backend/models"
)

// NotificationStore persists notifications. Implemented by
// repositories.NotificationRepository and inmemory.NotificationStore.
type NotificationStore interface {
	Insert(ctx context.Context, n *models.Notification) error
	InsertMany(ctx context.Context, batch []models.Notification) (int, error)
	ListForUser(ctx context.Context, userID primitive.ObjectID, page, pageSize int, unreadOnly bool) ([]models.Notification, int64, error)
	ListSince(ctx context.Context, userID primitive.ObjectID, since time.Time, limit int) ([]models.Notification, error)
	CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error)
	MarkRead(ctx context.Context, userID, id primitive.ObjectID) (*models.Notification, error)
	MarkAllRead(ctx context.Context, userID primitive.ObjectID) (int64, error)
	Delete(ctx context.Context, userID, id primitive.ObjectID) (*models.Notification, error)
	ReminderExists(ctx context.Context, userID, bookingID primitive.ObjectID, journeyDate string) (bool, error)
	// InsertReminder inserts n unless a reminder for the same user, booking
	// and journey date exists; the check and the write are atomic.
	InsertReminder(ctx context.Context, n *models.Notification) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// PreferencesStore persists one preferences document per user.
type PreferencesStore interface {
	GetOrCreate(ctx context.Context, userID primitive.ObjectID) (*models.UserPreferences, error)
	Replace(ctx context.Context, userID primitive.ObjectID, u models.PreferencesUpdate) (*models.UserPreferences, error)
	SetNotificationType(ctx context.Context, userID primitive.ObjectID, channel models.Channel, nt models.NotificationType, enabled bool) (*models.UserPreferences, error)
	ToggleCategory(ctx context.Context, userID primitive.ObjectID, channel models.Channel, enabled bool) (*models.UserPreferences, error)
	SetQuietHours(ctx context.Context, userID primitive.ObjectID, enabled bool, start, end *string) (*models.UserPreferences, error)
	Reset(ctx context.Context, userID primitive.ObjectID) (*models.UserPreferences, error)
}

type UserDirectory interface {
	ListUserIDs(ctx context.Context) ([]primitive.ObjectID, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	UpdateFCMToken(ctx context.Context, id primitive.ObjectID, token string) error
}

type BusDirectory interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Bus, error)
	ReserveSeats(ctx context.Context, id primitive.ObjectID, seats []int) error
	ReleaseSeats(ctx context.Context, id primitive.ObjectID, seats []int) error
}

type BookingStore interface {
	Insert(ctx context.Context, b *models.Booking) error
	FindForUser(ctx context.Context, userID, id primitive.ObjectID) (*models.Booking, error)
	Cancel(ctx context.Context, userID, id primitive.ObjectID) (*models.Booking, error)
	ConfirmedForDate(ctx context.Context, journeyDate string) ([]models.UpcomingBooking, error)
}

// Relay tells connected clients that something new is waiting to be pulled.
type Relay interface {
	NotifyUser(userID primitive.ObjectID, n *models.Notification)
}
