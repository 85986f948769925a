package services

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/busticket/busticket_backend/models"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	// FanOutBatchSize bounds a single InsertMany during a broadcast.
	FanOutBatchSize = 500
)

// NotificationInput is everything a caller supplies to create a notification.
type NotificationInput struct {
	Type      models.NotificationType `json:"type" validate:"required"`
	Title     string                  `json:"title" validate:"required"`
	Message   string                  `json:"message" validate:"required"`
	Data      map[string]interface{}  `json:"data,omitempty"`
	Priority  models.Priority         `json:"priority,omitempty"`
	ExpiresAt *time.Time              `json:"expiresAt,omitempty"`
}

// NotificationPage is one page of a user's notifications.
type NotificationPage struct {
	Notifications []models.Notification `json:"notifications"`
	CurrentPage   int                   `json:"currentPage"`
	TotalPages    int                   `json:"totalPages"`
	Total         int64                 `json:"total"`
	HasMore       bool                  `json:"hasMore"`
}

// FanOutResult reports how a broadcast went. Failed batches are not retried.
type FanOutResult struct {
	Users    int `json:"users"`
	Inserted int `json:"inserted"`
	Failed   int `json:"failed"`
}

type NotificationService struct {
	store      NotificationStore
	users      UserDirectory
	dispatcher *Dispatcher
	relay      Relay
	logger     zerolog.Logger
	now        func() time.Time
}

// NewNotificationService wires the service. dispatcher and relay may be nil.
func NewNotificationService(store NotificationStore, users UserDirectory, dispatcher *Dispatcher, relay Relay, logger zerolog.Logger) *NotificationService {
	return &NotificationService{
		store:      store,
		users:      users,
		dispatcher: dispatcher,
		relay:      relay,
		logger:     logger.With().Str("component", "notifications").Logger(),
		now:        time.Now,
	}
}

// Create validates and persists a notification for userID, then hands it to
// the external channels and the live relay without waiting for them.
func (s *NotificationService) Create(ctx context.Context, userID primitive.ObjectID, in NotificationInput) (*models.Notification, error) {
	if userID.IsZero() {
		return nil, invalidArgument("user is required")
	}
	n, err := s.build(userID, in)
	if err != nil {
		return nil, err
	}
	if err := s.store.Insert(ctx, n); err != nil {
		return nil, internal("failed to create notification", err)
	}

	s.deliver(ctx, []models.Notification{*n})
	return n, nil
}

// CreateForAllUsers creates one notification per registered user. Batches are
// inserted unordered; a failing batch is counted and the rest continue.
func (s *NotificationService) CreateForAllUsers(ctx context.Context, in NotificationInput) (FanOutResult, error) {
	if _, err := s.build(primitive.NilObjectID, in); err != nil {
		return FanOutResult{}, err
	}
	ids, err := s.users.ListUserIDs(ctx)
	if err != nil {
		return FanOutResult{}, internal("failed to list users", err)
	}

	result := FanOutResult{Users: len(ids)}
	for start := 0; start < len(ids); start += FanOutBatchSize {
		end := start + FanOutBatchSize
		if end > len(ids) {
			end = len(ids)
		}

		batch := make([]models.Notification, 0, end-start)
		for _, id := range ids[start:end] {
			n, _ := s.build(id, in)
			batch = append(batch, *n)
		}

		inserted, err := s.store.InsertMany(ctx, batch)
		result.Inserted += inserted
		result.Failed += len(batch) - inserted
		if err != nil {
			s.logger.Error().Err(err).
				Int("batch", len(batch)).
				Int("inserted", inserted).
				Msg("broadcast batch partially failed")
			continue
		}
		s.deliver(ctx, batch)
	}

	s.logger.Info().
		Str("type", string(in.Type)).
		Int("users", result.Users).
		Int("inserted", result.Inserted).
		Int("failed", result.Failed).
		Msg("broadcast finished")
	return result, nil
}

// List returns page of the user's notifications, newest first. page values
// below 1 are treated as 1; pageSize defaults to 20 and is capped at 100.
func (s *NotificationService) List(ctx context.Context, userID primitive.ObjectID, page, pageSize int, unreadOnly bool) (*NotificationPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	items, total, err := s.store.ListForUser(ctx, userID, page, pageSize, unreadOnly)
	if err != nil {
		return nil, internal("failed to retrieve notifications", err)
	}
	return &NotificationPage{
		Notifications: items,
		CurrentPage:   page,
		TotalPages:    int(math.Ceil(float64(total) / float64(pageSize))),
		Total:         total,
		HasMore:       int64(page*pageSize) < total,
	}, nil
}

// ListSince returns what arrived after since, newest first.
func (s *NotificationService) ListSince(ctx context.Context, userID primitive.ObjectID, since time.Time, limit int) ([]models.Notification, error) {
	if limit < 1 || limit > MaxPageSize {
		limit = MaxPageSize
	}
	items, err := s.store.ListSince(ctx, userID, since, limit)
	if err != nil {
		return nil, internal("failed to retrieve notifications", err)
	}
	return items, nil
}

func (s *NotificationService) CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	count, err := s.store.CountUnread(ctx, userID)
	if err != nil {
		return 0, internal("failed to get unread count", err)
	}
	return count, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id primitive.ObjectID) (*models.Notification, error) {
	n, err := s.store.MarkRead(ctx, userID, id)
	if err != nil {
		return nil, storeError(err, "failed to mark notification as read", "notification not found")
	}
	return n, nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	modified, err := s.store.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, internal("failed to mark all notifications as read", err)
	}
	return modified, nil
}

func (s *NotificationService) Delete(ctx context.Context, userID, id primitive.ObjectID) (*models.Notification, error) {
	n, err := s.store.Delete(ctx, userID, id)
	if err != nil {
		return nil, storeError(err, "failed to delete notification", "notification not found")
	}
	return n, nil
}

func (s *NotificationService) ReminderExists(ctx context.Context, userID, bookingID primitive.ObjectID, journeyDate string) (bool, error) {
	exists, err := s.store.ReminderExists(ctx, userID, bookingID, journeyDate)
	if err != nil {
		return false, internal("failed to look up reminder", err)
	}
	return exists, nil
}

func (s *NotificationService) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	deleted, err := s.store.DeleteExpired(ctx, now)
	if err != nil {
		return 0, internal("failed to delete expired notifications", err)
	}
	return deleted, nil
}

// build validates in and returns the record to persist for userID.
func (s *NotificationService) build(userID primitive.ObjectID, in NotificationInput) (*models.Notification, error) {
	if !in.Type.Valid() {
		return nil, invalidArgument("unknown notification type %q", in.Type)
	}
	title := strings.TrimSpace(in.Title)
	message := strings.TrimSpace(in.Message)
	if title == "" || message == "" {
		return nil, invalidArgument("title and message are required")
	}
	priority := in.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !priority.Valid() {
		return nil, invalidArgument("unknown priority %q", in.Priority)
	}

	now := s.now()
	if in.ExpiresAt != nil && in.ExpiresAt.Before(now) {
		return nil, invalidArgument("expiresAt is in the past")
	}

	data := make(map[string]interface{}, len(in.Data))
	for k, v := range in.Data {
		data[k] = v
	}
	return &models.Notification{
		UserID:    userID,
		Type:      in.Type,
		Title:     title,
		Message:   message,
		Data:      data,
		Priority:  priority,
		ExpiresAt: in.ExpiresAt,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// deliver pings the relay and pushes persisted records to the external
// channels in the background. Failures there never reach the caller.
func (s *NotificationService) deliver(ctx context.Context, items []models.Notification) {
	if s.relay != nil {
		for i := range items {
			s.relay.NotifyUser(items[i].UserID, &items[i])
		}
	}
	if s.dispatcher == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	go func() {
		for i := range items {
			s.dispatcher.Dispatch(ctx, &items[i])
		}
	}()
}
