package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/busticket/busticket_backend/models"
	"github.com/busticket/busticket_backend/repositories/inmemory"
)

type recordingRelay struct {
	mu    sync.Mutex
	users []primitive.ObjectID
}

func (r *recordingRelay) NotifyUser(userID primitive.ObjectID, _ *models.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = append(r.users, userID)
}

func newNotificationService(t *testing.T) (*NotificationService, *inmemory.NotificationStore, *inmemory.UserStore) {
	t.Helper()
	store := inmemory.NewNotificationStore()
	users := inmemory.NewUserStore()
	return NewNotificationService(store, users, nil, nil, zerolog.Nop()), store, users
}

func seed(t *testing.T, store *inmemory.NotificationStore, userID primitive.ObjectID, count int, read func(i int) bool) {
	t.Helper()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < count; i++ {
		n := &models.Notification{
			UserID:    userID,
			Type:      models.NotificationTypeSystem,
			Title:     "title",
			Message:   "message",
			Read:      read != nil && read(i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, store.Insert(context.Background(), n))
	}
}

func TestNotificationService_Create(t *testing.T) {
	ctx := context.Background()
	userID := primitive.NewObjectID()

	t.Run("defaults", func(t *testing.T) {
		svc, _, _ := newNotificationService(t)
		n, err := svc.Create(ctx, userID, NotificationInput{
			Type:    models.NotificationTypeBooking,
			Title:   "Booking Confirmed!",
			Message: "done",
		})
		require.NoError(t, err)
		assert.False(t, n.ID.IsZero())
		assert.False(t, n.Read)
		assert.Equal(t, models.PriorityMedium, n.Priority)
		assert.NotNil(t, n.Data)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		svc, _, _ := newNotificationService(t)
		past := time.Now().Add(-time.Hour)

		cases := map[string]NotificationInput{
			"unknown type":     {Type: "alert", Title: "t", Message: "m"},
			"missing title":    {Type: models.NotificationTypeSystem, Title: "  ", Message: "m"},
			"missing message":  {Type: models.NotificationTypeSystem, Title: "t"},
			"unknown priority": {Type: models.NotificationTypeSystem, Title: "t", Message: "m", Priority: "urgent"},
			"expired":          {Type: models.NotificationTypeSystem, Title: "t", Message: "m", ExpiresAt: &past},
		}
		for name, in := range cases {
			t.Run(name, func(t *testing.T) {
				_, err := svc.Create(ctx, userID, in)
				assert.ErrorIs(t, err, ErrInvalidArgument)
			})
		}
	})

	t.Run("pings relay", func(t *testing.T) {
		relay := &recordingRelay{}
		svc := NewNotificationService(inmemory.NewNotificationStore(), inmemory.NewUserStore(), nil, relay, zerolog.Nop())
		_, err := svc.Create(ctx, userID, NotificationInput{Type: models.NotificationTypeSystem, Title: "t", Message: "m"})
		require.NoError(t, err)
		assert.Equal(t, []primitive.ObjectID{userID}, relay.users)
	})
}

func TestNotificationService_Pagination(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newNotificationService(t)
	userID := primitive.NewObjectID()
	seed(t, store, userID, 45, nil)

	var all []models.Notification
	var hasMore []bool
	for page := 1; page <= 3; page++ {
		p, err := svc.List(ctx, userID, page, 20, false)
		require.NoError(t, err)
		assert.Equal(t, int64(45), p.Total)
		assert.Equal(t, 3, p.TotalPages)
		hasMore = append(hasMore, p.HasMore)
		all = append(all, p.Notifications...)
	}

	assert.Equal(t, []bool{true, true, false}, hasMore)
	require.Len(t, all, 45)
	seen := map[primitive.ObjectID]bool{}
	for i, n := range all {
		assert.False(t, seen[n.ID], "duplicate across pages")
		seen[n.ID] = true
		if i > 0 {
			assert.True(t, all[i-1].CreatedAt.After(n.CreatedAt), "not newest first at %d", i)
		}
	}
}

func TestNotificationService_ListCoercesPaging(t *testing.T) {
	svc, store, _ := newNotificationService(t)
	userID := primitive.NewObjectID()
	seed(t, store, userID, 3, nil)

	p, err := svc.List(context.Background(), userID, 0, 500, false)
	require.NoError(t, err)
	assert.Equal(t, 1, p.CurrentPage)
	assert.Len(t, p.Notifications, 3)
	assert.False(t, p.HasMore)
}

func TestNotificationService_UnreadCountMatchesUnreadPages(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newNotificationService(t)
	userID := primitive.NewObjectID()
	seed(t, store, userID, 33, func(i int) bool { return i%3 == 0 })
	seed(t, store, primitive.NewObjectID(), 5, nil)

	count, err := svc.CountUnread(ctx, userID)
	require.NoError(t, err)

	var listed int
	for page := 1; ; page++ {
		p, err := svc.List(ctx, userID, page, 10, true)
		require.NoError(t, err)
		for _, n := range p.Notifications {
			assert.False(t, n.Read)
		}
		listed += len(p.Notifications)
		if !p.HasMore {
			break
		}
	}
	assert.Equal(t, int64(22), count)
	assert.Equal(t, int(count), listed)
}

func TestNotificationService_MarkAllReadTwice(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newNotificationService(t)
	userID := primitive.NewObjectID()
	seed(t, store, userID, 4, nil)

	modified, err := svc.MarkAllRead(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), modified)
	count, _ := svc.CountUnread(ctx, userID)
	assert.Zero(t, count)

	modified, err = svc.MarkAllRead(ctx, userID)
	require.NoError(t, err)
	assert.Zero(t, modified)
	count, _ = svc.CountUnread(ctx, userID)
	assert.Zero(t, count)
}

func TestNotificationService_OwnerScoping(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newNotificationService(t)
	owner := primitive.NewObjectID()
	other := primitive.NewObjectID()

	n, err := svc.Create(ctx, owner, NotificationInput{Type: models.NotificationTypePromo, Title: "t", Message: "m"})
	require.NoError(t, err)

	_, err = svc.MarkRead(ctx, other, n.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Delete(ctx, other, n.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	count, err := svc.CountUnread(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	read, err := svc.MarkRead(ctx, owner, n.ID)
	require.NoError(t, err)
	assert.True(t, read.Read)

	_, err = svc.Delete(ctx, owner, n.ID)
	require.NoError(t, err)
	_, err = svc.MarkRead(ctx, owner, n.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNotificationService_ListSince(t *testing.T) {
	svc, store, _ := newNotificationService(t)
	userID := primitive.NewObjectID()
	seed(t, store, userID, 10, nil)

	since := time.Date(2024, 1, 1, 0, 6, 0, 0, time.UTC)
	items, err := svc.ListSince(context.Background(), userID, since, 0)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.True(t, items[0].CreatedAt.After(items[2].CreatedAt))
}

func TestNotificationService_CreateForAllUsers(t *testing.T) {
	ctx := context.Background()
	svc, store, users := newNotificationService(t)
	for i := 0; i < 3; i++ {
		users.Add(models.User{Name: "user"})
	}

	result, err := svc.CreateSystemWide(ctx, "Heads up", "New buses on the coastal route", nil)
	require.NoError(t, err)
	assert.Equal(t, FanOutResult{Users: 3, Inserted: 3}, result)

	all := store.All()
	require.Len(t, all, 3)
	owners := map[primitive.ObjectID]bool{}
	for _, n := range all {
		assert.Equal(t, models.NotificationTypeSystem, n.Type)
		owners[n.UserID] = true
	}
	assert.Len(t, owners, 3)

	_, err = svc.CreateForAllUsers(ctx, NotificationInput{Type: "bogus", Title: "t", Message: "m"})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestNotificationService_DeleteExpired(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newNotificationService(t)
	userID := primitive.NewObjectID()

	soon := time.Now().Add(time.Hour)
	_, err := svc.Create(ctx, userID, NotificationInput{Type: models.NotificationTypeReminder, Title: "t", Message: "m", ExpiresAt: &soon})
	require.NoError(t, err)
	_, err = svc.Create(ctx, userID, NotificationInput{Type: models.NotificationTypeSystem, Title: "t", Message: "m"})
	require.NoError(t, err)

	deleted, err := svc.DeleteExpired(ctx, soon.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	assert.Len(t, store.All(), 1)
}
