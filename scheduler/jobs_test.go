package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/busticket/busticket_backend/models"
	"github.com/busticket/busticket_backend/repositories/inmemory"
	"github.com/busticket/busticket_backend/services"
)

// flakyStore fails inserts for one user.
type flakyStore struct {
	*inmemory.NotificationStore
	failFor primitive.ObjectID
}

func (s *flakyStore) Insert(ctx context.Context, n *models.Notification) error {
	if n.UserID == s.failFor {
		return errors.New("write conflict")
	}
	return s.NotificationStore.Insert(ctx, n)
}

// slowLookupStore widens the gap between the reminder lookup and the insert.
type slowLookupStore struct {
	*inmemory.NotificationStore
	delay time.Duration
}

func (s *slowLookupStore) ReminderExists(ctx context.Context, userID, bookingID primitive.ObjectID, journeyDate string) (bool, error) {
	exists, err := s.NotificationStore.ReminderExists(ctx, userID, bookingID, journeyDate)
	time.Sleep(s.delay)
	return exists, err
}

type fixture struct {
	loc           *time.Location
	notifications *inmemory.NotificationStore
	users         *inmemory.UserStore
	buses         *inmemory.BusStore
	bookingStore  *inmemory.BookingStore
	service       *services.NotificationService
	bookings      *services.BookingService
	jobs          *Jobs
}

func newFixture(t *testing.T, store services.NotificationStore) *fixture {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	f := &fixture{
		loc:           loc,
		notifications: inmemory.NewNotificationStore(),
		users:         inmemory.NewUserStore(),
		buses:         inmemory.NewBusStore(),
	}
	if store == nil {
		store = f.notifications
	}
	f.bookingStore = inmemory.NewBookingStore(f.buses)
	f.service = services.NewNotificationService(store, f.users, nil, nil, zerolog.Nop())
	f.bookings = services.NewBookingService(f.buses, f.bookingStore, f.service, zerolog.Nop())
	f.jobs = NewJobs(f.service, f.bookingStore, f.users, loc, 4, zerolog.Nop())
	return f
}

func (f *fixture) tomorrow() string {
	return time.Now().In(f.loc).AddDate(0, 0, 1).Format(models.JourneyDateLayout)
}

func (f *fixture) addBus(journeyDate string) primitive.ObjectID {
	return f.buses.Add(models.Bus{
		Name:        "Volvo AC Sleeper",
		From:        "Ahmedabad",
		To:          "Mumbai",
		JourneyDate: journeyDate,
		Departure:   "10:00",
		Capacity:    36,
	})
}

func TestJourneyReminders_Idempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	userID := f.users.Add(models.User{Name: "Meera"})
	busID := f.addBus(f.tomorrow())
	_, err := f.bookings.BookSeat(ctx, userID, models.BookSeatRequest{BusID: busID.Hex(), Seats: []int{12}})
	require.NoError(t, err)

	now := time.Now()
	first, err := f.jobs.JourneyReminders(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, RunStats{Processed: 1, Created: 1}, first)

	second, err := f.jobs.JourneyReminders(ctx, now.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, RunStats{Processed: 1, Skipped: 1}, second)

	var reminders int
	for _, n := range f.notifications.All() {
		if n.Type == models.NotificationTypeReminder {
			reminders++
		}
	}
	assert.Equal(t, 1, reminders)
}

func TestJourneyReminders_ConcurrentRunsCreateOneReminder(t *testing.T) {
	ctx := context.Background()
	notifications := inmemory.NewNotificationStore()
	f := newFixture(t, &slowLookupStore{NotificationStore: notifications, delay: 5 * time.Millisecond})
	userID := f.users.Add(models.User{Name: "Kabir"})
	_, err := f.bookings.BookSeat(ctx, userID, models.BookSeatRequest{BusID: f.addBus(f.tomorrow()).Hex(), Seats: []int{7}})
	require.NoError(t, err)

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total RunStats
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			stats, err := f.jobs.JourneyReminders(ctx, time.Now())
			assert.NoError(t, err)
			mu.Lock()
			total.add(stats)
			mu.Unlock()
		}()
	}
	wg.Wait()

	var reminders int
	for _, n := range notifications.All() {
		if n.Type == models.NotificationTypeReminder {
			reminders++
		}
	}
	assert.Equal(t, 1, reminders)
	assert.Equal(t, 1, total.Created)
	assert.Equal(t, 1, total.Skipped)
	assert.Zero(t, total.Failed)
}

func TestJourneyReminders_IgnoresOtherDaysAndCancelled(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	userID := f.users.Add(models.User{})

	later := time.Now().In(f.loc).AddDate(0, 0, 3).Format(models.JourneyDateLayout)
	_, err := f.bookings.BookSeat(ctx, userID, models.BookSeatRequest{BusID: f.addBus(later).Hex(), Seats: []int{1}})
	require.NoError(t, err)

	booking, err := f.bookings.BookSeat(ctx, userID, models.BookSeatRequest{BusID: f.addBus(f.tomorrow()).Hex(), Seats: []int{2}})
	require.NoError(t, err)
	_, err = f.bookings.Cancel(ctx, userID, booking.ID)
	require.NoError(t, err)

	stats, err := f.jobs.JourneyReminders(ctx, time.Now())
	require.NoError(t, err)
	assert.Zero(t, stats.Processed)
}

func TestBookingThenReminderScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	userID := f.users.Add(models.User{Name: "Kabir"})
	busID := f.addBus(f.tomorrow())

	_, err := f.bookings.BookSeat(ctx, userID, models.BookSeatRequest{BusID: busID.Hex(), Seats: []int{5}})
	require.NoError(t, err)
	_, err = f.jobs.JourneyReminders(ctx, time.Now())
	require.NoError(t, err)

	page, err := f.service.List(ctx, userID, 1, 20, false)
	require.NoError(t, err)
	require.Len(t, page.Notifications, 2)

	reminder, confirmation := page.Notifications[0], page.Notifications[1]
	assert.Equal(t, models.NotificationTypeReminder, reminder.Type)
	assert.Equal(t, models.NotificationTypeBooking, confirmation.Type)

	day, err := time.ParseInLocation(models.JourneyDateLayout, f.tomorrow(), f.loc)
	require.NoError(t, err)
	require.NotNil(t, reminder.ExpiresAt)
	assert.True(t, reminder.ExpiresAt.Equal(day.Add(10*time.Hour)))
}

func TestPromotions_FailureIsIsolated(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{NotificationStore: inmemory.NewNotificationStore()}
	f := newFixture(t, store)
	for i := 0; i < 5; i++ {
		id := f.users.Add(models.User{})
		if i == 2 {
			store.failFor = id
		}
	}

	stats, err := f.jobs.Promotions(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, RunStats{Processed: 5, Created: 4, Failed: 1}, stats)
	assert.Len(t, store.All(), 4)
}

func TestPromotions_RotatesMessages(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	for i := 0; i < 3; i++ {
		f.users.Add(models.User{})
	}

	_, err := f.jobs.Promotions(ctx, time.Date(2024, 1, 1, 9, 0, 0, 0, f.loc))
	require.NoError(t, err)

	titles := map[string]bool{}
	for _, n := range f.notifications.All() {
		assert.Equal(t, models.NotificationTypePromo, n.Type)
		titles[n.Title] = true
	}
	assert.Len(t, titles, 3)
}

func TestMaintenance(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.users.Add(models.User{})
	f.users.Add(models.User{})

	stats, err := f.jobs.Maintenance(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Created)
	for _, n := range f.notifications.All() {
		assert.Equal(t, "Service Update", n.Title)
		assert.Equal(t, models.PriorityHigh, n.Priority)
	}

	again, err := f.jobs.Maintenance(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 2, again.Created)
	assert.Len(t, f.notifications.All(), 4)
}

func TestExpirySweep(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	expires := time.Now().Add(time.Minute)
	_, err := f.service.Create(ctx, primitive.NewObjectID(), services.NotificationInput{
		Type: models.NotificationTypeReminder, Title: "t", Message: "m", ExpiresAt: &expires,
	})
	require.NoError(t, err)

	stats, err := f.jobs.ExpirySweep(ctx, time.Now())
	require.NoError(t, err)
	assert.Zero(t, stats.Processed)

	stats, err = f.jobs.ExpirySweep(ctx, expires.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Processed)
	assert.Empty(t, f.notifications.All())
}
