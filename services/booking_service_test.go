package services

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/busticket/busticket_backend/models"
	"github.com/busticket/busticket_backend/repositories/inmemory"
)

type bookingFixture struct {
	service       *BookingService
	buses         *inmemory.BusStore
	notifications *inmemory.NotificationStore
	busID         primitive.ObjectID
}

func newBookingFixture() *bookingFixture {
	buses := inmemory.NewBusStore()
	notifications := inmemory.NewNotificationStore()
	svc := NewNotificationService(notifications, inmemory.NewUserStore(), nil, nil, zerolog.Nop())
	busID := buses.Add(models.Bus{
		Name:        "Shivneri",
		From:        "Pune",
		To:          "Mumbai",
		JourneyDate: "2024-03-15",
		Departure:   "10:00",
		Capacity:    40,
		SeatsBooked: []int{1},
	})
	return &bookingFixture{
		service:       NewBookingService(buses, inmemory.NewBookingStore(buses), svc, zerolog.Nop()),
		buses:         buses,
		notifications: notifications,
		busID:         busID,
	}
}

func TestBookingService_BookSeatNotifies(t *testing.T) {
	ctx := context.Background()
	f := newBookingFixture()
	userID := primitive.NewObjectID()

	booking, err := f.service.BookSeat(ctx, userID, models.BookSeatRequest{BusID: f.busID.Hex(), Seats: []int{3, 4}})
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusConfirmed, booking.Status)
	assert.NotEmpty(t, booking.TransactionID)

	bus, err := f.buses.FindByID(ctx, f.busID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{1, 3, 4}, bus.SeatsBooked)

	all := f.notifications.All()
	require.Len(t, all, 1)
	assert.Equal(t, userID, all[0].UserID)
	assert.Equal(t, models.NotificationTypeBooking, all[0].Type)
	assert.Equal(t, "Booking Confirmed!", all[0].Title)
	assert.Equal(t, "Your booking for Shivneri from Pune to Mumbai has been confirmed. Seats: 3, 4", all[0].Message)
	assert.Equal(t, booking.ID.Hex(), all[0].Data[models.DataBookingID])
}

func TestBookingService_BookSeatRejects(t *testing.T) {
	ctx := context.Background()
	f := newBookingFixture()
	userID := primitive.NewObjectID()

	_, err := f.service.BookSeat(ctx, userID, models.BookSeatRequest{BusID: f.busID.Hex(), Seats: []int{1}})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = f.service.BookSeat(ctx, userID, models.BookSeatRequest{BusID: f.busID.Hex(), Seats: []int{5, 5}})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = f.service.BookSeat(ctx, userID, models.BookSeatRequest{BusID: "nope", Seats: []int{5}})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = f.service.BookSeat(ctx, userID, models.BookSeatRequest{BusID: primitive.NewObjectID().Hex(), Seats: []int{5}})
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Empty(t, f.notifications.All())
}

func TestBookingService_Cancel(t *testing.T) {
	ctx := context.Background()
	f := newBookingFixture()
	owner := primitive.NewObjectID()

	booking, err := f.service.BookSeat(ctx, owner, models.BookSeatRequest{BusID: f.busID.Hex(), Seats: []int{7}})
	require.NoError(t, err)

	_, err = f.service.Cancel(ctx, primitive.NewObjectID(), booking.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	cancelled, err := f.service.Cancel(ctx, owner, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, cancelled.Status)

	bus, err := f.buses.FindByID(ctx, f.busID)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, bus.SeatsBooked)

	all := f.notifications.All()
	require.Len(t, all, 2)
	assert.Equal(t, "Booking Cancelled", all[0].Title)
	assert.Equal(t, models.NotificationTypeSystem, all[0].Type)

	_, err = f.service.Cancel(ctx, owner, booking.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
