package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/busticket/busticket_backend/models"
	"github.com/busticket/busticket_backend/repositories"
)

// BookingService is the slice of the booking flow that raises notifications.
type BookingService struct {
	buses         BusDirectory
	bookings      BookingStore
	notifications *NotificationService
	logger        zerolog.Logger
}

func NewBookingService(buses BusDirectory, bookings BookingStore, notifications *NotificationService, logger zerolog.Logger) *BookingService {
	return &BookingService{
		buses:         buses,
		bookings:      bookings,
		notifications: notifications,
		logger:        logger.With().Str("component", "bookings").Logger(),
	}
}

// BookSeat reserves the seats, records the booking and then notifies the
// user. Notification failures never fail the booking.
func (s *BookingService) BookSeat(ctx context.Context, userID primitive.ObjectID, req models.BookSeatRequest) (*models.Booking, error) {
	busID, err := primitive.ObjectIDFromHex(req.BusID)
	if err != nil {
		return nil, invalidArgument("invalid bus ID")
	}
	if len(req.Seats) == 0 {
		return nil, invalidArgument("at least one seat is required")
	}
	if hasDuplicates(req.Seats) {
		return nil, invalidArgument("seats must be unique")
	}

	bus, err := s.buses.FindByID(ctx, busID)
	if err != nil {
		return nil, storeError(err, "booking failed", "bus not found")
	}
	if bus.HasBooked(req.Seats) {
		return nil, invalidArgument("one or more seats are already booked")
	}
	if err := s.buses.ReserveSeats(ctx, busID, req.Seats); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, invalidArgument("one or more seats are already booked")
		}
		return nil, internal("booking failed", err)
	}

	booking := &models.Booking{
		UserID:        userID,
		BusID:         busID,
		Seats:         req.Seats,
		TransactionID: req.TransactionID,
		Status:        models.BookingStatusConfirmed,
	}
	if booking.TransactionID == "" {
		booking.TransactionID = uuid.NewString()
	}
	if err := s.bookings.Insert(ctx, booking); err != nil {
		if rerr := s.buses.ReleaseSeats(ctx, busID, req.Seats); rerr != nil {
			s.logger.Error().Err(rerr).Str("bus", busID.Hex()).Msg("failed to release seats after booking error")
		}
		return nil, internal("booking failed", err)
	}

	s.notifications.NotifyBookingConfirmed(ctx, booking, bus)
	return booking, nil
}

// Cancel cancels a confirmed booking owned by userID, frees its seats and
// notifies the user.
func (s *BookingService) Cancel(ctx context.Context, userID, bookingID primitive.ObjectID) (*models.Booking, error) {
	booking, err := s.bookings.Cancel(ctx, userID, bookingID)
	if err != nil {
		return nil, storeError(err, "booking cancellation failed", "booking not found")
	}
	if err := s.buses.ReleaseSeats(ctx, booking.BusID, booking.Seats); err != nil {
		s.logger.Error().Err(err).Str("booking", bookingID.Hex()).Msg("failed to release seats")
	}

	bus, err := s.buses.FindByID(ctx, booking.BusID)
	if err != nil {
		s.logger.Warn().Err(err).Str("booking", bookingID.Hex()).Msg("bus lookup failed, cancellation notice skipped")
		return booking, nil
	}
	s.notifications.NotifyBookingCancelled(ctx, booking, bus)
	return booking, nil
}

func hasDuplicates(seats []int) bool {
	seen := make(map[int]struct{}, len(seats))
	for _, seat := range seats {
		if _, ok := seen[seat]; ok {
			return true
		}
		seen[seat] = struct{}{}
	}
	return false
}
