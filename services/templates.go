package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/busticket/busticket_backend/models"
)

const (
	MaintenanceMessage = "Our system will undergo maintenance every Sunday from 2 AM to 4 AM. During this time, booking services may be temporarily unavailable."
	maintenanceTitle   = "Service Update"
	maintenanceSubject = "Weekly System Update"
	defaultPromoTitle  = "Special Offer!"
)

// Promo is a promotional message.
type Promo struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Promotions is the fixed rotation used by the daily promotional job.
var Promotions = []Promo{
	{Title: "Weekend Special!", Message: "Get 15% off on all weekend journeys. Use code WEEKEND15 at checkout!"},
	{Title: "Early Bird Discount", Message: "Book your tickets 7 days in advance and save 20% on your journey!"},
	{Title: "Student Discount", Message: "Students get 25% off on all routes. Don't forget to verify your student ID!"},
}

// Route describes a newly opened route.
type Route struct {
	From string `json:"from" validate:"required"`
	To   string `json:"to" validate:"required"`
}

// NotifyBookingConfirmed tells the user their booking went through. It never fails.
func (s *NotificationService) NotifyBookingConfirmed(ctx context.Context, booking *models.Booking, bus *models.Bus) {
	s.notify(ctx, booking.UserID, NotificationInput{
		Type:    models.NotificationTypeBooking,
		Title:   "Booking Confirmed!",
		Message: fmt.Sprintf("Your booking for %s from %s to %s has been confirmed. Seats: %s", bus.Name, bus.From, bus.To, joinSeats(booking.Seats)),
		Data:    bookingData(booking, bus),
	})
}

// NotifyBookingCancelled tells the user their booking was cancelled. It never fails.
func (s *NotificationService) NotifyBookingCancelled(ctx context.Context, booking *models.Booking, bus *models.Bus) {
	s.notify(ctx, booking.UserID, NotificationInput{
		Type:    models.NotificationTypeSystem,
		Title:   "Booking Cancelled",
		Message: fmt.Sprintf("Your booking for %s from %s to %s has been cancelled. Seats: %s", bus.Name, bus.From, bus.To, joinSeats(booking.Seats)),
		Data:    bookingData(booking, bus),
	})
}

// CreateJourneyReminder creates the day-before reminder for an upcoming
// booking. The reminder expires at departure, resolved in loc. created is
// false, with a nil error, when the booking already has a reminder for that
// journey date.
func (s *NotificationService) CreateJourneyReminder(ctx context.Context, ub models.UpcomingBooking, loc *time.Location) (n *models.Notification, created bool, err error) {
	if ub.UserID.IsZero() {
		return nil, false, invalidArgument("user is required")
	}
	departure, err := DepartureTime(ub.Bus.JourneyDate, ub.Bus.Departure, loc)
	if err != nil {
		return nil, false, invalidArgument("booking %s: %v", ub.ID.Hex(), err)
	}
	n, err = s.build(ub.UserID, NotificationInput{
		Type:    models.NotificationTypeReminder,
		Title:   "Journey Reminder",
		Message: fmt.Sprintf("Your journey from %s to %s is tomorrow at %s. Don't forget to arrive 30 minutes early!", ub.Bus.From, ub.Bus.To, ub.Bus.Departure),
		Data: map[string]interface{}{
			models.DataBookingID:   ub.ID.Hex(),
			models.DataBusID:       ub.Bus.ID.Hex(),
			models.DataJourneyDate: ub.Bus.JourneyDate,
			models.DataDeparture:   ub.Bus.Departure,
		},
		Priority:  models.PriorityHigh,
		ExpiresAt: &departure,
	})
	if err != nil {
		return nil, false, err
	}

	created, err = s.store.InsertReminder(ctx, n)
	if err != nil {
		return nil, false, internal("failed to create journey reminder", err)
	}
	if !created {
		return nil, false, nil
	}
	s.deliver(ctx, []models.Notification{*n})
	return n, true, nil
}

// CreatePromo creates a promotional notification for one user.
func (s *NotificationService) CreatePromo(ctx context.Context, userID primitive.ObjectID, p Promo) (*models.Notification, error) {
	title := p.Title
	if strings.TrimSpace(title) == "" {
		title = defaultPromoTitle
	}
	return s.Create(ctx, userID, NotificationInput{
		Type:     models.NotificationTypePromo,
		Title:    title,
		Message:  p.Message,
		Data:     map[string]interface{}{"title": title, "message": p.Message},
		Priority: models.PriorityMedium,
	})
}

// CreateMaintenance creates the weekly maintenance notice for one user.
func (s *NotificationService) CreateMaintenance(ctx context.Context, userID primitive.ObjectID) (*models.Notification, error) {
	return s.Create(ctx, userID, NotificationInput{
		Type:     models.NotificationTypeSystem,
		Title:    maintenanceTitle,
		Message:  MaintenanceMessage,
		Data:     map[string]interface{}{"title": maintenanceSubject, "message": MaintenanceMessage},
		Priority: models.PriorityHigh,
	})
}

// NotifyNewRoute announces a new route to one user. It never fails.
func (s *NotificationService) NotifyNewRoute(ctx context.Context, userID primitive.ObjectID, r Route) {
	s.notify(ctx, userID, newRouteInput(r))
}

// AnnounceRoute announces a new route to every user through the batched
// broadcast path.
func (s *NotificationService) AnnounceRoute(ctx context.Context, r Route) (FanOutResult, error) {
	return s.CreateForAllUsers(ctx, newRouteInput(r))
}

func newRouteInput(r Route) NotificationInput {
	return NotificationInput{
		Type:    models.NotificationTypeSystem,
		Title:   "New Route Available!",
		Message: fmt.Sprintf("New route available from %s to %s. Check it out!", r.From, r.To),
		Data:    map[string]interface{}{"from": r.From, "to": r.To},
	}
}

// CreateSystemWide sends a system notification to every user.
func (s *NotificationService) CreateSystemWide(ctx context.Context, title, message string, data map[string]interface{}) (FanOutResult, error) {
	payload := map[string]interface{}{"title": title, "message": message}
	for k, v := range data {
		payload[k] = v
	}
	return s.CreateForAllUsers(ctx, NotificationInput{
		Type:     models.NotificationTypeSystem,
		Title:    title,
		Message:  message,
		Data:     payload,
		Priority: models.PriorityMedium,
	})
}

// DepartureTime combines a "YYYY-MM-DD" journey date and an "HH:MM" departure in loc.
func DepartureTime(journeyDate, departure string, loc *time.Location) (time.Time, error) {
	day, err := time.ParseInLocation(models.JourneyDateLayout, journeyDate, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid journey date %q", journeyDate)
	}
	minutes, err := models.ParseClock(departure)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), minutes/60, minutes%60, 0, 0, loc), nil
}

func (s *NotificationService) notify(ctx context.Context, userID primitive.ObjectID, in NotificationInput) {
	if _, err := s.Create(ctx, userID, in); err != nil {
		s.logger.Error().Err(err).
			Str("user", userID.Hex()).
			Str("type", string(in.Type)).
			Msg("failed to create notification")
	}
}

func bookingData(booking *models.Booking, bus *models.Bus) map[string]interface{} {
	return map[string]interface{}{
		models.DataBookingID: booking.ID.Hex(),
		models.DataBusID:     bus.ID.Hex(),
		models.DataSeats:     booking.Seats,
	}
}

func joinSeats(seats []int) string {
	parts := make([]string, len(seats))
	for i, seat := range seats {
		parts[i] = strconv.Itoa(seat)
	}
	return strings.Join(parts, ", ")
}
