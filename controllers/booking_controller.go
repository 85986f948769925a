package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/busticket/busticket_backend/models"
	"github.com/busticket/busticket_backend/services"
)

// BookingController exposes the booking calls that raise notifications.
type BookingController struct {
	bookings *services.BookingService
	logger   zerolog.Logger
}

func NewBookingController(bookings *services.BookingService, logger zerolog.Logger) *BookingController {
	return &BookingController{bookings: bookings, logger: logger}
}

func (bc *BookingController) BookSeat(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return unauthorized(c)
	}
	var req models.BookSeatRequest
	if msg := decode(c, &req); msg != "" {
		return fail(c, http.StatusBadRequest, msg)
	}

	booking, err := bc.bookings.BookSeat(c.Request().Context(), userID, req)
	if err != nil {
		return serviceError(c, bc.logger, err)
	}
	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Seat booked successfully",
		Data:    booking,
	})
}

func (bc *BookingController) CancelBooking(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return unauthorized(c)
	}
	bookingID, err := primitive.ObjectIDFromHex(c.Param("bookingId"))
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid booking ID")
	}

	booking, err := bc.bookings.Cancel(c.Request().Context(), userID, bookingID)
	if err != nil {
		return serviceError(c, bc.logger, err)
	}
	return ok(c, "Booking cancelled successfully", booking)
}
