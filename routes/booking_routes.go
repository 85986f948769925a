package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/busticket/busticket_backend/controllers"
)

func RegisterBookingRoutes(api *echo.Group, bc *controllers.BookingController) {
	g := api.Group("/bookings")

	g.POST("/book-seat", bc.BookSeat)
	g.POST("/:bookingId/cancel", bc.CancelBooking)
}
