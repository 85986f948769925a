package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/busticket/busticket_backend/controllers"
	"github.com/busticket/busticket_backend/models"
	"github.com/busticket/busticket_backend/websocket"
)

// Handlers bundles everything the route groups hang off.
type Handlers struct {
	Notifications *controllers.NotificationController
	Preferences   *controllers.PreferencesController
	Bookings      *controllers.BookingController
	Scheduler     *controllers.SchedulerController
	Hub           *websocket.Hub
	Gatherer      prometheus.Gatherer
}

// SetupRoutes configures all API routes. auth guards every /api route.
func SetupRoutes(e *echo.Echo, h Handlers, auth echo.MiddlewareFunc) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, models.Response{
			Status:  http.StatusOK,
			Message: "Server is healthy",
		})
	})
	if h.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(h.Gatherer, promhttp.HandlerOpts{})))
	}

	api := e.Group("/api")
	api.Use(auth)

	RegisterNotificationRoutes(api, h.Notifications)
	RegisterUserRoutes(api, h.Notifications)
	RegisterPreferencesRoutes(api, h.Preferences)
	RegisterBookingRoutes(api, h.Bookings)
	RegisterAdminRoutes(api, h.Notifications, h.Scheduler)

	if h.Hub != nil {
		api.GET("/ws", h.Hub.Handler())
	}
}
