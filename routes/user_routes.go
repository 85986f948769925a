package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/busticket/busticket_backend/controllers"
)

// RegisterUserRoutes registers the caller's account routes
func RegisterUserRoutes(api *echo.Group, nc *controllers.NotificationController) {
	g := api.Group("/users")

	// Device token used by the push channel
	g.POST("/fcm-token", nc.UpdateFCMToken)
}
