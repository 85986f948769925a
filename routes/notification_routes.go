package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/busticket/busticket_backend/controllers"
)

// RegisterNotificationRoutes registers the caller's notification routes
func RegisterNotificationRoutes(api *echo.Group, nc *controllers.NotificationController) {
	g := api.Group("/notifications")

	g.GET("", nc.GetNotifications)
	g.GET("/unread-count", nc.GetUnreadCount)
	g.GET("/since", nc.GetNotificationsSince)
	g.PATCH("/mark-all-read", nc.MarkAllAsRead)
	g.PATCH("/:notificationId/read", nc.MarkAsRead)
	g.DELETE("/:notificationId", nc.DeleteNotification)
}
