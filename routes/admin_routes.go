package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/busticket/busticket_backend/controllers"
	"github.com/busticket/busticket_backend/middleware"
)

// RegisterAdminRoutes sets up the admin-only notification and scheduler routes
func RegisterAdminRoutes(api *echo.Group, nc *controllers.NotificationController, sc *controllers.SchedulerController) {
	admin := api.Group("/admin")
	admin.Use(middleware.RequireAdmin())

	admin.POST("/notifications/broadcast", nc.Broadcast)
	admin.POST("/notifications/new-route", nc.AnnounceRoute)

	if sc != nil {
		admin.GET("/scheduler", sc.Status)
		admin.POST("/scheduler/:job/run", sc.RunJob)
	}
}
