package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/busticket/busticket_backend/controllers"
)

// RegisterPreferencesRoutes registers the user preference routes
func RegisterPreferencesRoutes(api *echo.Group, pc *controllers.PreferencesController) {
	g := api.Group("/user-preferences")

	g.GET("", pc.GetPreferences)
	g.PUT("", pc.UpdatePreferences)
	g.PATCH("/notification-setting", pc.UpdateNotificationSetting)
	g.PATCH("/toggle-category", pc.ToggleCategory)
	g.PATCH("/quiet-hours", pc.UpdateQuietHours)
	g.DELETE("/reset", pc.ResetPreferences)
}
