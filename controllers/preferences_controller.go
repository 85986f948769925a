package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/busticket/busticket_backend/models"
	"github.com/busticket/busticket_backend/services"
)

type PreferencesController struct {
	preferences *services.PreferencesService
	logger      zerolog.Logger
}

func NewPreferencesController(preferences *services.PreferencesService, logger zerolog.Logger) *PreferencesController {
	return &PreferencesController{preferences: preferences, logger: logger}
}

// GetPreferences returns the caller's preferences, creating defaults on first use.
func (pc *PreferencesController) GetPreferences(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return unauthorized(c)
	}
	prefs, err := pc.preferences.Get(c.Request().Context(), userID)
	if err != nil {
		return serviceError(c, pc.logger, err)
	}
	return ok(c, "User preferences retrieved successfully", prefs)
}

func (pc *PreferencesController) UpdatePreferences(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return unauthorized(c)
	}
	var req models.PreferencesUpdate
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}

	prefs, err := pc.preferences.Replace(c.Request().Context(), userID, req)
	if err != nil {
		return serviceError(c, pc.logger, err)
	}
	return ok(c, "User preferences updated successfully", prefs)
}

func (pc *PreferencesController) UpdateNotificationSetting(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return unauthorized(c)
	}
	var req models.NotificationSettingRequest
	if msg := decode(c, &req); msg != "" {
		return fail(c, http.StatusBadRequest, "Invalid parameters. Required: category, type, enabled")
	}

	prefs, err := pc.preferences.SetNotificationType(c.Request().Context(), userID, req.Category, req.Type, *req.Enabled)
	if err != nil {
		return serviceError(c, pc.logger, err)
	}
	return ok(c, "Notification setting updated successfully", prefs)
}

func (pc *PreferencesController) ToggleCategory(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return unauthorized(c)
	}
	var req models.ToggleCategoryRequest
	if msg := decode(c, &req); msg != "" {
		return fail(c, http.StatusBadRequest, "Invalid parameters. Required: category, enabled")
	}

	prefs, err := pc.preferences.ToggleCategory(c.Request().Context(), userID, req.Category, *req.Enabled)
	if err != nil {
		return serviceError(c, pc.logger, err)
	}
	return ok(c, "Notification category toggled successfully", prefs)
}

func (pc *PreferencesController) UpdateQuietHours(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return unauthorized(c)
	}
	var req models.QuietHoursRequest
	if msg := decode(c, &req); msg != "" {
		return fail(c, http.StatusBadRequest, "Invalid parameters. Required: enabled (boolean), start and end as HH:MM")
	}

	prefs, err := pc.preferences.SetQuietHours(c.Request().Context(), userID, *req.Enabled, req.Start, req.End)
	if err != nil {
		return serviceError(c, pc.logger, err)
	}
	return ok(c, "Quiet hours updated successfully", prefs)
}

func (pc *PreferencesController) ResetPreferences(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return unauthorized(c)
	}
	prefs, err := pc.preferences.Reset(c.Request().Context(), userID)
	if err != nil {
		return serviceError(c, pc.logger, err)
	}
	return ok(c, "User preferences reset to defaults successfully", prefs)
}
