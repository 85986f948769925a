package controllers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/busticket/busticket_backend/models"
	"github.com/busticket/busticket_backend/services"
	"github.com/busticket/busticket_backend/utils"
)

// NotificationController serves the caller's own notifications.
type NotificationController struct {
	notifications *services.NotificationService
	users         services.UserDirectory
	logger        zerolog.Logger
}

func NewNotificationController(notifications *services.NotificationService, users services.UserDirectory, logger zerolog.Logger) *NotificationController {
	return &NotificationController{
		notifications: notifications,
		users:         users,
		logger:        logger,
	}
}

// GetNotifications returns one page, newest first.
func (nc *NotificationController) GetNotifications(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return unauthorized(c)
	}
	page, limit := utils.PageParams(c)

	result, err := nc.notifications.List(c.Request().Context(), userID, page, limit, utils.BoolParam(c, "unreadOnly"))
	if err != nil {
		return serviceError(c, nc.logger, err)
	}
	return ok(c, "Notifications retrieved successfully", result)
}

// GetNotificationsSince returns notifications created after the "since" timestamp.
func (nc *NotificationController) GetNotificationsSince(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return unauthorized(c)
	}
	since, err := time.Parse(time.RFC3339, c.QueryParam("since"))
	if err != nil {
		return fail(c, http.StatusBadRequest, "since must be an RFC3339 timestamp")
	}
	_, limit := utils.PageParams(c)

	items, err := nc.notifications.ListSince(c.Request().Context(), userID, since, limit)
	if err != nil {
		return serviceError(c, nc.logger, err)
	}
	return ok(c, "Notifications retrieved successfully", map[string]interface{}{
		"notifications": items,
		"serverTime":    time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func (nc *NotificationController) GetUnreadCount(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return unauthorized(c)
	}
	count, err := nc.notifications.CountUnread(c.Request().Context(), userID)
	if err != nil {
		return serviceError(c, nc.logger, err)
	}
	return ok(c, "Unread count retrieved", map[string]int64{"count": count})
}

func (nc *NotificationController) MarkAsRead(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := primitive.ObjectIDFromHex(c.Param("notificationId"))
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid notification ID")
	}

	n, err := nc.notifications.MarkRead(c.Request().Context(), userID, id)
	if err != nil {
		return serviceError(c, nc.logger, err)
	}
	return ok(c, "Notification marked as read", n)
}

func (nc *NotificationController) MarkAllAsRead(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return unauthorized(c)
	}
	modified, err := nc.notifications.MarkAllRead(c.Request().Context(), userID)
	if err != nil {
		return serviceError(c, nc.logger, err)
	}
	return ok(c, "All notifications marked as read", map[string]int64{"modifiedCount": modified})
}

func (nc *NotificationController) DeleteNotification(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := primitive.ObjectIDFromHex(c.Param("notificationId"))
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid notification ID")
	}

	if _, err := nc.notifications.Delete(c.Request().Context(), userID, id); err != nil {
		return serviceError(c, nc.logger, err)
	}
	return ok(c, "Notification deleted successfully", nil)
}

// UpdateFCMToken stores the device token push delivery uses.
func (nc *NotificationController) UpdateFCMToken(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return unauthorized(c)
	}
	var req models.FCMTokenUpdateRequest
	if msg := decode(c, &req); msg != "" {
		return fail(c, http.StatusBadRequest, msg)
	}

	if err := nc.users.UpdateFCMToken(c.Request().Context(), userID, req.FCMToken); err != nil {
		return serviceError(c, nc.logger, mapDirectoryError(err, "user not found"))
	}
	return ok(c, "FCM token updated successfully", nil)
}

// BroadcastRequest is an admin announcement to every user.
type BroadcastRequest struct {
	Title   string                 `json:"title" validate:"required,max=120"`
	Message string                 `json:"message" validate:"required,max=1000"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

// Broadcast sends a system notification to every user.
func (nc *NotificationController) Broadcast(c echo.Context) error {
	var req BroadcastRequest
	if msg := decode(c, &req); msg != "" {
		return fail(c, http.StatusBadRequest, msg)
	}

	result, err := nc.notifications.CreateSystemWide(c.Request().Context(), utils.SanitizeInput(req.Title), utils.SanitizeInput(req.Message), req.Data)
	if err != nil {
		return serviceError(c, nc.logger, err)
	}
	return ok(c, "Broadcast sent", result)
}

// AnnounceRoute tells every user about a new route.
func (nc *NotificationController) AnnounceRoute(c echo.Context) error {
	var req services.Route
	if msg := decode(c, &req); msg != "" {
		return fail(c, http.StatusBadRequest, msg)
	}

	result, err := nc.notifications.AnnounceRoute(c.Request().Context(), services.Route{
		From: utils.SanitizeInput(req.From),
		To:   utils.SanitizeInput(req.To),
	})
	if err != nil {
		return serviceError(c, nc.logger, err)
	}
	return ok(c, "Route announced", result)
}
