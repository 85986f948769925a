package controllers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/busticket/busticket_backend/middleware"
	"github.com/busticket/busticket_backend/models"
	"github.com/busticket/busticket_backend/repositories"
	"github.com/busticket/busticket_backend/services"
)

func ok(c echo.Context, message string, data interface{}) error {
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: message,
		Data:    data,
	})
}

func fail(c echo.Context, status int, message string) error {
	return c.JSON(status, models.Response{
		Status:  status,
		Message: message,
	})
}

// serviceError maps the service error taxonomy onto HTTP. Internal details
// are logged and never returned.
func serviceError(c echo.Context, logger zerolog.Logger, err error) error {
	message := err.Error()
	var se *services.ServiceError
	if errors.As(err, &se) {
		message = se.Msg
	}

	switch {
	case errors.Is(err, services.ErrNotFound):
		return fail(c, http.StatusNotFound, message)
	case errors.Is(err, services.ErrInvalidArgument):
		return fail(c, http.StatusBadRequest, message)
	}
	logger.Error().Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("request failed")
	if se != nil {
		return fail(c, http.StatusInternalServerError, se.Msg)
	}
	return fail(c, http.StatusInternalServerError, "Internal server error")
}

// callerID returns the authenticated user's id.
func callerID(c echo.Context) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(middleware.GetUserIDFromToken(c))
}

func unauthorized(c echo.Context) error {
	return fail(c, http.StatusUnauthorized, "Unauthorized")
}

// decode binds the body into req and validates it. It returns a client
// message when the request is unusable.
func decode(c echo.Context, req interface{}) string {
	if err := c.Bind(req); err != nil {
		return "Invalid request body"
	}
	if err := c.Validate(req); err != nil {
		return err.Error()
	}
	return ""
}

// mapDirectoryError wraps an error from a directory repository that is used
// without a service in between.
func mapDirectoryError(err error, missing string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return &services.ServiceError{Kind: services.ErrNotFound, Msg: missing}
	}
	return &services.ServiceError{Kind: services.ErrInternal, Msg: "directory lookup failed", Err: err}
}
