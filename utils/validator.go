// utils/validator.go
package utils

import (
	"html"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/busticket/busticket_backend/models"
)

// CustomValidator is a custom validator for Echo
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator returns the request validator with the hhmm tag registered.
func NewValidator() *CustomValidator {
	v := validator.New()
	_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		_, err := models.ParseClock(fl.Field().String())
		return err == nil
	})
	return &CustomValidator{validator: v}
}

// Validate validates the request body
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// SanitizeInput trims, escapes HTML and strips control characters.
func SanitizeInput(input string) string {
	input = html.EscapeString(strings.TrimSpace(input))
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, input)
}
