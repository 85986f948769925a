package utils

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// PageParams reads page and limit query parameters. Missing or malformed
// values yield 0 so the caller applies its own defaults.
func PageParams(c echo.Context) (page, limit int) {
	if p, err := strconv.Atoi(c.QueryParam("page")); err == nil {
		page = p
	}
	if l, err := strconv.Atoi(c.QueryParam("limit")); err == nil {
		limit = l
	}
	return page, limit
}

// BoolParam reads a boolean query parameter, false when absent or malformed.
func BoolParam(c echo.Context, name string) bool {
	v, err := strconv.ParseBool(c.QueryParam(name))
	return err == nil && v
}
