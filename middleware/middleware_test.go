package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

const testSecret = "test-secret"

func whoAmI(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"userId":  GetUserIDFromToken(c),
		"isAdmin": IsAdmin(c),
	})
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTMiddleware(t *testing.T) {
	e := echo.New()
	e.GET("/me", whoAmI, JWTMiddleware(testSecret, zerolog.Nop()))

	token, err := GenerateJWT(testSecret, "65f1a2b3c4d5e6f708192a3b", "asha@example.com", false, time.Hour)
	require.NoError(t, err)

	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
		rec := serve(e, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"userId":"65f1a2b3c4d5e6f708192a3b"`)
	})

	t.Run("query parameter", func(t *testing.T) {
		rec := serve(e, httptest.NewRequest(http.MethodGet, "/me?token="+token, nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		rec := serve(e, httptest.NewRequest(http.MethodGet, "/me", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong secret", func(t *testing.T) {
		forged, err := GenerateJWT("other", "65f1a2b3c4d5e6f708192a3b", "", true, time.Hour)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+forged)
		assert.Equal(t, http.StatusUnauthorized, serve(e, req).Code)
	})

	t.Run("expired", func(t *testing.T) {
		claims := JwtCustomClaims{UserID: "x"}
		claims.ExpiresAt = time.Now().Add(-time.Minute).Unix()
		assert.Error(t, claims.Valid())
	})
}

func TestJWTMiddlewareWithoutSecret(t *testing.T) {
	e := echo.New()
	e.GET("/me", whoAmI, JWTMiddleware("", zerolog.Nop()))
	assert.Equal(t, http.StatusUnauthorized, serve(e, httptest.NewRequest(http.MethodGet, "/me", nil)).Code)
}

func TestRequireAdmin(t *testing.T) {
	e := echo.New()
	e.GET("/admin", whoAmI, JWTMiddleware(testSecret, zerolog.Nop()), RequireAdmin())

	userToken, err := GenerateJWT(testSecret, "u1", "", false, 0)
	require.NoError(t, err)
	adminToken, err := GenerateJWT(testSecret, "a1", "", true, 0)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+userToken)
	assert.Equal(t, http.StatusForbidden, serve(e, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+adminToken)
	assert.Equal(t, http.StatusOK, serve(e, req).Code)
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter()
	limiter.SetEndpointLimit("/ping", rate.Every(time.Hour), 2)

	e := echo.New()
	e.GET("/ping", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, limiter.RateLimit())
	e.GET("/other", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, limiter.RateLimit())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, serve(e, httptest.NewRequest(http.MethodGet, "/ping", nil)).Code)
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)

	// The client stays blocked on every route.
	assert.Equal(t, http.StatusTooManyRequests, serve(e, httptest.NewRequest(http.MethodGet, "/other", nil)).Code)
}

func TestSecurityHeaders(t *testing.T) {
	e := echo.New()
	e.Use(SecurityHeaders(SecurityConfig{HSTS: true}))
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "default-src 'none'")
}

func TestRequestLoggerSetsRequestID(t *testing.T) {
	e := echo.New()
	e.Use(RequestLogger(zerolog.Nop()))
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, rec.Header().Get(echo.HeaderXRequestID), 36)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderXRequestID, "abc")
	assert.Equal(t, "abc", serve(e, req).Header().Get(echo.HeaderXRequestID))
}
