package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bloom/internal/handlers"
	"bloom/internal/middleware"
	"bloom/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProtectedApp(t *testing.T) (*fiber.App, *services.TokenIssuer) {
	t.Helper()
	tokens, err := services.NewTokenIssuer("test_secret", time.Hour)
	require.NoError(t, err)
	auth := services.NewAuthService(nil, nil, nil, nil, tokens, false)

	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	app.Get("/me", middleware.AuthRequired(auth), func(c *fiber.Ctx) error {
		return c.SendString(middleware.UserID(c))
	})
	return app, tokens
}

func TestAuthRequired(t *testing.T) {
	app, tokens := newProtectedApp(t)
	token, _, err := tokens.Issue("user-1")
	require.NoError(t, err)

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		status int
	}{
		{"no token", func(r *http.Request) {}, fiber.StatusUnauthorized},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: middleware.TokenCookie, Value: token}) }, fiber.StatusOK},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }, fiber.StatusOK},
		{"bad scheme", func(r *http.Request) { r.Header.Set("Authorization", "Token "+token) }, fiber.StatusUnauthorized},
		{"garbage", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, fiber.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tt.setup(req)
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestRateLimiter(t *testing.T) {
	app := fiber.New()
	app.Get("/", middleware.NewRateLimiter(0.0001, 2).Handler(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	}
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
}
