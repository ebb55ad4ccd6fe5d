package handlers

import (
	"encoding/json"
	"net/url"
	"time"

	"bloom/internal/apperrors"
	"bloom/internal/middleware"
	"bloom/internal/models"
	"bloom/internal/services"

	"github.com/gofiber/fiber/v2"
)

// SessionCookie carries the URL-escaped JSON session descriptor.
const SessionCookie = "siweSession"

// AuthHandler handles HTTP requests for wallet sign-in.
type AuthHandler struct {
	authService *services.AuthService
	secure      bool
}

// NewAuthHandler creates a new AuthHandler. secure marks cookies Secure.
func NewAuthHandler(authService *services.AuthService, secure bool) *AuthHandler {
	return &AuthHandler{authService: authService, secure: secure}
}

// RegisterRoutes registers the authentication routes.
func (h *AuthHandler) RegisterRoutes(router fiber.Router, limit fiber.Handler) {
	authRoutes := router.Group("/auth", limit)
	authRoutes.Get("/check-address", h.HandleCheckAddress)
	authRoutes.Get("/nonce", h.HandleNonce)
	authRoutes.Post("/login", h.HandleLogin)
	authRoutes.Post("/logout", h.HandleLogout)
}

func (h *AuthHandler) HandleCheckAddress(c *fiber.Ctx) error {
	status, err := h.authService.CheckAccountAddress(c.UserContext(), c.Query("address"), models.Chain(c.Query("chainId")))
	if err != nil {
		return err
	}
	return c.JSON(status)
}

func (h *AuthHandler) HandleNonce(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"nonce": h.authService.GenerateNonce()})
}

func (h *AuthHandler) cookie(name, value string, expires time.Time) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   h.secure,
		SameSite: fiber.CookieSameSiteStrictMode,
	}
}

// HandleLogin verifies a signed message and sets the session cookies.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req services.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.BadRequest("Invalid request body", "body")
	}

	result, err := h.authService.VerifyAndLogin(c.UserContext(), req)
	if err != nil {
		return err
	}

	session, err := json.Marshal(result.Session)
	if err != nil {
		return apperrors.Internal("Could not encode session", err)
	}
	c.Cookie(h.cookie(middleware.TokenCookie, result.Token, result.ExpiresAt))
	c.Cookie(h.cookie(SessionCookie, url.QueryEscape(string(session)), result.ExpiresAt))

	return c.JSON(fiber.Map{
		"message": "Login successful",
		"user":    result.User,
		"session": result.Session,
	})
}

// HandleLogout expires both session cookies.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	past := time.Unix(0, 0)
	c.Cookie(h.cookie(middleware.TokenCookie, "", past))
	c.Cookie(h.cookie(SessionCookie, "", past))
	return c.JSON(fiber.Map{"message": "Logged out"})
}
