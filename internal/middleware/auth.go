package middleware

import (
	"strings"

	"bloom/internal/apperrors"
	"bloom/internal/services"

	"github.com/gofiber/fiber/v2"
)

// TokenCookie is the name of the cookie carrying the session token.
const TokenCookie = "token"

// UserIDKey is the fiber.Ctx locals key holding the authenticated user id.
const UserIDKey = "user_id"

// AuthRequired is a Fiber middleware to check for a valid session token.
// The token is read from the token cookie, falling back to a Bearer header.
func AuthRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(TokenCookie)
		if token == "" {
			authHeader := c.Get(fiber.HeaderAuthorization)
			if authHeader == "" {
				return apperrors.Unauthorized("No token provided")
			}
			// Expected format: "Bearer <token>"
			parts := strings.SplitN(authHeader, " ", 2)
			if !(len(parts) == 2 && parts[0] == "Bearer") {
				return apperrors.Unauthorized("Authorization header format must be 'Bearer <token>'")
			}
			token = parts[1]
		}

		claims, err := authService.ValidateToken(token)
		if err != nil {
			return err
		}

		c.Locals(UserIDKey, claims.UserID)
		return c.Next()
	}
}

// UserID returns the authenticated user id stored by AuthRequired.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(UserIDKey).(string)
	return id
}
