package handlers

import (
	"time"

	"bloom/internal/middleware"
	"bloom/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// csrfContextKey is the locals key the csrf middleware stores its token under.
const csrfContextKey = "csrf"

// Options wires the services into the HTTP app. Media may be nil when object
// storage is not configured; the upload route is then not registered.
type Options struct {
	Auth   *services.AuthService
	Users  *services.UserService
	Social *services.SocialService
	Feed   *services.FeedService
	Media  *services.MediaService

	Production   bool
	ClientOrigin string
	CSRF         bool
	// RateLimiter throttles the auth and signup routes. Nil disables it.
	RateLimiter *middleware.RateLimiter
	// Health is reported on /health next to the server status.
	Health func() fiber.Map
}

func passThrough(c *fiber.Ctx) error { return c.Next() }

// NewApp builds the fiber app with every route mounted under /api.
func NewApp(opts Options) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "bloom",
		ErrorHandler: ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	if opts.ClientOrigin != "" {
		app.Use(cors.New(cors.Config{
			AllowOrigins:     opts.ClientOrigin,
			AllowCredentials: true,
			AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Csrf-Token",
		}))
	}
	if opts.CSRF {
		app.Use(csrf.New(csrf.Config{
			KeyLookup:      "header:X-Csrf-Token",
			CookieName:     "csrf_",
			CookieSameSite: "Strict",
			CookieSecure:   opts.Production,
			CookieHTTPOnly: true,
			Expiration:     time.Hour,
			ContextKey:     csrfContextKey,
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		body := fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		}
		if opts.Health != nil {
			for k, v := range opts.Health() {
				body[k] = v
			}
		}
		return c.JSON(body)
	})

	limit := fiber.Handler(passThrough)
	if opts.RateLimiter != nil {
		limit = opts.RateLimiter.Handler()
	}
	authRequired := middleware.AuthRequired(opts.Auth)

	api := app.Group("/api")
	api.Get("/security/csrf-token", func(c *fiber.Ctx) error {
		token, _ := c.Locals(csrfContextKey).(string)
		return c.JSON(fiber.Map{"csrfToken": token})
	})

	NewAuthHandler(opts.Auth, opts.Production).RegisterRoutes(api, limit)
	NewUserHandler(opts.Users, opts.Social).RegisterRoutes(api, authRequired, limit)
	NewFeedHandler(opts.Feed).RegisterRoutes(api, authRequired)
	if opts.Media != nil {
		NewMediaHandler(opts.Media).RegisterRoutes(api, authRequired)
	}

	return app
}
