package handlers

import (
	"errors"
	"log"

	"bloom/internal/apperrors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

// ErrorHandler renders every error as {status, reason, message, cause}.
// Internal details are logged, never returned.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := "Something went wrong"
	var cause interface{}

	var appErr *apperrors.Error
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &appErr):
		status = appErr.Kind.Status()
		if appErr.Kind == apperrors.KindInternal {
			log.Printf("Internal error on %s %s: %v", c.Method(), c.Path(), err)
		}
		message = appErr.Message
		if appErr.Cause != "" {
			cause = appErr.Cause
		}
	case errors.As(err, &fiberErr):
		status = fiberErr.Code
		message = fiberErr.Message
	default:
		log.Printf("Unhandled error on %s %s: %v", c.Method(), c.Path(), err)
	}

	return c.Status(status).JSON(fiber.Map{
		"status":  status,
		"reason":  utils.StatusMessage(status),
		"message": message,
		"cause":   cause,
	})
}
