package handlers

import (
	"bloom/internal/apperrors"
	"bloom/internal/middleware"
	"bloom/internal/services"

	"github.com/gofiber/fiber/v2"
)

// MediaHandler hands out presigned upload URLs.
type MediaHandler struct {
	mediaService *services.MediaService
}

func NewMediaHandler(mediaService *services.MediaService) *MediaHandler {
	return &MediaHandler{mediaService: mediaService}
}

func (h *MediaHandler) RegisterRoutes(router fiber.Router, authRequired fiber.Handler) {
	router.Post("/media/upload-url", authRequired, h.HandleUploadURL)
}

type uploadRequest struct {
	ContentType string `json:"contentType"`
}

func (h *MediaHandler) HandleUploadURL(c *fiber.Ctx) error {
	var req uploadRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.BadRequest("Invalid request body", "body")
	}
	upload, err := h.mediaService.CreateUploadURL(c.UserContext(), middleware.UserID(c), req.ContentType)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(upload)
}
