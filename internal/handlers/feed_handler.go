package handlers

import (
	"bloom/internal/apperrors"
	"bloom/internal/middleware"
	"bloom/internal/services"

	"github.com/gofiber/fiber/v2"
)

// FeedHandler handles post requests.
type FeedHandler struct {
	feedService *services.FeedService
}

func NewFeedHandler(feedService *services.FeedService) *FeedHandler {
	return &FeedHandler{feedService: feedService}
}

func (h *FeedHandler) RegisterRoutes(router fiber.Router, authRequired fiber.Handler) {
	feed := router.Group("/feed", authRequired)
	feed.Post("/posts/create", h.HandleCreatePost)
	feed.Get("/posts/:username", h.HandleListPosts)
	feed.Get("/post/:postId", h.HandleGetPost)
}

func (h *FeedHandler) HandleCreatePost(c *fiber.Ctx) error {
	var input services.CreatePostInput
	if err := c.BodyParser(&input); err != nil {
		return apperrors.BadRequest("Invalid request body", "body")
	}
	post, err := h.feedService.CreatePost(c.UserContext(), middleware.UserID(c), input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Post created successfully",
		"post":    post,
	})
}

func (h *FeedHandler) HandleListPosts(c *fiber.Ctx) error {
	posts, err := h.feedService.GetPostsByUsername(c.UserContext(), c.Params("username"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"posts": posts})
}

func (h *FeedHandler) HandleGetPost(c *fiber.Ctx) error {
	post, err := h.feedService.GetPostByID(c.UserContext(), c.Params("postId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"post": post})
}
