package handlers

import (
	"bloom/internal/middleware"
	"bloom/internal/services"

	"github.com/gofiber/fiber/v2"
)

// UserHandler handles signup and profile requests.
type UserHandler struct {
	userService   *services.UserService
	socialService *services.SocialService
}

func NewUserHandler(userService *services.UserService, socialService *services.SocialService) *UserHandler {
	return &UserHandler{userService: userService, socialService: socialService}
}

// RegisterRoutes registers the user routes. Fixed paths come before
// /users/:username so they are not captured by it.
func (h *UserHandler) RegisterRoutes(router fiber.Router, authRequired, limit fiber.Handler) {
	users := router.Group("/users")
	users.Post("/create", limit, h.HandleCreate)
	users.Get("/validate-username/:username", h.HandleValidateUsername)
	users.Get("/suggestions", authRequired, h.HandleSuggestions)
	users.Post("/follow/:username", authRequired, h.HandleFollow)
	users.Delete("/follow/:username", authRequired, h.HandleUnfollow)
	users.Get("/follow-status/:username", authRequired, h.HandleFollowStatus)
	users.Get("/:username", authRequired, h.HandleProfile)
}

func (h *UserHandler) HandleCreate(c *fiber.Ctx) error {
	input, err := services.DecodeSignup(c.Body())
	if err != nil {
		return err
	}
	result, err := h.userService.CreateUser(c.UserContext(), input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

func (h *UserHandler) HandleValidateUsername(c *fiber.Ctx) error {
	check, err := h.userService.ValidateUsername(c.UserContext(), c.Params("username"))
	if err != nil {
		return err
	}
	return c.JSON(check)
}

func (h *UserHandler) HandleSuggestions(c *fiber.Ctx) error {
	users, err := h.userService.SuggestUsers(c.UserContext(), middleware.UserID(c), c.QueryInt("count", 5))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"users": users})
}

func (h *UserHandler) HandleProfile(c *fiber.Ctx) error {
	profile, err := h.userService.GetUserProfile(c.UserContext(), middleware.UserID(c), c.Params("username"))
	if err != nil {
		return err
	}
	return c.JSON(profile)
}

func (h *UserHandler) HandleFollow(c *fiber.Ctx) error {
	if err := h.socialService.Follow(c.UserContext(), middleware.UserID(c), c.Params("username")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Followed successfully"})
}

func (h *UserHandler) HandleUnfollow(c *fiber.Ctx) error {
	if err := h.socialService.Unfollow(c.UserContext(), middleware.UserID(c), c.Params("username")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Unfollowed successfully"})
}

func (h *UserHandler) HandleFollowStatus(c *fiber.Ctx) error {
	following, err := h.socialService.IsFollowing(c.UserContext(), middleware.UserID(c), c.Params("username"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"isFollowing": following})
}
