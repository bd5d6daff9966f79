package handler

import (
	"time"

	"github.com/Mohi32415/TaskMate/internal/middleware"
	"github.com/Mohi32415/TaskMate/internal/repository"

	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	userRepo *repository.UserRepository
}

func NewUserHandler(userRepo *repository.UserRepository) *UserHandler {
	return &UserHandler{userRepo: userRepo}
}

// GET /api/user
func (h *UserHandler) Me(c *fiber.Ctx) error {
	user, err := h.userRepo.GetByID(c.Context(), middleware.UserID(c))
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "user not found"})
	}
	return c.JSON(user)
}

// PATCH /api/user — preference fields only.
func (h *UserHandler) UpdateSettings(c *fiber.Ctx) error {
	var req struct {
		DisplayName string `json:"display_name"`
		Language    string `json:"language"`
		Theme       string `json:"theme"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}

	user, err := h.userRepo.UpdateSettings(c.Context(), middleware.UserID(c), req.DisplayName, req.Language, req.Theme)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to update settings"})
	}
	return c.JSON(user)
}

// POST /api/user/synced — the sync engine reports a completed cycle.
func (h *UserHandler) MarkSynced(c *fiber.Ctx) error {
	now := time.Now()
	if err := h.userRepo.UpdateLastSynced(c.Context(), middleware.UserID(c), now); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to record sync"})
	}
	return c.JSON(fiber.Map{"last_synced": now})
}
