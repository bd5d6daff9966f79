package handler

import (
	"github.com/Mohi32415/TaskMate/internal/model"
	"github.com/Mohi32415/TaskMate/internal/repository"

	"github.com/gofiber/fiber/v2"
)

type CategoryHandler struct {
	categoryRepo *repository.CategoryRepository
}

func NewCategoryHandler(categoryRepo *repository.CategoryRepository) *CategoryHandler {
	return &CategoryHandler{categoryRepo: categoryRepo}
}

// GET /api/categories
func (h *CategoryHandler) List(c *fiber.Ctx) error {
	cats, err := h.categoryRepo.List(c.Context())
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to retrieve categories"})
	}
	if cats == nil {
		cats = []model.Category{}
	}
	return c.JSON(cats)
}
