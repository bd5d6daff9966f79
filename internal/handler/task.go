package handler

import (
	"log"
	"strconv"
	"time"

	"github.com/Mohi32415/TaskMate/internal/middleware"
	"github.com/Mohi32415/TaskMate/internal/model"
	"github.com/Mohi32415/TaskMate/internal/repository"
	"github.com/Mohi32415/TaskMate/internal/service"

	"github.com/gofiber/fiber/v2"
)

type TaskHandler struct {
	taskRepo *repository.TaskRepository
}

func NewTaskHandler(taskRepo *repository.TaskRepository) *TaskHandler {
	return &TaskHandler{taskRepo: taskRepo}
}

// POST /api/tasks
func (h *TaskHandler) Create(c *fiber.Ctx) error {
	var req model.CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Title == "" || req.CategoryID == 0 {
		return c.Status(400).JSON(fiber.Map{"error": "title and category_id are required"})
	}

	task, err := h.taskRepo.Create(c.Context(), middleware.UserID(c), &req)
	if err != nil {
		log.Printf("[Task] create: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to create task"})
	}
	return c.Status(201).JSON(task)
}

// GET /api/tasks
func (h *TaskHandler) List(c *fiber.Ctx) error {
	tasks, err := h.taskRepo.GetByUserID(c.Context(), middleware.UserID(c))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to retrieve tasks"})
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return c.JSON(tasks)
}

// DELETE /api/tasks/:id
func (h *TaskHandler) Delete(c *fiber.Ctx) error {
	task, status := h.ownedTask(c)
	if task == nil {
		return status
	}
	if err := h.taskRepo.Delete(c.Context(), task.ID); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to delete task"})
	}
	return c.JSON(fiber.Map{"ok": true})
}

// POST /api/tasks/:id/progress
//
// Replayed by the offline sync engine with synced=true; one row per
// task-day, a later submission for the same day overwrites.
func (h *TaskHandler) PostProgress(c *fiber.Ctx) error {
	task, status := h.ownedTask(c)
	if task == nil {
		return status
	}

	var req model.ProgressRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}

	date, ok := progressDate(req.Date)
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "invalid date"})
	}

	feedback := service.ProgressFeedback(req.Value, task.UnitValue)
	synced := req.Synced == nil || *req.Synced

	progress, err := h.taskRepo.UpsertProgress(c.Context(), task.ID, date, req.Value, feedback, synced)
	if err != nil {
		log.Printf("[Task] save progress: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to save progress"})
	}
	return c.Status(201).JSON(progress)
}

// GET /api/tasks/:id/progress
func (h *TaskHandler) GetProgress(c *fiber.Ctx) error {
	task, status := h.ownedTask(c)
	if task == nil {
		return status
	}

	progress, err := h.taskRepo.GetProgress(c.Context(), task.ID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to retrieve progress"})
	}
	if progress == nil {
		progress = []model.TaskProgress{}
	}
	return c.JSON(progress)
}

// ownedTask resolves the :id task and checks ownership. On failure it
// returns (nil, responseError) with the response already written.
func (h *TaskHandler) ownedTask(c *fiber.Ctx) (*model.Task, error) {
	taskID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return nil, c.Status(400).JSON(fiber.Map{"error": "invalid task ID"})
	}

	task, err := h.taskRepo.GetByID(c.Context(), taskID)
	if err != nil {
		return nil, c.Status(404).JSON(fiber.Map{"error": "task not found"})
	}
	if task.UserID != middleware.UserID(c) {
		return nil, c.Status(403).JSON(fiber.Map{"error": "forbidden"})
	}
	return task, nil
}

// progressDate parses an optional yyyy-mm-dd (or RFC3339) date, defaulting
// to today.
func progressDate(raw *string) (time.Time, bool) {
	if raw == nil || *raw == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), true
	}
	if d, err := time.Parse("2006-01-02", *raw); err == nil {
		return d, true
	}
	if d, err := time.Parse(time.RFC3339, *raw); err == nil {
		return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}
