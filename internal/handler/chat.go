package handler

import (
	"errors"
	"strconv"

	"github.com/Mohi32415/TaskMate/internal/middleware"
	"github.com/Mohi32415/TaskMate/internal/model"
	"github.com/Mohi32415/TaskMate/internal/repository"
	"github.com/Mohi32415/TaskMate/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ChatHandler struct {
	messageRepo   *repository.MessageRepository
	challengeRepo *repository.ChallengeRepository
	relay         *service.Relay
}

func NewChatHandler(messageRepo *repository.MessageRepository, challengeRepo *repository.ChallengeRepository, relay *service.Relay) *ChatHandler {
	return &ChatHandler{messageRepo: messageRepo, challengeRepo: challengeRepo, relay: relay}
}

// GET /api/challenges/:id/messages — full history, persisted order.
func (h *ChatHandler) GetHistory(c *fiber.Ctx) error {
	challengeID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid challenge ID"})
	}

	challenge, err := h.challengeRepo.GetByID(c.Context(), challengeID)
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "challenge not found"})
	}
	if !challenge.IsMember(middleware.UserID(c)) {
		return c.Status(403).JSON(fiber.Map{"error": "forbidden"})
	}

	msgs, err := h.messageRepo.GetByChallengeID(c.Context(), challengeID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to retrieve messages"})
	}
	if msgs == nil {
		msgs = []model.Message{}
	}
	return c.JSON(msgs)
}

// POST /api/challenges/:id/messages — the REST fallback the offline sync
// engine replays queued chat against. Same validate/persist/fan-out path
// as the websocket relay; idempotent by client_id.
func (h *ChatHandler) PostMessage(c *fiber.Ctx) error {
	challengeID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid challenge ID"})
	}

	var req model.PostMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}

	synced := req.Synced == nil || *req.Synced
	msg, err := h.relay.PostChat(c.Context(), middleware.UserID(c), challengeID, req.Content, req.ClientID, synced)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyMessage):
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, service.ErrChallengeNotFound):
			return c.Status(404).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, service.ErrNotMember):
			return c.Status(403).JSON(fiber.Map{"error": err.Error()})
		default:
			return c.Status(500).JSON(fiber.Map{"error": "failed to store message"})
		}
	}
	return c.Status(201).JSON(msg)
}
