package handler

import (
	"errors"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/Mohi32415/TaskMate/internal/middleware"
	"github.com/Mohi32415/TaskMate/internal/model"
	"github.com/Mohi32415/TaskMate/internal/repository"
	"github.com/Mohi32415/TaskMate/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ChallengeHandler struct {
	challengeRepo *repository.ChallengeRepository
	userRepo      *repository.UserRepository
	relay         *service.Relay
}

func NewChallengeHandler(challengeRepo *repository.ChallengeRepository, userRepo *repository.UserRepository, relay *service.Relay) *ChallengeHandler {
	return &ChallengeHandler{challengeRepo: challengeRepo, userRepo: userRepo, relay: relay}
}

// POST /api/challenges
func (h *ChallengeHandler) Create(c *fiber.Ctx) error {
	var req model.CreateChallengeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Title == "" || req.CategoryID == 0 {
		return c.Status(400).JSON(fiber.Map{"error": "title and category_id are required"})
	}

	inviteCode := strings.Split(uuid.NewString(), "-")[0]
	challenge, err := h.challengeRepo.Create(c.Context(), middleware.UserID(c), inviteCode, &req)
	if err != nil {
		log.Printf("[Challenge] create: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to create challenge"})
	}
	return c.Status(201).JSON(challenge)
}

// GET /api/challenges
func (h *ChallengeHandler) List(c *fiber.Ctx) error {
	challenges, err := h.challengeRepo.GetByUserID(c.Context(), middleware.UserID(c))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to retrieve challenges"})
	}
	if challenges == nil {
		challenges = []model.Challenge{}
	}
	return c.JSON(challenges)
}

// GET /api/challenges/:id
func (h *ChallengeHandler) Get(c *fiber.Ctx) error {
	challenge, status := h.memberChallenge(c)
	if challenge == nil {
		return status
	}
	return c.JSON(challenge)
}

// PATCH /api/challenges/:id
//
// Status changes (accept/decline/complete) may come from either party;
// anything else is creator-only.
func (h *ChallengeHandler) Update(c *fiber.Ctx) error {
	challengeID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid challenge ID"})
	}

	challenge, err := h.challengeRepo.GetByID(c.Context(), challengeID)
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "challenge not found"})
	}

	var req model.UpdateChallengeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}

	userID := middleware.UserID(c)
	if req.Status != nil {
		if !challenge.IsMember(userID) {
			return c.Status(403).JSON(fiber.Map{"error": "forbidden"})
		}
	} else if challenge.CreatorID != userID {
		return c.Status(403).JSON(fiber.Map{"error": "forbidden"})
	}

	updated, err := h.challengeRepo.Update(c.Context(), challengeID, &req)
	if err != nil {
		log.Printf("[Challenge] update: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to update challenge"})
	}
	return c.JSON(updated)
}

// POST /api/challenges/join/:code — accept an invite by code.
func (h *ChallengeHandler) Join(c *fiber.Ctx) error {
	challenge, err := h.challengeRepo.GetByInviteCode(c.Context(), c.Params("code"))
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "challenge not found"})
	}

	userID := middleware.UserID(c)
	if challenge.CreatorID == userID {
		return c.Status(400).JSON(fiber.Map{"error": "cannot join your own challenge"})
	}
	if challenge.ParticipantID != nil {
		return c.Status(409).JSON(fiber.Map{"error": "challenge already has a participant"})
	}

	status := model.ChallengeActive
	updated, err := h.challengeRepo.Update(c.Context(), challenge.ID, &model.UpdateChallengeRequest{
		ParticipantID: &userID,
		Status:        &status,
	})
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to join challenge"})
	}
	return c.JSON(updated)
}

// POST /api/challenges/:id/progress
//
// One submission per member per day; the other member gets a realtime
// challenge_progress notification after the write is persisted.
func (h *ChallengeHandler) PostProgress(c *fiber.Ctx) error {
	challenge, status := h.memberChallenge(c)
	if challenge == nil {
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

	userID := middleware.UserID(c)
	synced := req.Synced == nil || *req.Synced

	progress, err := h.challengeRepo.CreateProgress(c.Context(), challenge.ID, userID, date, req.Value, synced)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return c.Status(400).JSON(fiber.Map{"error": "progress already submitted for today"})
		}
		log.Printf("[Challenge] save progress: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to save progress"})
	}

	if otherID := challenge.OtherMember(userID); otherID != 0 {
		name := "Your partner"
		if user, err := h.userRepo.GetByID(c.Context(), userID); err == nil {
			name = user.Name()
		}
		h.relay.NotifyChallengeProgress(otherID, model.ProgressNotification{
			ChallengeID: challenge.ID,
			Message:     name + " has completed their challenge for today!",
			Date:        time.Now().Format("2006-01-02"),
		})
	}

	return c.Status(201).JSON(progress)
}

// GET /api/challenges/:id/progress
func (h *ChallengeHandler) GetProgress(c *fiber.Ctx) error {
	challenge, status := h.memberChallenge(c)
	if challenge == nil {
		return status
	}

	progress, err := h.challengeRepo.GetProgressByUser(c.Context(), challenge.ID, middleware.UserID(c))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to retrieve progress"})
	}
	if progress == nil {
		progress = []model.ChallengeProgress{}
	}
	return c.JSON(progress)
}

// memberChallenge resolves the :id challenge and checks membership. On
// failure it returns (nil, responseError) with the response written.
func (h *ChallengeHandler) memberChallenge(c *fiber.Ctx) (*model.Challenge, error) {
	challengeID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return nil, c.Status(400).JSON(fiber.Map{"error": "invalid challenge ID"})
	}

	challenge, err := h.challengeRepo.GetByID(c.Context(), challengeID)
	if err != nil {
		return nil, c.Status(404).JSON(fiber.Map{"error": "challenge not found"})
	}
	if !challenge.IsMember(middleware.UserID(c)) {
		return nil, c.Status(403).JSON(fiber.Map{"error": "forbidden"})
	}
	return challenge, nil
}
