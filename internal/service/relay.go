package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/Mohi32415/TaskMate/internal/metrics"
	"github.com/Mohi32415/TaskMate/internal/model"
)

var (
	ErrChallengeNotFound = errors.New("challenge not found")
	ErrNotMember         = errors.New("unauthorized access to challenge")
	ErrEmptyMessage      = errors.New("invalid message format")
)

// ChallengeGetter resolves a challenge for membership checks.
type ChallengeGetter interface {
	GetByID(ctx context.Context, id int64) (*model.Challenge, error)
}

// MessageCreator persists validated chat messages.
type MessageCreator interface {
	Create(ctx context.Context, challengeID, userID int64, content, clientID string, synced bool) (*model.Message, error)
}

// Relay validates inbound realtime events, persists chat messages, and
// fans them out through the hub. Persist happens before delivery, so an
// offline recipient never loses a message: the stored row remains
// queryable via the history endpoint.
type Relay struct {
	hub        *Hub
	challenges ChallengeGetter
	messages   MessageCreator
}

func NewRelay(hub *Hub, challenges ChallengeGetter, messages MessageCreator) *Relay {
	return &Relay{hub: hub, challenges: challenges, messages: messages}
}

// HandleEvent processes one inbound frame from a connection. Unparseable
// frames are dropped; the connection survives every failure here.
func (r *Relay) HandleEvent(ctx context.Context, c *Client, raw []byte) {
	var ev model.WSEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return
	}

	switch ev.Type {
	case model.EventAuth:
		r.handleAuth(c, &ev)
	case model.EventChatMessage:
		r.handleChat(ctx, c, &ev)
	default:
		r.hub.SendTo(c, model.NewErrorEvent("unknown event type: "+ev.Type))
	}
}

// handleAuth acknowledges the legacy post-connect auth frame. The
// connection is already bound during the upgrade handshake, so the frame
// only binds when nothing is bound yet, and a conflicting claim is an
// error instead of a silent rebind.
func (r *Relay) handleAuth(c *Client, ev *model.WSEvent) {
	bound := r.hub.UserID(c)
	switch {
	case bound == 0 && ev.UserID == 0:
		// Nothing established by the handshake and nothing claimed here:
		// success would be a lie.
		r.hub.SendTo(c, model.NewErrorEvent("auth requires a user id"))
		return
	case bound == 0:
		r.hub.Bind(c, ev.UserID)
	case ev.UserID != 0 && ev.UserID != bound:
		r.hub.SendTo(c, model.NewErrorEvent("auth identity mismatch"))
		return
	}
	r.hub.SendTo(c, &model.WSEvent{Type: model.EventAuthSuccess})
}

func (r *Relay) handleChat(ctx context.Context, c *Client, ev *model.WSEvent) {
	senderID := r.hub.UserID(c)
	if senderID == 0 {
		r.hub.SendTo(c, model.NewErrorEvent("not authenticated"))
		return
	}

	if _, err := r.PostChat(ctx, senderID, ev.ChallengeID, ev.Content, ev.ClientID, true); err != nil {
		r.hub.SendTo(c, model.NewErrorEvent(err.Error()))
	}
}

// PostChat is the single chat write path, shared by the websocket relay
// and the REST fallback the sync engine replays against. It validates
// membership, persists the message (idempotently by clientID), and fans
// the persisted record out to every member — sender included, so other
// tabs of the same user stay consistent and the echoed clientId lets the
// sending tab replace its optimistic entry.
func (r *Relay) PostChat(ctx context.Context, senderID, challengeID int64, content, clientID string, synced bool) (*model.Message, error) {
	if challengeID == 0 || content == "" {
		metrics.ChatRejected.Inc()
		return nil, ErrEmptyMessage
	}

	challenge, err := r.challenges.GetByID(ctx, challengeID)
	if err != nil {
		metrics.ChatRejected.Inc()
		return nil, ErrChallengeNotFound
	}
	if !challenge.IsMember(senderID) {
		metrics.ChatRejected.Inc()
		return nil, ErrNotMember
	}

	msg, err := r.messages.Create(ctx, challengeID, senderID, content, clientID, synced)
	if err != nil {
		log.Printf("[Chat] store message: %v", err)
		return nil, errors.New("failed to store message")
	}
	metrics.ChatRelayed.Inc()

	out := model.NewWSEvent(model.EventChatMessage, msg)
	for _, userID := range challenge.Members() {
		r.hub.Deliver(userID, out)
	}
	return msg, nil
}

// NotifyChallengeProgress pushes a challenge_progress event to one user.
// Used by the REST progress endpoint after a persisted write; delivery is
// best-effort.
func (r *Relay) NotifyChallengeProgress(userID int64, n model.ProgressNotification) {
	r.hub.Deliver(userID, model.NewWSEvent(model.EventChallengeProgress, n))
}
