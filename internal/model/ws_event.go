package model

import "encoding/json"

// Realtime event types carried in the WSEvent envelope.
const (
	EventAuth              = "auth"
	EventAuthSuccess       = "auth_success"
	EventChatMessage       = "chat_message"
	EventChallengeProgress = "challenge_progress"
	EventError             = "error"
)

// WSEvent is the wire envelope for every realtime frame. Server-to-client
// events carry their body in Payload; client-to-server chat frames use the
// flat ChallengeID/Content/ClientID fields.
type WSEvent struct {
	Type        string          `json:"type"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	UserID      int64           `json:"userId,omitempty"`
	ChallengeID int64           `json:"challengeId,omitempty"`
	Content     string          `json:"content,omitempty"`
	ClientID    string          `json:"clientId,omitempty"`
}

// NewWSEvent marshals payload into an envelope of the given type.
// A payload that fails to marshal yields an envelope with no payload.
func NewWSEvent(eventType string, payload any) *WSEvent {
	ev := &WSEvent{Type: eventType}
	if payload != nil {
		if data, err := json.Marshal(payload); err == nil {
			ev.Payload = data
		}
	}
	return ev
}

// NewErrorEvent wraps a human-readable reason in an error envelope.
func NewErrorEvent(reason string) *WSEvent {
	return NewWSEvent(EventError, reason)
}

// ProgressNotification is the payload of a challenge_progress event.
type ProgressNotification struct {
	ChallengeID int64  `json:"challengeId"`
	Message     string `json:"message"`
	Date        string `json:"date"`
}
