package model

import "time"

// Message is a persisted chat message between challenge members.
// Immutable once stored. ClientID is the client-generated reconciliation
// key: the sender's UI replaces its optimistic entry with the server echo
// that carries the same key.
type Message struct {
	ID          int64     `json:"id"`
	ChallengeID int64     `json:"challengeId"`
	UserID      int64     `json:"userId"`
	Content     string    `json:"content"`
	ClientID    string    `json:"clientId,omitempty"`
	Synced      bool      `json:"synced"`
	CreatedAt   time.Time `json:"createdAt"`
}

// PostMessageRequest is the body of POST /api/challenges/:id/messages,
// the REST fallback used by the offline sync engine.
type PostMessageRequest struct {
	Content  string `json:"content"`
	ClientID string `json:"client_id"`
	Synced   *bool  `json:"synced,omitempty"`
}
