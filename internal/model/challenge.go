package model

import "time"

// Challenge status values.
const (
	ChallengePending   = "pending"
	ChallengeActive    = "active"
	ChallengeCompleted = "completed"
	ChallengeDeclined  = "declined"
)

type Challenge struct {
	ID            int64        `json:"id"`
	Title         string       `json:"title"`
	Description   string       `json:"description"`
	CategoryID    int64        `json:"category_id"`
	CreatorID     int64        `json:"creator_id"`
	ParticipantID *int64       `json:"participant_id,omitempty"`
	InviteCode    string       `json:"invite_code,omitempty"`
	ScheduleType  string       `json:"schedule_type"`
	Schedule      WeekSchedule `json:"schedule"`
	UnitValue     int          `json:"unit_value"`
	UnitType      string       `json:"unit_type"`
	StartDate     *time.Time   `json:"start_date,omitempty"`
	EndDate       *time.Time   `json:"end_date,omitempty"`
	Status        string       `json:"status"`
	CreatedAt     time.Time    `json:"created_at"`
}

// IsMember reports whether userID is the creator or the participant.
func (c *Challenge) IsMember(userID int64) bool {
	if c.CreatorID == userID {
		return true
	}
	return c.ParticipantID != nil && *c.ParticipantID == userID
}

// OtherMember returns the member that is not userID, or 0 when the
// challenge has no participant yet.
func (c *Challenge) OtherMember(userID int64) int64 {
	if c.CreatorID != userID {
		return c.CreatorID
	}
	if c.ParticipantID != nil {
		return *c.ParticipantID
	}
	return 0
}

// Members returns the ids of everyone party to the challenge.
func (c *Challenge) Members() []int64 {
	ids := []int64{c.CreatorID}
	if c.ParticipantID != nil {
		ids = append(ids, *c.ParticipantID)
	}
	return ids
}

type CreateChallengeRequest struct {
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	CategoryID   int64         `json:"category_id"`
	ScheduleType string        `json:"schedule_type"`
	Schedule     *WeekSchedule `json:"schedule"`
	UnitValue    int           `json:"unit_value"`
	UnitType     string        `json:"unit_type"`
	StartDate    *time.Time    `json:"start_date"`
	EndDate      *time.Time    `json:"end_date"`
}

// UpdateChallengeRequest carries the PATCH body. Status changes may come
// from either party (accept/decline); everything else is creator-only.
type UpdateChallengeRequest struct {
	Title         *string    `json:"title"`
	Description   *string    `json:"description"`
	Status        *string    `json:"status"`
	ParticipantID *int64     `json:"participant_id"`
	StartDate     *time.Time `json:"start_date"`
	EndDate       *time.Time `json:"end_date"`
}

type ChallengeProgress struct {
	ID          int64     `json:"id"`
	ChallengeID int64     `json:"challenge_id"`
	UserID      int64     `json:"user_id"`
	Date        time.Time `json:"date"`
	Value       int       `json:"value"`
	Synced      bool      `json:"synced"`
}
