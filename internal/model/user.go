package model

import "time"

// NotificationPrefs mirrors the JSON blob stored in users.notifications.
type NotificationPrefs struct {
	TaskReminders    bool `json:"taskReminders"`
	ChallengeUpdates bool `json:"challengeUpdates"`
	ChatMessages     bool `json:"chatMessages"`
}

type User struct {
	ID            int64             `json:"id"`
	Username      string            `json:"username"`
	PasswordHash  string            `json:"-"`
	DisplayName   string            `json:"display_name"`
	Language      string            `json:"language"`
	Theme         string            `json:"theme"`
	Notifications NotificationPrefs `json:"notifications"`
	OfflineMode   bool              `json:"offline_mode"`
	LastSynced    *time.Time        `json:"last_synced,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

// Name returns the name shown to other users in notifications.
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}
