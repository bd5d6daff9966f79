package model

import "time"

// WeekSchedule mirrors the JSON blob stored in tasks.schedule and
// challenges.schedule: which weekdays the habit is due.
type WeekSchedule struct {
	Monday    bool `json:"monday"`
	Tuesday   bool `json:"tuesday"`
	Wednesday bool `json:"wednesday"`
	Thursday  bool `json:"thursday"`
	Friday    bool `json:"friday"`
	Saturday  bool `json:"saturday"`
	Sunday    bool `json:"sunday"`
}

// EveryDay is the default schedule for new tasks and challenges.
func EveryDay() WeekSchedule {
	return WeekSchedule{
		Monday: true, Tuesday: true, Wednesday: true, Thursday: true,
		Friday: true, Saturday: true, Sunday: true,
	}
}

type Task struct {
	ID                int64        `json:"id"`
	UserID            int64        `json:"user_id"`
	Title             string       `json:"title"`
	Description       string       `json:"description"`
	CategoryID        int64        `json:"category_id"`
	ScheduleType      string       `json:"schedule_type"`
	Schedule          WeekSchedule `json:"schedule"`
	UnitValue         int          `json:"unit_value"`
	UnitType          string       `json:"unit_type"`
	LastCompletedDate *time.Time   `json:"last_completed_date,omitempty"`
	CreatedAt         time.Time    `json:"created_at"`
}

type CreateTaskRequest struct {
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	CategoryID   int64         `json:"category_id"`
	ScheduleType string        `json:"schedule_type"`
	Schedule     *WeekSchedule `json:"schedule"`
	UnitValue    int           `json:"unit_value"`
	UnitType     string        `json:"unit_type"`
}

type TaskProgress struct {
	ID       int64     `json:"id"`
	TaskID   int64     `json:"task_id"`
	Date     time.Time `json:"date"`
	Value    int       `json:"value"`
	Feedback string    `json:"feedback"`
	Synced   bool      `json:"synced"`
}

// ProgressRequest is the body of the task and challenge progress endpoints.
// Date is optional (defaults to today); Synced is false when the record was
// created offline and replayed later by the sync engine.
type ProgressRequest struct {
	Value  int     `json:"value"`
	Date   *string `json:"date,omitempty"`
	Synced *bool   `json:"synced,omitempty"`
}
