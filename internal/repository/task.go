package repository

import (
	"context"
	"time"

	"github.com/Mohi32415/TaskMate/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const taskColumns = `id, user_id, title, COALESCE(description, ''), category_id, schedule_type,
       schedule, unit_value, COALESCE(unit_type, ''), last_completed_date, created_at`

type TaskRepository struct {
	pool *pgxpool.Pool
}

func NewTaskRepository(pool *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{pool: pool}
}

func scanTask(row pgx.Row) (*model.Task, error) {
	t := &model.Task{}
	err := row.Scan(
		&t.ID, &t.UserID, &t.Title, &t.Description, &t.CategoryID, &t.ScheduleType,
		&t.Schedule, &t.UnitValue, &t.UnitType, &t.LastCompletedDate, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *TaskRepository) Create(ctx context.Context, userID int64, req *model.CreateTaskRequest) (*model.Task, error) {
	schedule := model.EveryDay()
	if req.Schedule != nil {
		schedule = *req.Schedule
	}
	scheduleType := req.ScheduleType
	if scheduleType == "" {
		scheduleType = "daily"
	}
	unitValue := req.UnitValue
	if unitValue <= 0 {
		unitValue = 1
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO tasks (user_id, title, description, category_id, schedule_type, schedule, unit_value, unit_type)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, NULLIF($8, ''))
		RETURNING `+taskColumns,
		userID, req.Title, req.Description, req.CategoryID, scheduleType, schedule, unitValue, req.UnitType)
	return scanTask(row)
}

func (r *TaskRepository) GetByID(ctx context.Context, id int64) (*model.Task, error) {
	return scanTask(r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
}

func (r *TaskRepository) GetByUserID(ctx context.Context, userID int64) ([]model.Task, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+taskColumns+` FROM tasks WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func (r *TaskRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	return err
}

// UpsertProgress records progress for one task-day. A second submission for
// the same day overwrites the value (offline replays included).
func (r *TaskRepository) UpsertProgress(ctx context.Context, taskID int64, date time.Time, value int, feedback string, synced bool) (*model.TaskProgress, error) {
	p := &model.TaskProgress{}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO task_progress (task_id, date, value, feedback, synced)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (task_id, date) DO UPDATE
			SET value = EXCLUDED.value, feedback = EXCLUDED.feedback, synced = EXCLUDED.synced
		RETURNING id, task_id, date, value, COALESCE(feedback, ''), synced
	`, taskID, date, value, feedback, synced).Scan(
		&p.ID, &p.TaskID, &p.Date, &p.Value, &p.Feedback, &p.Synced,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *TaskRepository) GetProgress(ctx context.Context, taskID int64) ([]model.TaskProgress, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, task_id, date, value, COALESCE(feedback, ''), synced
		FROM task_progress WHERE task_id = $1 ORDER BY date
	`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var progress []model.TaskProgress
	for rows.Next() {
		var p model.TaskProgress
		if err := rows.Scan(&p.ID, &p.TaskID, &p.Date, &p.Value, &p.Feedback, &p.Synced); err != nil {
			return nil, err
		}
		progress = append(progress, p)
	}
	return progress, rows.Err()
}
