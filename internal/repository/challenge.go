package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Mohi32415/TaskMate/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const challengeColumns = `id, title, COALESCE(description, ''), category_id, creator_id, participant_id,
       COALESCE(invite_code, ''), schedule_type, schedule, unit_value, COALESCE(unit_type, ''),
       start_date, end_date, status, created_at`

type ChallengeRepository struct {
	pool *pgxpool.Pool
}

func NewChallengeRepository(pool *pgxpool.Pool) *ChallengeRepository {
	return &ChallengeRepository{pool: pool}
}

func scanChallenge(row pgx.Row) (*model.Challenge, error) {
	ch := &model.Challenge{}
	err := row.Scan(
		&ch.ID, &ch.Title, &ch.Description, &ch.CategoryID, &ch.CreatorID, &ch.ParticipantID,
		&ch.InviteCode, &ch.ScheduleType, &ch.Schedule, &ch.UnitValue, &ch.UnitType,
		&ch.StartDate, &ch.EndDate, &ch.Status, &ch.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return ch, nil
}

func (r *ChallengeRepository) Create(ctx context.Context, creatorID int64, inviteCode string, req *model.CreateChallengeRequest) (*model.Challenge, error) {
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
		INSERT INTO challenges (title, description, category_id, creator_id, invite_code,
		                        schedule_type, schedule, unit_value, unit_type, start_date, end_date)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7, $8, NULLIF($9, ''), $10, $11)
		RETURNING `+challengeColumns,
		req.Title, req.Description, req.CategoryID, creatorID, inviteCode,
		scheduleType, schedule, unitValue, req.UnitType, req.StartDate, req.EndDate)
	return scanChallenge(row)
}

func (r *ChallengeRepository) GetByID(ctx context.Context, id int64) (*model.Challenge, error) {
	return scanChallenge(r.pool.QueryRow(ctx, `SELECT `+challengeColumns+` FROM challenges WHERE id = $1`, id))
}

func (r *ChallengeRepository) GetByInviteCode(ctx context.Context, code string) (*model.Challenge, error) {
	return scanChallenge(r.pool.QueryRow(ctx, `SELECT `+challengeColumns+` FROM challenges WHERE invite_code = $1`, code))
}

func (r *ChallengeRepository) GetByUserID(ctx context.Context, userID int64) ([]model.Challenge, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+challengeColumns+` FROM challenges
		WHERE creator_id = $1 OR participant_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var challenges []model.Challenge
	for rows.Next() {
		ch, err := scanChallenge(rows)
		if err != nil {
			return nil, err
		}
		challenges = append(challenges, *ch)
	}
	return challenges, rows.Err()
}

func (r *ChallengeRepository) Update(ctx context.Context, id int64, req *model.UpdateChallengeRequest) (*model.Challenge, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE challenges SET
			title          = COALESCE($2, title),
			description    = COALESCE($3, description),
			status         = COALESCE($4, status),
			participant_id = COALESCE($5, participant_id),
			start_date     = COALESCE($6, start_date),
			end_date       = COALESCE($7, end_date)
		WHERE id = $1
		RETURNING `+challengeColumns,
		id, req.Title, req.Description, req.Status, req.ParticipantID, req.StartDate, req.EndDate)
	return scanChallenge(row)
}

// CreateProgress inserts one member's progress for a day. Returns
// ErrDuplicate when progress for that day was already submitted.
func (r *ChallengeRepository) CreateProgress(ctx context.Context, challengeID, userID int64, date time.Time, value int, synced bool) (*model.ChallengeProgress, error) {
	p := &model.ChallengeProgress{}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO challenge_progress (challenge_id, user_id, date, value, synced)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, challenge_id, user_id, date, value, synced
	`, challengeID, userID, date, value, synced).Scan(
		&p.ID, &p.ChallengeID, &p.UserID, &p.Date, &p.Value, &p.Synced,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return p, nil
}

func (r *ChallengeRepository) GetProgressByUser(ctx context.Context, challengeID, userID int64) ([]model.ChallengeProgress, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, challenge_id, user_id, date, value, synced
		FROM challenge_progress
		WHERE challenge_id = $1 AND user_id = $2
		ORDER BY date
	`, challengeID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var progress []model.ChallengeProgress
	for rows.Next() {
		var p model.ChallengeProgress
		if err := rows.Scan(&p.ID, &p.ChallengeID, &p.UserID, &p.Date, &p.Value, &p.Synced); err != nil {
			return nil, err
		}
		progress = append(progress, p)
	}
	return progress, rows.Err()
}
