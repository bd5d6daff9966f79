package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Mohi32415/TaskMate/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrDuplicate = errors.New("duplicate key")

const userColumns = `id, username, password_hash, COALESCE(display_name, ''), language, theme,
       notifications, offline_mode, last_synced, created_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(
		&u.ID, &u.Username, &u.PasswordHash, &u.DisplayName, &u.Language, &u.Theme,
		&u.Notifications, &u.OfflineMode, &u.LastSynced, &u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) Create(ctx context.Context, username, passwordHash, displayName string) (*model.User, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (username, password_hash, display_name)
		VALUES ($1, $2, NULLIF($3, ''))
		ON CONFLICT DO NOTHING
		RETURNING `+userColumns,
		username, passwordHash, displayName)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
}

// UpdateSettings patches the user's preference fields; empty strings leave
// the stored value untouched.
func (r *UserRepository) UpdateSettings(ctx context.Context, id int64, displayName, language, theme string) (*model.User, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE users SET
			display_name = COALESCE(NULLIF($2, ''), display_name),
			language     = COALESCE(NULLIF($3, ''), language),
			theme        = COALESCE(NULLIF($4, ''), theme)
		WHERE id = $1
		RETURNING `+userColumns,
		id, displayName, language, theme)
	return scanUser(row)
}

func (r *UserRepository) UpdateLastSynced(ctx context.Context, id int64, at time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET last_synced = $2 WHERE id = $1`, id, at)
	return err
}
