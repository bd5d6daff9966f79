package repository

import (
	"context"

	"github.com/Mohi32415/TaskMate/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MessageRepository struct {
	pool *pgxpool.Pool
}

func NewMessageRepository(pool *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{pool: pool}
}

const messageColumns = `id, challenge_id, user_id, content, COALESCE(client_id, ''), synced, created_at`

func scanMessage(row pgx.Row) (*model.Message, error) {
	m := &model.Message{}
	err := row.Scan(&m.ID, &m.ChallengeID, &m.UserID, &m.Content, &m.ClientID, &m.Synced, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Create stores a chat message. The client-generated clientID makes the
// insert idempotent: a replay with a key that was already stored returns
// the existing row instead of inserting a duplicate.
func (r *MessageRepository) Create(ctx context.Context, challengeID, userID int64, content, clientID string, synced bool) (*model.Message, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO messages (challenge_id, user_id, content, client_id, synced)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5)
		ON CONFLICT (client_id) DO NOTHING
		RETURNING `+messageColumns,
		challengeID, userID, content, clientID, synced)

	m, err := scanMessage(row)
	if err == pgx.ErrNoRows && clientID != "" {
		return scanMessage(r.pool.QueryRow(ctx,
			`SELECT `+messageColumns+` FROM messages WHERE client_id = $1`, clientID))
	}
	return m, err
}

// GetByChallengeID returns the full history in persisted order
// (timestamp ascending).
func (r *MessageRepository) GetByChallengeID(ctx context.Context, challengeID int64) ([]model.Message, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+messageColumns+` FROM messages
		WHERE challenge_id = $1
		ORDER BY created_at, id
	`, challengeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []model.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, *m)
	}
	return msgs, rows.Err()
}

// DeleteOlderThan removes messages older than the given number of days.
// Returns the number of deleted rows.
func (r *MessageRepository) DeleteOlderThan(ctx context.Context, days int) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM messages WHERE created_at < NOW() - make_interval(days => $1)
	`, days)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
