package database

import (
	"context"
	"time"
)

const getDailyMessage = `-- name: GetDailyMessage :one
SELECT id, user_id, message, created_at
FROM daily_messages
WHERE user_id = $1 AND created_at >= $2 AND created_at < $3
ORDER BY created_at DESC
LIMIT 1
`

type GetDailyMessageParams struct {
	UserID string    `json:"user_id"`
	From   time.Time `json:"from"`
	To     time.Time `json:"to"`
}

// GetDailyMessage returns the newest message created in [From, To).
func (q *Queries) GetDailyMessage(ctx context.Context, arg GetDailyMessageParams) (DailyMessage, error) {
	row := q.db.QueryRow(ctx, getDailyMessage, arg.UserID, arg.From, arg.To)
	var i DailyMessage
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Message,
		&i.CreatedAt,
	)
	return i, err
}

const createDailyMessage = `-- name: CreateDailyMessage :one
INSERT INTO daily_messages (user_id, message)
VALUES ($1, $2)
RETURNING id, user_id, message, created_at
`

type CreateDailyMessageParams struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

func (q *Queries) CreateDailyMessage(ctx context.Context, arg CreateDailyMessageParams) (DailyMessage, error) {
	row := q.db.QueryRow(ctx, createDailyMessage, arg.UserID, arg.Message)
	var i DailyMessage
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Message,
		&i.CreatedAt,
	)
	return i, err
}
