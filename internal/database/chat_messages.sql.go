package database

import (
	"context"

	"FitCoachAI/internal/coach"
)

const listChatMessages = `-- name: ListChatMessages :many
SELECT id, user_id, chat_type, role, message, created_at
FROM chat_messages
WHERE user_id = $1 AND chat_type = $2
ORDER BY created_at ASC, id ASC
`

type ListChatMessagesParams struct {
	UserID   string `json:"user_id"`
	ChatType string `json:"chat_type"`
}

func (q *Queries) ListChatMessages(ctx context.Context, arg ListChatMessagesParams) ([]ChatMessage, error) {
	rows, err := q.db.Query(ctx, listChatMessages, arg.UserID, arg.ChatType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []ChatMessage{}
	for rows.Next() {
		var i ChatMessage
		if err := rows.Scan(
			&i.ID,
			&i.UserID,
			&i.ChatType,
			&i.Role,
			&i.Message,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createChatMessage = `-- name: CreateChatMessage :one
INSERT INTO chat_messages (user_id, chat_type, role, message)
VALUES ($1, $2, $3, $4)
RETURNING id, user_id, chat_type, role, message, created_at
`

type CreateChatMessageParams struct {
	UserID   string `json:"user_id"`
	ChatType string `json:"chat_type"`
	Role     string `json:"role"`
	Message  string `json:"message"`
}

func (q *Queries) CreateChatMessage(ctx context.Context, arg CreateChatMessageParams) (ChatMessage, error) {
	row := q.db.QueryRow(ctx, createChatMessage,
		arg.UserID,
		arg.ChatType,
		arg.Role,
		arg.Message,
	)
	var i ChatMessage
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.ChatType,
		&i.Role,
		&i.Message,
		&i.CreatedAt,
	)
	return i, err
}

const deleteChatMessages = `-- name: DeleteChatMessages :execrows
DELETE FROM chat_messages
WHERE user_id = $1 AND chat_type = $2
`

type DeleteChatMessagesParams struct {
	UserID   string `json:"user_id"`
	ChatType string `json:"chat_type"`
}

func (q *Queries) DeleteChatMessages(ctx context.Context, arg DeleteChatMessagesParams) (int64, error) {
	result, err := q.db.Exec(ctx, deleteChatMessages, arg.UserID, arg.ChatType)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const insertChatMessageIfMissing = `-- name: InsertChatMessageIfMissing :execrows
INSERT INTO chat_messages (user_id, chat_type, role, message)
SELECT $1::text, $2::text, $3::text, $4::text
WHERE NOT EXISTS (
    SELECT 1 FROM chat_messages
    WHERE user_id = $1 AND chat_type = $2 AND role = $3 AND message = $4
)
`

type SyncChatMessage struct {
	Role    string `json:"role"`
	Message string `json:"message"`
}

type SyncChatMessagesParams struct {
	UserID   string            `json:"user_id"`
	ChatType string            `json:"chat_type"`
	Messages []SyncChatMessage `json:"messages"`
}

func (q *Queries) syncChatMessages(ctx context.Context, arg SyncChatMessagesParams) (int64, error) {
	seen := make(map[string]struct{}, len(arg.Messages))
	var inserted int64
	for _, m := range arg.Messages {
		if coach.IsGreeting(m.Message) {
			continue
		}
		key := m.Role + "::" + m.Message
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		result, err := q.db.Exec(ctx, insertChatMessageIfMissing, arg.UserID, arg.ChatType, m.Role, m.Message)
		if err != nil {
			return inserted, err
		}
		inserted += result.RowsAffected()
	}
	return inserted, nil
}
