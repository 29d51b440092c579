package database

import (
	"context"
	"fmt"

	"FitCoachAI/internal/coach"
	"github.com/jackc/pgx/v5/pgtype"
)

// Plan queries are rendered per chat type because each kind lives in its own
// table with its own column names. Identifiers come from the coach variant
// table only, never from request input.

func planSQL(ct coach.ChatType, format string) (string, error) {
	if !ct.Valid() {
		return "", coach.ErrUnknownChatType
	}
	p := ct.Plans()
	return fmt.Sprintf(format, p.NameColumn, p.ContentColumn, p.Table), nil
}

func scanPlans(ct coach.ChatType, rows interface {
	Next() bool
	Scan(...any) error
	Err() error
}) ([]SavedPlan, error) {
	items := []SavedPlan{}
	for rows.Next() {
		i := SavedPlan{Kind: ct.String()}
		if err := rows.Scan(
			&i.ID,
			&i.UserID,
			&i.Name,
			&i.Content,
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

const createSavedPlan = `-- name: CreateSavedPlan :one
INSERT INTO %[3]s (user_id, %[1]s, %[2]s)
VALUES ($1, $2, $3)
RETURNING id, user_id, %[1]s, %[2]s, created_at
`

type CreateSavedPlanParams struct {
	UserID  string `json:"user_id"`
	Name    string `json:"name"`
	Content string `json:"content"`
}

func (q *Queries) CreateSavedPlan(ctx context.Context, ct coach.ChatType, arg CreateSavedPlanParams) (SavedPlan, error) {
	query, err := planSQL(ct, createSavedPlan)
	if err != nil {
		return SavedPlan{}, err
	}
	row := q.db.QueryRow(ctx, query, arg.UserID, arg.Name, arg.Content)
	i := SavedPlan{Kind: ct.String()}
	err = row.Scan(
		&i.ID,
		&i.UserID,
		&i.Name,
		&i.Content,
		&i.CreatedAt,
	)
	return i, err
}

const listSavedPlans = `-- name: ListSavedPlans :many
SELECT id, user_id, %[1]s, %[2]s, created_at
FROM %[3]s
WHERE user_id = $1
  AND ($2::text = '' OR %[1]s ILIKE '%%' || $2::text || '%%')
ORDER BY created_at DESC, id
`

type ListSavedPlansParams struct {
	UserID string `json:"user_id"`
	// Search filters by a case-insensitive substring of the plan name. Empty matches all.
	Search string `json:"search"`
}

func (q *Queries) ListSavedPlans(ctx context.Context, ct coach.ChatType, arg ListSavedPlansParams) ([]SavedPlan, error) {
	query, err := planSQL(ct, listSavedPlans)
	if err != nil {
		return nil, err
	}
	rows, err := q.db.Query(ctx, query, arg.UserID, arg.Search)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPlans(ct, rows)
}

const getSavedPlan = `-- name: GetSavedPlan :one
SELECT id, user_id, %[1]s, %[2]s, created_at
FROM %[3]s
WHERE id = $1 AND user_id = $2
`

type SavedPlanKey struct {
	ID     pgtype.UUID `json:"id"`
	UserID string      `json:"user_id"`
}

func (q *Queries) GetSavedPlan(ctx context.Context, ct coach.ChatType, arg SavedPlanKey) (SavedPlan, error) {
	query, err := planSQL(ct, getSavedPlan)
	if err != nil {
		return SavedPlan{}, err
	}
	row := q.db.QueryRow(ctx, query, arg.ID, arg.UserID)
	i := SavedPlan{Kind: ct.String()}
	err = row.Scan(
		&i.ID,
		&i.UserID,
		&i.Name,
		&i.Content,
		&i.CreatedAt,
	)
	return i, err
}

const deleteSavedPlan = `-- name: DeleteSavedPlan :execrows
DELETE FROM %[3]s
WHERE id = $1 AND user_id = $2
`

// DeleteSavedPlan reports how many rows were removed; zero means the plan does
// not exist or belongs to someone else.
func (q *Queries) DeleteSavedPlan(ctx context.Context, ct coach.ChatType, arg SavedPlanKey) (int64, error) {
	query, err := planSQL(ct, deleteSavedPlan)
	if err != nil {
		return 0, err
	}
	result, err := q.db.Exec(ctx, query, arg.ID, arg.UserID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
