package database

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type UserProfile struct {
	UserID             string             `json:"user_id"`
	DisplayName        pgtype.Text        `json:"display_name"`
	Username           pgtype.Text        `json:"username"`
	Age                pgtype.Int4        `json:"age"`
	Sex                pgtype.Text        `json:"sex"`
	HeightCm           pgtype.Float8      `json:"height_cm"`
	WeightKg           pgtype.Float8      `json:"weight_kg"`
	ActivityLevel      pgtype.Text        `json:"activity_level"`
	Experience         pgtype.Text        `json:"experience"`
	Goal               pgtype.Text        `json:"goal"`
	HealthRestrictions pgtype.Text        `json:"health_restrictions"`
	Allergies          pgtype.Text        `json:"allergies"`
	Intolerances       pgtype.Text        `json:"intolerances"`
	DislikedFoods      pgtype.Text        `json:"disliked_foods"`
	DietType           pgtype.Text        `json:"diet_type"`
	MealsPerDay        pgtype.Int4        `json:"meals_per_day"`
	CreatedAt          pgtype.Timestamptz `json:"created_at"`
	UpdatedAt          pgtype.Timestamptz `json:"updated_at"`
}

type ChatMessage struct {
	ID        int64              `json:"id"`
	UserID    string             `json:"user_id"`
	ChatType  string             `json:"chat_type"`
	Role      string             `json:"role"`
	Message   string             `json:"message"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
}

// SavedPlan is a row of either plan table. Kind is filled in from the table
// the row was read from, not from a column.
type SavedPlan struct {
	ID        pgtype.UUID        `json:"id"`
	UserID    string             `json:"user_id"`
	Kind      string             `json:"kind"`
	Name      string             `json:"name"`
	Content   string             `json:"content"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
}

type DailyMessage struct {
	ID        int64              `json:"id"`
	UserID    string             `json:"user_id"`
	Message   string             `json:"message"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
}
