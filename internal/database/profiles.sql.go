package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const profileColumns = `user_id, display_name, username, age, sex, height_cm, weight_kg, activity_level,
    experience, goal, health_restrictions, allergies, intolerances, disliked_foods, diet_type,
    meals_per_day, created_at, updated_at`

func scanProfile(row interface{ Scan(...any) error }) (UserProfile, error) {
	var i UserProfile
	err := row.Scan(
		&i.UserID,
		&i.DisplayName,
		&i.Username,
		&i.Age,
		&i.Sex,
		&i.HeightCm,
		&i.WeightKg,
		&i.ActivityLevel,
		&i.Experience,
		&i.Goal,
		&i.HealthRestrictions,
		&i.Allergies,
		&i.Intolerances,
		&i.DislikedFoods,
		&i.DietType,
		&i.MealsPerDay,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getUserProfile = `-- name: GetUserProfile :one
SELECT ` + profileColumns + `
FROM user_profiles
WHERE user_id = $1
`

// GetUserProfile returns pgx.ErrNoRows when the user never saved a profile.
func (q *Queries) GetUserProfile(ctx context.Context, userID string) (UserProfile, error) {
	return scanProfile(q.db.QueryRow(ctx, getUserProfile, userID))
}

const upsertUserProfile = `-- name: UpsertUserProfile :one
INSERT INTO user_profiles (
    user_id, display_name, username, age, sex, height_cm, weight_kg, activity_level,
    experience, goal, health_restrictions, allergies, intolerances, disliked_foods,
    diet_type, meals_per_day
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16
)
ON CONFLICT (user_id) DO UPDATE SET
    display_name = EXCLUDED.display_name,
    username = EXCLUDED.username,
    age = EXCLUDED.age,
    sex = EXCLUDED.sex,
    height_cm = EXCLUDED.height_cm,
    weight_kg = EXCLUDED.weight_kg,
    activity_level = EXCLUDED.activity_level,
    experience = EXCLUDED.experience,
    goal = EXCLUDED.goal,
    health_restrictions = EXCLUDED.health_restrictions,
    allergies = EXCLUDED.allergies,
    intolerances = EXCLUDED.intolerances,
    disliked_foods = EXCLUDED.disliked_foods,
    diet_type = EXCLUDED.diet_type,
    meals_per_day = EXCLUDED.meals_per_day,
    updated_at = now()
RETURNING ` + profileColumns

type UpsertUserProfileParams struct {
	UserID             string        `json:"user_id"`
	DisplayName        pgtype.Text   `json:"display_name"`
	Username           pgtype.Text   `json:"username"`
	Age                pgtype.Int4   `json:"age"`
	Sex                pgtype.Text   `json:"sex"`
	HeightCm           pgtype.Float8 `json:"height_cm"`
	WeightKg           pgtype.Float8 `json:"weight_kg"`
	ActivityLevel      pgtype.Text   `json:"activity_level"`
	Experience         pgtype.Text   `json:"experience"`
	Goal               pgtype.Text   `json:"goal"`
	HealthRestrictions pgtype.Text   `json:"health_restrictions"`
	Allergies          pgtype.Text   `json:"allergies"`
	Intolerances       pgtype.Text   `json:"intolerances"`
	DislikedFoods      pgtype.Text   `json:"disliked_foods"`
	DietType           pgtype.Text   `json:"diet_type"`
	MealsPerDay        pgtype.Int4   `json:"meals_per_day"`
}

// UpsertUserProfile replaces every editable field; user_id and created_at never change.
func (q *Queries) UpsertUserProfile(ctx context.Context, arg UpsertUserProfileParams) (UserProfile, error) {
	row := q.db.QueryRow(ctx, upsertUserProfile,
		arg.UserID,
		arg.DisplayName,
		arg.Username,
		arg.Age,
		arg.Sex,
		arg.HeightCm,
		arg.WeightKg,
		arg.ActivityLevel,
		arg.Experience,
		arg.Goal,
		arg.HealthRestrictions,
		arg.Allergies,
		arg.Intolerances,
		arg.DislikedFoods,
		arg.DietType,
		arg.MealsPerDay,
	)
	return scanProfile(row)
}
