package gateway

import (
	"FitCoachAI/internal/coach"
	"FitCoachAI/internal/database"
	"github.com/jackc/pgx/v5/pgtype"
)

// toCoachProfile converts a stored profile row into the composer's view.
func toCoachProfile(row database.UserProfile) *coach.Profile {
	name := text(row.DisplayName)
	if name == "" {
		name = text(row.Username)
	}
	return &coach.Profile{
		Name:               name,
		Age:                intPtr(row.Age),
		Sex:                text(row.Sex),
		HeightCm:           floatPtr(row.HeightCm),
		WeightKg:           floatPtr(row.WeightKg),
		ActivityLevel:      text(row.ActivityLevel),
		Experience:         text(row.Experience),
		Goal:               text(row.Goal),
		HealthRestrictions: text(row.HealthRestrictions),
		Allergies:          text(row.Allergies),
		Intolerances:       text(row.Intolerances),
		DislikedFoods:      text(row.DislikedFoods),
		DietType:           text(row.DietType),
		MealsPerDay:        intPtr(row.MealsPerDay),
	}
}

func text(t pgtype.Text) string {
	if !t.Valid {
		return ""
	}
	return t.String
}

func intPtr(n pgtype.Int4) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int32)
	return &v
}

func floatPtr(f pgtype.Float8) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}
