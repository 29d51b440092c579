package user

import (
	"errors"
	"net/http"

	"FitCoachAI/internal/database"
	"FitCoachAI/internal/utility"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
)

// RequestProfile is the body of PUT /profile. Numeric fields accept numbers or
// numeric strings; anything else is stored as unknown.
type RequestProfile struct {
	DisplayName        *string            `json:"display_name"`
	Username           *string            `json:"username"`
	Age                utility.FlexNumber `json:"age"`
	Sex                *string            `json:"sex"`
	HeightCm           utility.FlexNumber `json:"height_cm"`
	WeightKg           utility.FlexNumber `json:"weight_kg"`
	ActivityLevel      *string            `json:"activity_level"`
	Experience         *string            `json:"experience"`
	Goal               *string            `json:"goal"`
	HealthRestrictions *string            `json:"health_restrictions"`

	// Dietary Preferences
	Allergies     *string            `json:"allergies"`
	Intolerances  *string            `json:"intolerances"`
	DislikedFoods *string            `json:"disliked_foods"`
	DietType      *string            `json:"diet_type"`
	MealsPerDay   utility.FlexNumber `json:"meals_per_day"`
}

func mapRequestToParams(req *RequestProfile, userID string) database.UpsertUserProfileParams {
	return database.UpsertUserProfileParams{
		UserID:             userID,
		DisplayName:        utility.TextOrNull(req.DisplayName),
		Username:           utility.TextOrNull(req.Username),
		Age:                req.Age.Int4(),
		Sex:                utility.TextOrNull(req.Sex),
		HeightCm:           req.HeightCm.Float8(),
		WeightKg:           req.WeightKg.Float8(),
		ActivityLevel:      utility.TextOrNull(req.ActivityLevel),
		Experience:         utility.TextOrNull(req.Experience),
		Goal:               utility.TextOrNull(req.Goal),
		HealthRestrictions: utility.TextOrNull(req.HealthRestrictions),
		Allergies:          utility.TextOrNull(req.Allergies),
		Intolerances:       utility.TextOrNull(req.Intolerances),
		DislikedFoods:      utility.TextOrNull(req.DislikedFoods),
		DietType:           utility.TextOrNull(req.DietType),
		MealsPerDay:        req.MealsPerDay.Int4(),
	}
}

// UpsertProfileHandler creates the profile if it doesn't exist, or replaces it if it does.
func (h *Handler) UpsertProfileHandler(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := requireUser(c)
	if !ok {
		return nil
	}

	var req RequestProfile
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Requisição inválida.")
	}

	profile, err := h.store.UpsertUserProfile(ctx, mapRequestToParams(&req, userID))
	if err != nil {
		utility.GetLogger(c).Error().Err(err).Str("user_id", userID).Msg("Failed to upsert user profile")
		return errorJSON(c, http.StatusInternalServerError, "Falha ao salvar o perfil.")
	}

	return c.JSON(http.StatusOK, profile)
}

// GetProfileHandler retrieves the caller's profile.
func (h *Handler) GetProfileHandler(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := requireUser(c)
	if !ok {
		return nil
	}

	profile, err := h.store.GetUserProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errorJSON(c, http.StatusNotFound, "Perfil não encontrado. Preencha seu perfil primeiro.")
		}
		utility.GetLogger(c).Error().Err(err).Str("user_id", userID).Msg("Failed to retrieve user profile")
		return errorJSON(c, http.StatusInternalServerError, "Falha ao carregar o perfil.")
	}

	return c.JSON(http.StatusOK, profile)
}
