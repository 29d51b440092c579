package user

import (
	"errors"
	"net/http"
	"sort"
	"strings"

	"FitCoachAI/internal/coach"
	"FitCoachAI/internal/database"
	"FitCoachAI/internal/utility"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"
)

// RequestSavePlan is the body of POST /plans/:kind.
type RequestSavePlan struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

/* ====================================================================
                             Listing
==================================================================== */

// ListAllPlansHandler returns the caller's workouts and diets together, newest
// first. The optional q parameter filters by plan name.
func (h *Handler) ListAllPlansHandler(c echo.Context) error {
	userID, ok := requireUser(c)
	if !ok {
		return nil
	}
	search := strings.TrimSpace(c.QueryParam("q"))

	kinds := coach.ChatTypes()
	results := make([][]database.SavedPlan, len(kinds))

	g, ctx := errgroup.WithContext(c.Request().Context())
	for i, ct := range kinds {
		i, ct := i, ct
		g.Go(func() error {
			plans, err := h.store.ListSavedPlans(ctx, ct, database.ListSavedPlansParams{UserID: userID, Search: search})
			if err != nil {
				return err
			}
			results[i] = plans
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		utility.GetLogger(c).Error().Err(err).Str("user_id", userID).Msg("Failed to list saved plans")
		return errorJSON(c, http.StatusInternalServerError, "Falha ao carregar os planos salvos.")
	}

	all := []database.SavedPlan{}
	for _, plans := range results {
		all = append(all, plans...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt.Time.After(all[j].CreatedAt.Time)
	})

	return c.JSON(http.StatusOK, all)
}

// ListPlansHandler returns the caller's plans of one kind, newest first.
func (h *Handler) ListPlansHandler(c echo.Context) error {
	userID, ok := requireUser(c)
	if !ok {
		return nil
	}
	ct, ok := chatTypeParam(c, "kind")
	if !ok {
		return nil
	}

	plans, err := h.store.ListSavedPlans(c.Request().Context(), ct, database.ListSavedPlansParams{
		UserID: userID,
		Search: strings.TrimSpace(c.QueryParam("q")),
	})
	if err != nil {
		utility.GetLogger(c).Error().Err(err).Str("user_id", userID).Str("kind", ct.String()).Msg("Failed to list saved plans")
		return errorJSON(c, http.StatusInternalServerError, "Falha ao carregar os planos salvos.")
	}

	return c.JSON(http.StatusOK, plans)
}

/* ====================================================================
                           Single Plan
==================================================================== */

// SavePlanHandler stores a coach answer under a user-given name.
func (h *Handler) SavePlanHandler(c echo.Context) error {
	userID, ok := requireUser(c)
	if !ok {
		return nil
	}
	ct, ok := chatTypeParam(c, "kind")
	if !ok {
		return nil
	}

	var req RequestSavePlan
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Requisição inválida.")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return errorJSON(c, http.StatusBadRequest, "O nome do plano não pode ser vazio.")
	}
	if strings.TrimSpace(req.Content) == "" {
		return errorJSON(c, http.StatusBadRequest, "O conteúdo do plano não pode ser vazio.")
	}

	plan, err := h.store.CreateSavedPlan(c.Request().Context(), ct, database.CreateSavedPlanParams{
		UserID:  userID,
		Name:    name,
		Content: req.Content,
	})
	if err != nil {
		utility.GetLogger(c).Error().Err(err).Str("user_id", userID).Str("kind", ct.String()).Msg("Failed to save plan")
		return errorJSON(c, http.StatusInternalServerError, "Falha ao salvar o plano.")
	}

	h.hub.Notify(userID, utility.EventPlansChanged)
	return c.JSON(http.StatusCreated, plan)
}

// planKey resolves the kind and plan_id path parameters or writes a 400.
func planKey(c echo.Context, userID string) (coach.ChatType, database.SavedPlanKey, bool) {
	ct, ok := chatTypeParam(c, "kind")
	if !ok {
		return 0, database.SavedPlanKey{}, false
	}
	id, err := utility.ParseUUID(c.Param("plan_id"))
	if err != nil {
		_ = errorJSON(c, http.StatusBadRequest, "ID de plano inválido.")
		return 0, database.SavedPlanKey{}, false
	}
	return ct, database.SavedPlanKey{ID: id, UserID: userID}, true
}

// GetPlanHandler returns one of the caller's plans.
func (h *Handler) GetPlanHandler(c echo.Context) error {
	userID, ok := requireUser(c)
	if !ok {
		return nil
	}
	ct, key, ok := planKey(c, userID)
	if !ok {
		return nil
	}

	plan, err := h.store.GetSavedPlan(c.Request().Context(), ct, key)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errorJSON(c, http.StatusNotFound, "Plano não encontrado.")
		}
		utility.GetLogger(c).Error().Err(err).Str("user_id", userID).Msg("Failed to get saved plan")
		return errorJSON(c, http.StatusInternalServerError, "Falha ao carregar o plano.")
	}

	return c.JSON(http.StatusOK, plan)
}

// DeletePlanHandler removes one of the caller's plans.
func (h *Handler) DeletePlanHandler(c echo.Context) error {
	userID, ok := requireUser(c)
	if !ok {
		return nil
	}
	ct, key, ok := planKey(c, userID)
	if !ok {
		return nil
	}

	deleted, err := h.store.DeleteSavedPlan(c.Request().Context(), ct, key)
	if err != nil {
		utility.GetLogger(c).Error().Err(err).Str("user_id", userID).Msg("Failed to delete saved plan")
		return errorJSON(c, http.StatusInternalServerError, "Falha ao excluir o plano.")
	}
	if deleted == 0 {
		return errorJSON(c, http.StatusNotFound, "Plano não encontrado.")
	}

	h.hub.Notify(userID, utility.EventPlansChanged)
	return c.NoContent(http.StatusNoContent)
}
