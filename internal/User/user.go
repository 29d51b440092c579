/*
Package user implements the authenticated REST resources of a FitCoachAI
user: the profile, the per-chat-type message history, saved plans and the
notification socket.
*/
package user

import (
	"context"
	"net/http"

	"FitCoachAI/internal/coach"
	"FitCoachAI/internal/database"
	"FitCoachAI/internal/utility"
	"github.com/labstack/echo/v4"
)

// Store is the persistence the user handlers need. *database.Store satisfies it.
type Store interface {
	GetUserProfile(ctx context.Context, userID string) (database.UserProfile, error)
	UpsertUserProfile(ctx context.Context, arg database.UpsertUserProfileParams) (database.UserProfile, error)

	ListChatMessages(ctx context.Context, arg database.ListChatMessagesParams) ([]database.ChatMessage, error)
	CreateChatMessage(ctx context.Context, arg database.CreateChatMessageParams) (database.ChatMessage, error)
	DeleteChatMessages(ctx context.Context, arg database.DeleteChatMessagesParams) (int64, error)
	SyncChatMessages(ctx context.Context, arg database.SyncChatMessagesParams) (int64, error)

	CreateSavedPlan(ctx context.Context, ct coach.ChatType, arg database.CreateSavedPlanParams) (database.SavedPlan, error)
	ListSavedPlans(ctx context.Context, ct coach.ChatType, arg database.ListSavedPlansParams) ([]database.SavedPlan, error)
	GetSavedPlan(ctx context.Context, ct coach.ChatType, arg database.SavedPlanKey) (database.SavedPlan, error)
	DeleteSavedPlan(ctx context.Context, ct coach.ChatType, arg database.SavedPlanKey) (int64, error)
}

// Handler serves the user resources.
type Handler struct {
	store Store
	hub   *utility.Hub
}

// NewHandler returns a Handler. hub may be nil, in which case no socket
// notifications are sent.
func NewHandler(store Store, hub *utility.Hub) *Handler {
	return &Handler{store: store, hub: hub}
}

func errorJSON(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]string{"error": msg})
}

// requireUser returns the caller's identity or writes a 401.
func requireUser(c echo.Context) (string, bool) {
	userID, err := utility.GetUserIDFromContext(c)
	if err != nil {
		_ = errorJSON(c, http.StatusUnauthorized, "Usuário não autenticado.")
		return "", false
	}
	return userID, true
}

// chatTypeParam resolves a chat type path parameter or writes a 400.
func chatTypeParam(c echo.Context, name string) (coach.ChatType, bool) {
	ct, err := coach.ParseChatType(c.Param(name))
	if err != nil {
		_ = errorJSON(c, http.StatusBadRequest, "Tipo de chat inválido.")
		return 0, false
	}
	return ct, true
}

/* ====================================================================
                          Notification Socket
==================================================================== */

// SocketHandler handles GET /ws. The connection only receives events; any
// client message is read and discarded to keep the socket alive.
func (h *Handler) SocketHandler(c echo.Context) error {
	userID, ok := requireUser(c)
	if !ok {
		return nil
	}
	if h.hub == nil {
		return errorJSON(c, http.StatusServiceUnavailable, "Notificações indisponíveis.")
	}

	ws, err := utility.Upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	h.hub.Register(userID, ws)
	defer h.hub.Unregister(userID, ws)
	utility.GetLogger(c).Info().Str("user_id", userID).Int("connections", h.hub.Connections(userID)).Msg("Notification socket opened")

	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}
	return nil
}
