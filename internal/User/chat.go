package user

import (
	"net/http"
	"strings"

	"FitCoachAI/internal/coach"
	"FitCoachAI/internal/database"
	"FitCoachAI/internal/utility"
	"github.com/labstack/echo/v4"
)

// RequestChatMessage is the body of POST /chat/:chat_type/messages.
type RequestChatMessage struct {
	Role    string `json:"role"`
	Message string `json:"message"`
}

// RequestChatSync is the body of POST /chat/:chat_type/messages/sync.
type RequestChatSync struct {
	Messages []RequestChatMessage `json:"messages"`
}

func validRole(role string) bool {
	return role == string(coach.RoleUser) || role == string(coach.RoleAI)
}

// ListChatMessagesHandler returns the caller's history for a chat type, oldest first.
func (h *Handler) ListChatMessagesHandler(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := requireUser(c)
	if !ok {
		return nil
	}
	ct, ok := chatTypeParam(c, "chat_type")
	if !ok {
		return nil
	}

	messages, err := h.store.ListChatMessages(ctx, database.ListChatMessagesParams{
		UserID:   userID,
		ChatType: ct.String(),
	})
	if err != nil {
		utility.GetLogger(c).Error().Err(err).Str("user_id", userID).Str("chat_type", ct.String()).Msg("Failed to list chat messages")
		return errorJSON(c, http.StatusInternalServerError, "Falha ao carregar o histórico.")
	}

	return c.JSON(http.StatusOK, messages)
}

// CreateChatMessageHandler appends one turn to the history.
func (h *Handler) CreateChatMessageHandler(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := requireUser(c)
	if !ok {
		return nil
	}
	ct, ok := chatTypeParam(c, "chat_type")
	if !ok {
		return nil
	}

	var req RequestChatMessage
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Requisição inválida.")
	}
	if !validRole(req.Role) {
		return errorJSON(c, http.StatusBadRequest, "O papel da mensagem deve ser 'user' ou 'ai'.")
	}
	if strings.TrimSpace(req.Message) == "" {
		return errorJSON(c, http.StatusBadRequest, "A mensagem não pode ser vazia.")
	}
	// Greetings are rendered by clients and never stored.
	if coach.IsGreeting(req.Message) {
		return errorJSON(c, http.StatusBadRequest, "A saudação inicial não é armazenada.")
	}

	msg, err := h.store.CreateChatMessage(ctx, database.CreateChatMessageParams{
		UserID:   userID,
		ChatType: ct.String(),
		Role:     req.Role,
		Message:  req.Message,
	})
	if err != nil {
		utility.GetLogger(c).Error().Err(err).Str("user_id", userID).Str("chat_type", ct.String()).Msg("Failed to save chat message")
		return errorJSON(c, http.StatusInternalServerError, "Falha ao salvar a mensagem.")
	}

	return c.JSON(http.StatusCreated, msg)
}

// SyncChatMessagesHandler inserts the turns that are not stored yet. Turns that
// already exist with the same role and text are skipped.
func (h *Handler) SyncChatMessagesHandler(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := requireUser(c)
	if !ok {
		return nil
	}
	ct, ok := chatTypeParam(c, "chat_type")
	if !ok {
		return nil
	}

	var req RequestChatSync
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Requisição inválida.")
	}

	messages := make([]database.SyncChatMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		if !validRole(m.Role) {
			return errorJSON(c, http.StatusBadRequest, "O papel da mensagem deve ser 'user' ou 'ai'.")
		}
		if strings.TrimSpace(m.Message) == "" {
			continue
		}
		messages = append(messages, database.SyncChatMessage{Role: m.Role, Message: m.Message})
	}

	inserted, err := h.store.SyncChatMessages(ctx, database.SyncChatMessagesParams{
		UserID:   userID,
		ChatType: ct.String(),
		Messages: messages,
	})
	if err != nil {
		utility.GetLogger(c).Error().Err(err).Str("user_id", userID).Str("chat_type", ct.String()).Msg("Failed to sync chat messages")
		return errorJSON(c, http.StatusInternalServerError, "Falha ao sincronizar o histórico.")
	}

	return c.JSON(http.StatusOK, map[string]int64{"inserted": inserted})
}

// DeleteChatMessagesHandler removes the whole history of a chat type and tells
// the user's other clients to reset their transcript.
func (h *Handler) DeleteChatMessagesHandler(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := requireUser(c)
	if !ok {
		return nil
	}
	ct, ok := chatTypeParam(c, "chat_type")
	if !ok {
		return nil
	}

	deleted, err := h.store.DeleteChatMessages(ctx, database.DeleteChatMessagesParams{
		UserID:   userID,
		ChatType: ct.String(),
	})
	if err != nil {
		utility.GetLogger(c).Error().Err(err).Str("user_id", userID).Str("chat_type", ct.String()).Msg("Failed to delete chat messages")
		return errorJSON(c, http.StatusInternalServerError, "Falha ao limpar o histórico.")
	}

	h.hub.Notify(userID, utility.EventHistoryCleared)
	return c.JSON(http.StatusOK, map[string]int64{"deleted": deleted})
}
