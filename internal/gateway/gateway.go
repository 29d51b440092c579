/*
Package gateway is the generation endpoint the chat screens call. It loads
the caller's profile, composes the coaching prompt and forwards it to the
language model. It never writes chat history; clients persist both turns
after a successful reply.
*/
package gateway

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"FitCoachAI/internal/coach"
	"FitCoachAI/internal/database"
	"FitCoachAI/internal/geminiservice"
	"FitCoachAI/internal/utility"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"
)

// Store is the persistence the gateway reads from.
type Store interface {
	GetUserProfile(ctx context.Context, userID string) (database.UserProfile, error)
	GetDailyMessage(ctx context.Context, arg database.GetDailyMessageParams) (database.DailyMessage, error)
	CreateDailyMessage(ctx context.Context, arg database.CreateDailyMessageParams) (database.DailyMessage, error)
}

// HistoryPart is one text part of a history entry.
type HistoryPart struct {
	Text string `json:"text"`
}

// HistoryEntry is a prior turn as sent by the chat client. Role is "user" or
// "model"; older clients send "ai" with the text in Message.
type HistoryEntry struct {
	Role    string        `json:"role"`
	Parts   []HistoryPart `json:"parts"`
	Message string        `json:"message,omitempty"`
}

// ChatRequest is the body of POST /ai/chat.
type ChatRequest struct {
	Prompt         string         `json:"prompt"`
	Context        string         `json:"context"`
	ChatType       string         `json:"chatType"`
	History        []HistoryEntry `json:"history"`
	IsRegeneration bool           `json:"isRegeneration"`
}

// ChatResponse is the success body of POST /ai/chat.
type ChatResponse struct {
	Response string `json:"response"`
}

// Handler serves the generation endpoints.
type Handler struct {
	store Store
	gen   geminiservice.Generator
	daily *lru.Cache[string, string]
	now   func() time.Time
}

const dailyCacheSize = 2048

// NewHandler wires the gateway to its store and model client.
func NewHandler(store Store, gen geminiservice.Generator) (*Handler, error) {
	cache, err := lru.New[string, string](dailyCacheSize)
	if err != nil {
		return nil, err
	}
	return &Handler{store: store, gen: gen, daily: cache, now: time.Now}, nil
}

/* ====================================================================
                             Chat
==================================================================== */

// ChatHandler handles POST /ai/chat.
func (h *Handler) ChatHandler(c echo.Context) error {
	ctx := c.Request().Context()
	logger := utility.GetLogger(c)

	userID, err := utility.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Usuário não autenticado."})
	}

	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Requisição inválida."})
	}

	chatType := coach.Workout
	if strings.TrimSpace(req.ChatType) != "" {
		chatType, err = coach.ParseChatType(req.ChatType)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Tipo de chat inválido."})
		}
	}

	turns, err := buildTurns(req)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": validationMessages[err]})
	}

	profile, err := h.loadProfile(ctx, userID)
	if err != nil {
		logger.Error().Err(err).Str("user_id", userID).Msg("Failed to load user profile")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Erro ao buscar dados do usuário."})
	}

	prompt := coach.Compose(coach.Request{
		ChatType:   chatType,
		Persona:    req.Context,
		Profile:    profile,
		History:    turns,
		Regenerate: req.IsRegeneration,
	})

	text, err := h.gen.Generate(ctx, "", prompt)
	if err != nil {
		status, msg := generationError(err)
		logger.Error().Err(err).Str("user_id", userID).Str("chat_type", chatType.String()).Msg("Generation failed")
		return c.JSON(status, map[string]string{"error": msg})
	}

	logger.Info().Str("user_id", userID).Str("chat_type", chatType.String()).
		Int("history_turns", len(turns)).Bool("regeneration", req.IsRegeneration).Msg("Generated chat reply")
	return c.JSON(http.StatusOK, ChatResponse{Response: text})
}

var (
	errPromptRequired  = errors.New("prompt is required")
	errHistoryRequired = errors.New("history is required for regeneration")
)

var validationMessages = map[error]string{
	errPromptRequired:  "O prompt é obrigatório.",
	errHistoryRequired: "O histórico é obrigatório para gerar uma nova resposta.",
}

// buildTurns converts the request history into composer turns. For a normal
// send the new prompt is the last user turn; it is appended when the client
// did not already include it.
func buildTurns(req ChatRequest) ([]coach.Turn, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" && !req.IsRegeneration {
		return nil, errPromptRequired
	}

	turns := make([]coach.Turn, 0, len(req.History)+1)
	for _, entry := range req.History {
		text := entry.Message
		if len(entry.Parts) > 0 {
			parts := make([]string, 0, len(entry.Parts))
			for _, p := range entry.Parts {
				parts = append(parts, p.Text)
			}
			text = strings.Join(parts, "")
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		role := coach.RoleAI
		if strings.EqualFold(entry.Role, "user") {
			role = coach.RoleUser
		}
		turns = append(turns, coach.Turn{Role: role, Text: text})
	}

	if req.IsRegeneration {
		if len(turns) == 0 {
			return nil, errHistoryRequired
		}
		return turns, nil
	}

	if n := len(turns); n == 0 || turns[n-1].Role != coach.RoleUser || strings.TrimSpace(turns[n-1].Text) != prompt {
		turns = append(turns, coach.Turn{Role: coach.RoleUser, Text: prompt})
	}
	return turns, nil
}

// loadProfile returns nil, nil when the user has not saved a profile yet.
func (h *Handler) loadProfile(ctx context.Context, userID string) (*coach.Profile, error) {
	row, err := h.store.GetUserProfile(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toCoachProfile(row), nil
}

func generationError(err error) (int, string) {
	switch {
	case errors.Is(err, geminiservice.ErrNotConfigured):
		return http.StatusServiceUnavailable, "O serviço de IA não está configurado."
	case errors.Is(err, geminiservice.ErrBlocked):
		return http.StatusUnprocessableEntity, "Não posso responder a essa mensagem. Tente reformular a pergunta."
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "A IA demorou demais para responder. Tente novamente."
	default:
		return http.StatusBadGateway, "Erro ao gerar resposta da IA."
	}
}

/* ====================================================================
                         Daily Motivation
==================================================================== */

// DailyMessageHandler handles GET /ai/daily-message. One message is generated
// per user per UTC day and reused for the rest of that day.
func (h *Handler) DailyMessageHandler(c echo.Context) error {
	ctx := c.Request().Context()
	logger := utility.GetLogger(c)

	userID, err := utility.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Usuário não autenticado."})
	}

	dayStart := h.now().UTC().Truncate(24 * time.Hour)
	cacheKey := userID + "|" + dayStart.Format("2006-01-02")
	if msg, ok := h.daily.Get(cacheKey); ok {
		return c.JSON(http.StatusOK, map[string]string{"message": msg})
	}

	var (
		existing    database.DailyMessage
		existingErr error
		profile     *coach.Profile
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		existing, existingErr = h.store.GetDailyMessage(gctx, database.GetDailyMessageParams{
			UserID: userID,
			From:   dayStart,
			To:     dayStart.Add(24 * time.Hour),
		})
		if errors.Is(existingErr, pgx.ErrNoRows) {
			return nil
		}
		return existingErr
	})
	g.Go(func() error {
		var err error
		profile, err = h.loadProfile(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Str("user_id", userID).Msg("Failed to load daily message context")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Erro ao gerar mensagem diária."})
	}

	if existingErr == nil {
		h.daily.Add(cacheKey, existing.Message)
		return c.JSON(http.StatusOK, map[string]string{"message": existing.Message})
	}

	msg, err := h.gen.Generate(ctx, "", coach.MotivationPrompt(profile))
	if err != nil {
		status, _ := generationError(err)
		logger.Error().Err(err).Str("user_id", userID).Msg("Failed to generate daily message")
		return c.JSON(status, map[string]string{"error": "Erro ao gerar mensagem diária."})
	}
	msg = strings.TrimSpace(msg)

	if _, err := h.store.CreateDailyMessage(ctx, database.CreateDailyMessageParams{UserID: userID, Message: msg}); err != nil {
		// The message is still returned; it will be regenerated once the cache entry is evicted.
		logger.Error().Err(err).Str("user_id", userID).Msg("Failed to save daily message")
	}
	h.daily.Add(cacheKey, msg)

	return c.JSON(http.StatusOK, map[string]string{"message": msg})
}
