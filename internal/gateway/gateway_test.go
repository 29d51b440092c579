package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"FitCoachAI/internal/coach"
	"FitCoachAI/internal/database"
	"FitCoachAI/internal/geminiservice"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu       sync.Mutex
	profile  *database.UserProfile
	daily    []database.DailyMessage
	dailyErr error
}

func (s *fakeStore) GetUserProfile(ctx context.Context, userID string) (database.UserProfile, error) {
	if s.profile == nil {
		return database.UserProfile{}, pgx.ErrNoRows
	}
	return *s.profile, nil
}

func (s *fakeStore) GetDailyMessage(ctx context.Context, arg database.GetDailyMessageParams) (database.DailyMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.daily {
		if m.UserID == arg.UserID && !m.CreatedAt.Time.Before(arg.From) && m.CreatedAt.Time.Before(arg.To) {
			return m, nil
		}
	}
	return database.DailyMessage{}, pgx.ErrNoRows
}

func (s *fakeStore) CreateDailyMessage(ctx context.Context, arg database.CreateDailyMessageParams) (database.DailyMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dailyErr != nil {
		return database.DailyMessage{}, s.dailyErr
	}
	m := database.DailyMessage{UserID: arg.UserID, Message: arg.Message, CreatedAt: pgtype.Timestamptz{Time: time.Now(), Valid: true}}
	s.daily = append(s.daily, m)
	return m, nil
}

type fakeGenerator struct {
	mu      sync.Mutex
	prompts []string
	reply   string
	err     error
}

func (g *fakeGenerator) Generate(ctx context.Context, systemPrompt, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	return g.reply, g.err
}

func (g *fakeGenerator) lastPrompt() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.prompts) == 0 {
		return ""
	}
	return g.prompts[len(g.prompts)-1]
}

func newTestHandler(t *testing.T, store *fakeStore, gen *fakeGenerator) *Handler {
	t.Helper()
	h, err := NewHandler(store, gen)
	require.NoError(t, err)
	return h
}

func doJSON(t *testing.T, handler echo.HandlerFunc, method, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", "user-1")
	require.NoError(t, handler(c))
	return rec
}

func TestChatHandlerComposesPromptWithoutProfile(t *testing.T) {
	gen := &fakeGenerator{reply: "Vamos montar sua dieta!"}
	h := newTestHandler(t, &fakeStore{}, gen)

	rec := doJSON(t, h.ChatHandler, http.MethodPost, `{"prompt":"Quero emagrecer","chatType":"dieta","history":[{"role":"user","parts":[{"text":"Quero emagrecer"}]}]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Vamos montar sua dieta!", resp.Response)

	prompt := gen.lastPrompt()
	assert.True(t, strings.HasPrefix(prompt, coach.Diet.Persona()))
	assert.Contains(t, prompt, "O usuário ainda não preencheu o perfil. Responda de forma genérica.")
	assert.True(t, strings.HasSuffix(prompt, "\n\nUsuário: Quero emagrecer\n\nFitCoachAI:"))
	assert.Equal(t, 1, strings.Count(prompt, "Usuário: Quero emagrecer"))
}

func TestChatHandlerUsesProfileAndHistory(t *testing.T) {
	store := &fakeStore{profile: &database.UserProfile{
		UserID:      "user-1",
		DisplayName: pgtype.Text{String: "Ana", Valid: true},
		Age:         pgtype.Int4{Int32: 31, Valid: true},
		Goal:        pgtype.Text{String: "hipertrofia", Valid: true},
	}}
	gen := &fakeGenerator{reply: "ok"}
	h := newTestHandler(t, store, gen)

	body := `{"prompt":"E amanhã?","context":"PERSONA","chatType":"treino","history":[
		{"role":"model","parts":[{"text":"` + coach.Workout.Greeting() + `"}]},
		{"role":"user","parts":[{"text":"Treino de pernas"}]},
		{"role":"model","parts":[{"text":"Agachamento 4x10"}]}
	]}`
	rec := doJSON(t, h.ChatHandler, http.MethodPost, body)
	require.Equal(t, http.StatusOK, rec.Code)

	prompt := gen.lastPrompt()
	assert.True(t, strings.HasPrefix(prompt, "PERSONA\n\n"))
	assert.Contains(t, prompt, "- Nome: Ana")
	assert.Contains(t, prompt, "- Idade: 31")
	assert.NotContains(t, prompt, coach.Workout.Greeting())
	assert.Contains(t, prompt, "Usuário: Treino de pernas\nFitCoachAI: Agachamento 4x10\nUsuário: E amanhã?\n\nFitCoachAI:")
}

func TestChatHandlerRegeneration(t *testing.T) {
	gen := &fakeGenerator{reply: "nova resposta"}
	h := newTestHandler(t, &fakeStore{}, gen)

	rec := doJSON(t, h.ChatHandler, http.MethodPost, `{"isRegeneration":true,"chatType":"treino","history":[{"role":"user","message":"Treino A"},{"role":"ai","message":"Ruim"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, gen.lastPrompt(), "Usuário: Treino A\nFitCoachAI: Ruim\n\nFitCoachAI: A resposta anterior não foi útil.")

	rec = doJSON(t, h.ChatHandler, http.MethodPost, `{"isRegeneration":true,"history":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatHandlerValidation(t *testing.T) {
	gen := &fakeGenerator{reply: "x"}
	h := newTestHandler(t, &fakeStore{}, gen)

	rec := doJSON(t, h.ChatHandler, http.MethodPost, `{"prompt":"   ","chatType":"treino"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "O prompt é obrigatório.")

	rec = doJSON(t, h.ChatHandler, http.MethodPost, `{"prompt":"oi","chatType":"cardio"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Empty(t, gen.prompts, "validation failures never reach the model")
}

func TestChatHandlerReportsGenerationErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{geminiservice.ErrNotConfigured, http.StatusServiceUnavailable},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("boom"), http.StatusBadGateway},
	}
	for _, tc := range cases {
		h := newTestHandler(t, &fakeStore{}, &fakeGenerator{err: tc.err})
		rec := doJSON(t, h.ChatHandler, http.MethodPost, `{"prompt":"oi","chatType":"dieta"}`)
		assert.Equal(t, tc.status, rec.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.NotEmpty(t, body["error"])
	}
}

func TestDailyMessageIsGeneratedOncePerDay(t *testing.T) {
	store := &fakeStore{}
	gen := &fakeGenerator{reply: "  Você consegue!  "}
	h := newTestHandler(t, store, gen)

	for i := 0; i < 2; i++ {
		rec := doJSON(t, h.DailyMessageHandler, http.MethodGet, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"message":"Você consegue!"}`, rec.Body.String())
	}
	assert.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "para um usuário")
	assert.Len(t, store.daily, 1)

	// A fresh handler (empty cache) reads the stored message instead of generating.
	h2 := newTestHandler(t, store, gen)
	rec := doJSON(t, h2.DailyMessageHandler, http.MethodGet, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, gen.prompts, 1)
}

func TestDailyMessageStillReturnedWhenSaveFails(t *testing.T) {
	store := &fakeStore{dailyErr: errors.New("db down")}
	h := newTestHandler(t, store, &fakeGenerator{reply: "Força!"})

	rec := doJSON(t, h.DailyMessageHandler, http.MethodGet, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Força!"}`, rec.Body.String())
}

func TestRateLimiterMiddleware(t *testing.T) {
	limiter, err := NewRateLimiter(2)
	require.NoError(t, err)

	handler := limiter.Middleware(func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, doJSON(t, handler, http.MethodPost, "{}").Code)
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)

	disabled, err := NewRateLimiter(0)
	require.NoError(t, err)
	assert.Nil(t, disabled)
	assert.True(t, disabled.Allow("anyone"))
}
