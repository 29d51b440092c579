package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"FitCoachAI/internal/coach"
	"FitCoachAI/internal/fitclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tokens struct{ token string }

func (t tokens) Token(ctx context.Context) (string, error) {
	if t.token == "" {
		return "", fitclient.ErrNoSession
	}
	return t.token, nil
}

// backend is an in-memory history, plan store and gateway.
type backend struct {
	mu       sync.Mutex
	rows     map[coach.ChatType][]fitclient.Message
	plans    map[coach.ChatType][]fitclient.Plan
	requests []fitclient.ChatRequest

	reply      string
	chatErr    error
	appendErr  error
	failAppend int
	listErr    error
	block      chan struct{}
	chatCalled chan struct{}
}

func newBackend() *backend {
	return &backend{
		rows:  map[coach.ChatType][]fitclient.Message{},
		plans: map[coach.ChatType][]fitclient.Plan{},
		reply: "Agachamento: 4 séries de 10 repetições",
	}
}

func (b *backend) Chat(ctx context.Context, token string, req fitclient.ChatRequest) (string, error) {
	b.mu.Lock()
	b.requests = append(b.requests, req)
	block, called := b.block, b.chatCalled
	b.mu.Unlock()
	if called != nil {
		close(called)
	}
	if block != nil {
		<-block
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.reply, b.chatErr
}

func (b *backend) ListMessages(ctx context.Context, token string, ct coach.ChatType) ([]fitclient.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.listErr != nil {
		return nil, b.listErr
	}
	return append([]fitclient.Message(nil), b.rows[ct]...), nil
}

func (b *backend) AppendMessage(ctx context.Context, token string, ct coach.ChatType, m fitclient.Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.appendErr != nil {
		return b.appendErr
	}
	if b.failAppend > 0 {
		b.failAppend--
		return errors.New("append timed out")
	}
	b.rows[ct] = append(b.rows[ct], m)
	return nil
}

func (b *backend) SyncMessages(ctx context.Context, token string, ct coach.ChatType, msgs []fitclient.Message) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var n int64
	for _, m := range msgs {
		dup := false
		for _, r := range b.rows[ct] {
			if r.Role == m.Role && r.Message == m.Message {
				dup = true
				break
			}
		}
		if !dup {
			b.rows[ct] = append(b.rows[ct], m)
			n++
		}
	}
	return n, nil
}

func (b *backend) ClearMessages(ctx context.Context, token string, ct coach.ChatType) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.rows, ct)
	return nil
}

func (b *backend) SavePlan(ctx context.Context, token string, ct coach.ChatType, name, content string) (fitclient.Plan, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p := fitclient.Plan{ID: fmt.Sprint(len(b.plans[ct]) + 1), Kind: ct.String(), Name: name, Content: content}
	b.plans[ct] = append(b.plans[ct], p)
	return p, nil
}

func (b *backend) rowCount(ct coach.ChatType) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.rows[ct])
}

func newSession(t *testing.T, ct coach.ChatType, b *backend, token string) *Session {
	t.Helper()
	s := NewSession(ct, Deps{Tokens: tokens{token}, Gateway: b, History: b, Plans: b})
	require.NoError(t, s.LoadHistory(context.Background()))
	require.Equal(t, StateIdle, s.State())
	return s
}

func texts(turns []Turn) []string {
	out := make([]string, 0, len(turns))
	for _, t := range turns {
		out = append(out, t.Text)
	}
	return out
}

func TestLoadHistorySeedsGreeting(t *testing.T) {
	b := newBackend()
	s := newSession(t, coach.Diet, b, "tok")
	tr := s.Transcript()
	require.Len(t, tr, 1)
	assert.True(t, tr[0].Greeting)
	assert.Equal(t, coach.Diet.Greeting(), tr[0].Text)

	b.rows[coach.Diet] = []fitclient.Message{
		{Role: "ai", Message: coach.LegacyGreeting},
		{Role: "user", Message: "Oi"},
		{Role: "ai", Message: "Olá!"},
	}
	require.NoError(t, s.LoadHistory(context.Background()))
	assert.Equal(t, []string{coach.Diet.Greeting(), "Oi", "Olá!"}, texts(s.Transcript()))
}

func TestLoadHistoryFallsBackToGreeting(t *testing.T) {
	b := newBackend()
	b.rows[coach.Workout] = []fitclient.Message{{Role: "user", Message: "Oi"}}

	s := newSession(t, coach.Workout, b, "")
	assert.Equal(t, []string{coach.Workout.Greeting()}, texts(s.Transcript()))

	b.listErr = errors.New("boom")
	s = newSession(t, coach.Workout, b, "tok")
	assert.Equal(t, []string{coach.Workout.Greeting()}, texts(s.Transcript()))
}

func TestSendPersistsBothTurns(t *testing.T) {
	b := newBackend()
	s := newSession(t, coach.Workout, b, "tok")
	ctx := context.Background()

	for i, msg := range []string{"Quero um treino", "E amanhã?"} {
		reply, err := s.Send(ctx, msg)
		require.NoError(t, err)
		assert.Equal(t, b.reply, reply.Text)
		assert.Equal(t, 2*(i+1), b.rowCount(coach.Workout))
	}

	rows := b.rows[coach.Workout]
	assert.Equal(t, fitclient.Message{Role: "user", Message: "Quero um treino"}, rows[0])
	assert.Equal(t, "ai", rows[1].Role)
	assert.Equal(t, "user", rows[2].Role)
	assert.Zero(t, b.rowCount(coach.Diet), "workout turns never land in diet history")
	assert.Equal(t, StateIdle, s.State())
}

func TestSendBuildsGatewayRequest(t *testing.T) {
	b := newBackend()
	b.rows[coach.Workout] = []fitclient.Message{
		{Role: "user", Message: "Treino de pernas"},
		{Role: "ai", Message: "Agachamento 4x10"},
		{Role: "user", Message: "E de braços?"},
	}
	s := newSession(t, coach.Workout, b, "tok")

	_, err := s.Send(context.Background(), "E amanhã?")
	require.NoError(t, err)

	require.Len(t, b.requests, 1)
	req := b.requests[0]
	assert.Equal(t, "E amanhã?", req.Prompt)
	assert.Equal(t, coach.Workout.Persona(), req.Context)
	assert.Equal(t, "treino", req.ChatType)
	assert.False(t, req.IsRegeneration)
	require.Len(t, req.History, 4)
	roles := []string{}
	for _, h := range req.History {
		roles = append(roles, h.Role)
	}
	assert.Equal(t, []string{"user", "model", "user", "user"}, roles)
	assert.Equal(t, "E amanhã?", req.History[3].Parts[0].Text)
}

func TestSendRejectsEmptyInput(t *testing.T) {
	b := newBackend()
	s := newSession(t, coach.Diet, b, "tok")
	_, err := s.Send(context.Background(), "  \n ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Len(t, s.Transcript(), 1)
	assert.Empty(t, b.requests)
}

func TestSendTransportFailure(t *testing.T) {
	b := newBackend()
	b.chatErr = fmt.Errorf("fitclient: POST /ai/chat: %w", errors.New("connection refused"))
	s := newSession(t, coach.Diet, b, "tok")

	reply, err := s.Send(context.Background(), "Quero emagrecer")
	require.NoError(t, err)
	assert.True(t, reply.Failed)

	tr := s.Transcript()
	require.Len(t, tr, 3)
	assert.Equal(t, coach.RoleAI, tr[2].Role)
	assert.Equal(t, MsgConnectionFailed, tr[2].Text)
	assert.Equal(t, StateIdle, s.State())
	assert.Zero(t, b.rowCount(coach.Diet))
}

func TestSendGatewayError(t *testing.T) {
	b := newBackend()
	b.chatErr = &fitclient.APIError{StatusCode: 502, Message: "Erro ao gerar resposta da IA."}
	s := newSession(t, coach.Diet, b, "tok")

	reply, err := s.Send(context.Background(), "Oi")
	require.NoError(t, err)
	assert.Equal(t, "Erro ao gerar resposta da IA.", reply.Text)

	b.chatErr = &fitclient.APIError{StatusCode: 500}
	reply, err = s.Send(context.Background(), "Oi de novo")
	require.NoError(t, err)
	assert.Equal(t, MsgGatewayFallback, reply.Text)
	assert.Zero(t, b.rowCount(coach.Diet))

	// Error bubbles are not sent back to the model.
	b.chatErr = nil
	_, err = s.Send(context.Background(), "Terceira")
	require.NoError(t, err)
	for _, h := range b.requests[2].History {
		assert.Equal(t, "user", h.Role)
	}
}

func TestSendWithoutSession(t *testing.T) {
	b := newBackend()
	s := newSession(t, coach.Workout, b, "")
	reply, err := s.Send(context.Background(), "Oi")
	require.NoError(t, err)
	assert.Equal(t, MsgNotAuthenticated, reply.Text)
	assert.Empty(t, b.requests)
}

func TestConcurrentSendIsRejected(t *testing.T) {
	b := newBackend()
	b.block = make(chan struct{})
	b.chatCalled = make(chan struct{})
	s := newSession(t, coach.Workout, b, "tok")

	done := make(chan error, 1)
	go func() {
		_, err := s.Send(context.Background(), "primeira")
		done <- err
	}()

	select {
	case <-b.chatCalled:
	case <-time.After(2 * time.Second):
		t.Fatal("gateway was never called")
	}
	assert.Equal(t, StateAwaitingResponse, s.State())

	_, err := s.Send(context.Background(), "segunda")
	assert.ErrorIs(t, err, ErrBusy)
	assert.ErrorIs(t, s.OpenSaveDialog(), ErrBusy)

	close(b.block)
	require.NoError(t, <-done)
	assert.Equal(t, StateIdle, s.State())
	assert.Len(t, b.requests, 1)
}

func TestUnsavedTurnsAreRetried(t *testing.T) {
	b := newBackend()
	b.appendErr = errors.New("db down")
	s := newSession(t, coach.Workout, b, "tok")

	_, err := s.Send(context.Background(), "Quero treinar")
	require.NoError(t, err)
	assert.Equal(t, 2, s.Unsaved())
	tr := s.Transcript()
	assert.True(t, tr[1].Unsaved)
	assert.True(t, tr[2].Unsaved)

	b.appendErr = nil
	n, err := s.RetryUnsaved(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Zero(t, s.Unsaved())
	assert.Equal(t, 2, b.rowCount(coach.Workout))

	n, err = s.RetryUnsaved(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStoredOrderSurvivesPartialPersistFailure(t *testing.T) {
	b := newBackend()
	b.failAppend = 1
	s := newSession(t, coach.Workout, b, "tok")

	_, err := s.Send(context.Background(), "Quero treinar")
	require.NoError(t, err)
	assert.Zero(t, b.rowCount(coach.Workout), "the reply waits for its question")
	assert.Equal(t, 2, s.Unsaved())

	// Later exchanges queue behind the unsaved ones.
	b.reply = "Amanhã: descanso ativo e alongamento"
	_, err = s.Send(context.Background(), "E amanhã?")
	require.NoError(t, err)
	assert.Zero(t, b.rowCount(coach.Workout))
	assert.Equal(t, 4, s.Unsaved())

	_, err = s.RetryUnsaved(context.Background())
	require.NoError(t, err)

	b.mu.Lock()
	rows := append([]fitclient.Message(nil), b.rows[coach.Workout]...)
	b.mu.Unlock()
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"user", "ai", "user", "ai"}, []string{rows[0].Role, rows[1].Role, rows[2].Role, rows[3].Role})
	assert.Equal(t, "Quero treinar", rows[0].Message)
	assert.Equal(t, "E amanhã?", rows[2].Message)

	_, err = s.Send(context.Background(), "Valeu")
	require.NoError(t, err)
	assert.Equal(t, 6, b.rowCount(coach.Workout))
	assert.Zero(t, s.Unsaved())
}

func TestFailedSendMarksQuestion(t *testing.T) {
	b := newBackend()
	b.chatErr = errors.New("connection refused")
	s := newSession(t, coach.Workout, b, "tok")

	_, err := s.Send(context.Background(), "Pergunta perdida")
	require.NoError(t, err)
	tr := s.Transcript()
	require.Len(t, tr, 3)
	assert.Equal(t, coach.RoleUser, tr[1].Role)
	assert.True(t, tr[1].Failed)
	assert.False(t, tr[1].Unsaved)

	b.chatErr = nil
	_, err = s.Send(context.Background(), "Nova pergunta")
	require.NoError(t, err)
	history := b.requests[1].History
	require.Len(t, history, 1)
	assert.Equal(t, "Nova pergunta", history[0].Parts[0].Text)

	_, err = s.Regenerate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Nova pergunta", b.requests[2].Prompt)
}

func TestRegenerate(t *testing.T) {
	b := newBackend()
	s := newSession(t, coach.Workout, b, "tok")

	_, err := s.Regenerate(context.Background())
	assert.ErrorIs(t, err, ErrNothingToRedo)
	assert.Equal(t, StateIdle, s.State())

	_, err = s.Send(context.Background(), "Treino A")
	require.NoError(t, err)

	b.reply = "Supino: 3 séries"
	reply, err := s.Regenerate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Supino: 3 séries", reply.Text)

	last := b.requests[len(b.requests)-1]
	assert.True(t, last.IsRegeneration)
	assert.Equal(t, "Treino A", last.Prompt)
	assert.Len(t, last.History, 2)
	assert.Equal(t, 3, b.rowCount(coach.Workout), "only the new answer is stored")
}

func TestClearHistory(t *testing.T) {
	b := newBackend()
	for i := 0; i < 5; i++ {
		b.rows[coach.Diet] = append(b.rows[coach.Diet],
			fitclient.Message{Role: "user", Message: fmt.Sprint("pergunta ", i)},
			fitclient.Message{Role: "ai", Message: fmt.Sprint("resposta ", i)})
	}
	b.rows[coach.Workout] = []fitclient.Message{{Role: "user", Message: "fica"}}
	s := newSession(t, coach.Diet, b, "tok")
	require.Len(t, s.Transcript(), 11)

	var asked string
	cleared, err := s.ClearHistory(context.Background(), ConfirmFunc(func(ctx context.Context, q string) bool {
		asked = q
		return false
	}))
	require.NoError(t, err)
	assert.False(t, cleared)
	assert.Equal(t, MsgConfirmClear, asked)
	assert.Equal(t, 10, b.rowCount(coach.Diet))

	cleared, err = s.ClearHistory(context.Background(), ConfirmFunc(func(context.Context, string) bool { return true }))
	require.NoError(t, err)
	assert.True(t, cleared)
	assert.Zero(t, b.rowCount(coach.Diet))
	assert.Equal(t, 1, b.rowCount(coach.Workout))
	assert.Equal(t, []string{coach.Diet.Greeting()}, texts(s.Transcript()))
	assert.Equal(t, StateIdle, s.State())
}

func TestSavePlan(t *testing.T) {
	b := newBackend()
	s := newSession(t, coach.Workout, b, "tok")
	_, err := s.Send(context.Background(), "Monte um treino de pernas")
	require.NoError(t, err)
	before := s.Transcript()

	candidate, ok := s.SaveCandidate()
	require.True(t, ok)
	require.NoError(t, s.OpenSaveDialog())
	assert.Equal(t, StateModalOpen, s.State())

	res, err := s.SavePlan(context.Background(), candidate.Text, "   ")
	assert.ErrorIs(t, err, ErrPlanNameRequired)
	assert.False(t, res.Saved)
	assert.Equal(t, MsgPlanNameRequired, res.Message)
	assert.Empty(t, b.plans[coach.Workout])
	assert.Equal(t, StateModalOpen, s.State())

	res, err = s.SavePlan(context.Background(), candidate.Text, " Plano de Pernas ")
	require.NoError(t, err)
	assert.True(t, res.Saved)
	require.Len(t, b.plans[coach.Workout], 1)
	assert.Equal(t, "Plano de Pernas", b.plans[coach.Workout][0].Name)
	assert.Equal(t, candidate.Text, b.plans[coach.Workout][0].Content)
	assert.Empty(t, b.plans[coach.Diet])
	assert.Equal(t, before, s.Transcript())
	assert.Equal(t, StateIdle, s.State())
}

func TestSaveCandidateHeuristic(t *testing.T) {
	b := newBackend()
	b.reply = "Que bom falar com você!"
	s := newSession(t, coach.Diet, b, "tok")

	_, ok := s.SaveCandidate()
	assert.False(t, ok, "greeting is never a candidate")

	_, err := s.Send(context.Background(), "Oi")
	require.NoError(t, err)
	_, ok = s.SaveCandidate()
	assert.False(t, ok)

	b.reply = "Café da manhã: ovos. Almoço: frango. Jantar: peixe."
	_, err = s.Send(context.Background(), "Monte minha dieta")
	require.NoError(t, err)
	got, ok := s.SaveCandidate()
	require.True(t, ok)
	assert.Equal(t, b.reply, got.Text)
}

func TestCancelSaveDialog(t *testing.T) {
	s := newSession(t, coach.Diet, newBackend(), "tok")
	require.NoError(t, s.OpenSaveDialog())
	_, err := s.Send(context.Background(), "Oi")
	assert.ErrorIs(t, err, ErrBusy)
	s.CancelSaveDialog()
	assert.Equal(t, StateIdle, s.State())
}
