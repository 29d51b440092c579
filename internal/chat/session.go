/*
Package chat drives one coaching conversation: it loads the stored history,
sends user turns to the generation gateway, renders replies, persists both
sides of an exchange and copies answers into named plans.

A Session renders first and persists second. Turns whose persistence failed
stay visible with an Unsaved marker until RetryUnsaved reconciles them.
*/
package chat

import (
	"context"
	"errors"
	"strings"
	"sync"

	"FitCoachAI/internal/coach"
	"FitCoachAI/internal/fitclient"
	"github.com/rs/zerolog"
)

// State is the lifecycle stage of a Session.
type State int

const (
	StateLoadingHistory State = iota
	StateIdle
	StateAwaitingResponse
	StateModalOpen
)

func (s State) String() string {
	switch s {
	case StateLoadingHistory:
		return "loading-history"
	case StateIdle:
		return "idle"
	case StateAwaitingResponse:
		return "awaiting-response"
	case StateModalOpen:
		return "modal-open"
	}
	return "unknown"
}

var (
	ErrEmptyMessage     = errors.New("chat: message is empty")
	ErrBusy             = errors.New("chat: session is busy")
	ErrNoSession        = fitclient.ErrNoSession
	ErrPlanNameRequired = errors.New("chat: plan name is required")
	ErrNothingToRedo    = errors.New("chat: no answer to regenerate")
)

// User-facing texts rendered into the transcript or the save dialog.
const (
	MsgConnectionFailed = "Não consegui me conectar ao servidor."
	MsgNotAuthenticated = "Usuário não autenticado. Faça login novamente."
	MsgGatewayFallback  = "Desculpe, ocorreu um erro."
	MsgConfirmClear     = "Tem certeza que deseja apagar todo o histórico desta conversa?"

	MsgPlanSaved        = "Plano salvo com sucesso!"
	MsgPlanNameRequired = "Dê um nome ao seu plano antes de salvar."
	MsgPlanSaveFailed   = "Não foi possível salvar o plano. Tente novamente."
)

// Turn is one bubble of the visible transcript.
type Turn struct {
	Role coach.Role
	Text string
	// Greeting marks the fixed welcome bubble, which is never stored or sent.
	Greeting bool
	// Failed marks an error bubble, or a user turn that got no answer.
	Failed bool
	// Unsaved marks a turn that is visible but not yet stored.
	Unsaved bool
}

// TokenSource supplies the bearer token of the signed-in user.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Gateway generates coach replies. Non-2xx answers are *fitclient.APIError.
type Gateway interface {
	Chat(ctx context.Context, token string, req fitclient.ChatRequest) (string, error)
}

// HistoryStore persists chat turns per chat type.
type HistoryStore interface {
	ListMessages(ctx context.Context, token string, ct coach.ChatType) ([]fitclient.Message, error)
	AppendMessage(ctx context.Context, token string, ct coach.ChatType, m fitclient.Message) error
	SyncMessages(ctx context.Context, token string, ct coach.ChatType, msgs []fitclient.Message) (int64, error)
	ClearMessages(ctx context.Context, token string, ct coach.ChatType) error
}

// PlanStore persists named plans.
type PlanStore interface {
	SavePlan(ctx context.Context, token string, ct coach.ChatType, name, content string) (fitclient.Plan, error)
}

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(ctx context.Context, question string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, question string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, question string) bool { return f(ctx, question) }

// Deps are the collaborators of a Session. *fitclient.Client implements
// Gateway, HistoryStore and PlanStore.
type Deps struct {
	Tokens  TokenSource
	Gateway Gateway
	History HistoryStore
	Plans   PlanStore
	Logger  *zerolog.Logger
}

// Session is one conversation of a single chat type. It is safe for
// concurrent use; at most one generation runs at a time.
type Session struct {
	chatType coach.ChatType
	deps     Deps
	log      zerolog.Logger

	mu         sync.Mutex
	state      State
	transcript []Turn
}

// NewSession returns a session in StateLoadingHistory. Call LoadHistory next.
func NewSession(ct coach.ChatType, deps Deps) *Session {
	logger := zerolog.Nop()
	if deps.Logger != nil {
		logger = *deps.Logger
	}
	return &Session{
		chatType:   ct,
		deps:       deps,
		log:        logger.With().Str("chat_type", ct.String()).Logger(),
		state:      StateLoadingHistory,
		transcript: []Turn{greetingTurn(ct)},
	}
}

func greetingTurn(ct coach.ChatType) Turn {
	return Turn{Role: coach.RoleAI, Text: ct.Greeting(), Greeting: true}
}

// ChatType returns the variant this session coaches on.
func (s *Session) ChatType() coach.ChatType { return s.chatType }

// State returns the current lifecycle stage.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Transcript returns a copy of the visible turns.
func (s *Session) Transcript() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Turn, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// begin moves Idle to next, or reports ErrBusy.
func (s *Session) begin(next State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateIdle {
		return ErrBusy
	}
	s.state = next
	return nil
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

/* ====================================================================
                              History
==================================================================== */

// LoadHistory replaces the transcript with the greeting followed by the
// stored turns. Any failure, including a missing session, leaves only the
// greeting. The session is Idle afterwards. It returns ErrBusy only when
// another operation is in flight.
func (s *Session) LoadHistory(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateLoadingHistory && s.state != StateIdle {
		s.mu.Unlock()
		return ErrBusy
	}
	s.state = StateLoadingHistory
	s.mu.Unlock()
	defer s.setState(StateIdle)

	turns := []Turn{greetingTurn(s.chatType)}

	token, err := s.deps.Tokens.Token(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("No session; showing greeting only")
		s.replaceTranscript(turns)
		return nil
	}

	msgs, err := s.deps.History.ListMessages(ctx, token, s.chatType)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to load chat history")
		s.replaceTranscript(turns)
		return nil
	}

	for _, m := range msgs {
		if coach.IsGreeting(m.Message) || strings.TrimSpace(m.Message) == "" {
			continue
		}
		role := coach.RoleAI
		if m.Role == string(coach.RoleUser) {
			role = coach.RoleUser
		}
		turns = append(turns, Turn{Role: role, Text: m.Message})
	}
	s.replaceTranscript(turns)
	return nil
}

func (s *Session) replaceTranscript(turns []Turn) {
	s.mu.Lock()
	s.transcript = turns
	s.mu.Unlock()
}

// push adds t and returns its index.
func (s *Session) push(t Turn) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript = append(s.transcript, t)
	return len(s.transcript) - 1
}

func (s *Session) markUnsaved(idx int, unsaved bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx >= 0 && idx < len(s.transcript) {
		s.transcript[idx].Unsaved = unsaved
	}
}

// gatewayHistory renders the transcript for the gateway, leaving out the
// greeting and error bubbles.
func (s *Session) gatewayHistory() []fitclient.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	history := make([]fitclient.HistoryEntry, 0, len(s.transcript))
	for _, t := range s.transcript {
		if t.Greeting || t.Failed {
			continue
		}
		role := "model"
		if t.Role == coach.RoleUser {
			role = "user"
		}
		history = append(history, fitclient.HistoryEntry{Role: role, Parts: []fitclient.HistoryPart{{Text: t.Text}}})
	}
	return history
}

// ClearHistory deletes every stored turn of this chat type once confirm
// agrees, and resets the transcript to the greeting. It reports whether the
// history was cleared.
func (s *Session) ClearHistory(ctx context.Context, confirm Confirmer) (bool, error) {
	if err := s.begin(StateAwaitingResponse); err != nil {
		return false, err
	}
	defer s.setState(StateIdle)

	if confirm == nil || !confirm.Confirm(ctx, MsgConfirmClear) {
		return false, nil
	}

	token, err := s.deps.Tokens.Token(ctx)
	if err != nil {
		return false, ErrNoSession
	}
	if err := s.deps.History.ClearMessages(ctx, token, s.chatType); err != nil {
		s.log.Error().Err(err).Msg("Failed to clear chat history")
		return false, err
	}

	s.replaceTranscript([]Turn{greetingTurn(s.chatType)})
	return true, nil
}

// RetryUnsaved sends every Unsaved turn through the history sync endpoint,
// which skips turns the server already has. Markers are cleared on success.
// It returns how many rows the server wrote.
func (s *Session) RetryUnsaved(ctx context.Context) (int64, error) {
	if err := s.begin(StateAwaitingResponse); err != nil {
		return 0, err
	}
	defer s.setState(StateIdle)

	s.mu.Lock()
	var (
		idx  []int
		msgs []fitclient.Message
	)
	for i, t := range s.transcript {
		if t.Unsaved {
			idx = append(idx, i)
			msgs = append(msgs, fitclient.Message{Role: string(t.Role), Message: t.Text})
		}
	}
	s.mu.Unlock()

	if len(msgs) == 0 {
		return 0, nil
	}

	token, err := s.deps.Tokens.Token(ctx)
	if err != nil {
		return 0, ErrNoSession
	}
	n, err := s.deps.History.SyncMessages(ctx, token, s.chatType, msgs)
	if err != nil {
		s.log.Error().Err(err).Int("turns", len(msgs)).Msg("Failed to sync unsaved turns")
		return 0, err
	}

	for _, i := range idx {
		s.markUnsaved(i, false)
	}
	return n, nil
}

// Unsaved reports how many visible turns are not stored yet.
func (s *Session) Unsaved() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.transcript {
		if t.Unsaved {
			n++
		}
	}
	return n
}
