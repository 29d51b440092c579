package chat

import (
	"context"
	"errors"
	"strings"

	"FitCoachAI/internal/coach"
	"FitCoachAI/internal/fitclient"
)

/* ====================================================================
                              Sending
==================================================================== */

// Send renders text as a user turn, asks the gateway for a reply and renders
// it. Only a successful exchange is persisted, user turn first. Gateway and
// transport failures mark the user turn Failed, add an error bubble to the
// transcript and are not returned; the returned error is ErrEmptyMessage or ErrBusy. The returned
// Turn is the bubble that was added for the reply.
func (s *Session) Send(ctx context.Context, text string) (Turn, error) {
	if strings.TrimSpace(text) == "" {
		return Turn{}, ErrEmptyMessage
	}
	if err := s.begin(StateAwaitingResponse); err != nil {
		return Turn{}, err
	}
	defer s.setState(StateIdle)

	userIdx := s.push(Turn{Role: coach.RoleUser, Text: text})

	token, err := s.deps.Tokens.Token(ctx)
	if err != nil {
		s.markFailed(userIdx)
		return s.pushFailure(MsgNotAuthenticated), nil
	}

	reply, err := s.deps.Gateway.Chat(ctx, token, fitclient.ChatRequest{
		Prompt:   text,
		Context:  s.chatType.Persona(),
		ChatType: s.chatType.Wire(),
		History:  s.gatewayHistory(),
	})
	if err != nil {
		s.markFailed(userIdx)
		return s.pushFailure(s.failureText(err)), nil
	}

	aiIdx := s.push(Turn{Role: coach.RoleAI, Text: reply})

	s.persist(ctx, token, userIdx, aiIdx)

	return s.turnAt(aiIdx), nil
}

// Regenerate asks the gateway for a new answer to the last user turn. The
// new answer is appended and persisted; earlier turns stay as they are.
func (s *Session) Regenerate(ctx context.Context) (Turn, error) {
	if err := s.begin(StateAwaitingResponse); err != nil {
		return Turn{}, err
	}
	defer s.setState(StateIdle)

	prompt, ok := s.lastUserText()
	if !ok {
		return Turn{}, ErrNothingToRedo
	}

	token, err := s.deps.Tokens.Token(ctx)
	if err != nil {
		return s.pushFailure(MsgNotAuthenticated), nil
	}

	reply, err := s.deps.Gateway.Chat(ctx, token, fitclient.ChatRequest{
		Prompt:         prompt,
		Context:        s.chatType.Persona(),
		ChatType:       s.chatType.Wire(),
		History:        s.gatewayHistory(),
		IsRegeneration: true,
	})
	if err != nil {
		return s.pushFailure(s.failureText(err)), nil
	}

	aiIdx := s.push(Turn{Role: coach.RoleAI, Text: reply})
	s.persist(ctx, token, aiIdx)

	return s.turnAt(aiIdx), nil
}

// failureText maps a gateway error to the bubble shown to the user. Errors the
// gateway reported are shown verbatim.
func (s *Session) failureText(err error) string {
	var apiErr *fitclient.APIError
	switch {
	case errors.As(err, &apiErr):
		s.log.Warn().Int("status", apiErr.StatusCode).Str("error", apiErr.Message).Msg("Gateway reported an error")
		if apiErr.Message == "" {
			return MsgGatewayFallback
		}
		return apiErr.Message
	case errors.Is(err, fitclient.ErrNoSession):
		return MsgNotAuthenticated
	default:
		s.log.Error().Err(err).Msg("Gateway unreachable")
		return MsgConnectionFailed
	}
}

func (s *Session) pushFailure(text string) Turn {
	t := Turn{Role: coach.RoleAI, Text: text, Failed: true}
	s.push(t)
	return t
}

// persist stores the turns at idxs in order. Rows are ordered by creation
// time, so once a turn is Unsaved every later turn is marked Unsaved instead
// of being appended, and RetryUnsaved syncs them in transcript order.
func (s *Session) persist(ctx context.Context, token string, idxs ...int) {
	blocked := s.Unsaved() > 0
	for _, idx := range idxs {
		if blocked {
			s.markUnsaved(idx, true)
			continue
		}
		t := s.turnAt(idx)
		err := s.deps.History.AppendMessage(ctx, token, s.chatType, fitclient.Message{
			Role:    string(t.Role),
			Message: t.Text,
		})
		if err != nil {
			s.log.Error().Err(err).Str("role", string(t.Role)).Msg("Failed to persist chat turn")
			s.markUnsaved(idx, true)
			blocked = true
		}
	}
}

// markFailed flags an unanswered user turn. It stays visible but is never
// stored, sent as history or regenerated.
func (s *Session) markFailed(idx int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx >= 0 && idx < len(s.transcript) {
		s.transcript[idx].Failed = true
	}
}

func (s *Session) turnAt(idx int) Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx < 0 || idx >= len(s.transcript) {
		return Turn{}
	}
	return s.transcript[idx]
}

func (s *Session) lastUserText() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.transcript) - 1; i >= 0; i-- {
		if t := s.transcript[i]; t.Role == coach.RoleUser && !t.Failed {
			return t.Text, true
		}
	}
	return "", false
}

/* ====================================================================
                            Saved Plans
==================================================================== */

// SaveResult is what the save dialog shows after a save attempt.
type SaveResult struct {
	Saved   bool
	Message string
	Plan    fitclient.Plan
}

// OpenSaveDialog moves Idle to ModalOpen.
func (s *Session) OpenSaveDialog() error {
	return s.begin(StateModalOpen)
}

// CancelSaveDialog closes the dialog without saving.
func (s *Session) CancelSaveDialog() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateModalOpen {
		s.state = StateIdle
	}
}

// SavePlan stores content under name as a plan of this chat type. The
// transcript is never changed. A blank name fails with ErrPlanNameRequired
// before anything is written. A successful save closes the save dialog.
func (s *Session) SavePlan(ctx context.Context, content, name string) (SaveResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return SaveResult{Message: MsgPlanNameRequired}, ErrPlanNameRequired
	}

	token, err := s.deps.Tokens.Token(ctx)
	if err != nil {
		return SaveResult{Message: MsgNotAuthenticated}, ErrNoSession
	}

	plan, err := s.deps.Plans.SavePlan(ctx, token, s.chatType, name, content)
	if err != nil {
		s.log.Error().Err(err).Str("plan_name", name).Msg("Failed to save plan")
		var apiErr *fitclient.APIError
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			return SaveResult{Message: apiErr.Message}, err
		}
		return SaveResult{Message: MsgPlanSaveFailed}, err
	}

	s.CancelSaveDialog()
	return SaveResult{Saved: true, Message: MsgPlanSaved, Plan: plan}, nil
}

// SaveCandidate returns the most recent coach answer when it looks like a
// plan for this chat type.
func (s *Session) SaveCandidate() (Turn, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.transcript) - 1; i >= 0; i-- {
		t := s.transcript[i]
		if t.Role != coach.RoleAI || t.Greeting || t.Failed {
			continue
		}
		if s.chatType.IsPlanCandidate(t.Text) {
			return t, true
		}
		return Turn{}, false
	}
	return Turn{}, false
}
