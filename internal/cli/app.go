package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"FitCoachAI/internal/chat"
	"FitCoachAI/internal/coach"
	"FitCoachAI/internal/fitclient"
	"github.com/rs/zerolog"
)

// Backend is everything the client needs from the server. *fitclient.Client
// implements it.
type Backend interface {
	chat.Gateway
	chat.HistoryStore
	chat.PlanStore
	ListPlans(ctx context.Context, token, search string) ([]fitclient.Plan, error)
	DeletePlan(ctx context.Context, token string, ct coach.ChatType, id string) error
	DailyMessage(ctx context.Context, token string) (string, error)
}

var _ Backend = (*fitclient.Client)(nil)

// App is one interactive client run. Each chat type keeps its own session,
// created the first time the user switches to it.
type App struct {
	cfg     *Config
	cfgPath string
	prefs   *Preferences
	render  *Renderer

	backend Backend
	tokens  chat.TokenSource
	logger  *zerolog.Logger

	sessions map[coach.ChatType]*chat.Session
	current  coach.ChatType

	out     io.Writer
	confirm chat.Confirmer
}

// Options configure NewApp. Zero values fall back to defaults.
type Options struct {
	ConfigPath string
	Out        io.Writer
	Confirm    chat.Confirmer
	Logger     *zerolog.Logger
}

// NewApp wires a client run around backend. Theme changes made during the run
// are written back to opts.ConfigPath when it is set.
func NewApp(cfg *Config, backend Backend, tokens chat.TokenSource, opts Options) *App {
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	prefs := NewPreferences(cfg.Theme)
	return &App{
		cfg:      cfg,
		cfgPath:  opts.ConfigPath,
		prefs:    prefs,
		render:   NewRenderer(prefs),
		backend:  backend,
		tokens:   tokens,
		logger:   opts.Logger,
		sessions: make(map[coach.ChatType]*chat.Session),
		current:  cfg.Chat,
		out:      out,
		confirm:  opts.Confirm,
	}
}

// Preferences returns the shared display preferences.
func (a *App) Preferences() *Preferences { return a.prefs }

// Current returns the active chat session, creating it on first use.
func (a *App) Current(ctx context.Context) *chat.Session {
	return a.session(ctx, a.current)
}

func (a *App) session(ctx context.Context, ct coach.ChatType) *chat.Session {
	if s, ok := a.sessions[ct]; ok {
		return s
	}
	s := chat.NewSession(ct, chat.Deps{
		Tokens:  a.tokens,
		Gateway: a.backend,
		History: a.backend,
		Plans:   a.backend,
		Logger:  a.logger,
	})
	if err := s.LoadHistory(ctx); err != nil {
		a.warn(err.Error())
	}
	a.sessions[ct] = s
	return s
}

// Close releases the renderer subscription.
func (a *App) Close() {
	a.render.Close()
}

/* ====================================================================
                              Output
==================================================================== */

func (a *App) println(s string) {
	fmt.Fprintln(a.out, s)
}

func (a *App) info(s string) {
	a.println(infoStyle.Render(s))
}

func (a *App) warn(s string) {
	a.println(warningStyle.Render(s))
}

func (a *App) printTurn(t chat.Turn) {
	a.println(a.render.Turn(t))
	a.println("")
}

func (a *App) printTranscript(s *chat.Session) {
	ct := s.ChatType()
	a.println(titleStyle.Render(ct.Title()))
	a.info(strings.Repeat("─", 30))
	for _, t := range s.Transcript() {
		a.printTurn(t)
	}
	if n := s.Unsaved(); n > 0 {
		a.warn(fmt.Sprintf("%d mensagem(ns) não salva(s). Use /retry para sincronizar.", n))
	}
}

// printDaily shows today's motivational message. Failures are silent.
func (a *App) printDaily(ctx context.Context) {
	token, err := a.tokens.Token(ctx)
	if err != nil {
		return
	}
	msg, err := a.backend.DailyMessage(ctx, token)
	if err != nil || strings.TrimSpace(msg) == "" {
		return
	}
	a.println(commandStyle.Render("Mensagem do dia: ") + msg)
	a.println("")
}

// SendMessage sends input to the active session and prints the reply.
func (a *App) SendMessage(ctx context.Context, input string) {
	reply, err := a.Current(ctx).Send(ctx, input)
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		return
	case err != nil:
		a.warn("Aguarde a resposta anterior.")
		return
	}
	a.printTurn(reply)
	if _, ok := a.Current(ctx).SaveCandidate(); ok {
		a.info("Dica: use /save <nome> para salvar esta resposta como plano.")
	}
}
