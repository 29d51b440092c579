package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"FitCoachAI/internal/chat"
	"FitCoachAI/internal/coach"
	"FitCoachAI/internal/fitclient"
)

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// parseCommand splits a slash command into its lower-cased name and the rest
// of the line, trimmed.
func parseCommand(line string) (name, rest string) {
	line = strings.TrimSpace(line)
	name, rest, _ = strings.Cut(line, " ")
	return strings.ToLower(name), strings.TrimSpace(rest)
}

// HandleSlashCommand processes a slash command.
// Returns (shouldContinue, error) where shouldContinue=false means exit.
func (a *App) HandleSlashCommand(ctx context.Context, line string) (bool, error) {
	name, rest := parseCommand(line)

	switch name {
	case "/help", "/h", "/?", "/":
		a.printHelp()
		return true, nil

	case "/treino", "/workout":
		return true, a.switchChat(ctx, coach.Workout)

	case "/dieta", "/diet":
		return true, a.switchChat(ctx, coach.Diet)

	case "/clear":
		return true, a.clearHistory(ctx)

	case "/save":
		return true, a.savePlan(ctx, rest)

	case "/plans", "/planos":
		if sub, args := parseCommand(rest); sub == "delete" || sub == "apagar" {
			return true, a.deletePlan(ctx, args)
		}
		return true, a.listPlans(ctx, rest)

	case "/retry":
		return true, a.retryUnsaved(ctx)

	case "/regen":
		return true, a.regenerate(ctx)

	case "/theme", "/tema":
		return true, a.setTheme(rest)

	case "/quit", "/q", "/exit", "/sair":
		return false, nil

	default:
		return true, fmt.Errorf("comando desconhecido: %s (digite /help)", name)
	}
}

func (a *App) printHelp() {
	cmds := []struct{ cmd, desc string }{
		{"/treino", "Conversar com o Personal Trainer AI"},
		{"/dieta", "Conversar com o Nutricionista AI"},
		{"/save <nome>", "Salvar a última resposta como plano"},
		{"/plans [busca]", "Listar planos salvos"},
		{"/plans delete <tipo> <id>", "Apagar um plano salvo"},
		{"/clear", "Apagar o histórico desta conversa"},
		{"/retry", "Sincronizar mensagens não salvas"},
		{"/regen", "Gerar outra resposta para a última pergunta"},
		{"/theme auto|dark|light", "Trocar o tema"},
		{"/quit", "Sair"},
	}
	a.println(titleStyle.Render("Comandos"))
	for _, c := range cmds {
		a.println(fmt.Sprintf("  %s %s", commandStyle.Render(fmt.Sprintf("%-26s", c.cmd)), infoStyle.Render(c.desc)))
	}
}

func (a *App) switchChat(ctx context.Context, ct coach.ChatType) error {
	a.current = ct
	a.printTranscript(a.Current(ctx))
	return nil
}

func (a *App) clearHistory(ctx context.Context) error {
	cleared, err := a.Current(ctx).ClearHistory(ctx, a.confirm)
	if err != nil {
		if errors.Is(err, chat.ErrNoSession) {
			return errors.New(chat.MsgNotAuthenticated)
		}
		return fmt.Errorf("não foi possível limpar o histórico: %w", err)
	}
	if cleared {
		a.println(commandStyle.Render("[Histórico apagado]"))
		a.printTranscript(a.Current(ctx))
	}
	return nil
}

func (a *App) savePlan(ctx context.Context, name string) error {
	s := a.Current(ctx)
	candidate, ok := s.SaveCandidate()
	if !ok {
		a.warn("Nenhuma resposta recente parece um plano para salvar.")
		return nil
	}
	if err := s.OpenSaveDialog(); err != nil {
		return err
	}

	res, err := s.SavePlan(ctx, candidate.Text, name)
	if err != nil {
		s.CancelSaveDialog()
		a.warn(res.Message)
		return nil
	}
	a.println(commandStyle.Render(res.Message) + " " + infoStyle.Render(res.Plan.Name))
	return nil
}

func (a *App) listPlans(ctx context.Context, search string) error {
	token, err := a.tokens.Token(ctx)
	if err != nil {
		return errors.New(chat.MsgNotAuthenticated)
	}
	plans, err := a.backend.ListPlans(ctx, token, search)
	if err != nil {
		return fmt.Errorf("não foi possível carregar os planos: %w", err)
	}
	if len(plans) == 0 {
		a.info("Nenhum plano salvo.")
		return nil
	}
	for _, p := range plans {
		kind := p.Kind
		if ct, err := coach.ParseChatType(p.Kind); err == nil {
			kind = ct.Wire()
		}
		a.println(fmt.Sprintf("%s %s %s %s",
			commandStyle.Render("["+kind+"]"),
			p.Name,
			infoStyle.Render(p.CreatedAt.Local().Format("02/01/2006 15:04")),
			infoStyle.Render("id: "+p.ID)))
	}
	return nil
}

// deletePlan handles "/plans delete <treino|dieta> <id>".
func (a *App) deletePlan(ctx context.Context, args string) error {
	kind, id := parseCommand(args)
	if kind == "" || id == "" {
		return errors.New("uso: /plans delete <treino|dieta> <id>")
	}
	ct, err := coach.ParseChatType(kind)
	if err != nil {
		return fmt.Errorf("tipo de plano inválido: %s", kind)
	}
	if a.confirm == nil || !a.confirm.Confirm(ctx, "Apagar este plano?") {
		return nil
	}

	token, err := a.tokens.Token(ctx)
	if err != nil {
		return errors.New(chat.MsgNotAuthenticated)
	}
	if err := a.backend.DeletePlan(ctx, token, ct, id); err != nil {
		var apiErr *fitclient.APIError
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			return errors.New(apiErr.Message)
		}
		return fmt.Errorf("não foi possível apagar o plano: %w", err)
	}
	a.println(commandStyle.Render("[Plano apagado]"))
	return nil
}

func (a *App) retryUnsaved(ctx context.Context) error {
	n, err := a.Current(ctx).RetryUnsaved(ctx)
	if err != nil {
		return fmt.Errorf("não foi possível sincronizar: %w", err)
	}
	a.println(commandStyle.Render(fmt.Sprintf("[%d mensagem(ns) sincronizada(s)]", n)))
	return nil
}

func (a *App) regenerate(ctx context.Context) error {
	reply, err := a.Current(ctx).Regenerate(ctx)
	if errors.Is(err, chat.ErrNothingToRedo) {
		a.warn("Ainda não há pergunta para gerar de novo.")
		return nil
	}
	if err != nil {
		return err
	}
	a.printTurn(reply)
	return nil
}

func (a *App) setTheme(arg string) error {
	if arg == "" {
		a.info("Tema atual: " + string(a.prefs.Theme()))
		return nil
	}
	t, err := ParseTheme(arg)
	if err != nil {
		return err
	}
	if err := a.prefs.SetTheme(t); err != nil {
		return err
	}
	a.cfg.Theme = t
	if a.cfgPath != "" {
		if err := SaveConfig(a.cfg, a.cfgPath); err != nil {
			a.warn("Tema aplicado, mas não foi salvo: " + err.Error())
		}
	}
	a.println(commandStyle.Render("[Tema: " + string(t) + "]"))
	return nil
}
