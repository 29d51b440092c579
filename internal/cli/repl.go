package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"FitCoachAI/internal/chat"
	"github.com/peterh/liner"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// LineReader provides input history and line editing for the REPL.
type LineReader struct {
	line        *liner.State
	historyFile string
}

// NewLineReader creates a LineReader and loads the history kept next to the
// config file.
func NewLineReader(configDir string) *LineReader {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	if configDir == "" {
		configDir = os.TempDir()
	}
	r := &LineReader{line: line, historyFile: filepath.Join(configDir, "history")}

	if f, err := os.Open(r.historyFile); err == nil {
		r.line.ReadHistory(f)
		f.Close()
	}
	return r
}

// ReadInput reads a line with the given prompt, adding non-empty input to history.
func (r *LineReader) ReadInput(prompt string) (string, error) {
	input, err := r.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		r.line.AppendHistory(input)
	}
	return input, nil
}

// Confirm asks a yes/no question; only an explicit "s" or "sim" agrees.
func (r *LineReader) Confirm(ctx context.Context, question string) bool {
	answer, err := r.line.Prompt(question + " (s/N) ")
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "s", "sim", "y", "yes":
		return true
	}
	return false
}

// Close saves history with owner-only permissions and restores the terminal.
func (r *LineReader) Close() {
	if err := os.MkdirAll(filepath.Dir(r.historyFile), 0o700); err == nil {
		if f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600); err == nil {
			r.line.WriteHistory(f)
			f.Close()
		}
	}
	r.line.Close()
}

var _ chat.Confirmer = (*LineReader)(nil)

// =============================================================================
// REPL
// =============================================================================

// Run reads input until /quit or end of input. Plain lines are sent to the
// active chat; lines starting with "/" are commands.
func (a *App) Run(ctx context.Context, input *LineReader) error {
	a.println(titleStyle.Render("FitCoachAI"))
	a.info("Digite sua mensagem e pressione Enter. Comandos: /help, /quit")
	a.println("")

	a.printDaily(ctx)
	a.printTranscript(a.Current(ctx))

	for {
		line, err := input.ReadInput(promptStyle.Render(a.current.Wire() + "> "))
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				a.warn("[Cancelado]")
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			cont, err := a.HandleSlashCommand(ctx, line)
			if err != nil {
				a.println(errorStyle.Render("[Erro]") + " " + err.Error())
			}
			if !cont {
				return nil
			}
			continue
		}

		a.SendMessage(ctx, line)
	}
}
