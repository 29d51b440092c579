package cli

import (
	"strings"
	"sync"

	"FitCoachAI/internal/chat"
	"FitCoachAI/internal/coach"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	// Prompt style
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#22D3EE")).
			Bold(true)

	// Chat title banner
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A78BFA")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94A3B8"))

	commandStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#34D399"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	userLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#22D3EE")).
			Bold(true)

	coachLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#34D399")).
			Bold(true)
)

const wordWrap = 80

// =============================================================================
// MARKDOWN
// =============================================================================

// Renderer turns coach answers into terminal markdown using the current
// theme. It follows theme changes published by Preferences.
type Renderer struct {
	mu    sync.Mutex
	md    *glamour.TermRenderer
	unsub func()
}

// NewRenderer builds a renderer for prefs' current theme and subscribes to
// later changes.
func NewRenderer(prefs *Preferences) *Renderer {
	r := &Renderer{}
	r.setTheme(prefs.Theme())
	r.unsub = prefs.Subscribe(r.setTheme)
	return r
}

func styleOption(t Theme) glamour.TermRendererOption {
	switch t {
	case ThemeDark:
		return glamour.WithStandardStyle("dark")
	case ThemeLight:
		return glamour.WithStandardStyle("light")
	default:
		return glamour.WithAutoStyle()
	}
}

func (r *Renderer) setTheme(t Theme) {
	md, err := glamour.NewTermRenderer(styleOption(t), glamour.WithWordWrap(wordWrap))
	if err != nil {
		// Fall back to plain text.
		md = nil
	}
	r.mu.Lock()
	r.md = md
	r.mu.Unlock()
}

// Markdown renders text, returning it unchanged when rendering fails.
func (r *Renderer) Markdown(text string) string {
	r.mu.Lock()
	md := r.md
	r.mu.Unlock()
	if md == nil {
		return text
	}
	out, err := md.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

// Turn renders one transcript bubble with its speaker label.
func (r *Renderer) Turn(t chat.Turn) string {
	if t.Role == coach.RoleUser {
		label := userLabelStyle.Render("Você")
		switch {
		case t.Failed:
			label += " " + errorStyle.Render("(sem resposta, não salvo)")
		case t.Unsaved:
			label += " " + warningStyle.Render("(não salvo)")
		}
		return label + "\n" + t.Text
	}

	label := coachLabelStyle.Render("FitCoachAI")
	switch {
	case t.Failed:
		return label + "\n" + errorStyle.Render(t.Text)
	case t.Unsaved:
		label += " " + warningStyle.Render("(não salvo)")
	}
	return label + "\n" + r.Markdown(t.Text)
}

// Close stops following theme changes.
func (r *Renderer) Close() {
	if r.unsub != nil {
		r.unsub()
	}
}
