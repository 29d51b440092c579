package cli

import (
	"fmt"
	"strings"
	"sync"
)

// Theme selects the markdown style of coach answers.
type Theme string

const (
	ThemeAuto  Theme = "auto"
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// Valid reports whether t is a known theme.
func (t Theme) Valid() bool {
	switch t {
	case ThemeAuto, ThemeDark, ThemeLight:
		return true
	}
	return false
}

// ParseTheme accepts a theme name case-insensitively.
func ParseTheme(s string) (Theme, error) {
	t := Theme(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown theme %q (use auto, dark or light)", s)
	}
	return t, nil
}

// =============================================================================
// PREFERENCES
// =============================================================================

// Preferences holds the display settings shared by every part of the client.
// Components read the current value and subscribe to changes instead of
// keeping their own copy.
type Preferences struct {
	mu     sync.Mutex
	theme  Theme
	nextID int
	subs   map[int]func(Theme)
}

// NewPreferences starts with theme, or ThemeAuto when theme is invalid.
func NewPreferences(theme Theme) *Preferences {
	if !theme.Valid() {
		theme = ThemeAuto
	}
	return &Preferences{theme: theme, subs: make(map[int]func(Theme))}
}

// Theme returns the current theme.
func (p *Preferences) Theme() Theme {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.theme
}

// SetTheme changes the theme and notifies subscribers when it differs from
// the current one. Subscribers run synchronously, outside the lock.
func (p *Preferences) SetTheme(t Theme) error {
	if !t.Valid() {
		return fmt.Errorf("unknown theme %q", t)
	}

	p.mu.Lock()
	if p.theme == t {
		p.mu.Unlock()
		return nil
	}
	p.theme = t
	subs := make([]func(Theme), 0, len(p.subs))
	for _, fn := range p.subs {
		subs = append(subs, fn)
	}
	p.mu.Unlock()

	for _, fn := range subs {
		fn(t)
	}
	return nil
}

// Subscribe registers fn for theme changes and returns a function that
// removes it.
func (p *Preferences) Subscribe(fn func(Theme)) (unsubscribe func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextID
	p.nextID++
	p.subs[id] = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.subs, id)
	}
}
