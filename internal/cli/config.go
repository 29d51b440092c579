/*
Package cli is the FitCoachAI terminal client: a line-editing REPL over the
chat sessions, with coach answers rendered as markdown.
*/
package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"FitCoachAI/internal/coach"
	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG
// =============================================================================

const (
	defaultServerURL = "http://localhost:8080"

	envToken     = "FITCOACH_TOKEN"
	envServerURL = "FITCOACH_SERVER_URL"
)

// Config is the client configuration stored in ~/.fitcoach/config.toml.
type Config struct {
	ServerURL string         `toml:"server_url"`
	Token     string         `toml:"token"`
	Theme     Theme          `toml:"theme"`
	Chat      coach.ChatType `toml:"chat"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		ServerURL: defaultServerURL,
		Theme:     ThemeAuto,
		Chat:      coach.Workout,
	}
}

// ConfigDir returns the fitcoach configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".fitcoach"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// LoadConfig reads path over the defaults. A missing file is not an error.
// Environment overrides are applied last.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if _, err := toml.DecodeFile(path, cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyEnvOverrides lets FITCOACH_TOKEN and FITCOACH_SERVER_URL win over the file.
func (c *Config) ApplyEnvOverrides() {
	if v := strings.TrimSpace(os.Getenv(envToken)); v != "" {
		c.Token = v
	}
	if v := strings.TrimSpace(os.Getenv(envServerURL)); v != "" {
		c.ServerURL = v
	}
}

// Validate fills blank fields with defaults and rejects unknown values.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ServerURL) == "" {
		c.ServerURL = defaultServerURL
	}
	if c.Theme == "" {
		c.Theme = ThemeAuto
	}
	if !c.Theme.Valid() {
		return fmt.Errorf("theme must be one of %s, %s or %s, got %q", ThemeAuto, ThemeDark, ThemeLight, c.Theme)
	}
	if c.Chat == 0 {
		c.Chat = coach.Workout
	}
	if !c.Chat.Valid() {
		return coach.ErrUnknownChatType
	}
	return nil
}

// SaveConfig writes cfg to path with owner-only permissions. The token is
// written too, so the file must stay private.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	fmt.Fprintln(file, "# fitcoach configuration file")
	fmt.Fprintln(file, "")

	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}
