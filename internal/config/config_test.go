package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DATABASE_URL", "postgres://localhost/fitcoach")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoadConfigRequiresDatabase(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("BLUEPRINT_DB_HOST", "")

	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DATABASE_URL", "postgres://localhost/fitcoach")
	t.Setenv("PORT", "")
	t.Setenv("APP_ENV", "dev")
	t.Setenv("GEMINI_MODEL", "")
	t.Setenv("GEMINI_TIMEOUT", "")
	t.Setenv("GEMINI_MAX_RETRIES", "0")
	t.Setenv("CORS_ALLOW_ORIGINS", " https://app.example.com , ,http://localhost:5173")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, defaultPort, cfg.Port)
	assert.Equal(t, "development", cfg.AppEnv)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, defaultGeminiModel, cfg.GeminiModel)
	assert.Equal(t, 30*time.Second, cfg.GeminiTimeout)
	assert.Equal(t, 1, cfg.GeminiMaxRetries)
	assert.Equal(t, []string{"https://app.example.com", "http://localhost:5173"}, cfg.CORSAllowOrigins)
}

func TestDatabaseURLFromBlueprintVariables(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("BLUEPRINT_DB_HOST", "db")
	t.Setenv("BLUEPRINT_DB_PORT", "6543")
	t.Setenv("BLUEPRINT_DB_USERNAME", "fit")
	t.Setenv("BLUEPRINT_DB_PASSWORD", "pw")
	t.Setenv("BLUEPRINT_DB_DATABASE", "coach")
	t.Setenv("BLUEPRINT_DB_SCHEMA", "public")

	assert.Equal(t, "postgres://fit:pw@db:6543/coach?sslmode=disable&search_path=public", databaseURL())
}

func TestGetEnvParsers(t *testing.T) {
	t.Setenv("X_BOOL", "yes")
	t.Setenv("X_INT", "abc")
	t.Setenv("X_DUR", "2m")

	assert.True(t, getEnvBool("X_BOOL", false))
	assert.Equal(t, 7, getEnvInt("X_INT", 7))
	assert.Equal(t, 2*time.Minute, getEnvDuration("X_DUR", time.Second))
	assert.Equal(t, "staging", normalizeEnv(" Stage "))
}
