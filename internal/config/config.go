/*
Package config loads the API server settings from the process environment,
optionally seeded from a local .env file.
*/
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds every runtime setting the API server needs.
type Config struct {
	Port        int
	DatabaseURL string
	JWTSecret   string
	AppEnv      string
	AutoMigrate bool

	GeminiAPIKey     string
	GeminiModel      string
	GeminiMaxRetries int
	GeminiTimeout    time.Duration

	// ChatRatePerMinute bounds generation requests per user. Zero disables the limiter.
	ChatRatePerMinute int
	CORSAllowOrigins  []string

	LogLevel  string
	LogFormat string
}

const (
	defaultPort        = 8080
	defaultGeminiModel = "gemini-2.5-flash"
)

// LoadConfig reads the environment. JWT_SECRET is the only mandatory key:
// without it no bearer token can be verified.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found")
	}

	jwtSecret, exists := os.LookupEnv("JWT_SECRET")
	if !exists || strings.TrimSpace(jwtSecret) == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	cfg := &Config{
		Port:              getEnvInt("PORT", defaultPort),
		DatabaseURL:       databaseURL(),
		JWTSecret:         jwtSecret,
		AppEnv:            normalizeEnv(getEnv("APP_ENV", "production")),
		AutoMigrate:       getEnvBool("AUTO_MIGRATE", true),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		GeminiModel:       getEnv("GEMINI_MODEL", defaultGeminiModel),
		GeminiMaxRetries:  getEnvInt("GEMINI_MAX_RETRIES", 3),
		GeminiTimeout:     getEnvDuration("GEMINI_TIMEOUT", 30*time.Second),
		ChatRatePerMinute: getEnvInt("CHAT_RATE_PER_MINUTE", 20),
		CORSAllowOrigins:  splitList(getEnv("CORS_ALLOW_ORIGINS", "https://*,http://*")),
		LogLevel:          strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:         strings.ToLower(getEnv("LOG_FORMAT", "")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL (or BLUEPRINT_DB_* variables) is required")
	}
	if strings.TrimSpace(cfg.GeminiModel) == "" {
		cfg.GeminiModel = defaultGeminiModel
	}
	if cfg.GeminiMaxRetries < 1 {
		cfg.GeminiMaxRetries = 1
	}

	return cfg, nil
}

// IsDevelopment reports whether human-friendly console logging should be used by default.
func (c *Config) IsDevelopment() bool {
	return c != nil && c.AppEnv == "development"
}

// databaseURL prefers DATABASE_URL and falls back to the discrete BLUEPRINT_DB_* keys.
func databaseURL() string {
	if url := getEnv("DATABASE_URL", ""); url != "" {
		return url
	}

	host := getEnv("BLUEPRINT_DB_HOST", "")
	if host == "" {
		return ""
	}

	url := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		getEnv("BLUEPRINT_DB_USERNAME", ""),
		getEnv("BLUEPRINT_DB_PASSWORD", ""),
		host,
		getEnv("BLUEPRINT_DB_PORT", "5432"),
		getEnv("BLUEPRINT_DB_DATABASE", ""),
	)
	if schema := getEnv("BLUEPRINT_DB_SCHEMA", ""); schema != "" {
		url += "&search_path=" + schema
	}
	return url
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		log.Warn().Str("key", key).Str("value", value).Msg("Invalid integer in environment, using default")
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil || d <= 0 {
		log.Warn().Str("key", key).Str("value", value).Msg("Invalid duration in environment, using default")
		return fallback
	}
	return d
}

func getEnvBool(key string, fallback bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback
	}

	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func normalizeEnv(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dev", "develop", "development", "local":
		return "development"
	case "prod", "production":
		return "production"
	case "stage", "staging":
		return "staging"
	case "test", "testing":
		return "test"
	default:
		return strings.ToLower(strings.TrimSpace(value))
	}
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
