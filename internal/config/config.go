// Package config loads runtime settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/Tyler-Pritchard/Spokesperson/internal/logging"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// StateBackend selects where conversation states live.
type StateBackend string

const (
	StateMemory StateBackend = "memory"
	StateFile   StateBackend = "file"
	StateRedis  StateBackend = "redis"
)

// Config holds every setting. Cobra flags override these values in cmd/spokesperson.
type Config struct {
	Port int `env:"PORT" envDefault:"5000"`

	// Completion service
	OpenAIAPIKey     string        `env:"OPENAI_API_KEY"`
	OpenAIModel      string        `env:"OPENAI_MODEL" envDefault:"gpt-3.5-turbo"`
	OpenAIBaseURL    string        `env:"OPENAI_BASE_URL"`
	SummaryMaxTokens int           `env:"SUMMARY_MAX_TOKENS" envDefault:"150"`
	ProviderTimeout  time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"5s"`
	FollowUps        bool          `env:"SPOKESPERSON_FOLLOW_UPS" envDefault:"false"`
	SystemPrompt     string        `env:"SPOKESPERSON_SYSTEM_PROMPT"`

	// Storage
	DatabasePath string        `env:"SPOKESPERSON_DB" envDefault:"spokesperson.db"`
	StateBackend StateBackend  `env:"SPOKESPERSON_STATE" envDefault:"memory"`
	StateDir     string        `env:"SPOKESPERSON_STATE_DIR" envDefault:".spokesperson/sessions"`
	RedisAddr    string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPrefix  string        `env:"REDIS_PREFIX" envDefault:"spokesperson:session:"`
	SessionTTL   time.Duration `env:"SPOKESPERSON_SESSION_TTL" envDefault:"24h"`
	JanitorSpec  string        `env:"SPOKESPERSON_JANITOR" envDefault:"@every 10m"`

	// StateKey is a base64 AES-256 key. When set, stored answers are encrypted.
	StateKey          string   `env:"SPOKESPERSON_STATE_KEY"`
	StateFallbackKeys []string `env:"SPOKESPERSON_STATE_FALLBACK_KEYS" envSeparator:","`

	// Conversation
	CatalogPath  string `env:"SPOKESPERSON_CATALOG"`
	MaxInputSize int    `env:"SPOKESPERSON_MAX_INPUT" envDefault:"4096"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

// Load reads the given .env files (missing files are skipped) and then the environment.
// Variables already set in the environment win over .env values.
func Load(dotenvFiles ...string) (*Config, error) {
	for _, f := range dotenvFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values env tags cannot express.
func (c *Config) Validate() error {
	switch c.StateBackend {
	case StateMemory, StateFile, StateRedis:
	default:
		return fmt.Errorf("unknown state backend %q (want memory, file or redis)", c.StateBackend)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.SummaryMaxTokens <= 0 {
		return fmt.Errorf("summary max tokens must be positive, got %d", c.SummaryMaxTokens)
	}
	if c.ProviderTimeout <= 0 {
		return fmt.Errorf("provider timeout must be positive, got %s", c.ProviderTimeout)
	}
	if c.StateKey == "" && len(c.StateFallbackKeys) > 0 {
		return errors.New("fallback state keys require SPOKESPERSON_STATE_KEY")
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch logging.Format(strings.ToLower(c.LogFormat)) {
	case logging.FormatText, logging.FormatJSON:
	default:
		return fmt.Errorf("unknown log format %q (want text or json)", c.LogFormat)
	}
	return nil
}

// CompletionEnabled reports whether an API key is configured.
func (c *Config) CompletionEnabled() bool {
	return strings.TrimSpace(c.OpenAIAPIKey) != ""
}

// Logger builds the application logger from LogLevel and LogFormat.
func (c *Config) Logger() *slog.Logger {
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	return logging.New(level, logging.Format(strings.ToLower(c.LogFormat)))
}
