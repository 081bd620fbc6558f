package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets variables the host may define; t.Setenv restores them afterwards.
func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t, "PORT", "OPENAI_MODEL", "SUMMARY_MAX_TOKENS", "PROVIDER_TIMEOUT",
		"SPOKESPERSON_DB", "SPOKESPERSON_STATE", "SPOKESPERSON_MAX_INPUT", "LOG_LEVEL", "LOG_FORMAT")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, "gpt-3.5-turbo", cfg.OpenAIModel)
	assert.Equal(t, 150, cfg.SummaryMaxTokens)
	assert.Equal(t, 5*time.Second, cfg.ProviderTimeout)
	assert.Equal(t, "spokesperson.db", cfg.DatabasePath)
	assert.Equal(t, StateMemory, cfg.StateBackend)
	assert.Equal(t, 4096, cfg.MaxInputSize)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("PROVIDER_TIMEOUT", "2s")
	t.Setenv("SPOKESPERSON_STATE", "redis")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8081, cfg.Port)
	assert.True(t, cfg.CompletionEnabled())
	assert.Equal(t, 2*time.Second, cfg.ProviderTimeout)
	assert.Equal(t, StateRedis, cfg.StateBackend)
}

func TestLoad_DotenvDoesNotOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("OPENAI_MODEL=gpt-4o-mini\nPORT=7000\n"), 0o600))

	clearEnv(t, "OPENAI_MODEL")
	t.Setenv("PORT", "9000")

	cfg, err := Load(path, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAIModel)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"state backend", "SPOKESPERSON_STATE", "postgres"},
		{"port", "PORT", "0"},
		{"port not a number", "PORT", "abc"},
		{"timeout", "PROVIDER_TIMEOUT", "0s"},
		{"log level", "LOG_LEVEL", "loud"},
		{"log format", "LOG_FORMAT", "xml"},
		{"fallback keys without active key", "SPOKESPERSON_STATE_FALLBACK_KEYS", "a,b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t, "SPOKESPERSON_STATE_KEY")
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_StateKeys(t *testing.T) {
	t.Setenv("SPOKESPERSON_STATE_KEY", "active")
	t.Setenv("SPOKESPERSON_STATE_FALLBACK_KEYS", "old1,old2")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "active", cfg.StateKey)
	assert.Equal(t, []string{"old1", "old2"}, cfg.StateFallbackKeys)
}
