package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_DefaultsWhenDefaultFileMissing(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 5, cfg.HistoryLimit)
	assert.Equal(t, 24*time.Hour, cfg.Server.SessionTTL)
}

func TestLoad_ExplicitFileMustExist(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "abacus.yaml", `
log_level: debug
history_limit: 10
server:
  port: "9090"
  session_ttl: 90m
redis:
  addr: localhost:6379
  db: 2
metrics:
  enabled: false
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 10, cfg.HistoryLimit)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 90*time.Minute, cfg.Server.SessionTTL)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, Default().Redis.Prefix, cfg.Redis.Prefix, "unset keys keep their default")
	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoad_JSON(t *testing.T) {
	path := writeFile(t, "abacus.json", `{"history_limit": 3, "server": {"port": 7000}}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.HistoryLimit)
	assert.Equal(t, 7000, cfg.Server.Port)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeFile(t, "abacus.yaml", "server:\n  port: 9090\n")
	t.Setenv("ABACUS_SERVER_PORT", "9191")
	t.Setenv("ABACUS_REDIS_ADDR", "redis:6379")
	t.Setenv("ABACUS_METRICS_ENABLED", "0")
	t.Setenv("ABACUS_HISTORY_LIMIT", "8")
	t.Setenv("ABACUS_SERVER_SESSION_TTL", "1h")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, 8, cfg.HistoryLimit)
	assert.Equal(t, time.Hour, cfg.Server.SessionTTL)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown key", "colour: blue\n"},
		{"bad duration", "server:\n  session_ttl: soon\n"},
		{"zero history", "history_limit: 0\n"},
		{"port range", "server:\n  port: 70000\n"},
		{"not yaml", "server: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "abacus.yaml", tt.content))
			assert.Error(t, err)
		})
	}
}
