package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, 16*time.Millisecond, cfg.Render.FrameInterval)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Document.Path, cfg.Document.Path)
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  address: ":9090"
  environment: production
document:
  path: /var/lib/mindcanvas/doc.json
  autoSaveInterval: 30s
history:
  limit: 200
logging:
  level: warn
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "/var/lib/mindcanvas/doc.json", cfg.Document.Path)
	assert.Equal(t, 30*time.Second, cfg.Document.AutoSaveInterval)
	assert.Equal(t, 200, cfg.History.Limit)
	assert.Equal(t, "warn", cfg.Logging.Level)
	// Untouched sections keep their defaults
	assert.Equal(t, 2*time.Second, cfg.Monitor.SampleInterval)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  address: \":9090\"\n"), 0o644))

	t.Setenv("SERVER_ADDRESS", ":7070")
	t.Setenv("HISTORY_LIMIT", "10")
	t.Setenv("AUTO_SAVE", "false")
	t.Setenv("FRAME_INTERVAL_MS", "32")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Address)
	assert.Equal(t, 10, cfg.History.Limit)
	assert.False(t, cfg.Document.AutoSave)
	assert.Equal(t, 32*time.Millisecond, cfg.Render.FrameInterval)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "bad environment", mutate: func(c *Config) { c.Server.Environment = "staging" }},
		{name: "empty document path", mutate: func(c *Config) { c.Document.Path = "" }},
		{name: "sub-second autosave", mutate: func(c *Config) { c.Document.AutoSaveInterval = 100 * time.Millisecond }},
		{name: "zero history", mutate: func(c *Config) { c.History.Limit = 0 }},
		{name: "zero canvas", mutate: func(c *Config) { c.Render.CanvasWidth = 0 }},
		{name: "bad log level", mutate: func(c *Config) { c.Logging.Level = "trace" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("MC_TEST_STR", "value")
	t.Setenv("MC_TEST_BOOL", "yes")
	t.Setenv("MC_TEST_INT", "42")

	assert.Equal(t, "value", getEnv("MC_TEST_STR", "fallback"))
	assert.Equal(t, "fallback", getEnv("MC_TEST_MISSING", "fallback"))
	assert.True(t, getEnvBool("MC_TEST_BOOL", false))
	assert.False(t, getEnvBool("MC_TEST_MISSING", false))
	assert.Equal(t, 42, getEnvInt("MC_TEST_INT", 0))
	assert.Equal(t, 7, getEnvInt("MC_TEST_MISSING", 7))
}
