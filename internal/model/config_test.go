package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	want := DefaultAppConfig()
	assert.Equal(t, want.UserID, cfg.UserID)
	assert.Equal(t, "openai", cfg.AI.Provider)
	assert.Equal(t, 1024, cfg.AI.MaxTokens)
	assert.Equal(t, 100, cfg.Mail.Limit)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfig_FileAndEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
user_id: alice
ai:
  provider: anthropic
  time_zone: Europe/Berlin
mail:
  enabled: true
  host: imap.example.com
  limit: 0
log:
  pretty: true
`), 0o600))

	t.Setenv("ASSISTANT_AI_MODEL", "claude-test")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "alice", cfg.UserID)
	assert.Equal(t, "anthropic", cfg.AI.Provider)
	assert.Equal(t, "claude-test", cfg.AI.Model)
	assert.Equal(t, "Europe/Berlin", cfg.AI.TimeZone)
	assert.True(t, cfg.Mail.Enabled)
	assert.Equal(t, "993", cfg.Mail.Port)
	assert.Equal(t, 100, cfg.Mail.Limit, "non-positive limit falls back to the default")
	assert.True(t, cfg.Log.Pretty)
}

func TestLoadConfig_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ai: [unclosed"), 0o600))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestSaveConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultAppConfig()
	cfg.UserID = "bob"
	cfg.AI.Provider = "gemini"
	cfg.Store.Path = "/tmp/assistant.db"
	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "bob", loaded.UserID)
	assert.Equal(t, "gemini", loaded.AI.Provider)
	assert.Equal(t, "/tmp/assistant.db", loaded.Store.Path)
}
