package config

import (
	"os"
	"path/filepath"
	"testing"

	"smsrelay/internal/constants"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfigFillsDefaults(t *testing.T) {
	path := writeConfigFile(t, `{"database": {"path": "/tmp/smsrelay.db"}}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/smsrelay.db", cfg.Database.Path)
	assert.Equal(t, constants.DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, constants.DefaultHTTPTimeoutSec, cfg.HTTP.TimeoutSec)
	assert.Equal(t, constants.DefaultRelayBaseURL, cfg.Relay.BaseURL)
	assert.Equal(t, constants.DefaultRelayBotHandle, cfg.Relay.BotHandle)
	assert.Equal(t, constants.DefaultLinkPollIntervalSec, cfg.Relay.LinkPollIntervalSec)
	assert.Equal(t, constants.DefaultBackoffMaxAttempts, cfg.Retry.MaxAttempts)
}

func TestLoadConfigKeepsExplicitValues(t *testing.T) {
	path := writeConfigFile(t, `{
		"server": {"port": 9000},
		"database": {"path": "/tmp/smsrelay.db"},
		"relay": {"baseUrl": "https://relay.internal", "botHandle": "my_bot"}
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "https://relay.internal", cfg.Relay.BaseURL)
	assert.Equal(t, "my_bot", cfg.Relay.BotHandle)
}

func TestLoadConfigMissingDatabasePath(t *testing.T) {
	path := writeConfigFile(t, `{"server": {"port": 9000}}`)

	_, err := LoadConfig(path)
	assert.ErrorIs(t, err, ErrMissingDBPath)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoadConfigInvalidJSON(t *testing.T) {
	path := writeConfigFile(t, `{not json`)

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigEnvironmentOverrides(t *testing.T) {
	path := writeConfigFile(t, `{"database": {"path": "/tmp/from-file.db"}}`)

	t.Setenv("SMSRELAY_DB_PATH", "/tmp/from-env.db")
	t.Setenv("SMSRELAY_RELAY_BASE_URL", "https://relay.env")
	t.Setenv("SMSRELAY_RELAY_BOT_HANDLE", "env_bot")
	t.Setenv("PORT", "8123")
	t.Setenv("SMSRELAY_LOG_LEVEL", "debug")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/from-env.db", cfg.Database.Path)
	assert.Equal(t, "https://relay.env", cfg.Relay.BaseURL)
	assert.Equal(t, "env_bot", cfg.Relay.BotHandle)
	assert.Equal(t, 8123, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfigIgnoresMalformedPortEnv(t *testing.T) {
	path := writeConfigFile(t, `{"database": {"path": "/tmp/smsrelay.db"}}`)

	t.Setenv("PORT", "not-a-port")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, constants.DefaultServerPort, cfg.Server.Port)
}
