package config

import (
	"encoding/json"
	"os"
	"strconv"

	"smsrelay/internal/constants"
	"smsrelay/internal/models"
)

var (
	ErrMissingDBPath = models.ConfigError{Message: "missing database path"}
)

// LoadConfig reads the application configuration file, fills defaults and
// applies environment overrides.
func LoadConfig(path string) (*models.Config, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config models.Config
	if err := json.Unmarshal(file, &config); err != nil {
		return nil, err
	}

	applyEnvironmentOverrides(&config)

	if err := validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func validate(c *models.Config) error {
	if c.Database.Path == "" {
		return ErrMissingDBPath
	}

	if c.Server.Port <= 0 {
		c.Server.Port = constants.DefaultServerPort
	}
	if c.Server.ReadTimeoutSec <= 0 {
		c.Server.ReadTimeoutSec = constants.DefaultServerReadTimeoutSec
	}
	if c.Server.WriteTimeoutSec <= 0 {
		c.Server.WriteTimeoutSec = constants.DefaultServerWriteTimeout
	}
	if c.Server.IdleTimeoutSec <= 0 {
		c.Server.IdleTimeoutSec = constants.DefaultServerIdleTimeoutSec
	}

	if c.HTTP.TimeoutSec <= 0 {
		c.HTTP.TimeoutSec = constants.DefaultHTTPTimeoutSec
	}

	if c.Relay.BaseURL == "" {
		c.Relay.BaseURL = constants.DefaultRelayBaseURL
	}
	if c.Relay.BotHandle == "" {
		c.Relay.BotHandle = constants.DefaultRelayBotHandle
	}
	if c.Relay.LinkPollIntervalSec <= 0 {
		c.Relay.LinkPollIntervalSec = constants.DefaultLinkPollIntervalSec
	}

	if c.Retry.InitialBackoffMs <= 0 {
		c.Retry.InitialBackoffMs = constants.DefaultBackoffInitialMs
	}
	if c.Retry.MaxBackoffMs <= 0 {
		c.Retry.MaxBackoffMs = constants.DefaultBackoffMaxMs
	}
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = constants.DefaultBackoffMaxAttempts
	}

	return nil
}

func applyEnvironmentOverrides(c *models.Config) {
	if path := os.Getenv("SMSRELAY_DB_PATH"); path != "" {
		c.Database.Path = path
	}
	if url := os.Getenv("SMSRELAY_RELAY_BASE_URL"); url != "" {
		c.Relay.BaseURL = url
	}
	if handle := os.Getenv("SMSRELAY_RELAY_BOT_HANDLE"); handle != "" {
		c.Relay.BotHandle = handle
	}
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}
	if level := os.Getenv("SMSRELAY_LOG_LEVEL"); level != "" {
		c.LogLevel = level
	}
}
