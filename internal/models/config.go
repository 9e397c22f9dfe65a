package models

// Config holds the application configuration
type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	HTTP     HTTPConfig     `json:"http"`
	Relay    RelayConfig    `json:"relay"`
	Retry    RetryConfig    `json:"retry"`
	Tracing  TracingConfig  `json:"tracing"`
	LogLevel string         `json:"log_level"`
}

// ServerConfig holds the inbound HTTP server configuration
type ServerConfig struct {
	Port            int `json:"port"`
	ReadTimeoutSec  int `json:"readTimeoutSec"`
	WriteTimeoutSec int `json:"writeTimeoutSec"`
	IdleTimeoutSec  int `json:"idleTimeoutSec"`
}

// DatabaseConfig holds database related configuration
type DatabaseConfig struct {
	Path string `json:"path"`
}

// HTTPConfig holds settings for the outbound HTTP transport shared by all
// HTTP-speaking forwarders.
type HTTPConfig struct {
	TimeoutSec int `json:"timeoutSec"`
}

// RelayConfig holds managed-relay service defaults. These only apply when a
// decoded forwarder configuration does not carry its own values.
type RelayConfig struct {
	BaseURL             string `json:"baseUrl"`
	BotHandle           string `json:"botHandle"`
	LinkPollIntervalSec int    `json:"linkPollIntervalSec"`
}

// RetryConfig holds backoff settings for startup-time retries
type RetryConfig struct {
	InitialBackoffMs int `json:"initialBackoffMs"`
	MaxBackoffMs     int `json:"maxBackoffMs"`
	MaxAttempts      int `json:"maxAttempts"`
}

// TracingConfig holds OpenTelemetry configuration
type TracingConfig struct {
	ServiceName    string  `json:"serviceName"`
	ServiceVersion string  `json:"serviceVersion"`
	Environment    string  `json:"environment"`
	OTLPEndpoint   string  `json:"otlpEndpoint"`
	SampleRate     float64 `json:"sampleRate"`
	Enabled        bool    `json:"enabled"`
	UseStdout      bool    `json:"useStdout"`
}

// ConfigError reports a malformed or incomplete persisted configuration.
// Activation of a forwarder must fail fast on it.
type ConfigError struct {
	Message string
}

func (e ConfigError) Error() string {
	return e.Message
}
