package constants

// Default server configuration values
const (
	DefaultServerPort           = 8077
	DefaultServerReadTimeoutSec = 15
	DefaultServerWriteTimeout   = 15
	DefaultServerIdleTimeoutSec = 60
	DefaultGracefulShutdownSec  = 30
	ServerErrorChannelSize      = 1
)

// Default outbound transport values
const (
	DefaultHTTPTimeoutSec        = 30
	DefaultDatabaseRetryAttempts = 3
	DefaultBackoffInitialMs      = 500
	DefaultBackoffMaxMs          = 30000
	DefaultBackoffMaxAttempts    = 5
)

// Managed relay defaults. A decoded config missing these fields falls back
// to the values below.
const (
	DefaultRelayBaseURL        = "https://relay.sms2tg.dev"
	DefaultRelayBotHandle      = "sms2tg_bot"
	DefaultLinkPollIntervalSec = 5
)

// Confirmation code format. The code is a low-stakes pairing token, not a
// security credential.
const (
	ConfirmationCodeLength   = 8
	ConfirmationCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// Privacy settings
const (
	DefaultPhoneMaskLength = 4
	DefaultTokenMaskLength = 4
)
