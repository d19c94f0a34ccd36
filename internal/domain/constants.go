package domain

import "time"

// Config format
const (
	CurrentConfigFormatVersion = "1"
)

// Environment variables
const (
	EnvConfigPath    = "PUREMATH_CONFIG"
	EnvTelegramToken = "TELEGRAM_BOT_TOKEN"
	EnvModelAPIKey   = "GEMINI_API_KEY"
	EnvDebugMode     = "DEBUG_MODE"
	EnvMaxWorkers    = "MAX_WORKERS"
	EnvVerbose       = "PUREMATH_VERBOSE"
)

// Telegram defaults
const (
	DefaultTelegramBaseURL   = "https://api.telegram.org"
	DefaultPollTimeout       = 30 * time.Second
	DefaultTelegramTimeout   = 30 * time.Second
	DefaultSendRatePerSecond = 25
	DefaultSendBurst         = 5

	// MaxMessageLength stays below Telegram's 4096 character limit.
	MaxMessageLength = 4000
)

// Model defaults
const (
	DefaultModelName       = "gemini-2.5-pro"
	DefaultTemperature     = 0.2
	DefaultTopP            = 0.9
	DefaultTopK            = 32
	DefaultMaxOutputTokens = 4096
	DefaultModelRetries    = 3
	DefaultRetryDelay      = 2 * time.Second
	DefaultModelTimeout    = 120 * time.Second

	// MinAnswerLength is the shortest trimmed answer worth rendering.
	MinAnswerLength = 10
)

// Cache defaults
const (
	DefaultCacheTTL        = 7 * 24 * time.Hour
	DefaultCacheMaxEntries = 1000
)

// Rate limit defaults
const (
	DefaultRateLimitPerWindow = 5
	DefaultRateLimitWindow    = time.Minute
)

// Render defaults
const (
	DefaultWrapColumn       = 80
	DefaultImageWidth       = 1500
	DefaultImageHeight      = 900
	DefaultFontSize         = 22
	DefaultMaxDocumentPages = 5
)

// History defaults
const (
	HistoryBackendJSON   = "json"
	HistoryBackendSQLite = "sqlite"

	// ResponsePreviewLimit bounds the response stored in each log record.
	ResponsePreviewLimit = 1000
)

// Dispatch defaults
const (
	DefaultMaxWorkers      = 4
	DefaultQuestionTimeout = 60 * time.Second
	DefaultPollBackoff     = 5 * time.Second
	DefaultErrorBackoff    = 10 * time.Second
)
