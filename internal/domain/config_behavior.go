package domain

import (
	"fmt"
	"strings"
	"time"
)

// GetTelegramBaseURL returns the Bot API base URL without a trailing slash.
func (c *Config) GetTelegramBaseURL() string {
	base := strings.TrimRight(strings.TrimSpace(c.Telegram.BaseURL), "/")
	if base == "" {
		return DefaultTelegramBaseURL
	}
	return base
}

// GetPollTimeout returns the long-poll timeout for getUpdates.
func (c *Config) GetPollTimeout() time.Duration {
	return durationOrDefault(c.Telegram.PollTimeout, DefaultPollTimeout)
}

// GetTelegramRequestTimeout returns the timeout for non-polling Bot API calls.
func (c *Config) GetTelegramRequestTimeout() time.Duration {
	return durationOrDefault(c.Telegram.RequestTimeout, DefaultTelegramTimeout)
}

// GetSendRate returns the outbound request rate and burst for Telegram.
func (c *Config) GetSendRate() (float64, int) {
	rate := c.Telegram.SendRatePerSecond
	if rate <= 0 {
		rate = DefaultSendRatePerSecond
	}
	burst := c.Telegram.SendBurst
	if burst <= 0 {
		burst = DefaultSendBurst
	}
	return rate, burst
}

// GetModelName returns the configured backend model.
func (c *Config) GetModelName() string {
	if name := strings.TrimSpace(c.Model.Name); name != "" {
		return name
	}
	return DefaultModelName
}

// GetModelRetries returns the total number of backend attempts per question.
func (c *Config) GetModelRetries() int {
	if c.Model.Retries <= 0 {
		return DefaultModelRetries
	}
	return c.Model.Retries
}

// GetRetryDelay returns the base delay of the linear retry backoff.
func (c *Config) GetRetryDelay() time.Duration {
	return durationOrDefault(c.Model.RetryDelay, DefaultRetryDelay)
}

// GetModelRequestTimeout bounds a single backend call.
func (c *Config) GetModelRequestTimeout() time.Duration {
	return durationOrDefault(c.Model.RequestTimeout, DefaultModelTimeout)
}

// GetCacheTTL returns how long cached answers stay valid.
func (c *Config) GetCacheTTL() time.Duration {
	return durationOrDefault(c.Cache.TTL, DefaultCacheTTL)
}

// GetCacheMaxEntries returns the maximum number of cache entries held in memory.
func (c *Config) GetCacheMaxEntries() int {
	if c.Cache.MaxEntries <= 0 {
		return DefaultCacheMaxEntries
	}
	return c.Cache.MaxEntries
}

// GetRateLimit returns the per-user quota and its window.
func (c *Config) GetRateLimit() (int, time.Duration) {
	quota := c.RateLimit.PerWindow
	if quota <= 0 {
		quota = DefaultRateLimitPerWindow
	}
	return quota, durationOrDefault(c.RateLimit.Window, DefaultRateLimitWindow)
}

// GetHistoryBackend returns "json" or "sqlite".
func (c *Config) GetHistoryBackend() string {
	backend := strings.ToLower(strings.TrimSpace(c.History.Backend))
	if backend == "" {
		return HistoryBackendJSON
	}
	return backend
}

// GetMaxWorkers returns the size of the question worker pool.
func (c *Config) GetMaxWorkers() int {
	if c.Dispatch.MaxWorkers <= 0 {
		return DefaultMaxWorkers
	}
	return c.Dispatch.MaxWorkers
}

// GetQuestionTimeout returns how long the dispatcher waits for an answer.
func (c *Config) GetQuestionTimeout() time.Duration {
	return durationOrDefault(c.Dispatch.QuestionTimeout, DefaultQuestionTimeout)
}

// GetPollBackoff returns the pause after a failed getUpdates call.
func (c *Config) GetPollBackoff() time.Duration {
	return durationOrDefault(c.Dispatch.PollBackoff, DefaultPollBackoff)
}

// GetErrorBackoff returns the pause after an unexpected loop failure.
func (c *Config) GetErrorBackoff() time.Duration {
	return durationOrDefault(c.Dispatch.ErrorBackoff, DefaultErrorBackoff)
}

// RenderOrDefaults returns render settings with zero values filled in.
func (c *Config) RenderOrDefaults() RenderSettings {
	r := c.Render
	if r.WrapColumn <= 0 {
		r.WrapColumn = DefaultWrapColumn
	}
	if r.ImageWidth <= 0 {
		r.ImageWidth = DefaultImageWidth
	}
	if r.ImageHeight <= 0 {
		r.ImageHeight = DefaultImageHeight
	}
	if r.FontSize <= 0 {
		r.FontSize = DefaultFontSize
	}
	if r.MaxDocumentPages <= 0 {
		r.MaxDocumentPages = DefaultMaxDocumentPages
	}
	return r
}

// MetricsEnabled reports whether the Prometheus endpoint should be served.
func (c *Config) MetricsEnabled() bool {
	return strings.TrimSpace(c.Metrics.Addr) != ""
}

// ValidateConsistency checks the internal consistency of the configuration.
func (c *Config) ValidateConsistency() error {
	switch c.GetHistoryBackend() {
	case HistoryBackendJSON, HistoryBackendSQLite:
	default:
		return fmt.Errorf("history.backend must be %s|%s, got %s", HistoryBackendJSON, HistoryBackendSQLite, c.History.Backend)
	}
	if c.Model.Temperature < 0 || c.Model.Temperature > 2 {
		return fmt.Errorf("model.temperature must be within [0, 2], got %v", c.Model.Temperature)
	}
	if c.Model.TopP < 0 || c.Model.TopP > 1 {
		return fmt.Errorf("model.top_p must be within [0, 1], got %v", c.Model.TopP)
	}
	if c.Dispatch.MaxWorkers < 0 {
		return fmt.Errorf("dispatch.max_workers must be >= 0")
	}
	return nil
}

func durationOrDefault(value, fallback time.Duration) time.Duration {
	if value <= 0 {
		return fallback
	}
	return value
}
