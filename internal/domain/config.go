package domain

import "time"

// Config mirrors ~/.puremath/config.yaml.
type Config struct {
	ConfigFormatVersion string            `yaml:"config_format_version"`
	Debug               bool              `yaml:"debug"`
	LogFile             string            `yaml:"log_file"`
	Telegram            TelegramSettings  `yaml:"telegram"`
	Model               ModelSettings     `yaml:"model"`
	Cache               CacheSettings     `yaml:"cache"`
	RateLimit           RateLimitSettings `yaml:"rate_limit"`
	Render              RenderSettings    `yaml:"render"`
	History             HistorySettings   `yaml:"history"`
	Dispatch            DispatchSettings  `yaml:"dispatch"`
	Metrics             MetricsSettings   `yaml:"metrics"`

	// Secrets are resolved from the environment at load time and never
	// written back to disk.
	Secrets Secrets `yaml:"-"`
}

// Secrets holds credentials required to start the bot.
type Secrets struct {
	TelegramToken string
	ModelAPIKey   string
}

// TelegramSettings configures the Bot API client.
type TelegramSettings struct {
	TokenEnvVar       string        `yaml:"token_env_var"`
	BaseURL           string        `yaml:"base_url"`
	PollTimeout       time.Duration `yaml:"poll_timeout"`
	RequestTimeout    time.Duration `yaml:"request_timeout"`
	SendRatePerSecond float64       `yaml:"send_rate_per_second"`
	SendBurst         int           `yaml:"send_burst"`
}

// ModelSettings configures the generative backend.
type ModelSettings struct {
	Name            string        `yaml:"name"`
	APIKeyEnvVar    string        `yaml:"api_key_env_var"`
	Temperature     float32       `yaml:"temperature"`
	TopP            float32       `yaml:"top_p"`
	TopK            float32       `yaml:"top_k"`
	MaxOutputTokens int32         `yaml:"max_output_tokens"`
	Retries         int           `yaml:"retries"`
	RetryDelay      time.Duration `yaml:"retry_delay"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
}

// CacheSettings controls the response cache.
type CacheSettings struct {
	Path       string        `yaml:"path"`
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
}

// RateLimitSettings controls per-user admission.
type RateLimitSettings struct {
	PerWindow int           `yaml:"per_window"`
	Window    time.Duration `yaml:"window"`
}

// RenderSettings controls image and document output.
type RenderSettings struct {
	WrapColumn       int     `yaml:"wrap_column"`
	ImageWidth       int     `yaml:"image_width"`
	ImageHeight      int     `yaml:"image_height"`
	FontSize         float64 `yaml:"font_size"`
	MaxDocumentPages int     `yaml:"max_document_pages"`
}

// HistorySettings configures the question log.
type HistorySettings struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

// DispatchSettings controls the polling loop and the worker pool.
type DispatchSettings struct {
	MaxWorkers      int           `yaml:"max_workers"`
	QuestionTimeout time.Duration `yaml:"question_timeout"`
	PollBackoff     time.Duration `yaml:"poll_backoff"`
	ErrorBackoff    time.Duration `yaml:"error_backoff"`
}

// MetricsSettings configures the Prometheus endpoint. An empty Addr disables it.
type MetricsSettings struct {
	Addr string `yaml:"addr"`
}
