package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/doeshing/puremath/internal/domain"
)

// Validate ensures the configuration can start the bot: both secrets are
// present and every tunable is in range.
func Validate(cfg domain.Config) error {
	if err := ValidateSecrets(cfg); err != nil {
		return err
	}
	return ValidateSettings(cfg)
}

// ValidateSecrets checks the credentials resolved from the environment.
func ValidateSecrets(cfg domain.Config) error {
	var missing []string
	if strings.TrimSpace(cfg.Secrets.TelegramToken) == "" {
		missing = append(missing, envName(cfg.Telegram.TokenEnvVar, domain.EnvTelegramToken))
	}
	if strings.TrimSpace(cfg.Secrets.ModelAPIKey) == "" {
		missing = append(missing, envName(cfg.Model.APIKeyEnvVar, domain.EnvModelAPIKey))
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrMissingSecret, strings.Join(missing, ", "))
	}
	return nil
}

// ValidateSettings checks the non-secret part of the configuration.
func ValidateSettings(cfg domain.Config) error {
	if err := cfg.ValidateConsistency(); err != nil {
		return err
	}
	if err := validateDurations(cfg); err != nil {
		return err
	}
	if cfg.Cache.MaxEntries < 0 {
		return fmt.Errorf("cache.max_entries must be >= 0")
	}
	if cfg.RateLimit.PerWindow < 0 {
		return fmt.Errorf("rate_limit.per_window must be >= 0")
	}
	if cfg.Render.WrapColumn < 0 {
		return fmt.Errorf("render.wrap_column must be >= 0")
	}
	if cfg.Model.Retries < 0 {
		return fmt.Errorf("model.retries must be >= 0")
	}
	return nil
}

func validateDurations(cfg domain.Config) error {
	checks := map[string]time.Duration{
		"telegram.poll_timeout":     cfg.Telegram.PollTimeout,
		"telegram.request_timeout":  cfg.Telegram.RequestTimeout,
		"model.retry_delay":         cfg.Model.RetryDelay,
		"model.request_timeout":     cfg.Model.RequestTimeout,
		"cache.ttl":                 cfg.Cache.TTL,
		"rate_limit.window":         cfg.RateLimit.Window,
		"dispatch.question_timeout": cfg.Dispatch.QuestionTimeout,
		"dispatch.poll_backoff":     cfg.Dispatch.PollBackoff,
		"dispatch.error_backoff":    cfg.Dispatch.ErrorBackoff,
	}
	for name, d := range checks {
		if d < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	return nil
}

func envName(configured, fallback string) string {
	if configured != "" {
		return configured
	}
	return fallback
}
