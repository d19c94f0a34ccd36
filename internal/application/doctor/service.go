package doctor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	appconfig "github.com/doeshing/puremath/internal/application/config"
	"github.com/doeshing/puremath/internal/domain"
	"github.com/doeshing/puremath/internal/ports"
)

// BotProbe asks the messaging platform who the configured bot is.
type BotProbe func(ctx context.Context) (username string, err error)

// Service runs environment diagnostics.
type Service struct {
	ConfigProvider ports.ConfigProvider
	BotProbe       BotProbe
	QuestionLog    ports.QuestionLogRepository
}

// Run executes checks and returns a report. Only a config that cannot be
// loaded aborts the run; every other problem becomes a check entry.
func (s *Service) Run(ctx context.Context) (domain.HealthReport, error) {
	var checks []domain.HealthCheck

	cfg, err := s.ConfigProvider.Load(ctx)
	if err != nil {
		checks = append(checks, fail("Config file", fmt.Sprintf("load failed: %v", err)))
		return domain.HealthReport{Checks: checks}, err
	}
	checks = append(checks, ok("Config file", fmt.Sprintf("loaded format %s", cfg.ConfigFormatVersion)))

	if err := appconfig.ValidateSettings(cfg); err != nil {
		checks = append(checks, fail("Settings", err.Error()))
	} else {
		checks = append(checks, ok("Settings", "values consistent"))
	}

	secretsErr := appconfig.ValidateSecrets(cfg)
	if secretsErr != nil {
		checks = append(checks, fail("Secrets", secretsErr.Error()))
	} else {
		checks = append(checks, ok("Secrets", "bot token and model key present"))
	}

	checks = append(checks, s.telegramCheck(ctx, secretsErr))
	checks = append(checks, writableCheck("Response cache", cfg.Cache.Path))
	checks = append(checks, s.historyCheck(cfg))

	return domain.HealthReport{Checks: checks}, nil
}

func (s *Service) telegramCheck(ctx context.Context, secretsErr error) domain.HealthCheck {
	switch {
	case s.BotProbe == nil:
		return warn("Telegram", "bot client not initialized")
	case secretsErr != nil:
		return warn("Telegram", "skipped: secrets missing")
	}
	username, err := s.BotProbe(ctx)
	if err != nil {
		return fail("Telegram", err.Error())
	}
	return ok("Telegram", "authenticated as @"+username)
}

func (s *Service) historyCheck(cfg domain.Config) domain.HealthCheck {
	name := fmt.Sprintf("Question log (%s)", cfg.GetHistoryBackend())
	if s.QuestionLog == nil {
		return warn(name, "store not initialized")
	}
	records, err := s.QuestionLog.Records(0, "")
	if err != nil {
		return fail(name, err.Error())
	}
	return ok(name, fmt.Sprintf("%d records at %s", len(records), s.QuestionLog.Path()))
}

// writableCheck verifies the directory holding path accepts new files.
func writableCheck(name, path string) domain.HealthCheck {
	if path == "" {
		return warn(name, "path not configured")
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fail(name, err.Error())
	}
	probe, err := os.CreateTemp(dir, ".doctor-*")
	if err != nil {
		return fail(name, fmt.Sprintf("%s not writable: %v", dir, err))
	}
	_ = probe.Close()
	_ = os.Remove(probe.Name())

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return ok(name, fmt.Sprintf("%s (not created yet)", path))
	}
	return ok(name, path)
}

func ok(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthOK, Details: details}
}

func warn(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthWarn, Details: details}
}

func fail(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthError, Details: details}
}
