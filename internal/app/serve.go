package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	appconfig "github.com/doeshing/puremath/internal/application/config"
	"github.com/doeshing/puremath/internal/application/dispatch"
	"github.com/doeshing/puremath/internal/application/solve"
	"github.com/doeshing/puremath/internal/infrastructure/ai"
	"github.com/doeshing/puremath/internal/infrastructure/normalize"
	"github.com/doeshing/puremath/internal/infrastructure/ratelimit"
	"github.com/doeshing/puremath/internal/version"
)

// Serve validates the configuration, connects to Telegram and Gemini and
// runs the dispatcher until ctx is cancelled.
func (c *Container) Serve(ctx context.Context) error {
	cfg := c.Config
	if err := appconfig.Validate(cfg); err != nil {
		return err
	}

	me, err := c.Telegram.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("telegram authentication failed: %w", err)
	}

	backend, err := ai.NewGeminiBackend(ctx, cfg.Secrets.ModelAPIKey, cfg.Model)
	if err != nil {
		return err
	}

	quota, window := cfg.GetRateLimit()
	limiter := ratelimit.NewSlidingWindow(quota, window)

	solver := &solve.Service{
		Backend:    backend,
		Cache:      c.CacheStore,
		Normalize:  normalize.Normalize,
		Logger:     c.Logger,
		Metrics:    c.Metrics,
		Retries:    cfg.GetModelRetries(),
		RetryDelay: cfg.GetRetryDelay(),
	}

	dispatcher := &dispatch.Service{
		Messenger:   c.Telegram,
		Solver:      solver,
		Limiter:     limiter,
		Renderer:    c.Renderer,
		QuestionLog: c.HistoryStore,
		Logger:      c.Logger,
		Metrics:     c.Metrics,
		Settings: dispatch.Settings{
			MaxWorkers:      cfg.GetMaxWorkers(),
			PollTimeout:     cfg.GetPollTimeout(),
			QuestionTimeout: cfg.GetQuestionTimeout(),
			ModelTimeout:    cfg.GetModelRequestTimeout(),
			PollBackoff:     cfg.GetPollBackoff(),
			ErrorBackoff:    cfg.GetErrorBackoff(),
			Version:         version.Version,
			ModelName:       cfg.GetModelName(),
			RateLimit:       quota,
		},
	}

	c.Logger.Info("bot starting", map[string]interface{}{
		"bot":          "@" + me.Username,
		"backend":      backend.Name(),
		"workers":      cfg.GetMaxWorkers(),
		"cache":        c.CacheStore.Path(),
		"question_log": c.HistoryStore.Path(),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		limiter.RunSweeper(gctx, window)
		return nil
	})
	if cfg.MetricsEnabled() {
		g.Go(func() error {
			return c.Metrics.Serve(gctx, cfg.Metrics.Addr, c.Logger)
		})
	}
	g.Go(func() error {
		return dispatcher.Run(gctx)
	})
	return g.Wait()
}
