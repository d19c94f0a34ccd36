package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/doeshing/puremath/internal/application/doctor"
	"github.com/doeshing/puremath/internal/domain"
	"github.com/doeshing/puremath/internal/infrastructure/cache"
	"github.com/doeshing/puremath/internal/infrastructure/config"
	"github.com/doeshing/puremath/internal/infrastructure/history"
	"github.com/doeshing/puremath/internal/infrastructure/metrics"
	"github.com/doeshing/puremath/internal/infrastructure/normalize"
	"github.com/doeshing/puremath/internal/infrastructure/render"
	"github.com/doeshing/puremath/internal/infrastructure/telegram"
	"github.com/doeshing/puremath/internal/pkg/logger"
	"github.com/doeshing/puremath/internal/ports"
)

// Container wires up application services with infrastructure adapters.
// Components that need secrets (the model backend, the dispatcher) are
// built by Serve so that inspection commands work without credentials.
type Container struct {
	Config        domain.Config
	ConfigLoader  *config.FileLoader
	Logger        *logger.ZapLogger
	CacheStore    ports.CacheRepository
	HistoryStore  ports.QuestionLogRepository
	Renderer      *render.Renderer
	Telegram      *telegram.Client
	Metrics       *metrics.Metrics
	DoctorService *doctor.Service

	closers []func() error
}

// Options tune container construction.
type Options struct {
	Verbose    bool
	ConfigPath string
}

// BuildContainer constructs the dependency graph.
func BuildContainer(ctx context.Context, opts Options) (*Container, error) {
	cfgLoader := config.NewFileLoader(opts.ConfigPath)
	cfg, err := cfgLoader.Load(ctx)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(opts.Verbose || cfg.Debug, cfg.LogFile)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	cacheStore, err := cache.NewFileCache(cfg.Cache.Path, cfg.GetCacheTTL(), cfg.GetCacheMaxEntries(), log)
	if err != nil {
		return nil, err
	}

	renderer, err := render.New(cfg.Render, normalize.Normalize)
	if err != nil {
		return nil, err
	}

	c := &Container{
		Config:       cfg,
		ConfigLoader: cfgLoader,
		Logger:       log,
		CacheStore:   cacheStore,
		Renderer:     renderer,
		Metrics:      metrics.MustNew(prometheus.NewRegistry()),
	}
	c.HistoryStore = c.openQuestionLog(cfg)

	ratePerSecond, burst := cfg.GetSendRate()
	c.Telegram = telegram.NewClient(
		cfg.GetTelegramBaseURL(),
		cfg.Secrets.TelegramToken,
		cfg.GetTelegramRequestTimeout(),
		log,
		telegram.WithSendRate(ratePerSecond, burst),
	)

	c.DoctorService = &doctor.Service{
		ConfigProvider: cfgLoader,
		BotProbe: func(ctx context.Context) (string, error) {
			me, err := c.Telegram.GetMe(ctx)
			return me.Username, err
		},
		QuestionLog: c.HistoryStore,
	}
	return c, nil
}

// openQuestionLog prefers the configured backend and falls back to the JSON
// file when the database cannot be opened.
func (c *Container) openQuestionLog(cfg domain.Config) ports.QuestionLogRepository {
	if cfg.GetHistoryBackend() != domain.HistoryBackendSQLite {
		return history.NewFileStore(cfg.History.Path, c.Logger)
	}
	store, err := history.NewSQLiteStore(cfg.History.Path)
	if err == nil {
		c.closers = append(c.closers, store.Close)
		return store
	}
	fallback := strings.TrimSuffix(cfg.History.Path, filepath.Ext(cfg.History.Path)) + ".json"
	c.Logger.Warn("sqlite question log unavailable, using JSON file", map[string]interface{}{
		"error":    err.Error(),
		"fallback": fallback,
	})
	return history.NewFileStore(fallback, c.Logger)
}

// Close releases open stores and flushes the logger.
func (c *Container) Close() error {
	var firstErr error
	for _, closeFn := range c.closers {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	_ = c.Logger.Sync()
	return firstErr
}
