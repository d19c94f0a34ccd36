// Package config loads ~/.puremath/config.yaml and overlays environment
// variables (optionally read from a .env file) on top of it.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/doeshing/puremath/assets"
	"github.com/doeshing/puremath/internal/domain"
	"github.com/doeshing/puremath/internal/pkg/filesystem"
	"github.com/doeshing/puremath/internal/ports"
)

// FileLoader loads YAML configuration from ~/.puremath/config.yaml
// (overridable via PUREMATH_CONFIG or an explicit path).
type FileLoader struct {
	overridePath string
	envFile      string
	lookupEnv    func(string) (string, bool)
}

// Option customizes a FileLoader.
type Option func(*FileLoader)

// WithEnvFile reads variables from path before consulting the process
// environment. Process variables win.
func WithEnvFile(path string) Option {
	return func(l *FileLoader) {
		l.envFile = path
	}
}

// WithLookupEnv replaces os.LookupEnv.
func WithLookupEnv(lookup func(string) (string, bool)) Option {
	return func(l *FileLoader) {
		if lookup != nil {
			l.lookupEnv = lookup
		}
	}
}

// NewFileLoader builds a new loader. An empty path uses the default location.
func NewFileLoader(path string, opts ...Option) *FileLoader {
	l := &FileLoader{
		overridePath: path,
		envFile:      ".env",
		lookupEnv:    os.LookupEnv,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load implements ports.ConfigProvider. A missing config file is created from
// the embedded defaults.
func (l *FileLoader) Load(context.Context) (domain.Config, error) {
	env, err := l.environment()
	if err != nil {
		return domain.Config{}, err
	}

	path := l.resolvePath(env)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return domain.Config{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return domain.Config{}, err
		}
		if err := os.WriteFile(path, assets.DefaultConfigYAML, 0o600); err != nil {
			return domain.Config{}, err
		}
		data = assets.DefaultConfigYAML
	}

	var cfg domain.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return domain.Config{}, fmt.Errorf("parse %s: %w", path, err)
	}

	cfg = hydrateDefaults(cfg)
	if err := applyEnv(&cfg, env); err != nil {
		return domain.Config{}, err
	}
	return cfg, nil
}

// Path reports where Load reads the configuration from.
func (l *FileLoader) Path() string {
	env, _ := l.environment()
	return l.resolvePath(env)
}

func (l *FileLoader) resolvePath(env envLookup) string {
	if l.overridePath != "" {
		return filesystem.ExpandPath(l.overridePath)
	}
	if custom, ok := env(domain.EnvConfigPath); ok && custom != "" {
		return filesystem.ExpandPath(custom)
	}
	return filepath.Join(filesystem.AppDir(), "config.yaml")
}

type envLookup func(string) (string, bool)

// environment merges the .env file (if any) under the process environment.
func (l *FileLoader) environment() (envLookup, error) {
	var fileVars map[string]string
	if l.envFile != "" {
		vars, err := godotenv.Read(l.envFile)
		switch {
		case err == nil:
			fileVars = vars
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("read %s: %w", l.envFile, err)
		}
	}
	return func(key string) (string, bool) {
		if v, ok := l.lookupEnv(key); ok {
			return v, true
		}
		v, ok := fileVars[key]
		return v, ok
	}, nil
}

func applyEnv(cfg *domain.Config, env envLookup) error {
	if v, ok := env(cfg.Telegram.TokenEnvVar); ok {
		cfg.Secrets.TelegramToken = strings.TrimSpace(v)
	}
	if v, ok := env(cfg.Model.APIKeyEnvVar); ok {
		cfg.Secrets.ModelAPIKey = strings.TrimSpace(v)
	}
	if v, ok := env(domain.EnvDebugMode); ok && strings.TrimSpace(v) != "" {
		debug, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", domain.EnvDebugMode, err)
		}
		cfg.Debug = debug
	}
	if v, ok := env(domain.EnvMaxWorkers); ok && strings.TrimSpace(v) != "" {
		workers, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", domain.EnvMaxWorkers, err)
		}
		cfg.Dispatch.MaxWorkers = workers
	}
	return nil
}

func hydrateDefaults(cfg domain.Config) domain.Config {
	if cfg.ConfigFormatVersion == "" {
		cfg.ConfigFormatVersion = domain.CurrentConfigFormatVersion
	}
	if cfg.Telegram.TokenEnvVar == "" {
		cfg.Telegram.TokenEnvVar = domain.EnvTelegramToken
	}
	if cfg.Model.APIKeyEnvVar == "" {
		cfg.Model.APIKeyEnvVar = domain.EnvModelAPIKey
	}
	if cfg.LogFile == "" {
		cfg.LogFile = filepath.Join(filesystem.AppDir(), "puremath.log")
	}
	if cfg.Cache.Path == "" {
		cfg.Cache.Path = filepath.Join(filesystem.AppDir(), "response_cache.json")
	}
	if cfg.History.Backend == "" {
		cfg.History.Backend = domain.HistoryBackendJSON
	}
	if cfg.History.Path == "" {
		name := "questions.json"
		if cfg.History.Backend == domain.HistoryBackendSQLite {
			name = "questions.db"
		}
		cfg.History.Path = filepath.Join(filesystem.AppDir(), name)
	}
	cfg.LogFile = filesystem.ExpandPath(cfg.LogFile)
	cfg.Cache.Path = filesystem.ExpandPath(cfg.Cache.Path)
	cfg.History.Path = filesystem.ExpandPath(cfg.History.Path)
	cfg.Render = cfg.RenderOrDefaults()
	return cfg
}

// Defaults returns the embedded default configuration with paths resolved,
// without consulting the environment.
func Defaults() (domain.Config, error) {
	var cfg domain.Config
	if err := yaml.Unmarshal(assets.DefaultConfigYAML, &cfg); err != nil {
		return domain.Config{}, fmt.Errorf("parse embedded defaults: %w", err)
	}
	return hydrateDefaults(cfg), nil
}

var _ ports.ConfigProvider = (*FileLoader)(nil)
