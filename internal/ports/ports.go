// Package ports defines the interfaces (ports) for the hexagonal architecture.
//
// The application core (dispatch, solve, doctor) depends only on these
// contracts. Concrete adapters live under internal/infrastructure: the
// Telegram client, the Gemini backend, the file cache, the renderer and the
// question log stores.
package ports

import (
	"context"
	"time"

	"github.com/doeshing/puremath/internal/domain"
)

// ConfigProvider loads the latest configuration from persistent storage.
// Implementations typically read from ~/.puremath/config.yaml.
type ConfigProvider interface {
	Load(context.Context) (domain.Config, error)
}

// Messenger is the messaging platform seen by the dispatcher.
type Messenger interface {
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]domain.Update, error)
	SendMessage(ctx context.Context, msg domain.OutgoingMessage) error
	SendPhoto(ctx context.Context, chatID int64, photo domain.Artifact, caption string, replyTo int64) error
	SendDocument(ctx context.Context, chatID int64, doc domain.Artifact, caption string, replyTo int64) error
	SendChatAction(ctx context.Context, chatID int64, action string) error
}

// Backend is the generative model service.
type Backend interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// Solver turns a question into a normalized solution. It returns
// domain.ErrNotAvailable when no solution could be produced.
type Solver interface {
	Answer(ctx context.Context, question string) (string, error)
}

// ResponseCache stores solutions keyed by question content.
type ResponseCache interface {
	Get(question string) (string, bool)
	Set(question, response string)
}

// CacheRepository adds the inspection operations used by the CLI.
type CacheRepository interface {
	ResponseCache
	Entries() []domain.KeyedCacheEntry
	Clear() error
	Path() string
	Settings() domain.CacheSettings
}

// RateLimiter admits or rejects requests per identity.
type RateLimiter interface {
	Allow(identity string) bool
}

// Renderer converts solution text into artifacts.
type Renderer interface {
	RenderImage(text string) (domain.Artifact, error)
	RenderDocument(text string) (domain.Artifact, error)
}

// QuestionLog records answered questions.
type QuestionLog interface {
	Append(record domain.QuestionLogRecord) error
}

// QuestionLogRepository adds the inspection operations used by the CLI.
type QuestionLogRepository interface {
	QuestionLog
	Records(limit int, search string) ([]domain.QuestionLogRecord, error)
	ExportJSON(dest string) error
	Clear() error
	Path() string
}

// Logger provides structured logging abstraction for the application layer.
// Implementations can route to different backends (stdout, files, external services).
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
}

// Metrics receives operational counters. Implementations must be safe for
// concurrent use; NopMetrics discards everything.
type Metrics interface {
	UpdateReceived(kind string)
	Throttled()
	CacheLookup(hit bool)
	ModelCall(outcome string, elapsed time.Duration)
	ArtifactDelivered(kind string, ok bool)
	QuestionCompleted(outcome string, elapsed time.Duration)
	WorkersBusy(delta int)
}

// NopMetrics is a Metrics that records nothing.
type NopMetrics struct{}

func (NopMetrics) UpdateReceived(string)                   {}
func (NopMetrics) Throttled()                              {}
func (NopMetrics) CacheLookup(bool)                        {}
func (NopMetrics) ModelCall(string, time.Duration)         {}
func (NopMetrics) ArtifactDelivered(string, bool)          {}
func (NopMetrics) QuestionCompleted(string, time.Duration) {}
func (NopMetrics) WorkersBusy(int)                         {}
