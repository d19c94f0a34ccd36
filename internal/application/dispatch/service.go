// Package dispatch runs the long-poll loop: it classifies inbound messages,
// answers commands directly and hands admitted questions to a bounded
// worker pool.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/doeshing/puremath/internal/domain"
	"github.com/doeshing/puremath/internal/ports"
)

// Settings tunes the loop. Zero values fall back to the domain defaults.
type Settings struct {
	MaxWorkers      int
	PollTimeout     time.Duration
	QuestionTimeout time.Duration
	ModelTimeout    time.Duration
	PollBackoff     time.Duration
	ErrorBackoff    time.Duration

	// shown by /about
	Version   string
	ModelName string
	RateLimit int
}

// Service wires the messenger to the solver, limiter, renderer and log.
type Service struct {
	Messenger   ports.Messenger
	Solver      ports.Solver
	Limiter     ports.RateLimiter
	Renderer    ports.Renderer
	QuestionLog ports.QuestionLog
	Logger      ports.Logger
	Metrics     ports.Metrics
	Settings    Settings

	// Now defaults to time.Now.
	Now func() time.Time

	// inflight tracks model calls, including ones the dispatcher stopped
	// waiting for.
	inflight sync.WaitGroup
}

// Run polls until ctx is cancelled, then waits for every in-flight question
// and model call before returning.
func (s *Service) Run(ctx context.Context) error {
	if err := s.validate(); err != nil {
		return err
	}

	pool := new(errgroup.Group)
	pool.SetLimit(s.maxWorkers())
	// queued work outlives the interrupt so it can be drained
	workCtx := context.WithoutCancel(ctx)

	s.Logger.Info("dispatcher started", map[string]interface{}{
		"workers":      s.maxWorkers(),
		"poll_timeout": s.pollTimeout().String(),
	})

	var offset int64
	for ctx.Err() == nil {
		next, ok := s.iterate(ctx, workCtx, pool, offset)
		offset = next
		if !ok && !sleep(ctx, s.errorBackoff()) {
			break
		}
	}

	s.Logger.Info("dispatcher stopping, draining workers", nil)
	_ = pool.Wait()
	s.inflight.Wait()
	s.Logger.Info("dispatcher stopped", nil)
	return nil
}

// iterate runs one poll cycle and returns the next offset. ok is false when
// the cycle panicked.
func (s *Service) iterate(ctx, workCtx context.Context, pool *errgroup.Group, offset int64) (next int64, ok bool) {
	next = offset
	defer func() {
		if r := recover(); r != nil {
			s.Logger.Error("unexpected failure in poll loop", fmt.Errorf("panic: %v", r), map[string]interface{}{
				"offset": next,
			})
			ok = false
		}
	}()

	updates, err := s.Messenger.GetUpdates(ctx, offset, s.pollTimeout())
	if err != nil {
		if ctx.Err() != nil {
			return next, true
		}
		s.Logger.Warn("polling failed", map[string]interface{}{
			"error": err.Error(),
			"retry": s.pollBackoff().String(),
		})
		sleep(ctx, s.pollBackoff())
		return next, true
	}

	for _, update := range updates {
		// advance first so a failing update is never redelivered
		if update.ID >= next {
			next = update.ID + 1
		}
		s.dispatch(ctx, workCtx, pool, update)
	}
	return next, true
}

// dispatch routes one update. Panics propagate to iterate, which pauses the
// loop; updates after the failing one in the batch are redelivered.
func (s *Service) dispatch(ctx, workCtx context.Context, pool *errgroup.Group, update domain.Update) {
	msg := update.Message
	if !msg.Valid() {
		s.metrics().UpdateReceived("skipped")
		s.Logger.Debug("skipping update without sender or text", map[string]interface{}{"update_id": update.ID})
		return
	}

	s.Logger.Info("message received", map[string]interface{}{
		"chat_id":  msg.ChatID,
		"username": msg.From.Username,
		"text":     preview(msg.Text),
	})

	if msg.IsCommand() {
		s.metrics().UpdateReceived("command")
		s.handleCommand(ctx, msg)
		return
	}

	s.metrics().UpdateReceived("question")
	if !s.Limiter.Allow(strconv.FormatInt(msg.From.ID, 10)) {
		s.metrics().Throttled()
		s.Logger.Info("question throttled", map[string]interface{}{"user_id": msg.From.ID})
		s.reply(ctx, msg, msgThrottled)
		return
	}

	// blocks while every worker is busy
	pool.Go(func() error {
		s.handleQuestion(workCtx, msg)
		return nil
	})
}

func (s *Service) reply(ctx context.Context, msg *domain.InboundMessage, text string) {
	err := s.Messenger.SendMessage(ctx, domain.OutgoingMessage{
		ChatID:    msg.ChatID,
		Text:      text,
		ReplyTo:   msg.MessageID,
		ParseMode: domain.ParseModeMarkdownV2,
	})
	if err != nil {
		s.Logger.Error("reply failed", err, map[string]interface{}{"chat_id": msg.ChatID})
	}
}

func (s *Service) validate() error {
	if s.Messenger == nil || s.Solver == nil || s.Limiter == nil || s.Renderer == nil ||
		s.QuestionLog == nil || s.Logger == nil {
		return errors.New("dispatch.Service dependencies not satisfied")
	}
	return nil
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *Service) metrics() ports.Metrics {
	if s.Metrics == nil {
		return ports.NopMetrics{}
	}
	return s.Metrics
}

func (s *Service) maxWorkers() int {
	if s.Settings.MaxWorkers <= 0 {
		return domain.DefaultMaxWorkers
	}
	return s.Settings.MaxWorkers
}

func (s *Service) pollTimeout() time.Duration {
	return orDefault(s.Settings.PollTimeout, domain.DefaultPollTimeout)
}

func (s *Service) questionTimeout() time.Duration {
	return orDefault(s.Settings.QuestionTimeout, domain.DefaultQuestionTimeout)
}

func (s *Service) modelTimeout() time.Duration {
	return orDefault(s.Settings.ModelTimeout, domain.DefaultModelTimeout)
}

func (s *Service) pollBackoff() time.Duration {
	return orDefault(s.Settings.PollBackoff, domain.DefaultPollBackoff)
}

func (s *Service) errorBackoff() time.Duration {
	return orDefault(s.Settings.ErrorBackoff, domain.DefaultErrorBackoff)
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}

// sleep waits for d or until ctx is done, reporting whether the full
// duration elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
