// Package solve answers math questions through the generative backend,
// memoizing normalized answers in the response cache.
package solve

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	backoff "github.com/cenkalti/backoff/v4"

	"github.com/doeshing/puremath/internal/domain"
	"github.com/doeshing/puremath/internal/ports"
)

var errEmptyAnswer = errors.New("backend returned empty text")

// Service implements ports.Solver.
type Service struct {
	Backend    ports.Backend
	Cache      ports.ResponseCache
	Normalize  func(string) string
	Logger     ports.Logger
	Metrics    ports.Metrics
	Retries    int
	RetryDelay time.Duration
}

// Answer returns the cached or freshly generated solution for question.
// Every failure to produce a usable answer is reported as
// domain.ErrNotAvailable.
func (s *Service) Answer(ctx context.Context, question string) (string, error) {
	if s.Backend == nil || s.Cache == nil || s.Logger == nil {
		return "", errors.New("solve.Service dependencies not satisfied")
	}
	metrics := s.metrics()

	question = strings.TrimSpace(question)
	if cached, ok := s.Cache.Get(question); ok {
		metrics.CacheLookup(true)
		s.Logger.Info("serving response from cache", map[string]interface{}{"question_len": len(question)})
		return cached, nil
	}
	metrics.CacheLookup(false)

	prompt, err := BuildPrompt(question)
	if err != nil {
		return "", fmt.Errorf("build prompt: %w", err)
	}

	started := time.Now()
	text, err := s.generate(ctx, prompt)
	if err != nil {
		metrics.ModelCall("failed", time.Since(started))
		s.Logger.Error("model call failed", err, map[string]interface{}{
			"backend":  s.Backend.Name(),
			"attempts": s.retries(),
		})
		return "", fmt.Errorf("%w: %v", domain.ErrNotAvailable, err)
	}

	answer := strings.TrimSpace(s.normalize(text))
	if utf8.RuneCountInString(answer) < domain.MinAnswerLength {
		metrics.ModelCall("too_short", time.Since(started))
		s.Logger.Warn("model answer too short", map[string]interface{}{"length": len(answer)})
		return "", fmt.Errorf("%w: answer shorter than %d characters", domain.ErrNotAvailable, domain.MinAnswerLength)
	}
	metrics.ModelCall("ok", time.Since(started))

	s.Cache.Set(question, answer)
	return answer, nil
}

// generate calls the backend, retrying failures and empty answers with a
// linearly growing delay.
func (s *Service) generate(ctx context.Context, prompt string) (string, error) {
	var text string
	attempt := 0
	op := func() error {
		attempt++
		out, err := s.Backend.Generate(ctx, prompt)
		if err != nil {
			return err
		}
		if strings.TrimSpace(out) == "" {
			return errEmptyAnswer
		}
		text = out
		return nil
	}
	notify := func(err error, wait time.Duration) {
		s.Logger.Warn("model call failed, retrying", map[string]interface{}{
			"attempt": attempt,
			"wait":    wait.String(),
			"error":   err.Error(),
		})
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(&linearBackOff{base: s.retryDelay()}, uint64(s.retries()-1)),
		ctx,
	)
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return "", err
	}
	return text, nil
}

func (s *Service) retries() int {
	if s.Retries <= 0 {
		return domain.DefaultModelRetries
	}
	return s.Retries
}

func (s *Service) retryDelay() time.Duration {
	if s.RetryDelay <= 0 {
		return domain.DefaultRetryDelay
	}
	return s.RetryDelay
}

func (s *Service) normalize(text string) string {
	if s.Normalize == nil {
		return text
	}
	return s.Normalize(text)
}

func (s *Service) metrics() ports.Metrics {
	if s.Metrics == nil {
		return ports.NopMetrics{}
	}
	return s.Metrics
}

var _ ports.Solver = (*Service)(nil)
