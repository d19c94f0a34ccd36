// Package ratelimit admits requests per identity over a sliding time window.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/doeshing/puremath/internal/ports"
)

// SlidingWindow keeps the timestamps of accepted requests per identity and
// admits a new one only while fewer than quota fall inside the window.
// Rejected requests are not recorded.
type SlidingWindow struct {
	quota  int
	window time.Duration
	now    func() time.Time

	mu       sync.Mutex
	requests map[string][]time.Time
}

// Option customizes a SlidingWindow.
type Option func(*SlidingWindow)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *SlidingWindow) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSlidingWindow admits quota requests per identity within window.
func NewSlidingWindow(quota int, window time.Duration, opts ...Option) *SlidingWindow {
	s := &SlidingWindow{
		quota:    quota,
		window:   window,
		now:      time.Now,
		requests: make(map[string][]time.Time),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Allow reports whether identity may make another request now, recording it
// when admitted.
func (s *SlidingWindow) Allow(identity string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	recent := s.prune(identity, now)
	if len(recent) >= s.quota {
		return false
	}
	s.requests[identity] = append(recent, now)
	return true
}

// Remaining is the number of requests identity can still make in the
// current window.
func (s *SlidingWindow) Remaining(identity string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	left := s.quota - len(s.prune(identity, s.now()))
	if left < 0 {
		return 0
	}
	return left
}

// Sweep drops identities with no request inside the window.
func (s *SlidingWindow) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for identity := range s.requests {
		if len(s.prune(identity, now)) == 0 {
			delete(s.requests, identity)
			removed++
		}
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *SlidingWindow) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = s.window
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Tracked returns how many identities currently hold state.
func (s *SlidingWindow) Tracked() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// prune must be called with mu held.
func (s *SlidingWindow) prune(identity string, now time.Time) []time.Time {
	times := s.requests[identity]
	cutoff := now.Add(-s.window)
	kept := times[:0]
	for _, t := range times {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		delete(s.requests, identity)
		return nil
	}
	s.requests[identity] = kept
	return kept
}

var _ ports.RateLimiter = (*SlidingWindow)(nil)
