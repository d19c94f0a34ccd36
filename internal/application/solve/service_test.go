package solve

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/puremath/internal/domain"
	"github.com/doeshing/puremath/internal/pkg/logger"
)

type stubBackend struct {
	mu      sync.Mutex
	replies []reply
	prompts []string
}

type reply struct {
	text string
	err  error
}

func (s *stubBackend) Name() string { return "stub" }

func (s *stubBackend) Generate(_ context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	if len(s.replies) == 0 {
		return "", nil
	}
	r := s.replies[0]
	if len(s.replies) > 1 {
		s.replies = s.replies[1:]
	}
	return r.text, r.err
}

func (s *stubBackend) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

type memoryCache struct {
	mu      sync.Mutex
	entries map[string]string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string]string{}}
}

func (m *memoryCache) Get(q string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.entries[q]
	return v, ok
}

func (m *memoryCache) Set(q, r string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[q] = r
}

func newService(backend *stubBackend, cache *memoryCache) *Service {
	return &Service{
		Backend:    backend,
		Cache:      cache,
		Normalize:  strings.TrimSpace,
		Logger:     logger.NewNop(),
		Retries:    3,
		RetryDelay: time.Millisecond,
	}
}

const solution = "Step 1: 2x = 10\nStep 2: x = 5\nSolution: [x = 5]"

func TestAnswerCallsBackendOnceAndCaches(t *testing.T) {
	backend := &stubBackend{replies: []reply{{text: solution}}}
	cache := newMemoryCache()
	svc := newService(backend, cache)

	got, err := svc.Answer(context.Background(), "Solve 2x + 5 = 15")
	require.NoError(t, err)
	assert.Equal(t, solution, got)
	assert.Equal(t, 1, backend.calls())

	cached, ok := cache.Get("Solve 2x + 5 = 15")
	require.True(t, ok)
	assert.Equal(t, solution, cached)
}

func TestAnswerServesRepeatFromCache(t *testing.T) {
	backend := &stubBackend{replies: []reply{{text: solution}}}
	svc := newService(backend, newMemoryCache())

	_, err := svc.Answer(context.Background(), "Solve 2x + 5 = 15")
	require.NoError(t, err)
	got, err := svc.Answer(context.Background(), "Solve 2x + 5 = 15")
	require.NoError(t, err)

	assert.Equal(t, solution, got)
	assert.Equal(t, 1, backend.calls())
}

func TestAnswerRetriesTransientFailures(t *testing.T) {
	backend := &stubBackend{replies: []reply{
		{err: errors.New("503")},
		{text: "   "},
		{text: solution},
	}}
	svc := newService(backend, newMemoryCache())

	got, err := svc.Answer(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, solution, got)
	assert.Equal(t, 3, backend.calls())
}

func TestAnswerEmptyOnEveryAttemptIsNotAvailable(t *testing.T) {
	backend := &stubBackend{replies: []reply{{text: ""}}}
	cache := newMemoryCache()
	svc := newService(backend, cache)

	_, err := svc.Answer(context.Background(), "q")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotAvailable))
	assert.Equal(t, 3, backend.calls())
	assert.Empty(t, cache.entries)
}

func TestAnswerBackendErrorsExhaustRetries(t *testing.T) {
	backend := &stubBackend{replies: []reply{{err: errors.New("quota exceeded")}}}
	svc := newService(backend, newMemoryCache())
	svc.Retries = 2

	_, err := svc.Answer(context.Background(), "q")
	assert.ErrorIs(t, err, domain.ErrNotAvailable)
	assert.Equal(t, 2, backend.calls())
}

func TestAnswerTooShortIsNotAvailableAndNotCached(t *testing.T) {
	backend := &stubBackend{replies: []reply{{text: "x = 5"}}}
	cache := newMemoryCache()
	svc := newService(backend, cache)

	_, err := svc.Answer(context.Background(), "q")
	assert.ErrorIs(t, err, domain.ErrNotAvailable)
	assert.Equal(t, 1, backend.calls())
	assert.Empty(t, cache.entries)
}

func TestAnswerNormalizesBeforeCaching(t *testing.T) {
	backend := &stubBackend{replies: []reply{{text: "raw answer text here"}}}
	cache := newMemoryCache()
	svc := newService(backend, cache)
	svc.Normalize = strings.ToUpper

	got, err := svc.Answer(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "RAW ANSWER TEXT HERE", got)
	cached, _ := cache.Get("q")
	assert.Equal(t, "RAW ANSWER TEXT HERE", cached)
}

func TestAnswerStopsRetryingWhenContextEnds(t *testing.T) {
	backend := &stubBackend{replies: []reply{{err: errors.New("down")}}}
	svc := newService(backend, newMemoryCache())
	svc.RetryDelay = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := svc.Answer(ctx, "q")
	assert.ErrorIs(t, err, domain.ErrNotAvailable)
	assert.Less(t, time.Since(start), time.Minute)
	assert.Equal(t, 1, backend.calls())
}

func TestAnswerRequiresDependencies(t *testing.T) {
	_, err := (&Service{}).Answer(context.Background(), "q")
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrNotAvailable))
}

func TestLinearBackOffGrowsByBase(t *testing.T) {
	b := &linearBackOff{base: 2 * time.Second}
	assert.Equal(t, 2*time.Second, b.NextBackOff())
	assert.Equal(t, 4*time.Second, b.NextBackOff())
	assert.Equal(t, 6*time.Second, b.NextBackOff())
	b.Reset()
	assert.Equal(t, 2*time.Second, b.NextBackOff())
}

func TestBuildPromptEmbedsQuestion(t *testing.T) {
	prompt, err := BuildPrompt("  Factor x² - 4 ")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(prompt, "You are an expert math tutor"))
	assert.Contains(t, prompt, "Now solve this problem:\nFactor x² - 4\n\n")
	assert.Contains(t, prompt, "Solution: [x = 5]")
	assert.True(t, strings.HasSuffix(prompt, "following the exact format above:"))
}

func TestBuildPromptDoesNotEscapeQuestion(t *testing.T) {
	prompt, err := BuildPrompt("is 3 < 5 && 5 > 3?")
	require.NoError(t, err)
	assert.Contains(t, prompt, "is 3 < 5 && 5 > 3?")
}
