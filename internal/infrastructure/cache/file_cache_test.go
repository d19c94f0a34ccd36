package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/puremath/internal/domain"
	"github.com/doeshing/puremath/internal/pkg/logger"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func newTestCache(t *testing.T, path string, clock *fakeClock) *FileCache {
	t.Helper()
	c, err := NewFileCache(path, 7*24*time.Hour, 10, logger.NewNop(), WithClock(clock.Now))
	require.NoError(t, err)
	return c
}

func TestSetThenGetRoundTrip(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(t, filepath.Join(t.TempDir(), "cache.json"), clock)

	c.Set("Solve 2x + 5 = 15", "x = 5")

	got, ok := c.Get("Solve 2x + 5 = 15")
	require.True(t, ok)
	assert.Equal(t, "x = 5", got)
}

func TestGetMissesAfterTTL(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(t, filepath.Join(t.TempDir(), "cache.json"), clock)

	c.Set("q", "answer")
	clock.Advance(7*24*time.Hour + time.Second)

	_, ok := c.Get("q")
	assert.False(t, ok)
	// stale entries are only dropped by the next load
	assert.Len(t, c.Entries(), 1)
}

func TestKeyIgnoresSurroundingWhitespace(t *testing.T) {
	assert.Equal(t, Key("Factor x² - 4"), Key("  Factor x² - 4\n"))
	assert.NotEqual(t, Key("Factor x² - 4"), Key("Factor x² - 9"))
}

func TestPersistSurvivesRestart(t *testing.T) {
	clock := newFakeClock()
	path := filepath.Join(t.TempDir(), "cache.json")

	first := newTestCache(t, path, clock)
	first.Set("q1", "a1")
	first.Set("q2", "a2")

	second := newTestCache(t, path, clock)
	got, ok := second.Get("q2")
	require.True(t, ok)
	assert.Equal(t, "a2", got)
	assert.Len(t, second.Entries(), 2)

	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temporary file must be renamed away")
}

func TestLoadDropsExpiredEntries(t *testing.T) {
	clock := newFakeClock()
	path := filepath.Join(t.TempDir(), "cache.json")

	stored := map[string]domain.CacheEntry{
		Key("fresh"): {Response: "new", Timestamp: clock.Now().Add(-time.Hour)},
		Key("stale"): {Response: "old", Timestamp: clock.Now().Add(-8 * 24 * time.Hour)},
	}
	data, err := json.Marshal(stored)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	c := newTestCache(t, path, clock)
	_, ok := c.Get("stale")
	assert.False(t, ok)
	got, ok := c.Get("fresh")
	require.True(t, ok)
	assert.Equal(t, "new", got)
	assert.Len(t, c.Entries(), 1)
}

func TestLoadToleratesCorruptFile(t *testing.T) {
	clock := newFakeClock()
	path := filepath.Join(t.TempDir(), "cache.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	c := newTestCache(t, path, clock)
	assert.Empty(t, c.Entries())

	c.Set("q", "a")
	reloaded := newTestCache(t, path, clock)
	_, ok := reloaded.Get("q")
	assert.True(t, ok)
}

func TestInterruptedWriteLeavesPreviousStateIntact(t *testing.T) {
	clock := newFakeClock()
	path := filepath.Join(t.TempDir(), "cache.json")

	c := newTestCache(t, path, clock)
	c.Set("q1", "a1")

	// a crash between writing the temp file and the rename leaves a partial
	// temp file next to the intact store
	require.NoError(t, os.WriteFile(path+".tmp", []byte(`{"partial":`), 0o644))

	recovered := newTestCache(t, path, clock)
	got, ok := recovered.Get("q1")
	require.True(t, ok)
	assert.Equal(t, "a1", got)
	assert.Len(t, recovered.Entries(), 1)
}

func TestConcurrentSetsPersistEveryEntry(t *testing.T) {
	clock := newFakeClock()
	path := filepath.Join(t.TempDir(), "cache.json")
	c := newTestCache(t, path, clock)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Set(string(rune('a'+i)), "answer")
		}(i)
	}
	wg.Wait()

	reloaded := newTestCache(t, path, clock)
	assert.Len(t, reloaded.Entries(), 8)
}

func TestMaxEntriesEvictsLeastRecentlyUsed(t *testing.T) {
	clock := newFakeClock()
	c, err := NewFileCache(filepath.Join(t.TempDir(), "cache.json"), time.Hour, 2, logger.NewNop(), WithClock(clock.Now))
	require.NoError(t, err)

	c.Set("q1", "a1")
	c.Set("q2", "a2")
	c.Set("q3", "a3")

	_, ok := c.Get("q1")
	assert.False(t, ok)
	assert.Len(t, c.Entries(), 2)
}

func TestClearRemovesFile(t *testing.T) {
	clock := newFakeClock()
	path := filepath.Join(t.TempDir(), "cache.json")
	c := newTestCache(t, path, clock)
	c.Set("q", "a")

	require.NoError(t, c.Clear())
	assert.Empty(t, c.Entries())
	assert.NoFileExists(t, path)
}
