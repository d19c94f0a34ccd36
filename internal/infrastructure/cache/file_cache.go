package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/doeshing/puremath/internal/domain"
	"github.com/doeshing/puremath/internal/pkg/filesystem"
	"github.com/doeshing/puremath/internal/ports"
)

// FileCache keeps solutions in memory and mirrors them to a single JSON file
// mapping question hash to {response, timestamp}.
//
// Stale entries are treated as misses on read but stay in memory (and on
// disk) until the next Load, which drops them.
type FileCache struct {
	path       string
	ttl        time.Duration
	maxEntries int
	log        ports.Logger
	now        func() time.Time

	entries *lru.Cache[string, domain.CacheEntry]

	// persistMu serializes writes of the backing file.
	persistMu sync.Mutex
}

// Option customizes a FileCache.
type Option func(*FileCache)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *FileCache) {
		if now != nil {
			c.now = now
		}
	}
}

// NewFileCache builds a cache backed by path and loads existing entries.
func NewFileCache(path string, ttl time.Duration, maxEntries int, log ports.Logger, opts ...Option) (*FileCache, error) {
	if ttl <= 0 {
		ttl = domain.DefaultCacheTTL
	}
	if maxEntries <= 0 {
		maxEntries = domain.DefaultCacheMaxEntries
	}
	entries, err := lru.New[string, domain.CacheEntry](maxEntries)
	if err != nil {
		return nil, err
	}
	c := &FileCache{
		path:       path,
		ttl:        ttl,
		maxEntries: maxEntries,
		log:        log,
		now:        time.Now,
		entries:    entries,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.Load()
	return c, nil
}

// Load replaces the in-memory state with the unexpired entries on disk.
// Read or parse failures are logged and leave the cache empty.
func (c *FileCache) Load() {
	c.entries.Purge()

	data, err := os.ReadFile(c.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			c.log.Error("cache load failed", err, map[string]interface{}{"path": c.path})
		}
		return
	}

	var stored map[string]domain.CacheEntry
	if err := json.Unmarshal(data, &stored); err != nil {
		c.log.Error("cache file is not valid JSON", err, map[string]interface{}{"path": c.path})
		return
	}

	now := c.now()
	keyed := make([]domain.KeyedCacheEntry, 0, len(stored))
	for key, entry := range stored {
		if entry.Expired(now, c.ttl) {
			continue
		}
		keyed = append(keyed, domain.KeyedCacheEntry{Key: key, CacheEntry: entry})
	}
	// oldest first so the newest entries end up most recently used
	sort.Slice(keyed, func(i, j int) bool { return keyed[i].Timestamp.Before(keyed[j].Timestamp) })
	for _, e := range keyed {
		c.entries.Add(e.Key, e.CacheEntry)
	}

	c.log.Debug("cache loaded", map[string]interface{}{
		"path":    c.path,
		"entries": c.entries.Len(),
		"expired": len(stored) - len(keyed),
	})
}

// Get returns the cached response for question while it is within the TTL.
func (c *FileCache) Get(question string) (string, bool) {
	entry, ok := c.entries.Get(Key(question))
	if !ok || entry.Expired(c.now(), c.ttl) {
		return "", false
	}
	return entry.Response, true
}

// Set stores response for question and persists the cache.
func (c *FileCache) Set(question, response string) {
	c.entries.Add(Key(question), domain.CacheEntry{
		Response:  response,
		Timestamp: c.now(),
	})
	if err := c.persist(); err != nil {
		c.log.Error("cache persist failed", err, map[string]interface{}{"path": c.path})
	}
}

// Entries lists the entries currently held in memory, newest first.
func (c *FileCache) Entries() []domain.KeyedCacheEntry {
	keys := c.entries.Keys()
	out := make([]domain.KeyedCacheEntry, 0, len(keys))
	for _, key := range keys {
		if entry, ok := c.entries.Peek(key); ok {
			out = append(out, domain.KeyedCacheEntry{Key: key, CacheEntry: entry})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out
}

// Clear drops every entry and removes the backing file.
func (c *FileCache) Clear() error {
	c.persistMu.Lock()
	defer c.persistMu.Unlock()
	c.entries.Purge()
	if err := os.Remove(c.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Path exposes the backing file path.
func (c *FileCache) Path() string {
	return c.path
}

// Settings returns the current TTL/max settings.
func (c *FileCache) Settings() domain.CacheSettings {
	return domain.CacheSettings{
		Path:       c.path,
		TTL:        c.ttl,
		MaxEntries: c.maxEntries,
	}
}

// persist snapshots the entries and atomically replaces the backing file.
func (c *FileCache) persist() error {
	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	snapshot := make(map[string]domain.CacheEntry, c.entries.Len())
	for _, key := range c.entries.Keys() {
		if entry, ok := c.entries.Peek(key); ok {
			snapshot[key] = entry
		}
	}

	data, err := json.MarshalIndent(snapshot, "", "    ")
	if err != nil {
		return err
	}
	return filesystem.WriteFileAtomic(c.path, data, 0o644)
}

// Key hashes a question into its cache key.
func Key(question string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(question)))
	return hex.EncodeToString(sum[:])
}

var _ ports.CacheRepository = (*FileCache)(nil)
