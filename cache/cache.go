// Package cache memoizes analysis reports for identical inputs.
package cache

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/seo-optimizer/contentscore/analyzer"
)

// Recorder receives hit and miss counts. *stats.Storage satisfies it.
type Recorder interface {
	IncrementStats(hits, misses, analyses int)
}

type entry struct {
	report    *analyzer.Report
	timestamp time.Time
}

// Stats provides statistics about the cache
type Stats struct {
	Entries    int           `json:"entries"`
	MaxEntries int           `json:"maxEntries"`
	Hits       int64         `json:"hits"`
	Misses     int64         `json:"misses"`
	TTL        time.Duration `json:"ttl"`
}

// Cache is an in-memory report cache with a TTL and a size limit
type Cache struct {
	mu              sync.RWMutex
	entries         map[string]entry
	ttl             time.Duration
	maxEntries      int
	hits, misses    int64
	generation      uint64
	recorder        Recorder
	cleanupInterval time.Duration
	done            chan struct{}
	closeOnce       sync.Once
	now             func() time.Time
}

// Option configures a Cache
type Option func(*Cache)

// WithRecorder forwards hit and miss counts to r
func WithRecorder(r Recorder) Option {
	return func(c *Cache) {
		c.recorder = r
	}
}

// WithCleanupInterval sets how often expired entries are purged
func WithCleanupInterval(d time.Duration) Option {
	return func(c *Cache) {
		c.cleanupInterval = d
	}
}

// New creates a cache and starts its cleanup goroutine. Call Close to stop it.
// A non-positive maxEntries disables the size limit.
func New(ttl time.Duration, maxEntries int, opts ...Option) *Cache {
	c := &Cache{
		entries:         make(map[string]entry),
		ttl:             ttl,
		maxEntries:      maxEntries,
		cleanupInterval: 5 * time.Minute,
		done:            make(chan struct{}),
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	go c.periodicCleanup()
	return c
}

// Key derives a cache key from any JSON-encodable input
func Key(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	hash := md5.Sum(data)
	return hex.EncodeToString(hash[:])
}

// Get returns the cached report for key if present and not expired
func (c *Cache) Get(key string) (*analyzer.Report, bool) {
	c.mu.Lock()
	e, found := c.entries[key]
	hit := found && c.now().Sub(e.timestamp) < c.ttl
	if hit {
		c.hits++
	} else {
		c.misses++
	}
	c.mu.Unlock()

	if c.recorder != nil {
		if hit {
			c.recorder.IncrementStats(1, 0, 0)
		} else {
			c.recorder.IncrementStats(0, 1, 0)
		}
	}
	if !hit {
		return nil, false
	}
	return e.report, true
}

// Put stores report under key, evicting the oldest entries when full
func (c *Cache) Put(key string, report *analyzer.Report) {
	if key == "" || report == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.set(key, report)
}

// Generation returns a counter that Clear advances. Capture it before
// computing a report and pass it to PutIfCurrent.
func (c *Cache) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

// PutIfCurrent stores report only if Clear has not run since gen was read.
// It reports whether the entry was stored.
func (c *Cache) PutIfCurrent(key string, report *analyzer.Report, gen uint64) bool {
	if key == "" || report == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generation != gen {
		return false
	}
	c.set(key, report)
	return true
}

// set stores an entry and enforces the size limit. Callers hold mu.
func (c *Cache) set(key string, report *analyzer.Report) {
	c.entries[key] = entry{report: report, timestamp: c.now()}
	if c.maxEntries > 0 && len(c.entries) > c.maxEntries {
		c.evictOldest()
	}
}

// Clear removes every entry and advances the generation
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
	c.generation++
}

// Stats returns statistics about the cache
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{
		Entries:    len(c.entries),
		MaxEntries: c.maxEntries,
		Hits:       c.hits,
		Misses:     c.misses,
		TTL:        c.ttl,
	}
}

// Close stops the cleanup goroutine
func (c *Cache) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *Cache) periodicCleanup() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.done:
			return
		}
	}
}

// cleanup removes expired entries and enforces the size limit
func (c *Cache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, e := range c.entries {
		if now.Sub(e.timestamp) >= c.ttl {
			delete(c.entries, key)
		}
	}
	if c.maxEntries > 0 && len(c.entries) > c.maxEntries {
		c.evictOldest()
	}
}

// evictOldest drops the oldest entries until the cache fits. Callers hold mu.
func (c *Cache) evictOldest() {
	type aged struct {
		key       string
		timestamp time.Time
	}
	entries := make([]aged, 0, len(c.entries))
	for key, e := range c.entries {
		entries = append(entries, aged{key, e.timestamp})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].timestamp.Before(entries[j].timestamp)
	})
	for i := 0; i < len(entries)-c.maxEntries; i++ {
		delete(c.entries, entries[i].key)
	}
}
