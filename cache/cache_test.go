package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seo-optimizer/contentscore/analyzer"
)

type countingRecorder struct {
	mu           sync.Mutex
	hits, misses int
}

func (r *countingRecorder) IncrementStats(hits, misses, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hits += hits
	r.misses += misses
}

// manualClock is advanced explicitly by the test
type manualClock struct{ t time.Time }

func (c *manualClock) now() time.Time          { return c.t }
func (c *manualClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestCache(t *testing.T, ttl time.Duration, max int, opts ...Option) (*Cache, *manualClock) {
	t.Helper()
	c := New(ttl, max, opts...)
	t.Cleanup(c.Close)
	clock := &manualClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c.now = clock.now
	return c, clock
}

func TestKey(t *testing.T) {
	a := Key(map[string]string{"content": "hello", "keyword": "x"})
	b := Key(map[string]string{"keyword": "x", "content": "hello"})
	c := Key(map[string]string{"content": "hello!", "keyword": "x"})

	assert.Len(t, a, 32)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Empty(t, Key(make(chan int)))
}

func TestGetPut(t *testing.T) {
	rec := &countingRecorder{}
	c, _ := newTestCache(t, time.Minute, 10, WithRecorder(rec))
	report := &analyzer.Report{WordCount: 42}

	_, ok := c.Get("k")
	assert.False(t, ok)

	c.Put("k", report)
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Same(t, report, got)

	stats := c.Stats()
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, rec.hits)
	assert.Equal(t, 1, rec.misses)
}

func TestExpiry(t *testing.T) {
	c, clock := newTestCache(t, time.Minute, 10)
	c.Put("k", &analyzer.Report{})

	clock.advance(59 * time.Second)
	_, ok := c.Get("k")
	assert.True(t, ok)

	clock.advance(2 * time.Second)
	_, ok = c.Get("k")
	assert.False(t, ok)

	c.cleanup()
	assert.Equal(t, 0, c.Stats().Entries)
}

func TestEvictsOldest(t *testing.T) {
	c, clock := newTestCache(t, time.Hour, 2)

	c.Put("first", &analyzer.Report{})
	clock.advance(time.Second)
	c.Put("second", &analyzer.Report{})
	clock.advance(time.Second)
	c.Put("third", &analyzer.Report{})

	assert.Equal(t, 2, c.Stats().Entries)
	_, ok := c.Get("first")
	assert.False(t, ok)
	_, ok = c.Get("third")
	assert.True(t, ok)
}

func TestClear(t *testing.T) {
	c, _ := newTestCache(t, time.Hour, 10)
	c.Put("a", &analyzer.Report{})
	c.Put("b", &analyzer.Report{})

	c.Clear()
	assert.Equal(t, 0, c.Stats().Entries)
}

func TestConcurrentAccess(t *testing.T) {
	c := New(time.Hour, 50)
	defer c.Close()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := Key([]int{i, j % 10})
				if _, ok := c.Get(key); !ok {
					c.Put(key, &analyzer.Report{WordCount: j})
				}
			}
		}(i)
	}
	wg.Wait()

	stats := c.Stats()
	assert.LessOrEqual(t, stats.Entries, 50)
	assert.Equal(t, int64(2000), stats.Hits+stats.Misses)
}

func TestCloseIsIdempotent(t *testing.T) {
	c := New(time.Minute, 1)
	c.Close()
	c.Close()
}

func TestPutIfCurrent_DropsReportsComputedBeforeClear(t *testing.T) {
	c, _ := newTestCache(t, time.Minute, 10)
	report := &analyzer.Report{}

	gen := c.Generation()
	assert.True(t, c.PutIfCurrent("fresh", report, gen))

	stale := c.Generation()
	c.Clear()
	assert.NotEqual(t, stale, c.Generation())
	assert.False(t, c.PutIfCurrent("stale", report, stale))

	_, found := c.Get("stale")
	assert.False(t, found)
	assert.Equal(t, 0, c.Stats().Entries)

	assert.True(t, c.PutIfCurrent("stale", report, c.Generation()))
	_, found = c.Get("stale")
	assert.True(t, found)
}
