package beatmap

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/nipaa-droid/nipaa-web-sub000/app/shared/metrics"
)

// Cache is a TTL-bounded LRU in front of a Provider. It stores both positive
// and negative (not found) results so repeated lookups of unknown hashes do
// not hammer the upstream. Two concurrent misses for the same key may both
// fetch upstream; the provider is idempotent so this is only wasted work.
type Cache struct {
	provider Provider
	limiter  *rate.Limiter
	logger   *slog.Logger
	metrics  *metrics.Metrics

	capacity int
	ttl      time.Duration
	now      func() time.Time

	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List // front = most recently used
}

type cacheEntry struct {
	md5       string
	info      *Info // nil marks a negative entry
	fetchedAt time.Time
}

// CacheOption customizes a Cache.
type CacheOption func(*Cache)

// WithClock overrides the cache's time source.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) { c.now = now }
}

// WithRateLimit bounds upstream fetches to r per second with the given burst.
func WithRateLimit(r rate.Limit, burst int) CacheOption {
	return func(c *Cache) { c.limiter = rate.NewLimiter(r, burst) }
}

// WithMetrics records cache events on m.
func WithMetrics(m *metrics.Metrics) CacheOption {
	return func(c *Cache) { c.metrics = m }
}

// NewCache builds a cache over provider holding at most capacity entries,
// each valid for ttl after fetch.
func NewCache(provider Provider, capacity int, ttl time.Duration, logger *slog.Logger, opts ...CacheOption) *Cache {
	c := &Cache{
		provider: provider,
		limiter:  rate.NewLimiter(rate.Inf, 1),
		logger:   logger,
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Lookup returns the beatmap for md5, fetching from the provider on a miss or
// a stale entry. A cached negative entry yields ErrNotFound without touching
// the upstream until the entry expires.
func (c *Cache) Lookup(ctx context.Context, md5 string) (*Info, error) {
	c.mu.Lock()
	if elem, ok := c.entries[md5]; ok {
		entry := elem.Value.(*cacheEntry)
		if c.now().Sub(entry.fetchedAt) < c.ttl {
			c.order.MoveToFront(elem)
			info := entry.info
			c.mu.Unlock()
			if info == nil {
				c.metrics.RecordBeatmapCacheEvent("negative_hit")
				return nil, ErrNotFound
			}
			c.metrics.RecordBeatmapCacheEvent("hit")
			cp := *info
			return &cp, nil
		}
		// Stale entries are dropped up front so a failed refetch does not
		// resurrect them.
		c.order.Remove(elem)
		delete(c.entries, md5)
	}
	c.mu.Unlock()

	c.metrics.RecordBeatmapCacheEvent("miss")
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("beatmap fetch rate limit: %w", err)
	}

	info, err := c.provider.Fetch(ctx, md5)
	switch {
	case err == nil:
		c.store(md5, info)
		cp := *info
		return &cp, nil
	case errors.Is(err, ErrNotFound):
		c.store(md5, nil)
		return nil, ErrNotFound
	default:
		// Transient provider failures are not cached.
		c.logger.WarnContext(ctx, "beatmap provider fetch failed",
			slog.String("md5", md5),
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("beatmap fetch %q: %w", md5, err)
	}
}

func (c *Cache) store(md5 string, info *Info) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[md5]; ok {
		c.order.Remove(elem)
		delete(c.entries, md5)
	}

	elem := c.order.PushFront(&cacheEntry{md5: md5, info: info, fetchedAt: c.now()})
	c.entries[md5] = elem

	for len(c.entries) > c.capacity {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		evicted := oldest.Value.(*cacheEntry)
		c.order.Remove(oldest)
		delete(c.entries, evicted.md5)
		c.metrics.RecordBeatmapCacheEvent("eviction")
	}
}

// Len returns the current entry count.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
