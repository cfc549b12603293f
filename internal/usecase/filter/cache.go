// Package filter resolves free text to known agency and category values through a TTL cache.
package filter

import (
	"context"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/grantmatch/internal/logger"
	"github.com/kailas-cloud/grantmatch/internal/metrics"
)

// DefaultTTL is how long fetched values stay valid.
const DefaultTTL = 5 * time.Minute

// Field is an enumerable filter field.
type Field string

// Cached fields.
const (
	Agency   Field = "agency"
	Category Field = "category"
)

type entry struct {
	values    []string
	fetchedAt time.Time
}

// Cache holds the enumerable filter values process-wide.
// An entry older than the TTL is refetched before use. Concurrent misses may fetch twice.
type Cache struct {
	src ValueSource
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[Field]entry
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// NewCache creates a filter value cache. ttl <= 0 uses DefaultTTL.
func NewCache(src ValueSource, ttl time.Duration, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{src: src, ttl: ttl, now: time.Now, entries: make(map[Field]entry)}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Values returns the sorted known values of field. The slice is shared; do not modify it.
// A failed fetch yields an empty list and is not cached.
func (c *Cache) Values(ctx context.Context, field Field) []string {
	now := c.now()

	c.mu.Lock()
	e, ok := c.entries[field]
	c.mu.Unlock()

	if ok && now.Sub(e.fetchedAt) <= c.ttl {
		metrics.FilterCacheTotal.WithLabelValues(string(field), "hit").Inc()
		return e.values
	}
	metrics.FilterCacheTotal.WithLabelValues(string(field), "miss").Inc()

	values, err := c.fetch(ctx, field)
	if err != nil {
		metrics.FilterCacheTotal.WithLabelValues(string(field), "error").Inc()
		logger.FromContext(ctx).Warn("filter values fetch failed",
			zap.String("field", string(field)), zap.Error(err))
		return []string{}
	}
	values = slices.Clone(values)
	slices.Sort(values)
	values = slices.Compact(values)
	if values == nil {
		values = []string{}
	}

	c.mu.Lock()
	c.entries[field] = entry{values: values, fetchedAt: now}
	c.mu.Unlock()

	return values
}

func (c *Cache) fetch(ctx context.Context, field Field) ([]string, error) {
	if c.src == nil {
		return nil, nil
	}
	switch field {
	case Agency:
		return c.src.DistinctAgencies(ctx)
	case Category:
		return c.src.DistinctCategories(ctx)
	default:
		return nil, nil
	}
}
