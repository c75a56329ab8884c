// Package cache memoizes derived views per (mode, kind, sub-key) for a fixed TTL.
// Expiry is checked lazily on read; stale entries stay until superseded or invalidated.
package cache

import (
	"context"
	"sync"
	"time"

	"alcyxob/growrep/internal/domain"
	"alcyxob/growrep/internal/metrics"

	log "github.com/sirupsen/logrus"
)

// DefaultTTL is the validity window of a cache entry.
const DefaultTTL = 5 * time.Minute

// Kind names a cached resource.
type Kind string

const (
	KindPosts    Kind = "posts"
	KindRankings Kind = "rankings"
	KindScores   Kind = "scores"
	KindProgress Kind = "progress" // keyed further by sub-key
)

// Key identifies one cache slot.
type Key struct {
	Mode   domain.Mode
	Kind   Kind
	SubKey string
}

type entry struct {
	payload   any
	fetchedAt time.Time
}

// Cache is safe for concurrent use. It makes no ordering promise between
// racing refreshes of the same key: the last Put wins.
type Cache struct {
	mu      sync.Mutex
	entries map[Key]entry
	ttl     time.Duration
	now     func() time.Time
	metrics *metrics.Manager
}

type Option func(*Cache)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// WithMetrics counts hits and misses per kind.
func WithMetrics(m *metrics.Manager) Option {
	return func(c *Cache) {
		c.metrics = m
	}
}

// New creates a cache. A non-positive ttl falls back to DefaultTTL.
func New(ttl time.Duration, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{
		entries: make(map[Key]entry),
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the validity window.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Get returns the payload for the exact key while it is younger than the TTL.
func (c *Cache) Get(mode domain.Mode, kind Kind, subKey string) (any, bool) {
	c.mu.Lock()
	e, ok := c.entries[Key{Mode: mode, Kind: kind, SubKey: subKey}]
	fresh := ok && c.now().Sub(e.fetchedAt) < c.ttl
	c.mu.Unlock()

	c.count(kind, fresh)
	if !fresh {
		return nil, false
	}
	return e.payload, true
}

// Put stores payload, replacing whatever the key held.
func (c *Cache) Put(mode domain.Mode, kind Kind, subKey string, payload any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[Key{Mode: mode, Kind: kind, SubKey: subKey}] = entry{
		payload:   payload,
		fetchedAt: c.now(),
	}
}

// Invalidate drops entries of a mode. An empty kind drops every kind;
// an empty subKey drops every sub-key of the kind.
func (c *Cache) Invalidate(mode domain.Mode, kind Kind, subKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	dropped := 0
	for k := range c.entries {
		if k.Mode != mode {
			continue
		}
		if kind != "" && k.Kind != kind {
			continue
		}
		if subKey != "" && k.SubKey != subKey {
			continue
		}
		delete(c.entries, k)
		dropped++
	}

	log.WithFields(log.Fields{
		"mode":    mode,
		"kind":    kind,
		"subKey":  subKey,
		"dropped": dropped,
	}).Trace("cache invalidated")
}

// InvalidateMode flushes posts, rankings, scores and every progress series of the mode.
// Writes to records or settings call this.
func (c *Cache) InvalidateMode(mode domain.Mode) {
	c.Invalidate(mode, "", "")
}

// Len returns the number of stored entries, fresh or stale.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) count(kind Kind, hit bool) {
	if c.metrics == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	c.metrics.CounterCacheLookups.WithLabelValues(string(kind), result).Inc()
}

// Load returns the cached payload for the key or calls fetch and stores its result.
// force skips the lookup but still repopulates. Errors are never cached.
func Load[T any](ctx context.Context, c *Cache, mode domain.Mode, kind Kind, subKey string, force bool, fetch func(context.Context) (T, error)) (T, error) {
	if !force {
		if v, ok := c.Get(mode, kind, subKey); ok {
			if typed, ok := v.(T); ok {
				return typed, nil
			}
		}
	} else if c.metrics != nil {
		c.metrics.CounterCacheLookups.WithLabelValues(string(kind), "bypass").Inc()
	}

	v, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	c.Put(mode, kind, subKey, v)
	return v, nil
}
