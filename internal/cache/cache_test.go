package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"alcyxob/growrep/internal/cache"
	"alcyxob/growrep/internal/domain"
	"alcyxob/growrep/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (f *fakeClock) Now() time.Time { return f.t }
func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestCache() (*cache.Cache, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	return cache.New(cache.DefaultTTL, cache.WithClock(clock.Now)), clock
}

func TestCache_GetAfterPutWithinTTL(t *testing.T) {
	c, clock := newTestCache()

	payload := []string{"a", "b"}
	c.Put(domain.ModePrototype, cache.KindPosts, "", payload)

	clock.Advance(cache.DefaultTTL - time.Nanosecond)
	got, ok := c.Get(domain.ModePrototype, cache.KindPosts, "")
	require.True(t, ok)
	assert.Equal(t, payload, got)
}

func TestCache_ExpiresAtTTL(t *testing.T) {
	c, clock := newTestCache()
	c.Put(domain.ModePrototype, cache.KindScores, "", 1)

	clock.Advance(cache.DefaultTTL)
	_, ok := c.Get(domain.ModePrototype, cache.KindScores, "")
	assert.False(t, ok)
	// lazily expired, not evicted
	assert.Equal(t, 1, c.Len())
}

func TestCache_KeysAreExact(t *testing.T) {
	c, _ := newTestCache()
	c.Put(domain.ModePrototype, cache.KindProgress, "u1:pushup", 1)

	_, ok := c.Get(domain.ModeAlternate, cache.KindProgress, "u1:pushup")
	assert.False(t, ok)
	_, ok = c.Get(domain.ModePrototype, cache.KindProgress, "u1:squat")
	assert.False(t, ok)
	_, ok = c.Get(domain.ModePrototype, cache.KindProgress, "u1:pushup")
	assert.True(t, ok)
}

func TestCache_InvalidateMode(t *testing.T) {
	c, _ := newTestCache()
	for _, m := range domain.Modes {
		c.Put(m, cache.KindPosts, "", 1)
		c.Put(m, cache.KindRankings, "", 1)
		c.Put(m, cache.KindScores, "", 1)
		c.Put(m, cache.KindProgress, "a", 1)
		c.Put(m, cache.KindProgress, "b", 1)
	}

	c.InvalidateMode(domain.ModePrototype)

	for _, k := range []cache.Kind{cache.KindPosts, cache.KindRankings, cache.KindScores} {
		_, ok := c.Get(domain.ModePrototype, k, "")
		assert.False(t, ok, k)
		_, ok = c.Get(domain.ModeAlternate, k, "")
		assert.True(t, ok, k)
	}
	_, ok := c.Get(domain.ModePrototype, cache.KindProgress, "a")
	assert.False(t, ok)
	_, ok = c.Get(domain.ModeAlternate, cache.KindProgress, "b")
	assert.True(t, ok)
}

func TestCache_InvalidateKindAndSubKey(t *testing.T) {
	c, _ := newTestCache()
	c.Put(domain.ModePrototype, cache.KindPosts, "", 1)
	c.Put(domain.ModePrototype, cache.KindProgress, "a", 1)
	c.Put(domain.ModePrototype, cache.KindProgress, "b", 1)

	c.Invalidate(domain.ModePrototype, cache.KindProgress, "a")
	_, ok := c.Get(domain.ModePrototype, cache.KindProgress, "a")
	assert.False(t, ok)
	_, ok = c.Get(domain.ModePrototype, cache.KindProgress, "b")
	assert.True(t, ok)

	c.Invalidate(domain.ModePrototype, cache.KindProgress, "")
	_, ok = c.Get(domain.ModePrototype, cache.KindProgress, "b")
	assert.False(t, ok)
	_, ok = c.Get(domain.ModePrototype, cache.KindPosts, "")
	assert.True(t, ok)
}

func TestLoad(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestCache()

	calls := 0
	fetch := func(context.Context) (int, error) {
		calls++
		return calls * 10, nil
	}

	v, err := cache.Load(ctx, c, domain.ModePrototype, cache.KindScores, "", false, fetch)
	require.NoError(t, err)
	assert.Equal(t, 10, v)

	// hit: no new store call
	v, err = cache.Load(ctx, c, domain.ModePrototype, cache.KindScores, "", false, fetch)
	require.NoError(t, err)
	assert.Equal(t, 10, v)
	assert.Equal(t, 1, calls)

	// forced refresh bypasses the hit and repopulates
	v, err = cache.Load(ctx, c, domain.ModePrototype, cache.KindScores, "", true, fetch)
	require.NoError(t, err)
	assert.Equal(t, 20, v)
	v, err = cache.Load(ctx, c, domain.ModePrototype, cache.KindScores, "", false, fetch)
	require.NoError(t, err)
	assert.Equal(t, 20, v)
	assert.Equal(t, 2, calls)

	// after TTL
	clock.Advance(cache.DefaultTTL)
	v, err = cache.Load(ctx, c, domain.ModePrototype, cache.KindScores, "", false, fetch)
	require.NoError(t, err)
	assert.Equal(t, 30, v)

	// after invalidate
	c.InvalidateMode(domain.ModePrototype)
	_, err = cache.Load(ctx, c, domain.ModePrototype, cache.KindScores, "", false, fetch)
	require.NoError(t, err)
	assert.Equal(t, 4, calls)
}

func TestLoad_ErrorsAreNotCached(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache()
	boom := errors.New("store down")

	_, err := cache.Load(ctx, c, domain.ModePrototype, cache.KindScores, "", false, func(context.Context) (int, error) {
		return 0, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())
}

func TestCache_Metrics(t *testing.T) {
	m := metrics.NewTestManager()
	c := cache.New(time.Minute, cache.WithMetrics(m))

	c.Get(domain.ModePrototype, cache.KindPosts, "")
	c.Put(domain.ModePrototype, cache.KindPosts, "", 1)
	c.Get(domain.ModePrototype, cache.KindPosts, "")
	c.Get(domain.ModePrototype, cache.KindPosts, "")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterCacheLookups.WithLabelValues("posts", "miss")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CounterCacheLookups.WithLabelValues("posts", "hit")))
}

func TestNew_DefaultTTL(t *testing.T) {
	assert.Equal(t, cache.DefaultTTL, cache.New(0).TTL())
	assert.Equal(t, time.Second, cache.New(time.Second).TTL())
}
