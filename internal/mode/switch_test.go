package mode

import (
	"context"
	"errors"
	"testing"

	"alcyxob/growrep/internal/cache"
	"alcyxob/growrep/internal/domain"
	"alcyxob/growrep/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRefresher struct {
	calls []domain.Mode
	views []View
	err   error
}

func (r *recordingRefresher) Refresh(_ context.Context, m domain.Mode, state ViewState) error {
	r.calls = append(r.calls, m)
	r.views = append(r.views, state.View)
	return r.err
}

func TestSwitch_NoOpOnSameMode(t *testing.T) {
	c := cache.New(0)
	c.Put(domain.ModePrototype, cache.KindProgress, "k", 1)
	ref := &recordingRefresher{}
	s := NewSwitch(domain.ModePrototype, c, nil)
	s.SetRefresher(ref)

	changed, err := s.Switch(context.Background(), domain.ModePrototype, ViewState{View: ViewScores})
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Empty(t, ref.calls)
	_, ok := c.Get(domain.ModePrototype, cache.KindProgress, "k")
	assert.True(t, ok)
}

func TestSwitch_InvalidatesProgressOfNewModeOnly(t *testing.T) {
	c := cache.New(0)
	for _, m := range domain.Modes {
		c.Put(m, cache.KindProgress, "k", 1)
		c.Put(m, cache.KindPosts, "", 1)
	}
	ref := &recordingRefresher{}
	m := metrics.NewTestManager()
	s := NewSwitch(domain.ModePrototype, c, m)
	s.SetRefresher(ref)

	changed, err := s.Switch(context.Background(), domain.ModeAlternate, ViewState{View: ViewProgress})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, domain.ModeAlternate, s.Active())

	_, ok := c.Get(domain.ModeAlternate, cache.KindProgress, "k")
	assert.False(t, ok)
	_, ok = c.Get(domain.ModePrototype, cache.KindProgress, "k")
	assert.True(t, ok)
	_, ok = c.Get(domain.ModeAlternate, cache.KindPosts, "")
	assert.True(t, ok)

	assert.Equal(t, []domain.Mode{domain.ModeAlternate}, ref.calls)
	assert.Equal(t, []View{ViewProgress}, ref.views)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterModeSwitches))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GaugeActiveMode.WithLabelValues("alternate")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.GaugeActiveMode.WithLabelValues("prototype")))
}

func TestSwitch_RefreshFailureKeepsNewMode(t *testing.T) {
	boom := errors.New("store down")
	s := NewSwitch(domain.ModeAlternate, cache.New(0), nil)
	s.SetRefresher(&recordingRefresher{err: boom})

	changed, err := s.Switch(context.Background(), domain.ModePrototype, ViewState{})
	assert.True(t, changed)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, domain.ModePrototype, s.Active())
}

func TestSwitch_RejectsUnknownMode(t *testing.T) {
	s := NewSwitch("", cache.New(0), nil)
	assert.Equal(t, domain.ModePrototype, s.Active())

	_, err := s.Switch(context.Background(), domain.Mode("beta"), ViewState{})
	assert.Error(t, err)
	assert.Equal(t, domain.ModePrototype, s.Active())
}

func TestParseView(t *testing.T) {
	v, err := ParseView("")
	require.NoError(t, err)
	assert.Equal(t, ViewFeed, v)

	v, err = ParseView("scores")
	require.NoError(t, err)
	assert.Equal(t, ViewScores, v)

	_, err = ParseView("charts")
	assert.Error(t, err)
}
