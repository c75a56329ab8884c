// Package mode holds the active namespace and performs switches between them.
package mode

import (
	"context"
	"fmt"
	"sync"

	"alcyxob/growrep/internal/cache"
	"alcyxob/growrep/internal/domain"
	"alcyxob/growrep/internal/metrics"

	"go.mongodb.org/mongo-driver/bson/primitive"

	log "github.com/sirupsen/logrus"
)

// View is the screen a caller currently shows. It decides what gets re-fetched after a switch.
type View string

const (
	ViewFeed     View = "feed"
	ViewRankings View = "rankings"
	ViewScores   View = "scores"
	ViewProgress View = "progress"
)

// ParseView returns ViewFeed for empty input.
func ParseView(raw string) (View, error) {
	switch v := View(raw); v {
	case "":
		return ViewFeed, nil
	case ViewFeed, ViewRankings, ViewScores, ViewProgress:
		return v, nil
	default:
		return "", fmt.Errorf("unknown view %q", raw)
	}
}

// ViewState describes what the caller needs refreshed.
type ViewState struct {
	View     View
	UserID   primitive.ObjectID  // progress only
	Exercise domain.ExerciseType // progress only
}

// Refresher re-fetches posts, rankings and whatever the view needs, bypassing the cache.
type Refresher interface {
	Refresh(ctx context.Context, m domain.Mode, state ViewState) error
}

// Switch owns the process-wide active mode.
type Switch struct {
	mu        sync.RWMutex
	active    domain.Mode
	cache     *cache.Cache
	refresher Refresher
	metrics   *metrics.Manager
}

// NewSwitch starts in initial, or in the prototype mode if initial is not valid.
func NewSwitch(initial domain.Mode, c *cache.Cache, m *metrics.Manager) *Switch {
	if !initial.Valid() {
		initial = domain.ModePrototype
	}
	s := &Switch{active: initial, cache: c, metrics: m}
	s.publish()
	return s
}

// SetRefresher wires the component that reloads views after a switch.
// The refresher usually depends on the switch itself, so it is set after construction.
func (s *Switch) SetRefresher(r Refresher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresher = r
}

// Active returns the current mode.
func (s *Switch) Active() domain.Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Switch moves to target. It reports whether the mode changed.
// A failed refresh is returned but the switch itself stays in effect.
func (s *Switch) Switch(ctx context.Context, target domain.Mode, state ViewState) (bool, error) {
	if !target.Valid() {
		return false, fmt.Errorf("unknown mode %q", target)
	}

	s.mu.Lock()
	if s.active == target {
		s.mu.Unlock()
		return false, nil
	}
	from := s.active
	s.active = target
	refresher := s.refresher
	s.mu.Unlock()

	s.cache.Invalidate(target, cache.KindProgress, "")
	s.publish()
	if s.metrics != nil {
		s.metrics.CounterModeSwitches.Inc()
	}

	log.WithFields(log.Fields{
		"from": from,
		"to":   target,
		"view": state.View,
	}).Info("mode switched")

	if refresher == nil {
		return true, nil
	}
	if err := refresher.Refresh(ctx, target, state); err != nil {
		return true, fmt.Errorf("refresh after switch to %s: %w", target, err)
	}
	return true, nil
}

func (s *Switch) publish() {
	if s.metrics == nil {
		return
	}
	active := s.Active()
	for _, m := range domain.Modes {
		v := 0.0
		if m == active {
			v = 1
		}
		s.metrics.GaugeActiveMode.WithLabelValues(string(m)).Set(v)
	}
}
