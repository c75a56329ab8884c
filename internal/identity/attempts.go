package identity

import (
	"strings"
	"sync"
	"time"
)

// attemptTracker counts failed password checks per email inside a sliding window.
type attemptTracker struct {
	mu       sync.Mutex
	failures map[string][]time.Time
	max      int
	window   time.Duration
}

func newAttemptTracker(max int, window time.Duration) *attemptTracker {
	return &attemptTracker{
		failures: make(map[string][]time.Time),
		max:      max,
		window:   window,
	}
}

// blocked reports whether email already reached the limit at now.
func (t *attemptTracker) blocked(email string, now time.Time) bool {
	if t.max <= 0 {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.prune(key(email), now)) >= t.max
}

func (t *attemptTracker) fail(email string, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	k := key(email)
	t.failures[k] = append(t.prune(k, now), now)
}

func (t *attemptTracker) reset(email string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.failures, key(email))
}

// prune must be called with mu held.
func (t *attemptTracker) prune(k string, now time.Time) []time.Time {
	kept := t.failures[k][:0]
	for _, at := range t.failures[k] {
		if now.Sub(at) < t.window {
			kept = append(kept, at)
		}
	}
	if len(kept) == 0 {
		delete(t.failures, k)
		return nil
	}
	t.failures[k] = kept
	return kept
}

func key(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
