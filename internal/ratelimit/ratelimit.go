package ratelimit

//go:generate mockgen -destination=../mocks/mock_limiter.go -package=mocks github.com/onestepid/onestep-auth/internal/ratelimit Limiter

import (
	"sync"
	"time"
)

// Limiter decides whether a keyed action may proceed. Implementations must be
// safe for concurrent use. The fixed-window implementation below is
// process-local; a shared-cache implementation can be substituted where
// cross-instance consistency matters.
type Limiter interface {
	Allow(key string) bool
}

type windowEntry struct {
	count       int
	windowStart time.Time
}

// FixedWindow allows at most limit calls per key within each window.
type FixedWindow struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	entries map[string]*windowEntry
	now     func() time.Time
}

func NewFixedWindow(limit int, window time.Duration) *FixedWindow {
	return &FixedWindow{
		limit:   limit,
		window:  window,
		entries: make(map[string]*windowEntry),
		now:     time.Now,
	}
}

func (l *FixedWindow) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.entries[key]
	if !ok || now.Sub(e.windowStart) >= l.window {
		l.sweepLocked(now)
		l.entries[key] = &windowEntry{count: 1, windowStart: now}
		return true
	}

	if e.count >= l.limit {
		return false
	}
	e.count++
	return true
}

// sweepLocked drops entries whose window has elapsed. Called lazily on window
// rollover so the map does not grow with one entry per client IP forever.
func (l *FixedWindow) sweepLocked(now time.Time) {
	for k, e := range l.entries {
		if now.Sub(e.windowStart) >= l.window {
			delete(l.entries, k)
		}
	}
}
