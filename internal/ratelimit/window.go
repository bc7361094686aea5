package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Window is a process-local limiter. State is lost on restart and is not
// shared between instances. Identifiers are never evicted, so memory grows
// with the number of distinct clients seen over the process lifetime.
type Window struct {
	mu       sync.Mutex
	name     string
	window   time.Duration
	max      int
	now      Clock
	requests map[string][]time.Time
}

// WindowOption configures a Window.
type WindowOption func(*Window)

// WithClock overrides the time source.
func WithClock(clock Clock) WindowOption {
	return func(w *Window) { w.now = clock }
}

// NewWindow builds a limiter allowing max requests per key within window.
func NewWindow(name string, window time.Duration, max int, opts ...WindowOption) *Window {
	w := &Window{
		name:     name,
		window:   window,
		max:      max,
		now:      time.Now,
		requests: make(map[string][]time.Time),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Name implements Limiter.
func (w *Window) Name() string { return w.name }

// Allow implements Limiter. It never returns an error.
func (w *Window) Allow(_ context.Context, key string) (Decision, error) {
	return w.Check(key), nil
}

// Check prunes key's log and records the request if it fits.
func (w *Window) Check(key string) Decision {
	now := w.now()

	w.mu.Lock()
	defer w.mu.Unlock()

	kept := w.requests[key][:0]
	for _, ts := range w.requests[key] {
		if now.Sub(ts) < w.window {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= w.max {
		w.requests[key] = kept
		if len(kept) == 0 {
			return Decision{RetryAfter: w.window}
		}
		return Decision{RetryAfter: retryAfter(kept[0], now, w.window)}
	}

	kept = append(kept, now)
	w.requests[key] = kept
	return Decision{Allowed: true, Remaining: w.max - len(kept)}
}

// Reset forgets every identifier.
func (w *Window) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.requests = make(map[string][]time.Time)
}

// Len reports how many identifiers are tracked.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.requests)
}
