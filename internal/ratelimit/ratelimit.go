// Package ratelimit caps how often a client identifier may hit an endpoint.
//
// Limiters keep a trailing log of accepted request times per identifier. On
// each check, entries older than the window are pruned; if the remaining count
// has reached the maximum the request is rejected and the caller is told how
// long until the oldest entry leaves the window. Rejected requests are not
// recorded.
package ratelimit

import (
	"context"
	"math"
	"time"
)

// Decision is the result of a single limiter check. A rejection is a normal
// outcome, not an error.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
	Remaining  int
}

// RetryAfterSeconds rounds RetryAfter up to whole seconds. Rejections always
// report at least one second.
func (d Decision) RetryAfterSeconds() int {
	if d.Allowed {
		return 0
	}
	secs := int(math.Ceil(d.RetryAfter.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return secs
}

// Limiter decides whether key may make another request now.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
	Name() string
}

// Clock returns the current time.
type Clock func() time.Time

func retryAfter(oldest, now time.Time, window time.Duration) time.Duration {
	d := oldest.Add(window).Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
