package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingLogScript prunes, counts and conditionally appends in one round trip.
// Returns {allowed, oldest_ms, count}.
var slidingLogScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local max = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
if count >= max then
	local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
	return {0, tonumber(oldest[2]), count}
end

redis.call('ZADD', key, now, ARGV[4])
redis.call('PEXPIRE', key, window)
return {1, now, count + 1}
`)

// RedisWindow has the same semantics as Window but keeps the log in a Redis
// sorted set, so every instance pointing at the same Redis shares the cap.
type RedisWindow struct {
	rdb    redis.Scripter
	name   string
	prefix string
	window time.Duration
	max    int
	now    Clock
}

// RedisWindowOption configures a RedisWindow.
type RedisWindowOption func(*RedisWindow)

// WithRedisClock overrides the time source used for scores.
func WithRedisClock(clock Clock) RedisWindowOption {
	return func(w *RedisWindow) { w.now = clock }
}

// WithKeyPrefix sets the Redis key prefix.
func WithKeyPrefix(prefix string) RedisWindowOption {
	return func(w *RedisWindow) { w.prefix = strings.Trim(prefix, ":") }
}

// NewRedisWindow builds a Redis-backed limiter.
func NewRedisWindow(rdb redis.Scripter, name string, window time.Duration, max int, opts ...RedisWindowOption) *RedisWindow {
	w := &RedisWindow{
		rdb:    rdb,
		name:   name,
		prefix: "ratelimit",
		window: window,
		max:    max,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Name implements Limiter.
func (w *RedisWindow) Name() string { return w.name }

// Allow implements Limiter.
func (w *RedisWindow) Allow(ctx context.Context, key string) (Decision, error) {
	if w.max <= 0 {
		return Decision{RetryAfter: w.window}, nil
	}

	now := w.now()
	nowMS := now.UnixMilli()

	res, err := slidingLogScript.Run(ctx, w.rdb,
		[]string{w.key(key)},
		nowMS,
		w.window.Milliseconds(),
		w.max,
		fmt.Sprintf("%d-%s", nowMS, uuid.NewString()),
	).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("ratelimit %s: %w", w.name, err)
	}
	if len(res) != 3 {
		return Decision{}, fmt.Errorf("ratelimit %s: unexpected script reply %v", w.name, res)
	}

	if res[0] == 1 {
		return Decision{Allowed: true, Remaining: w.max - int(res[2])}, nil
	}

	oldest := time.UnixMilli(res[1])
	return Decision{RetryAfter: retryAfter(oldest, time.UnixMilli(nowMS), w.window)}, nil
}

func (w *RedisWindow) key(id string) string {
	return w.prefix + ":" + w.name + ":" + id
}
