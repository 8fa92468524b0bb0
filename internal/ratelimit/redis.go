package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Increments the window counter and sets its expiry when the key is new.
// Returns {count, pttl}.
var incrWindow = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {n, ttl}
`)

// RedisLimiter shares windows across instances through Redis.
type RedisLimiter struct {
	rdb    redis.Scripter
	prefix string
	now    func() time.Time
}

var _ Limiter = (*RedisLimiter)(nil)

// NewRedisLimiter stores windows under the "ratelimit:" key prefix.
func NewRedisLimiter(rdb redis.Scripter) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, prefix: "ratelimit:", now: time.Now}
}

func (l *RedisLimiter) Check(ctx context.Context, id string, cfg Config) (Result, error) {
	vals, err := incrWindow.Run(ctx, l.rdb, []string{l.prefix + id}, cfg.Interval.Milliseconds()).Int64Slice()
	if err != nil {
		return Result{}, fmt.Errorf("rate limit script: %w", err)
	}
	if len(vals) != 2 {
		return Result{}, fmt.Errorf("rate limit script: unexpected reply %v", vals)
	}
	now := l.now()
	resetAt := now.Add(time.Duration(vals[1]) * time.Millisecond)
	return result(int(vals[0]), cfg, now, resetAt), nil
}
