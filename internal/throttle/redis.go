package throttle

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/job-board/internal/config"
)

// The counter is created with the window as its expiry on the first hit.
// A key that lost its TTL is given one again.
var windowScript = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 then
    redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
    redis.call('PEXPIRE', KEYS[1], ARGV[1])
    ttl = tonumber(ARGV[1])
end
return { n, ttl }
`)

type RedisLimiter struct {
	rdb redis.Scripter
}

func NewRedisLimiter(rdb redis.Scripter) *RedisLimiter {
	return &RedisLimiter{rdb: rdb}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, rate config.Rate) (Decision, error) {
	vals, err := windowScript.Run(ctx, l.rdb, []string{key}, rate.Window.Milliseconds()).Int64Slice()
	if err != nil {
		return Decision{}, errors.Wrap(err, "run throttle script")
	}
	if len(vals) != 2 {
		return Decision{}, errors.Errorf("unexpected throttle reply %v", vals)
	}
	return decide(vals[0], rate, time.Duration(vals[1])*time.Millisecond), nil
}
