package ratelimit

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
)

// The bucket lives in one hash: tokens left and the last refill time in ms.
var tokenBucket = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local rate = tonumber(ARGV[2])
local burst = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

local state = redis.call("HMGET", key, "tokens", "ts")
local tokens = tonumber(state[1])
local ts = tonumber(state[2])
if tokens == nil or ts == nil then
	tokens = burst
	ts = now
end

local elapsed = math.max(0, now - ts)
tokens = math.min(burst, tokens + elapsed * rate / 1000)

local allowed = 0
if tokens >= 1 then
	tokens = tokens - 1
	allowed = 1
end

redis.call("HSET", key, "tokens", tostring(tokens), "ts", now)
redis.call("PEXPIRE", key, ttl)

return allowed
`)

// Redis shares buckets between every instance using the same Redis server.
type Redis struct {
	client redis.Scripter
	prefix string
	rate   float64
	burst  int
	ttl    int64
	now    func() time.Time
}

func NewRedis(client redis.Scripter, prefix string, rps float64, burst int) *Redis {
	// A bucket refills completely in burst/rps seconds; keep it twice that.
	ttl := int64(math.Ceil(float64(burst)/rps*1000)) * 2
	if ttl < 1000 {
		ttl = 1000
	}

	return &Redis{
		client: client,
		prefix: prefix,
		rate:   rps,
		burst:  burst,
		ttl:    ttl,
		now:    time.Now,
	}
}

func (l *Redis) Allow(ctx context.Context, key string) (bool, error) {
	const op = "ratelimit.Redis.Allow"

	keys := []string{l.prefix + key}
	args := []any{l.now().UnixMilli(), l.rate, l.burst, l.ttl}

	allowed, err := tokenBucket.Run(ctx, l.client, keys, args...).Int()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return allowed == 1, nil
}
