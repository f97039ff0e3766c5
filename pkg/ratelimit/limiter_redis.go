package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// tokenBucketScript refills and consumes one bucket atomically.
// KEYS[1] = bucket key
// ARGV[1] = refill rate (tokens per second)
// ARGV[2] = capacity
// ARGV[3] = cost
// ARGV[4] = now (unix seconds, fractional)
// Returns {allowed, wait_ms}.
var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local cost = tonumber(ARGV[3])
local now = tonumber(ARGV[4])

local state = redis.call("HMGET", key, "tokens", "last_refill")
local tokens = tonumber(state[1])
local last_refill = tonumber(state[2])

if not tokens or not last_refill then
    tokens = capacity
    last_refill = now
end

local elapsed = now - last_refill
if elapsed > 0 then
    tokens = math.min(capacity, tokens + elapsed * rate)
    last_refill = now
end

local allowed = 0
local wait_ms = 0
if tokens >= cost then
    tokens = tokens - cost
    allowed = 1
else
    wait_ms = math.ceil((cost - tokens) / rate * 1000)
end

redis.call("HMSET", key, "tokens", tokens, "last_refill", last_refill)
redis.call("EXPIRE", key, 120)

return {allowed, wait_ms}
`)

// Redis shares one token bucket between every collector process pointed at
// the same Redis instance, so parallel runs still respect the publisher cap.
type Redis struct {
	client *redis.Client
	key    string
	rpm    int
}

// NewRedis creates a limiter on the bucket named key.
func NewRedis(client *redis.Client, key string, rpm int) *Redis {
	if rpm <= 0 {
		rpm = DefaultRequestsPerMinute
	}
	return &Redis{client: client, key: "congress:ratelimit:" + key, rpm: rpm}
}

// Wait polls the shared bucket, sleeping for the hinted interval between tries.
func (r *Redis) Wait(ctx context.Context) error {
	perSecond := float64(r.rpm) / 60.0
	for {
		allowed, wait, err := r.try(ctx, perSecond)
		if err != nil {
			return err
		}
		if allowed {
			return nil
		}
		if wait <= 0 {
			wait = 50 * time.Millisecond
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (r *Redis) try(ctx context.Context, perSecond float64) (bool, time.Duration, error) {
	now := float64(time.Now().UnixMicro()) / 1e6
	res, err := tokenBucketScript.Run(ctx, r.client, []string{r.key}, perSecond, 1, 1, now).Result()
	if err != nil {
		return false, 0, fmt.Errorf("redis limiter: %w", err)
	}
	results, ok := res.([]interface{})
	if !ok || len(results) != 2 {
		return false, 0, fmt.Errorf("redis limiter: unexpected script response %v", res)
	}
	allowed, _ := results[0].(int64)
	waitMs, _ := results[1].(int64)
	return allowed == 1, time.Duration(waitMs) * time.Millisecond, nil
}
