package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"tradingagents/pkg/errors"
)

// RedisLimiter implements a distributed token bucket via Redis. State is
// shared across processes so the combined dispatch rate of a deployment
// stays under the provider limit.
type RedisLimiter struct {
	client      *redis.Client
	name        string
	rate        float64 // tokens per second
	burst       int
	key         string
	tokenScript *redis.Script
}

// Atomic token bucket refill-and-consume.
// KEYS[1] = bucket key, ARGV[1] = rate, ARGV[2] = burst, ARGV[3] = now.
// Returns 1 if a token was consumed, 0 otherwise.
const luaTokenBucket = `
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

local data = redis.call('HMGET', key, 'tokens', 'last_update')
local tokens = tonumber(data[1])
local last_update = tonumber(data[2])

if not tokens then
    tokens = burst
    last_update = now
end

local elapsed = now - last_update
tokens = math.min(burst, tokens + elapsed * rate)

local allowed = 0
if tokens >= 1.0 then
    tokens = tokens - 1.0
    allowed = 1
end

redis.call('HMSET', key, 'tokens', tokens, 'last_update', now)
redis.call('EXPIRE', key, 3600)

return allowed
`

// NewRedisLimiter creates a Redis-backed limiter for one provider.
func NewRedisLimiter(client *redis.Client, name string, requestsPerMinute int) *RedisLimiter {
	burst := requestsPerMinute / 10
	if burst < 1 {
		burst = 1
	}

	return &RedisLimiter{
		client:      client,
		name:        name,
		rate:        float64(requestsPerMinute) / 60.0,
		burst:       burst,
		key:         fmt.Sprintf("rate_limit:ai:%s", name),
		tokenScript: redis.NewScript(luaTokenBucket),
	}
}

// Wait blocks until a token is available or the context is cancelled.
func (l *RedisLimiter) Wait(ctx context.Context) error {
	for {
		allowed, err := l.tryAcquire(ctx)
		if err != nil {
			return errors.Wrapf(err, "redis rate limiter %s", l.name)
		}
		if allowed {
			return nil
		}

		waitTime := time.Duration(float64(time.Second) / l.rate)

		select {
		case <-ctx.Done():
			return errors.Wrapf(errors.ErrRateLimitExceeded, "rate limiter %s: %v", l.name, ctx.Err())
		case <-time.After(waitTime):
		}
	}
}

// Allow checks if a request can proceed without blocking.
func (l *RedisLimiter) Allow() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	allowed, err := l.tryAcquire(ctx)
	if err != nil {
		// On error, deny rather than hammer a possibly limited provider.
		return false
	}
	return allowed
}

// Limit returns the configured requests per minute.
func (l *RedisLimiter) Limit() float64 {
	return l.rate * 60.0
}

// Reset clears the limiter state (used by tests).
func (l *RedisLimiter) Reset(ctx context.Context) error {
	return l.client.Del(ctx, l.key).Err()
}

func (l *RedisLimiter) tryAcquire(ctx context.Context) (bool, error) {
	now := float64(time.Now().UnixNano()) / float64(time.Second)

	result, err := l.tokenScript.Run(ctx, l.client, []string{l.key}, l.rate, l.burst, now).Int()
	if err != nil {
		return false, errors.Wrap(err, "execute token bucket script")
	}
	return result == 1, nil
}
