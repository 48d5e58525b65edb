package throttle

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// recordFailureScript applies one failure to a record atomically.
// KEYS[1] = record key; ARGV = now_ms, threshold, ban_ms, idle_ms.
// The hash holds attempts, until (ms, 0 while counting) and last (ms).
var recordFailureScript = redis.NewScript(`
local attempts = tonumber(redis.call('HGET', KEYS[1], 'attempts') or '0')
local untilMs = tonumber(redis.call('HGET', KEYS[1], 'until') or '0')
local now = tonumber(ARGV[1])
local threshold = tonumber(ARGV[2])
local banMs = tonumber(ARGV[3])
local idleMs = tonumber(ARGV[4])

if untilMs > 0 then
	if now < untilMs then
		attempts = threshold - 1
	else
		attempts = 0
	end
	untilMs = 0
end

attempts = attempts + 1
if attempts >= threshold then
	untilMs = now + banMs
end

redis.call('HSET', KEYS[1], 'attempts', attempts, 'until', string.format('%.0f', untilMs), 'last', string.format('%.0f', now))
if untilMs > 0 then
	redis.call('PEXPIRE', KEYS[1], banMs)
elseif idleMs > 0 then
	redis.call('PEXPIRE', KEYS[1], idleMs)
else
	redis.call('PERSIST', KEYS[1])
end

return attempts
`)

// Redis is a Throttle whose records live in Redis, so every API instance
// shares the same ban state. Banned records carry a Redis TTL and are evicted
// by Redis once the ban is over.
type Redis struct {
	client redis.UniversalClient
	config Config
	prefix string
}

// type check
var _ Throttle = (*Redis)(nil)

type RedisOption func(*Redis)

// WithKeyPrefix sets the key namespace (default "throttle:login")
func WithKeyPrefix(prefix string) RedisOption {
	return func(r *Redis) {
		r.prefix = strings.Trim(prefix, ":")
	}
}

// NewRedis creates a Redis-backed throttle
func NewRedis(client redis.UniversalClient, config Config, opts ...RedisOption) *Redis {
	r := &Redis{
		client: client,
		config: config,
		prefix: "throttle:login",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Redis) key(identifier string) string {
	return r.prefix + ":" + identifier
}

// CheckAdmission implements Throttle
func (r *Redis) CheckAdmission(ctx context.Context, identifier string, now time.Time) (Decision, error) {
	vals, err := r.client.HMGet(ctx, r.key(identifier), "until").Result()
	if err != nil {
		return Allowed, fmt.Errorf("failed to read throttle record: %w", err)
	}
	if len(vals) == 0 || vals[0] == nil {
		return Allowed, nil
	}

	raw, ok := vals[0].(string)
	if !ok {
		return Allowed, fmt.Errorf("unexpected throttle record value %T", vals[0])
	}
	untilMs, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return Allowed, fmt.Errorf("invalid throttle record: %w", err)
	}
	if untilMs == 0 {
		return Allowed, nil
	}

	until := time.UnixMilli(untilMs)
	if now.Before(until) {
		return Decision{Banned: true, Remaining: until.Sub(now)}, nil
	}

	return Allowed, nil
}

// RecordFailure implements Throttle
func (r *Redis) RecordFailure(ctx context.Context, identifier string, now time.Time) error {
	err := recordFailureScript.Run(ctx, r.client, []string{r.key(identifier)},
		now.UnixMilli(),
		r.config.Threshold,
		r.config.BanDuration.Milliseconds(),
		r.config.IdleTTL.Milliseconds(),
	).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to record login failure: %w", err)
	}
	return nil
}

// RecordSuccess implements Throttle
func (r *Redis) RecordSuccess(ctx context.Context, identifier string) error {
	if err := r.client.Del(ctx, r.key(identifier)).Err(); err != nil {
		return fmt.Errorf("failed to clear throttle record: %w", err)
	}
	return nil
}
