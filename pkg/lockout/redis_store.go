package lockout

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// touchScript runs the count-or-lock transition server-side so that the
// read-modify-write is atomic across processes sharing the same Redis.
//
// KEYS[1] entry hash
// ARGV: now(ms), window(ms), lockout(ms), maxAttempts
// Returns: {allowed, remaining, resetAt(ms), locked, lockedUntil(ms)}
var touchScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local lockout = tonumber(ARGV[3])
local max = tonumber(ARGV[4])

local e = redis.call('HMGET', KEYS[1], 'attempts', 'windowStart', 'lockedUntil')
local attempts = tonumber(e[1])
local windowStart = tonumber(e[2])
local lockedUntil = tonumber(e[3])

if lockedUntil and lockedUntil > now then
  return {0, 0, lockedUntil, 1, lockedUntil}
end

if (not attempts) or (now - windowStart > window) or (lockedUntil and lockedUntil > 0) then
  redis.call('HSET', KEYS[1], 'attempts', 1, 'windowStart', now, 'lockedUntil', 0)
  redis.call('PEXPIRE', KEYS[1], math.max(window, lockout))
  return {1, max - 1, now + window, 0, 0}
end

attempts = attempts + 1
if attempts > max then
  local until_ms = now + lockout
  redis.call('HSET', KEYS[1], 'attempts', attempts, 'lockedUntil', until_ms)
  redis.call('PEXPIRE', KEYS[1], lockout)
  return {0, 0, until_ms, 1, until_ms}
end

redis.call('HSET', KEYS[1], 'attempts', attempts)
return {1, max - attempts, windowStart + window, 0, 0}
`)

// RedisStore implements Store on a shared Redis, for deployments where the
// failure budget must hold across processes. Entries carry a TTL so
// abandoned keys expire on their own.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithKeyPrefix sets the namespace prefix for stored keys.
func WithKeyPrefix(prefix string) RedisStoreOption {
	return func(rs *RedisStore) {
		if prefix != "" {
			rs.prefix = prefix
		}
	}
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(client *redis.Client, opts ...RedisStoreOption) (*RedisStore, error) {
	if client == nil {
		return nil, ErrStoreRequired
	}

	rs := &RedisStore{
		client: client,
		prefix: "lockout:",
	}

	for _, opt := range opts {
		opt(rs)
	}

	return rs, nil
}

// Touch applies one attempt via the Lua script.
func (rs *RedisStore) Touch(ctx context.Context, key string, cfg Config, now time.Time) (*Result, error) {
	vals, err := touchScript.Run(ctx, rs.client, []string{rs.prefix + key},
		now.UnixMilli(),
		cfg.Window.Milliseconds(),
		cfg.Lockout.Milliseconds(),
		cfg.MaxAttempts,
	).Int64Slice()
	if err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}
	if len(vals) != 5 {
		return nil, ErrStoreUnavailable
	}

	res := &Result{
		Allowed:   vals[0] == 1,
		Remaining: int(vals[1]),
		ResetAt:   time.UnixMilli(vals[2]),
		Locked:    vals[3] == 1,
	}
	if vals[4] > 0 {
		res.LockedUntil = time.UnixMilli(vals[4])
	}

	return res, nil
}

// Reset clears the entry for the key.
func (rs *RedisStore) Reset(ctx context.Context, key string) error {
	if err := rs.client.Del(ctx, rs.prefix+key).Err(); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}
