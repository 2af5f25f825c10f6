package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// takeScript returns {used, pttl, allowed}. The counter is only incremented
// while under the limit, so rejected calls leave the window untouched.
var takeScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
if current >= tonumber(ARGV[1]) then
  local ttl = redis.call('PTTL', KEYS[1])
  return {current, ttl, 0}
end
current = redis.call('INCR', KEYS[1])
local ttl = redis.call('PTTL', KEYS[1])
if current == 1 or ttl < 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[2])
  ttl = tonumber(ARGV[2])
end
return {current, ttl, 1}
`)

// RedisStore shares counters between API instances.
type RedisStore struct {
	client redis.Scripter
	prefix string
}

// NewRedisStore builds a store on top of any go-redis client.
func NewRedisStore(client redis.Scripter, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisStore{client: client, prefix: prefix}
}

// Take consumes one point for key.
func (s *RedisStore) Take(ctx context.Context, key string, policy Policy) (Result, error) {
	windowMS := policy.Window.Milliseconds()
	if windowMS <= 0 {
		windowMS = time.Minute.Milliseconds()
	}

	values, err := takeScript.Run(ctx, s.client, []string{s.prefix + ":" + key}, policy.Points, windowMS).Int64Slice()
	if err != nil {
		return Result{}, fmt.Errorf("rate limit script: %w", err)
	}
	if len(values) != 3 {
		return Result{}, fmt.Errorf("rate limit script: unexpected reply %v", values)
	}

	ttl := time.Duration(values[1]) * time.Millisecond
	if ttl < 0 {
		ttl = 0
	}
	return Result{
		Allowed:    values[2] == 1,
		Limit:      policy.Points,
		Remaining:  remaining(policy.Points, int(values[0])),
		ResetAfter: ttl,
	}, nil
}
