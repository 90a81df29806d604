package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"authgate/internal/config"
	"github.com/redis/go-redis/v9"
)

// takeTokenScript runs the whole refill-then-spend step server-side so two
// concurrent requests for the same key can never both observe the same
// stale token count. Timestamps are in milliseconds. On rejection only the
// refill is persisted, never a negative spend.
var takeTokenScript = redis.NewScript(`
local capacity = tonumber(ARGV[1])
local refill = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

local bucket = redis.call('HMGET', KEYS[1], 'tokens', 'lastRefill')
local tokens = tonumber(bucket[1])
local last = tonumber(bucket[2])
if tokens == nil then tokens = capacity end
if last == nil then last = now end

local elapsed = (now - last) / 1000
if elapsed < 0 then elapsed = 0 end
tokens = math.min(capacity, tokens + elapsed * refill)

local allowed = 0
if tokens >= 1 then
  tokens = tokens - 1
  allowed = 1
end

redis.call('HSET', KEYS[1], 'tokens', tostring(tokens), 'lastRefill', tostring(now))
redis.call('EXPIRE', KEYS[1], ttl)
return {tostring(tokens), allowed}
`)

// RedisStore implements Store on a Redis server.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection with a
// bounded ping.
func NewRedisStore(cfg *config.RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	return val, err
}

func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

func (s *RedisStore) GetFields(ctx context.Context, key string) (map[string]string, error) {
	return s.client.HGetAll(ctx, key).Result()
}

func (s *RedisStore) SetFields(ctx context.Context, key string, fields map[string]string) error {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return s.client.HSet(ctx, key, args...).Err()
}

func (s *RedisStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return s.client.Expire(ctx, key, ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

func (s *RedisStore) TakeToken(ctx context.Context, key string, capacity, refillPerSec float64, ttl time.Duration) (float64, bool, error) {
	now := time.Now().UnixMilli()
	res, err := takeTokenScript.Run(ctx, s.client, []string{key},
		capacity, refillPerSec, now, int(ttl.Seconds())).Result()
	if err != nil {
		return 0, false, err
	}

	reply, ok := res.([]interface{})
	if !ok || len(reply) != 2 {
		return 0, false, fmt.Errorf("unexpected token bucket reply: %v", res)
	}

	tokensStr, _ := reply[0].(string)
	remaining, err := strconv.ParseFloat(tokensStr, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parse token count %q: %w", tokensStr, err)
	}

	allowed, _ := reply[1].(int64)
	return remaining, allowed == 1, nil
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
