package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/agromandi-lab/agromandi/internal/core/market"
	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store on redis, leaning on the server-side TTL
// instead of a stored write timestamp: an expired entry is simply gone.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore wraps an existing redis client.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) redisKey(key Key) string {
	return "prices:" + key.String()
}

func (s *RedisStore) Get(ctx context.Context, key Key) (*market.AggregationResult, error) {
	data, err := s.client.Get(ctx, s.redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading cache entry %s: %w", key, err)
	}

	var result market.AggregationResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decoding cache entry %s: %w", key, err)
	}
	return &result, nil
}

func (s *RedisStore) Put(ctx context.Context, key Key, result *market.AggregationResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encoding cache entry %s: %w", key, err)
	}
	if err := s.client.Set(ctx, s.redisKey(key), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("writing cache entry %s: %w", key, err)
	}
	return nil
}

// Ping reports redis connectivity for the health endpoint.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
