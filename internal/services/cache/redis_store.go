package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fluxai/flux-gateway/internal/models"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"
)

// RedisStore backs the cache with a Redis instance
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis using a URL such as
// redis://localhost:6379/0 and verifies the connection
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		if closeErr := client.Close(); closeErr != nil {
			fiberlog.Warnf("RedisStore: failed to close client after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	fiberlog.Infof("RedisStore: Connected to %s", opts.Addr)
	return &RedisStore{client: client}, nil
}

// Get retrieves a value, mapping redis.Nil to ErrNotFound
func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: redis GET %s: %w", models.ErrStoreUnavailable, key, err)
	}
	return val, nil
}

// Set stores a value with the given TTL (zero means no expiry)
func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: redis SET %s: %w", models.ErrStoreUnavailable, key, err)
	}
	return nil
}

// Delete removes the given keys
func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: redis DEL: %w", models.ErrStoreUnavailable, err)
	}
	return nil
}

// ListAppend pushes a value onto the tail of a list
func (s *RedisStore) ListAppend(ctx context.Context, key string, value string) error {
	if err := s.client.RPush(ctx, key, value).Err(); err != nil {
		return fmt.Errorf("%w: redis RPUSH %s: %w", models.ErrStoreUnavailable, key, err)
	}
	return nil
}

// ListRange returns the list slice between start and stop inclusive
func (s *RedisStore) ListRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	vals, err := s.client.LRange(ctx, key, start, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: redis LRANGE %s: %w", models.ErrStoreUnavailable, key, err)
	}
	return vals, nil
}

// ListTrim trims the list to the slice between start and stop inclusive
func (s *RedisStore) ListTrim(ctx context.Context, key string, start, stop int64) error {
	if err := s.client.LTrim(ctx, key, start, stop).Err(); err != nil {
		return fmt.Errorf("%w: redis LTRIM %s: %w", models.ErrStoreUnavailable, key, err)
	}
	return nil
}

// Expire sets a TTL on an existing key
func (s *RedisStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Expire(ctx, key, ttl).Err(); err != nil {
		return fmt.Errorf("%w: redis EXPIRE %s: %w", models.ErrStoreUnavailable, key, err)
	}
	return nil
}

// DeleteByPrefix scans for keys under a prefix and deletes them in batches
func (s *RedisStore) DeleteByPrefix(ctx context.Context, prefix string) (int64, error) {
	var deleted int64
	iter := s.client.Scan(ctx, 0, prefix+"*", 100).Iterator()

	batch := make([]string, 0, 100)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 100 {
			n, err := s.client.Del(ctx, batch...).Result()
			if err != nil {
				return deleted, fmt.Errorf("%w: redis DEL batch: %w", models.ErrStoreUnavailable, err)
			}
			deleted += n
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return deleted, fmt.Errorf("%w: redis SCAN %s*: %w", models.ErrStoreUnavailable, prefix, err)
	}
	if len(batch) > 0 {
		n, err := s.client.Del(ctx, batch...).Result()
		if err != nil {
			return deleted, fmt.Errorf("%w: redis DEL batch: %w", models.ErrStoreUnavailable, err)
		}
		deleted += n
	}
	return deleted, nil
}

// FlushAll clears the entire Redis database
func (s *RedisStore) FlushAll(ctx context.Context) error {
	if err := s.client.FlushDB(ctx).Err(); err != nil {
		return fmt.Errorf("%w: redis FLUSHDB: %w", models.ErrStoreUnavailable, err)
	}
	return nil
}

// Close releases the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}
