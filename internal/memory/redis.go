package memory

import (
	"context"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "memory:"

// RedisStore persists each namespace as one Redis hash, so ListKeys maps
// onto HKEYS without scanning.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects using the REDIS_URL environment variable and
// verifies the connection.
func NewRedisStore(ctx context.Context) (*RedisStore, error) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return nil, fmt.Errorf("REDIS_URL environment variable is required")
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse REDIS_URL: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

func (s *RedisStore) hashKey(ns Namespace) string {
	return keyPrefix + ns.Owner + ":" + ns.Category
}

func (s *RedisStore) Put(ctx context.Context, ns Namespace, key string, value []byte) error {
	if err := s.client.HSet(ctx, s.hashKey(ns), key, value).Err(); err != nil {
		return fmt.Errorf("failed to write %s/%s: %w", ns, key, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, ns Namespace, key string) ([]byte, bool, error) {
	data, err := s.client.HGet(ctx, s.hashKey(ns), key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read %s/%s: %w", ns, key, err)
	}
	return data, true, nil
}

func (s *RedisStore) ListKeys(ctx context.Context, ns Namespace) ([]string, error) {
	keys, err := s.client.HKeys(ctx, s.hashKey(ns)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list keys in %s: %w", ns, err)
	}
	return keys, nil
}

// Ping tests the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
