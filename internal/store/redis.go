package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/brandpulse/brandpulse/internal/metrics"
)

// RedisStore backs the key-value contract with Redis for shared deployments.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore creates a store from a URL (e.g., "redis://localhost:6379").
func NewRedisStore(redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	return &RedisStore{rdb: redis.NewClient(opts)}, nil
}

// NewRedisStoreFromClient wraps an existing client (used by tests).
func NewRedisStoreFromClient(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// Ping verifies the connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Close closes the connection.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

func (s *RedisStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := s.rdb.Set(ctx, key, value, ttl).Err()
	observe("set", err)
	return err
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		observe("get", nil)
		return nil, false, nil
	}
	observe("get", err)
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (s *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.rdb.Exists(ctx, key).Result()
	observe("exists", err)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// KeysByPrefix scans rather than using KEYS to avoid blocking the server.
func (s *RedisStore) KeysByPrefix(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := s.rdb.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	err := iter.Err()
	observe("scan", err)
	return keys, err
}

func observe(operation string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.StoreOpsTotal.WithLabelValues(operation, status).Inc()
}
