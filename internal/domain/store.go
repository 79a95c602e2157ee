package domain

import (
	"context"
	"time"
)

// KeyValue abstracts the external key-value store. All pipeline persistence is
// best-effort: callers log and continue on error, they never block on the store.
type KeyValue interface {
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Exists(ctx context.Context, key string) (bool, error)
	KeysByPrefix(ctx context.Context, prefix string) ([]string, error)
}
