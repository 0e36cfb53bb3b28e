// Package cache defines the storage seam for raw tile payloads.
package cache

import (
	"context"
	"time"
)

// Store is implemented by redisstore.Client.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	MGet(ctx context.Context, keys []string) (map[string][]byte, error)
	MSetWithTTL(ctx context.Context, kv map[string][]byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}
