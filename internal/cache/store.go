package cache

import (
	"context"
	"time"
)

// Store is the minimal key/value contract the recommendation cache needs.
// Backed by Redis in production and by the in-memory store in tests or when
// Redis is not configured.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
