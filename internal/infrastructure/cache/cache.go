package cache

import (
	"context"
	"time"
)

// Interface is a key-value cache with expiration and coarse prefix
// invalidation. Get returns (value, true) on a hit.
type Interface interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) error
}
