package cache

import (
	"context"
	"time"
)

// ResponseCache stores raw upstream response bodies for a limited time.
// Implementations must be safe for concurrent use. Failures are treated as
// misses; a cache must never make a request fail.
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
}
