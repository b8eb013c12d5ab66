package port

import (
	"context"
	"time"
)

// Cache abstracts the external key-value cache collaborator. Implementations
// are best-effort: callers treat any error as a miss and recompute.
type Cache interface {
	// Get returns the cached value and true on a hit, or nil and false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores a value with a TTL. Last writer wins.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
