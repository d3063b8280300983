package cache

import (
	"context"
	"time"
)

// Cache defines the contract for the cache layer so implementations
// (Redis, in-memory for tests) can be swapped behind one interface.
type Cache interface {
	// Get reads a key and unmarshals it into dest.
	// Returns: (found bool, error)
	// - found = true: cache hit, data unmarshaled into dest
	// - found = false: cache miss, dest untouched
	Get(ctx context.Context, key string, dest interface{}) (bool, error)

	// Set stores a value under key with a TTL (0 = no expiry)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// SetNX stores the value only when the key does not exist yet.
	// Returns true when this call created the key. Used for
	// first-writer-wins markers (checkout intent consumption).
	SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)

	// Delete removes keys from the cache
	Delete(ctx context.Context, keys ...string) error

	// Ping verifies the connection
	Ping(ctx context.Context) error

	DeletePattern(ctx context.Context, pattern string) error

	// Counter and key-inspection helpers (poll-attempt counters, lockouts)
	Increment(ctx context.Context, key string) (int64, error)
	Exists(ctx context.Context, key string) (bool, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	TTL(ctx context.Context, key string) (time.Duration, error)
}
