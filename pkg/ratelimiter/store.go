package ratelimiter

import (
	"context"
	"time"
)

// Store keeps token bucket state per key. Implementations must apply the
// refill and the take atomically so concurrent requests for one key cannot
// overspend the bucket.
type Store interface {
	// Consume refills the bucket for key according to config and takes tokens
	// from it. A negative remaining means the bucket held fewer than tokens
	// and nothing was taken. resetAt is when the bucket is full again.
	Consume(ctx context.Context, key string, tokens int, config Config) (remaining int, resetAt time.Time, err error)

	// Reset forgets the bucket for key.
	Reset(ctx context.Context, key string) error
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*RedisStore)(nil)
)
