package ratelimiter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_RemoveStale(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore(WithCleanupInterval(0), WithStaleAfter(time.Minute), WithStoreClock(func() time.Time { return now }))
	defer store.Close()

	cfg := Config{Capacity: 1, RefillRate: 1, RefillInterval: time.Second}
	_, _, err := store.Consume(context.Background(), "old", 1, cfg)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, _, err = store.Consume(context.Background(), "fresh", 1, cfg)
	require.NoError(t, err)

	store.removeStale()

	assert.Equal(t, 1, store.Len())
	_, kept := store.buckets["fresh"]
	assert.True(t, kept)

	store.Close()
	store.Close()
}
