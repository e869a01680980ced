package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/launchpadder/launchpadder/core"
)

func TestMemoryStoreBoundary(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStoreWithClock(func() time.Time { return now })
	ctx := context.Background()

	limit := TierLimits[core.TierPublic].Limit

	for i := 0; i < limit; i++ {
		result, err := store.Check(ctx, "ip:203.0.113.7", core.TierPublic)
		assert.NoError(t, err)
		assert.True(t, result.Allowed)
		assert.Equal(t, limit, result.Limit)
		assert.Equal(t, limit-i-1, result.Remaining)
	}

	result, err := store.Check(ctx, "ip:203.0.113.7", core.TierPublic)
	assert.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, 0, result.Remaining)
	assert.Equal(t, now.Add(time.Minute), result.Reset)
}

func TestMemoryStoreWindowSlides(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStoreWithClock(func() time.Time { return now })
	ctx := context.Background()

	for i := 0; i < TierLimits[core.TierPublic].Limit; i++ {
		_, err := store.Check(ctx, "user:alice", core.TierPublic)
		assert.NoError(t, err)
	}

	result, err := store.Check(ctx, "user:alice", core.TierPublic)
	assert.NoError(t, err)
	assert.False(t, result.Allowed)

	now = now.Add(61 * time.Second)

	result, err = store.Check(ctx, "user:alice", core.TierPublic)
	assert.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestMemoryStoreIsolatesKeys(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStoreWithClock(func() time.Time { return now })
	ctx := context.Background()

	for i := 0; i < TierLimits[core.TierPublic].Limit; i++ {
		_, err := store.Check(ctx, "user:alice", core.TierPublic)
		assert.NoError(t, err)
	}

	result, err := store.Check(ctx, "user:bob", core.TierPublic)
	assert.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestMemoryStoreUnknownTierFallsBack(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStoreWithClock(func() time.Time { return now })

	result, err := store.Check(context.Background(), "user:carol", "nonexistent")
	assert.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, TierLimits[core.TierPublic].Limit, result.Limit)
}

func TestMemoryStorePrune(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStoreWithClock(func() time.Time { return now })
	ctx := context.Background()

	_, err := store.Check(ctx, "user:alice", core.TierPublic)
	assert.NoError(t, err)
	assert.Len(t, store.windows, 1)

	now = now.Add(2 * time.Hour)
	store.Prune(time.Hour)

	assert.Len(t, store.windows, 0)
}
