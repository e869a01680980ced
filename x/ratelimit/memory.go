package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps per-key request timestamps in process memory.
// State is lost on restart and not shared across instances; deployments
// that need shared quotas use the redis store instead.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string][]time.Time
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		windows: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// NewMemoryStoreWithClock injects a clock for tests
func NewMemoryStoreWithClock(now func() time.Time) *MemoryStore {
	return &MemoryStore{
		windows: make(map[string][]time.Time),
		now:     now,
	}
}

// Check prunes expired timestamps lazily, then records and allows the
// request if capacity remains. On deny, Reset is the expiry of the
// oldest recorded timestamp.
func (s *MemoryStore) Check(ctx context.Context, key string, tier string) (Result, error) {
	_, span := tracer.Start(ctx, "Ratelimit.Memory.Check")
	defer span.End()

	limit := limitFor(tier)
	now := s.now()
	cutoff := now.Add(-limit.Window)

	s.mu.Lock()
	defer s.mu.Unlock()

	window := s.windows[key]
	kept := window[:0]
	for _, ts := range window {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= limit.Limit {
		s.windows[key] = kept
		return Result{
			Allowed:   false,
			Limit:     limit.Limit,
			Remaining: 0,
			Reset:     kept[0].Add(limit.Window),
		}, nil
	}

	kept = append(kept, now)
	s.windows[key] = kept

	return Result{
		Allowed:   true,
		Limit:     limit.Limit,
		Remaining: limit.Limit - len(kept),
		Reset:     kept[0].Add(limit.Window),
	}, nil
}

// Prune drops keys whose windows are fully expired. Called by the agent.
func (s *MemoryStore) Prune(maxWindow time.Duration) {
	cutoff := s.now().Add(-maxWindow)

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, window := range s.windows {
		if len(window) == 0 || !window[len(window)-1].After(cutoff) {
			delete(s.windows, key)
		}
	}
}
