package cache

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/roomwatt/internal/config"
)

type cachedSummary struct {
	Total float64 `json:"total"`
}

func TestMemoryEnergyCacheRoundTripAndInvalidate(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryEnergyCache()
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	roomKey := EnergyKey{Operation: "summary", RoomID: "42", Period: "day", WindowStart: start}
	allKey := EnergyKey{Operation: "summary", Period: "day", WindowStart: start}
	otherKey := EnergyKey{Operation: "summary", RoomID: "7", Period: "day", WindowStart: start}

	var got cachedSummary
	for _, key := range []EnergyKey{roomKey, allKey, otherKey} {
		lookup, _, err := c.Load(ctx, key, &got)
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if err := c.Store(ctx, lookup, cachedSummary{Total: 6.5}, time.Minute); err != nil {
			t.Fatalf("store: %v", err)
		}
	}

	_, hit, err := c.Load(ctx, roomKey, &got)
	if err != nil || !hit || got.Total != 6.5 {
		t.Fatalf("expected cached summary, hit=%v err=%v got=%+v", hit, err, got)
	}

	if err := c.InvalidateRoom(ctx, "42"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	if _, hit, _ := c.Load(ctx, roomKey, &got); hit {
		t.Fatal("expected room entry to be invalidated")
	}
	if _, hit, _ := c.Load(ctx, allKey, &got); hit {
		t.Fatal("expected all-rooms entry to be invalidated")
	}
	if _, hit, _ := c.Load(ctx, otherKey, &got); !hit {
		t.Fatal("expected unrelated room entry to survive")
	}
}

func TestMemoryEnergyCacheSkipsNonPositiveTTL(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryEnergyCache()
	key := EnergyKey{Operation: "series", RoomID: "1", Period: "year"}

	var got cachedSummary
	lookup, _, _ := c.Load(ctx, key, &got)
	if err := c.Store(ctx, lookup, cachedSummary{Total: 1}, 0); err != nil {
		t.Fatalf("store: %v", err)
	}
	if _, hit, _ := c.Load(ctx, key, &got); hit {
		t.Fatal("expected zero ttl to disable caching")
	}
}

func TestMemoryEnergyCacheRejectsStoreAfterInvalidation(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryEnergyCache()
	key := EnergyKey{Operation: "summary", RoomID: "42", Period: "day"}

	var got cachedSummary
	lookup, hit, err := c.Load(ctx, key, &got)
	if err != nil || hit {
		t.Fatalf("expected cold miss, hit=%v err=%v", hit, err)
	}

	// A reading lands while the aggregate is still being computed.
	if err := c.InvalidateRoom(ctx, "42"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if err := c.Store(ctx, lookup, cachedSummary{Total: 6.5}, time.Minute); err != nil {
		t.Fatalf("store: %v", err)
	}

	if _, hit, _ := c.Load(ctx, key, &got); hit {
		t.Fatalf("expected result computed before invalidation to be dropped, got %+v", got)
	}
}

func TestMemoryEnergyCacheStaysBoundedAcrossInvalidations(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryEnergyCache().(*memoryEnergyCache)
	key := EnergyKey{Operation: "summary", RoomID: "42", Period: "day"}

	var got cachedSummary
	for i := 0; i < 1000; i++ {
		lookup, _, err := c.Load(ctx, key, &got)
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if err := c.Store(ctx, lookup, cachedSummary{Total: float64(i)}, time.Minute); err != nil {
			t.Fatalf("store: %v", err)
		}
		if err := c.InvalidateRoom(ctx, "42"); err != nil {
			t.Fatalf("invalidate: %v", err)
		}
	}

	if n := c.entries.Len(); n != 0 {
		t.Fatalf("expected retired entries to be dropped, len=%d", n)
	}
}

func TestTTLForCurrentAndClosedWindows(t *testing.T) {
	policy := config.EnergyCacheConfig{Current: 30 * time.Second, Closed: 10 * time.Minute}
	end := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)

	if ttl := TTLFor(policy, end, end.Add(-time.Hour)); ttl != policy.Current {
		t.Fatalf("expected current ttl, got %s", ttl)
	}
	if ttl := TTLFor(policy, end, end); ttl != policy.Closed {
		t.Fatalf("expected closed ttl at window end, got %s", ttl)
	}
}
