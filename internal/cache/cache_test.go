package cache

import (
	"testing"
	"time"
)

func TestTTLCacheExpiresEntries(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c := newTTLCache[string, int](func() time.Time { return now })

	c.Set("a", 1, time.Minute)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("expected hit with 1, got %v %v", v, ok)
	}

	now = now.Add(time.Minute)
	if _, ok := c.Get("a"); ok {
		t.Fatal("expected entry to expire at ttl boundary")
	}
	if c.Len() != 0 {
		t.Fatalf("expected expired entry to be dropped, len=%d", c.Len())
	}
}

func TestTTLCacheZeroTTLKeepsEntry(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c := newTTLCache[string, string](func() time.Time { return now })

	c.Set("k", "v", 0)
	now = now.Add(24 * time.Hour)
	if v, ok := c.Get("k"); !ok || v != "v" {
		t.Fatalf("expected entry without expiry, got %q %v", v, ok)
	}

	c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected entry to be deleted")
	}
}

func TestTTLCacheDeleteFuncDropsMatchesAndExpired(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c := newTTLCache[string, int](func() time.Time { return now })

	c.Set("keep", 1, time.Hour)
	c.Set("match", 2, time.Hour)
	c.Set("stale", 3, time.Minute)
	now = now.Add(2 * time.Minute)

	removed := c.DeleteFunc(func(_ string, v int) bool { return v == 2 })
	if removed != 2 {
		t.Fatalf("expected 2 entries removed, got %d", removed)
	}
	if c.Len() != 1 {
		t.Fatalf("expected 1 entry left, len=%d", c.Len())
	}
	if v, ok := c.Get("keep"); !ok || v != 1 {
		t.Fatalf("expected keep to survive, got %v %v", v, ok)
	}
}
