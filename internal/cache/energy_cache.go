package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/smallbiznis/roomwatt/internal/config"
)

const allRoomsScope = "all"

// EnergyKey identifies one cached aggregate result.
type EnergyKey struct {
	Operation   string
	RoomID      string
	Period      string
	WindowStart time.Time
	Extra       string
}

func (k EnergyKey) scope() string {
	if strings.TrimSpace(k.RoomID) == "" {
		return allRoomsScope
	}
	return strings.TrimSpace(k.RoomID)
}

func (k EnergyKey) base() string {
	return fmt.Sprintf("energy:%s:%s:%s:%d:%s",
		strings.ToLower(k.Operation),
		k.scope(),
		strings.ToLower(k.Period),
		k.WindowStart.UTC().Unix(),
		k.Extra,
	)
}

func (k EnergyKey) render(generation int64) string {
	return fmt.Sprintf("%s:g%d", k.base(), generation)
}

// Lookup is the result of a Load. It pins the generation of the key's scope
// as it was before the aggregate was computed, so a result that raced an
// InvalidateRoom is never published under the newer generation.
type Lookup struct {
	Key        EnergyKey
	generation int64
	pinned     bool
}

// EnergyCache stores aggregate results between requests.
//
// Staleness policy: an entry lives for the ttl passed to Store (see TTLFor).
// Recording a reading or deleting a device calls InvalidateRoom, which
// retires every entry of that room and every all-rooms entry by bumping a
// generation counter. Store only accepts a value under the generation its
// Lookup saw. A ttl <= 0 disables caching for that entry.
type EnergyCache interface {
	Load(ctx context.Context, key EnergyKey, dst any) (Lookup, bool, error)
	Store(ctx context.Context, lookup Lookup, value any, ttl time.Duration) error
	InvalidateRoom(ctx context.Context, roomID string) error
}

// TTLFor picks the ttl of a result whose window ends at windowEnd.
func TTLFor(policy config.EnergyCacheConfig, windowEnd, now time.Time) time.Duration {
	if now.Before(windowEnd) {
		return policy.Current
	}
	return policy.Closed
}

type memoryEntry struct {
	scope      string
	generation int64
	raw        []byte
}

// memoryEnergyCache keys entries by scope and window only; the generation
// lives in the entry, and InvalidateRoom drops the retired entries outright.
type memoryEnergyCache struct {
	entries Cache[string, memoryEntry]

	mu          sync.Mutex
	generations map[string]int64
}

// NewMemoryEnergyCache returns a process-local EnergyCache.
func NewMemoryEnergyCache() EnergyCache {
	return &memoryEnergyCache{
		entries:     NewTTLCache[string, memoryEntry](),
		generations: make(map[string]int64),
	}
}

func (c *memoryEnergyCache) generation(scope string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[scope]
}

func (c *memoryEnergyCache) Load(ctx context.Context, key EnergyKey, dst any) (Lookup, bool, error) {
	_ = ctx
	gen := c.generation(key.scope())
	lookup := Lookup{Key: key, generation: gen, pinned: true}

	item, ok := c.entries.Get(key.base())
	if !ok || item.generation != gen {
		return lookup, false, nil
	}
	if err := json.Unmarshal(item.raw, dst); err != nil {
		return lookup, false, err
	}
	return lookup, true, nil
}

func (c *memoryEnergyCache) Store(ctx context.Context, lookup Lookup, value any, ttl time.Duration) error {
	_ = ctx
	if ttl <= 0 || !lookup.pinned {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}

	scope := lookup.Key.scope()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generations[scope] != lookup.generation {
		return nil
	}
	c.entries.Set(lookup.Key.base(), memoryEntry{scope: scope, generation: lookup.generation, raw: raw}, ttl)
	return nil
}

func (c *memoryEnergyCache) InvalidateRoom(ctx context.Context, roomID string) error {
	_ = ctx
	scope := strings.TrimSpace(roomID)

	c.mu.Lock()
	if scope != "" {
		c.generations[scope]++
	}
	c.generations[allRoomsScope]++
	c.mu.Unlock()

	c.entries.DeleteFunc(func(_ string, item memoryEntry) bool {
		return item.scope == allRoomsScope || (scope != "" && item.scope == scope)
	})
	return nil
}

type noopEnergyCache struct{}

// NewNoopEnergyCache returns an EnergyCache that never hits.
func NewNoopEnergyCache() EnergyCache {
	return noopEnergyCache{}
}

func (noopEnergyCache) Load(_ context.Context, key EnergyKey, _ any) (Lookup, bool, error) {
	return Lookup{Key: key}, false, nil
}

func (noopEnergyCache) Store(context.Context, Lookup, any, time.Duration) error { return nil }

func (noopEnergyCache) InvalidateRoom(context.Context, string) error { return nil }
