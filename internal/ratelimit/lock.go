package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/roomwatt/internal/config"
)

const (
	defaultRoomLockTTL    = 5 * time.Second
	defaultRoomLockPrefix = "roomwatt:assignment:room:"
)

// releaseIfOwner deletes the key only while it still holds the caller's token.
const releaseIfOwner = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

var (
	ErrRoomLockHeld       = errors.New("room lock held by another request")
	errRoomLockUnattached = errors.New("room lock has no redis client")
)

// RoomLock serializes writes that touch one room's occupancy across
// replicas. A lease left behind by a crashed holder expires after ttl.
type RoomLock struct {
	client *redis.Client
	script *redis.Script
	prefix string
	ttl    time.Duration
}

// Lease is a held room lock.
type Lease struct {
	lock  *RoomLock
	key   string
	token string
}

// NewRoomLock returns nil without a Redis client; callers treat a nil lock
// as "no cross-replica coordination".
func NewRoomLock(client *redis.Client, cfg config.Config) *RoomLock {
	if client == nil {
		return nil
	}
	ttl := cfg.RateLimit.AssignmentLockTTL
	if ttl <= 0 {
		ttl = defaultRoomLockTTL
	}
	prefix := cfg.RateLimit.AssignmentLockPrefix
	if prefix == "" {
		prefix = defaultRoomLockPrefix
	}
	return &RoomLock{
		client: client,
		script: redis.NewScript(releaseIfOwner),
		prefix: prefix,
		ttl:    ttl,
	}
}

func (l *RoomLock) key(roomID snowflake.ID) string {
	return l.prefix + roomID.String()
}

// Acquire takes the room's lease without waiting. ErrRoomLockHeld means
// another request holds it.
func (l *RoomLock) Acquire(ctx context.Context, roomID snowflake.ID) (*Lease, error) {
	if l == nil || l.client == nil {
		return nil, errRoomLockUnattached
	}
	key := l.key(roomID)
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrRoomLockHeld
	}
	return &Lease{lock: l, key: key, token: token}, nil
}

// Release is safe on a nil lease and after the lease has expired.
func (le *Lease) Release(ctx context.Context) error {
	if le == nil || le.lock == nil || le.lock.client == nil {
		return nil
	}
	return le.lock.script.Run(ctx, le.lock.client, []string{le.key}, le.token).Err()
}
