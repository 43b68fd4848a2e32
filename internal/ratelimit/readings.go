package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/roomwatt/internal/cache"
	"github.com/smallbiznis/roomwatt/internal/config"
	"golang.org/x/time/rate"
)

const (
	keyReadingsDevice = "roomwatt:readings:device:%s"

	// localSweepEvery bounds how many limiters are created between sweeps of
	// idle ones.
	localSweepEvery = 1024
)

// ErrInvalidDeviceID is returned for ids that cannot name a device. No
// bucket is created for them.
var ErrInvalidDeviceID = errors.New("invalid device id")

// ReadingsLimiter throttles reading submissions per device. With Redis the
// bucket is shared by every replica; without it each process keeps its own.
type ReadingsLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int

	// local limiters expire after idleTTL without traffic; a refilled
	// limiter is indistinguishable from a new one.
	mu      sync.Mutex
	local   cache.Cache[string, *rate.Limiter]
	idleTTL time.Duration
	created int
}

// NewReadingsLimiter returns nil when rate limiting is disabled.
func NewReadingsLimiter(cfg config.Config, client *redis.Client) (*ReadingsLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}
	if limitCfg.ReadingsPerSecond <= 0 || limitCfg.ReadingsBurst <= 0 {
		return nil, fmt.Errorf("readings rate limit must be positive (rate=%v burst=%d)", limitCfg.ReadingsPerSecond, limitCfg.ReadingsBurst)
	}
	return &ReadingsLimiter{
		bucket: NewTokenBucket(client),
		rate:   limitCfg.ReadingsPerSecond,
		burst:  limitCfg.ReadingsBurst,
		local:   cache.NewTTLCache[string, *rate.Limiter](),
		idleTTL: bucketTTL(limitCfg.ReadingsPerSecond, limitCfg.ReadingsBurst),
	}, nil
}

func (l *ReadingsLimiter) Enabled() bool {
	return l != nil
}

func (l *ReadingsLimiter) AllowDevice(ctx context.Context, deviceID string) (Result, error) {
	if !l.Enabled() {
		return Result{Allowed: true}, nil
	}
	deviceID = strings.TrimSpace(deviceID)
	if id, err := snowflake.ParseString(deviceID); err != nil || id <= 0 {
		return Result{}, ErrInvalidDeviceID
	}
	if l.bucket != nil {
		return l.bucket.Allow(ctx, fmt.Sprintf(keyReadingsDevice, deviceID), l.rate, l.burst)
	}
	return l.allowLocal(deviceID), nil
}

func (l *ReadingsLimiter) allowLocal(deviceID string) Result {
	l.mu.Lock()
	limiter, ok := l.local.Get(deviceID)
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(l.rate), l.burst)
		l.created++
		if l.created%localSweepEvery == 0 {
			l.local.DeleteFunc(nil)
		}
	}
	l.local.Set(deviceID, limiter, l.idleTTL)
	l.mu.Unlock()

	now := time.Now()
	reservation := limiter.ReserveN(now, 1)
	delay := reservation.DelayFrom(now)
	if delay > 0 {
		reservation.CancelAt(now)
		return Result{Limit: l.burst, RetryAfter: delay}
	}
	return Result{
		Allowed:   true,
		Limit:     l.burst,
		Remaining: int(math.Max(0, limiter.TokensAt(now))),
	}
}
