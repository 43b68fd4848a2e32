package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/roomwatt/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const keyEnergyGeneration = "energy:gen:%s"

// NewRedisClient returns nil when no Redis address is configured.
func NewRedisClient(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) *redis.Client {
	if !cfg.Redis.Enabled() {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     strings.TrimSpace(cfg.Redis.Addr),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if lc != nil {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				if err := client.Ping(ctx).Err(); err != nil {
					log.Warn("redis ping failed", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
				}
				return nil
			},
			OnStop: func(ctx context.Context) error {
				_ = ctx
				return client.Close()
			},
		})
	}

	return client
}

type redisEnergyCache struct {
	client *redis.Client
}

// NewRedisEnergyCache shares cached aggregates between replicas.
func NewRedisEnergyCache(client *redis.Client) EnergyCache {
	return &redisEnergyCache{client: client}
}

func (c *redisEnergyCache) generation(ctx context.Context, scope string) (int64, error) {
	value, err := c.client.Get(ctx, generationKey(scope)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return value, err
}

func (c *redisEnergyCache) Load(ctx context.Context, key EnergyKey, dst any) (Lookup, bool, error) {
	gen, err := c.generation(ctx, key.scope())
	if err != nil {
		return Lookup{Key: key}, false, err
	}
	lookup := Lookup{Key: key, generation: gen, pinned: true}

	raw, err := c.client.Get(ctx, key.render(gen)).Bytes()
	if errors.Is(err, redis.Nil) {
		return lookup, false, nil
	}
	if err != nil {
		return lookup, false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return lookup, false, err
	}
	return lookup, true, nil
}

// Store writes under the generation the lookup saw. If the scope has been
// invalidated since, the key is already retired and expires unread.
func (c *redisEnergyCache) Store(ctx context.Context, lookup Lookup, value any, ttl time.Duration) error {
	if ttl <= 0 || !lookup.pinned {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, lookup.Key.render(lookup.generation), raw, ttl).Err()
}

func (c *redisEnergyCache) InvalidateRoom(ctx context.Context, roomID string) error {
	pipe := c.client.TxPipeline()
	if scope := strings.TrimSpace(roomID); scope != "" {
		pipe.Incr(ctx, generationKey(scope))
	}
	pipe.Incr(ctx, generationKey(allRoomsScope))
	_, err := pipe.Exec(ctx)
	return err
}

func generationKey(scope string) string {
	return fmt.Sprintf(keyEnergyGeneration, scope)
}
