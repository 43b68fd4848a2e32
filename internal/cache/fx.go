package cache

import (
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/roomwatt/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("cache",
	fx.Provide(NewRedisClient),
	fx.Provide(provideEnergyCache),
)

type energyCacheParams struct {
	fx.In

	Cfg    config.Config
	Log    *zap.Logger
	Client *redis.Client `optional:"true"`
}

func provideEnergyCache(p energyCacheParams) EnergyCache {
	log := p.Log.Named("energy.cache")
	switch p.Cfg.Energy.CacheBackend {
	case config.CacheBackendNone:
		log.Info("energy cache disabled")
		return NewNoopEnergyCache()
	case config.CacheBackendRedis:
		if p.Client != nil {
			log.Info("energy cache backed by redis")
			return NewRedisEnergyCache(p.Client)
		}
		log.Warn("energy cache backend redis requested without REDIS_ADDR, falling back to memory")
	}
	return NewMemoryEnergyCache()
}
