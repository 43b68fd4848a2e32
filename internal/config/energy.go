package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// EnergyConfig tunes the aggregation engines and the simulator. It is
// reloaded from energy.yml without a restart.
type EnergyConfig struct {
	Timezone  string                 `mapstructure:"timezone"`
	Cache     EnergyCacheConfig      `mapstructure:"cache"`
	Simulator map[string]EnergyRange `mapstructure:"simulator"`
}

// EnergyCacheConfig controls how long aggregate results may be served stale.
// Current applies to windows that contain "now", Closed to windows that ended.
type EnergyCacheConfig struct {
	Current time.Duration `mapstructure:"current"`
	Closed  time.Duration `mapstructure:"closed"`
}

// EnergyRange bounds a synthetic reading in kWh.
type EnergyRange struct {
	Min float64 `mapstructure:"min"`
	Max float64 `mapstructure:"max"`
}

func DefaultEnergyConfig() EnergyConfig {
	return EnergyConfig{
		Timezone: "UTC",
		Cache: EnergyCacheConfig{
			Current: 30 * time.Second,
			Closed:  10 * time.Minute,
		},
		Simulator: map[string]EnergyRange{
			"light":      {Min: 0.02, Max: 0.06},
			"thermostat": {Min: 0.5, Max: 1.5},
			"blind":      {Min: 0.01, Max: 0.03},
			"other":      {Min: 0.05, Max: 0.2},
		},
	}
}

// Location resolves the reference timezone used for every window.
func (c EnergyConfig) Location() *time.Location {
	loc, err := time.LoadLocation(strings.TrimSpace(c.Timezone))
	if err != nil {
		return time.UTC
	}
	return loc
}

type EnergyConfigHolder struct {
	current atomic.Value // holds EnergyConfig
}

// NewStaticEnergyConfigHolder returns a holder that never reloads.
func NewStaticEnergyConfigHolder(cfg EnergyConfig) *EnergyConfigHolder {
	holder := &EnergyConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewEnergyConfigHolder(appCfg Config) (*EnergyConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("energy")
	v.SetConfigType("yml")
	if path := strings.TrimSpace(appCfg.Energy.ConfigPath); path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath("/etc/roomwatt")
	v.AddConfigPath(".")

	v.SetEnvPrefix("ROOMWATT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultEnergyConfig()
	if tz := strings.TrimSpace(appCfg.Energy.Timezone); tz != "" {
		defaults.Timezone = tz
	}
	v.SetDefault("energy.timezone", defaults.Timezone)
	v.SetDefault("energy.cache.current", defaults.Cache.Current)
	v.SetDefault("energy.cache.closed", defaults.Cache.Closed)
	v.SetDefault("energy.simulator", defaults.Simulator)

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileLoaded = false
	}

	var cfg EnergyConfig
	if err := v.UnmarshalKey("energy", &cfg); err != nil {
		return nil, err
	}
	if err := validateEnergyConfig(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticEnergyConfigHolder(cfg)
	if !fileLoaded {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated EnergyConfig
		if err := v.UnmarshalKey("energy", &updated); err != nil {
			log.Printf("[energy-config] reload failed: %v", err)
			return
		}
		if err := validateEnergyConfig(updated); err != nil {
			log.Printf("[energy-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[energy-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *EnergyConfigHolder) Get() EnergyConfig {
	return h.current.Load().(EnergyConfig)
}

func validateEnergyConfig(cfg EnergyConfig) error {
	if _, err := time.LoadLocation(strings.TrimSpace(cfg.Timezone)); err != nil {
		return fmt.Errorf("energy.timezone %q: %w", cfg.Timezone, err)
	}
	if cfg.Cache.Current < 0 || cfg.Cache.Closed < 0 {
		return errors.New("energy.cache ttls cannot be negative")
	}
	for deviceType, r := range cfg.Simulator {
		if r.Min < 0 || r.Max < r.Min {
			return fmt.Errorf("energy.simulator.%s: invalid range", deviceType)
		}
	}
	return nil
}
