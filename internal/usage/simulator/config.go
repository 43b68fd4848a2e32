package simulator

import (
	"time"

	"github.com/smallbiznis/roomwatt/internal/config"
)

// Config controls the simulator loop.
type Config struct {
	Enabled    bool
	Interval   time.Duration
	RunTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Interval:   10 * time.Second,
		RunTimeout: 5 * time.Second,
	}
}

func ConfigFromApp(cfg config.Config) Config {
	return Config{
		Enabled:  cfg.Simulator.Enabled,
		Interval: cfg.Simulator.Interval,
	}.withDefaults()
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.Interval <= 0 {
		c.Interval = defaults.Interval
	}
	if c.RunTimeout <= 0 {
		c.RunTimeout = defaults.RunTimeout
	}
	return c
}
