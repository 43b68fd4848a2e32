// Command simulator runs the sensor simulator without the HTTP surface. It
// writes to the same database as the API, so readings show up in the
// dashboards of any running API replica.
package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/roomwatt/internal/cache"
	"github.com/smallbiznis/roomwatt/internal/clock"
	"github.com/smallbiznis/roomwatt/internal/config"
	"github.com/smallbiznis/roomwatt/internal/device"
	"github.com/smallbiznis/roomwatt/internal/observability"
	"github.com/smallbiznis/roomwatt/internal/room"
	"github.com/smallbiznis/roomwatt/internal/usage"
	"github.com/smallbiznis/roomwatt/internal/usage/simulator"
	"github.com/smallbiznis/roomwatt/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		cache.Module,

		room.Module,
		device.Module,
		usage.Module,

		fx.Decorate(func(cfg simulator.Config) simulator.Config {
			cfg.Enabled = true
			return cfg
		}),
		simulator.Module,
	)
	app.Run()
}

// RegisterSnowflake uses node 2 so ids never collide with the API process.
func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(2)
	if err != nil {
		panic(err)
	}
	return node
}
