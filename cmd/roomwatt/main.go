package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/roomwatt/internal/account"
	"github.com/smallbiznis/roomwatt/internal/assignment"
	"github.com/smallbiznis/roomwatt/internal/authorization"
	"github.com/smallbiznis/roomwatt/internal/cache"
	"github.com/smallbiznis/roomwatt/internal/clock"
	"github.com/smallbiznis/roomwatt/internal/config"
	"github.com/smallbiznis/roomwatt/internal/device"
	"github.com/smallbiznis/roomwatt/internal/energy"
	"github.com/smallbiznis/roomwatt/internal/migration"
	"github.com/smallbiznis/roomwatt/internal/observability"
	"github.com/smallbiznis/roomwatt/internal/ratelimit"
	"github.com/smallbiznis/roomwatt/internal/room"
	"github.com/smallbiznis/roomwatt/internal/server"
	"github.com/smallbiznis/roomwatt/internal/usage"
	"github.com/smallbiznis/roomwatt/internal/usage/simulator"
	"github.com/smallbiznis/roomwatt/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		cache.Module,
		ratelimit.Module,

		// Functional Domains
		room.Module,
		device.Module,
		usage.Module,
		energy.Module,
		account.Module,
		assignment.Module,
		authorization.Module,
		migration.Module,
		simulator.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
