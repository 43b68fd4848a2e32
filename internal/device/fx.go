package device

import (
	"github.com/smallbiznis/roomwatt/internal/device/repository"
	"github.com/smallbiznis/roomwatt/internal/device/service"
	"go.uber.org/fx"
)

var Module = fx.Module("device.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
