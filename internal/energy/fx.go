package energy

import (
	"github.com/smallbiznis/roomwatt/internal/energy/repository"
	"github.com/smallbiznis/roomwatt/internal/energy/service"
	"go.uber.org/fx"
)

var Module = fx.Module("energy.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
