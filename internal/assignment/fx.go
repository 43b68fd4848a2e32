package assignment

import (
	"github.com/smallbiznis/roomwatt/internal/assignment/repository"
	"github.com/smallbiznis/roomwatt/internal/assignment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("assignment.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
