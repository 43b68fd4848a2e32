package account

import (
	"github.com/smallbiznis/roomwatt/internal/account/repository"
	"github.com/smallbiznis/roomwatt/internal/account/service"
	"github.com/smallbiznis/roomwatt/internal/account/session"
	"go.uber.org/fx"
)

var Module = fx.Module("account.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
	fx.Provide(session.NewManager),
)
