package migration

import (
	"context"

	accountdomain "github.com/smallbiznis/roomwatt/internal/account/domain"
	"github.com/smallbiznis/roomwatt/internal/config"
	"github.com/smallbiznis/roomwatt/internal/seed"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, accounts accountdomain.Service, log *zap.Logger) error {
		if err := Run(conn, cfg.DBType); err != nil {
			return err
		}
		return seed.EnsureBootstrapAdmin(context.Background(), accounts, cfg, log)
	}),
)
