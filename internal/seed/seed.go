package seed

import (
	"context"
	"errors"
	"strings"

	accountdomain "github.com/smallbiznis/roomwatt/internal/account/domain"
	"github.com/smallbiznis/roomwatt/internal/config"
	"go.uber.org/zap"
)

const (
	defaultAdminUsername = "admin"
	defaultAdminPassword = "admin123"
)

// EnsureBootstrapAdmin creates the first admin account when no admin exists,
// even if resident accounts are already present. Outside production a missing password falls back to the
// development default; in production the step is skipped instead.
func EnsureBootstrapAdmin(ctx context.Context, accounts accountdomain.Service, cfg config.Config, log *zap.Logger) error {
	if accounts == nil {
		return errors.New("seed account service is required")
	}
	log = log.Named("seed")

	username := strings.TrimSpace(cfg.Bootstrap.AdminUsername)
	if username == "" {
		username = defaultAdminUsername
	}
	password := cfg.Bootstrap.AdminPassword
	if password == "" {
		if cfg.IsProduction() {
			log.Warn("bootstrap admin skipped: BOOTSTRAP_ADMIN_PASSWORD is not set")
			return nil
		}
		password = defaultAdminPassword
	}

	created, err := accounts.EnsureAdmin(ctx, accountdomain.CreateRequest{
		Username: username,
		Email:    cfg.Bootstrap.AdminEmail,
		Password: password,
	})
	if err != nil {
		if errors.Is(err, accountdomain.ErrUserExists) {
			log.Warn("bootstrap admin skipped: username already taken by a non-admin", zap.String("username", username))
			return nil
		}
		return err
	}
	if created {
		log.Info("bootstrap admin created", zap.String("username", username))
	}
	return nil
}
