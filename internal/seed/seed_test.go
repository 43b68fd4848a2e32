package seed

import (
	"context"
	"testing"

	accountdomain "github.com/smallbiznis/roomwatt/internal/account/domain"
	"github.com/smallbiznis/roomwatt/internal/config"
	"go.uber.org/zap"
)

type stubAccounts struct {
	accountdomain.Service
	requests []accountdomain.CreateRequest
	created  bool
}

func (s *stubAccounts) EnsureAdmin(ctx context.Context, req accountdomain.CreateRequest) (bool, error) {
	s.requests = append(s.requests, req)
	return s.created, nil
}

func TestEnsureBootstrapAdminDevelopmentDefault(t *testing.T) {
	accounts := &stubAccounts{created: true}
	if err := EnsureBootstrapAdmin(context.Background(), accounts, config.Config{Environment: "development"}, zap.NewNop()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if len(accounts.requests) != 1 {
		t.Fatalf("expected one EnsureAdmin call, got %d", len(accounts.requests))
	}
	req := accounts.requests[0]
	if req.Username != defaultAdminUsername || req.Password != defaultAdminPassword {
		t.Fatalf("unexpected bootstrap request: %+v", req)
	}
}

func TestEnsureBootstrapAdminSkippedInProductionWithoutPassword(t *testing.T) {
	accounts := &stubAccounts{}
	if err := EnsureBootstrapAdmin(context.Background(), accounts, config.Config{Environment: "production"}, zap.NewNop()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if len(accounts.requests) != 0 {
		t.Fatalf("expected no EnsureAdmin call, got %d", len(accounts.requests))
	}
}

func TestEnsureBootstrapAdminUsesConfig(t *testing.T) {
	accounts := &stubAccounts{}
	cfg := config.Config{
		Environment: "production",
		Bootstrap:   config.BootstrapConfig{AdminUsername: "warden", AdminPassword: "s3cret-pass", AdminEmail: "warden@example.com"},
	}
	if err := EnsureBootstrapAdmin(context.Background(), accounts, cfg, zap.NewNop()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if got := accounts.requests[0]; got.Username != "warden" || got.Email != "warden@example.com" {
		t.Fatalf("unexpected bootstrap request: %+v", got)
	}
}
