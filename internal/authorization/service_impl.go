package authorization

import (
	"context"
	_ "embed"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	accountdomain "github.com/smallbiznis/roomwatt/internal/account/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	ObjectEnergy     = "energy"
	ObjectDevice     = "device"
	ObjectRoom       = "room"
	ObjectAssignment = "assignment"
	ObjectUser       = "user"
	ObjectTestData   = "testdata"
)

const (
	ActionView     = "view"
	ActionToggle   = "toggle"
	ActionManage   = "manage"
	ActionGenerate = "generate"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
}

// NewEnforcer loads policies from the casbin_rule table and makes sure the
// built-in role policies are present.
func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	if err := enforcer.BuildRoleLinks(); err != nil {
		return nil, err
	}
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, role accountdomain.Role, object string, action string) error {
	if !role.Valid() {
		return ErrInvalidRole
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	allowed, err := s.enforcer.Enforce(subject(role), object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Debug("authorization denied",
			zap.String("role", role.String()),
			zap.String("object", object),
			zap.String("action", action),
		)
		return ErrForbidden
	}
	return nil
}

func subject(role accountdomain.Role) string {
	return "role:" + role.String()
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	resident := subject(accountdomain.RoleResident)
	staff := subject(accountdomain.RoleStaff)
	manager := subject(accountdomain.RoleManager)
	admin := subject(accountdomain.RoleAdmin)

	policies := [][]string{
		{resident, ObjectEnergy, ActionView},
		{resident, ObjectDevice, ActionView},
		{resident, ObjectDevice, ActionToggle},
		{resident, ObjectRoom, ActionView},

		{staff, ObjectDevice, ActionManage},
		{staff, ObjectAssignment, ActionView},

		{manager, ObjectRoom, ActionManage},
		{manager, ObjectAssignment, ActionManage},

		{admin, ObjectUser, ActionManage},
		{admin, ObjectTestData, ActionGenerate},
	}
	for _, policy := range policies {
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}

	// Each role inherits everything granted to the one below it.
	inheritance := [][]string{
		{staff, resident},
		{manager, staff},
		{admin, manager},
	}
	for _, rule := range inheritance {
		if _, err := enforcer.AddGroupingPolicy(rule); err != nil {
			return err
		}
	}
	return nil
}
