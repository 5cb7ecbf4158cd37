package auth

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"

	"github.com/you/lendauth/domain"
)

// DefaultModel is the RBAC model used when no model file is configured.
// Roles inherit downwards: admin > agent > borrower.
const DefaultModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && keyMatch2(r.obj, p.obj) && regexMatch(r.act, p.act)
`

// defaultPolicies gate the agent and admin surfaces. Borrowers need no
// policy: everything they may reach is behind authentication only.
var (
	defaultPolicies = [][]string{
		{domain.RoleAgent, "/agent/*", "GET"},
		{domain.RoleAdmin, "/admin/*", "(GET)|(POST)|(PUT)|(DELETE)"},
	}
	defaultGroupings = [][]string{
		{domain.RoleAdmin, domain.RoleAgent},
		{domain.RoleAgent, domain.RoleBorrower},
	}
)

type CasbinService struct{ E *casbin.Enforcer }

// NewCasbinService builds an enforcer over the casbin_rule table. modelPath
// may be empty, in which case DefaultModel is used.
func NewCasbinService(db *gorm.DB, modelPath string) (*CasbinService, error) {
	adp, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, fmt.Errorf("casbin adapter: %w", err)
	}

	var m model.Model
	if modelPath != "" {
		m, err = model.NewModelFromFile(modelPath)
	} else {
		m, err = model.NewModelFromString(DefaultModel)
	}
	if err != nil {
		return nil, fmt.Errorf("casbin model: %w", err)
	}

	e, err := casbin.NewEnforcer(m, adp)
	if err != nil {
		return nil, fmt.Errorf("casbin enforcer: %w", err)
	}
	if err := e.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("casbin load policy: %w", err)
	}
	return &CasbinService{E: e}, nil
}

// SeedDefaults installs the default role policies when the store holds none
func (s *CasbinService) SeedDefaults() error {
	existing, err := s.E.GetPolicy()
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	if _, err := s.E.AddPolicies(defaultPolicies); err != nil {
		return fmt.Errorf("seed policies: %w", err)
	}
	if _, err := s.E.AddGroupingPolicies(defaultGroupings); err != nil {
		return fmt.Errorf("seed role hierarchy: %w", err)
	}
	return nil
}
