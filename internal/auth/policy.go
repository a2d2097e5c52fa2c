package auth

import (
	"fmt"
	"sync"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"

	"servicepulse/backend/internal/logger"
	"servicepulse/backend/internal/models"
)

// Resources and actions checked by the HTTP layer.
const (
	ResourceComplaints = "complaints"
	ResourceOrders     = "orders"
	ResourceVendors    = "vendors"
	ResourceJobs       = "jobs"
	ResourceAnalytics  = "analytics"
	ResourceRatings    = "ratings"

	ActionCreate  = "create"
	ActionRead    = "read"
	ActionReadOwn = "read_own"
	ActionUpdate  = "update"
	ActionAssign  = "assign"
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

var defaultPolicies = [][]string{
	{models.RoleResident, ResourceComplaints, ActionCreate},
	{models.RoleResident, ResourceComplaints, ActionReadOwn},
	{models.RoleResident, ResourceRatings, ActionCreate},

	{models.RoleSecretary, ResourceComplaints, ActionRead},
	{models.RoleSecretary, ResourceComplaints, ActionUpdate},
	{models.RoleSecretary, ResourceComplaints, ActionAssign},
	{models.RoleSecretary, ResourceOrders, ActionCreate},
	{models.RoleSecretary, ResourceOrders, ActionRead},
	{models.RoleSecretary, ResourceVendors, ActionRead},
	{models.RoleSecretary, ResourceVendors, ActionCreate},
	{models.RoleSecretary, ResourceAnalytics, ActionRead},

	{models.RoleVendor, ResourceJobs, ActionRead},
	{models.RoleVendor, ResourceJobs, ActionUpdate},
	{models.RoleVendor, ResourceVendors, ActionUpdate},
}

// Policy answers "may this role do this?".
type Policy struct {
	mu       sync.RWMutex
	enforcer *casbin.Enforcer
}

// NewPolicy builds the role policy. With a database the rules are kept in
// the casbin_rule table and seeded on first start; without one they live
// in memory.
func NewPolicy(db *gorm.DB) (*Policy, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("failed to parse casbin model: %w", err)
	}

	var enforcer *casbin.Enforcer
	if db != nil {
		adapter, err := gormadapter.NewAdapterByDB(db)
		if err != nil {
			return nil, fmt.Errorf("failed to create casbin adapter: %w", err)
		}
		enforcer, err = casbin.NewEnforcer(m, adapter)
		if err != nil {
			return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
		}
		if err := enforcer.LoadPolicy(); err != nil {
			return nil, fmt.Errorf("failed to load policy: %w", err)
		}
	} else {
		enforcer, err = casbin.NewEnforcer(m)
		if err != nil {
			return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
		}
	}

	added := 0
	for _, p := range defaultPolicies {
		ok, err := enforcer.AddPolicy(p[0], p[1], p[2])
		if err != nil {
			return nil, fmt.Errorf("failed to add policy [%s, %s, %s]: %w", p[0], p[1], p[2], err)
		}
		if ok {
			added++
		}
	}
	if added > 0 {
		logger.WithComponent("auth").Info("role policies seeded", "added", added)
	}

	return &Policy{enforcer: enforcer}, nil
}

func (p *Policy) Allowed(role, resource, action string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	ok, err := p.enforcer.Enforce(role, resource, action)
	if err != nil {
		logger.WithComponent("auth").Error("permission check failed",
			"error", err, "role", role, "resource", resource, "action", action)
		return false
	}
	return ok
}
