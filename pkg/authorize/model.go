package authorize

import (
	"fmt"
	"strings"

	casbin "github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	stringadapter "github.com/casbin/casbin/v2/persist/string-adapter"
)

// DefaultModel is role-based with deny overrides. g links a role to a group
// role such as RoleStaff.
const DefaultModel = `[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act, eft

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow)) && !some(where (p.eft == deny))

[matchers]
m = g(r.sub, p.sub) && (p.obj == "*" || r.obj == p.obj) && (p.act == "*" || r.act == p.act)
`

// LoadModel reads the model at path, or DefaultModel when path is empty.
func LoadModel(path string) (model.Model, error) {
	if path == "" {
		return model.NewModelFromString(DefaultModel)
	}
	m, err := model.NewModelFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load casbin model %s: %w", path, err)
	}
	return m, nil
}

// PolicyCSV renders policies and groupings in casbin's CSV policy format.
func PolicyCSV(policies []PermissionPolicy, groupings []GroupingPolicy) string {
	var sb strings.Builder
	for _, p := range policies {
		fmt.Fprintf(&sb, "p, %s, %s, %s, %s\n", p.Subject, p.Object, p.Action, p.Effect)
	}
	for _, g := range groupings {
		fmt.Fprintf(&sb, "g, %s, %s\n", g.Member, g.Group)
	}
	return sb.String()
}

// NewMemoryEnforcer builds an enforcer preloaded with the default policies.
// It backs the memory store driver and tests; nothing is persisted.
func NewMemoryEnforcer(modelPath string) (*casbin.DistributedEnforcer, error) {
	m, err := LoadModel(modelPath)
	if err != nil {
		return nil, err
	}

	a := stringadapter.NewAdapter(PolicyCSV(DefaultPolicies(), DefaultGroupings()))
	e, err := casbin.NewDistributedEnforcer(m, a)
	if err != nil {
		return nil, err
	}

	e.EnableAutoSave(false)
	e.EnableEnforce(true)
	return e, nil
}
