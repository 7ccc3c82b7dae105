package authorize

import (
	"context"
	"errors"
	"fmt"

	casbin "github.com/casbin/casbin/v2"

	"github.com/Alijeyrad/medstage_backend/internal/domain"
)

var (
	ErrForbidden   = errors.New("forbidden")
	ErrInvalidArgs = errors.New("invalid authorization arguments")
)

// IAuthorization is the only thing services/middleware should depend on.
type IAuthorization interface {
	// Enforce answers: "May an actor holding role perform action on object?"
	Enforce(ctx context.Context, role domain.Role, object Resource, action Action) (bool, error)

	// MustEnforce is convenience for callers: return ErrForbidden if not allowed.
	MustEnforce(ctx context.Context, role domain.Role, object Resource, action Action) error

	// Permission management (policies): p, role, object, action, eft
	AddPermission(ctx context.Context, role Role, object Resource, action Action, effect PolicyEffect) (bool, error)
	RemovePermission(ctx context.Context, role Role, object Resource, action Action, effect PolicyEffect) (bool, error)

	// Group management: g, role, group
	AddGrouping(ctx context.Context, member, group Role) (bool, error)

	Raw() *casbin.DistributedEnforcer
}

// Authorization is a thin typed wrapper around casbin.Enforcer.
type Authorization struct {
	enforcer *casbin.DistributedEnforcer
}

// NewAuthorization wraps an already-configured Enforcer
func NewAuthorization(e *casbin.DistributedEnforcer) (IAuthorization, error) {
	if e == nil {
		return nil, fmt.Errorf("%w: enforcer is nil", ErrInvalidArgs)
	}
	return &Authorization{enforcer: e}, nil
}

func (a *Authorization) Raw() *casbin.DistributedEnforcer { return a.enforcer }

func (a *Authorization) Enforce(ctx context.Context, role domain.Role, object Resource, action Action) (bool, error) {
	_ = ctx // reserved for tracing

	subject := SubjectFor(role)
	if subject == "" {
		return false, fmt.Errorf("%w: unknown role %q", ErrInvalidArgs, role)
	}
	if _, ok := KnownResources[object]; !ok {
		return false, fmt.Errorf("%w: unknown resource: %q", ErrInvalidArgs, object)
	}
	if _, ok := KnownActions[action]; !ok {
		return false, fmt.Errorf("%w: unknown action: %q", ErrInvalidArgs, action)
	}

	return a.enforcer.Enforce(string(subject), string(object), string(action))
}

func (a *Authorization) MustEnforce(ctx context.Context, role domain.Role, object Resource, action Action) error {
	ok, err := a.Enforce(ctx, role, object, action)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}

// ---- Permissions (p rules) ----

func validPermission(role Role, object Resource, action Action, effect PolicyEffect) error {
	if _, ok := KnownRoles[role]; !ok && role != WildcardRole {
		return fmt.Errorf("%w: unknown role: %q", ErrInvalidArgs, role)
	}
	if _, ok := KnownResources[object]; !ok && object != WildcardResource {
		return fmt.Errorf("%w: unknown resource: %q", ErrInvalidArgs, object)
	}
	if _, ok := KnownActions[action]; !ok && action != WildcardAction {
		return fmt.Errorf("%w: unknown action: %q", ErrInvalidArgs, action)
	}
	if effect != EffectAllow && effect != EffectDeny {
		return fmt.Errorf("%w: invalid effect: %q", ErrInvalidArgs, effect)
	}
	return nil
}

func (a *Authorization) AddPermission(ctx context.Context, role Role, object Resource, action Action, effect PolicyEffect) (bool, error) {
	_ = ctx
	if err := validPermission(role, object, action, effect); err != nil {
		return false, err
	}
	return a.enforcer.AddPolicy(string(role), string(object), string(action), string(effect))
}

func (a *Authorization) RemovePermission(ctx context.Context, role Role, object Resource, action Action, effect PolicyEffect) (bool, error) {
	_ = ctx
	if role == "" || object == "" || action == "" || effect == "" {
		return false, fmt.Errorf("%w: empty permission fields", ErrInvalidArgs)
	}
	return a.enforcer.RemovePolicy(string(role), string(object), string(action), string(effect))
}

// ---- Grouping ----

func (a *Authorization) AddGrouping(ctx context.Context, member, group Role) (bool, error) {
	_ = ctx
	for _, r := range []Role{member, group} {
		if _, ok := KnownRoles[r]; !ok {
			return false, fmt.Errorf("%w: unknown role: %q", ErrInvalidArgs, r)
		}
	}
	return a.enforcer.AddGroupingPolicy(string(member), string(group))
}
