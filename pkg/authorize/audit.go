package authorize

import (
	"context"
	"log/slog"
	"time"

	casbin "github.com/casbin/casbin/v2"

	"github.com/Alijeyrad/medstage_backend/internal/domain"
)

// AuditedAuthorization wraps an IAuthorization implementation with audit logging.
type AuditedAuthorization struct {
	inner  IAuthorization
	logger *slog.Logger
}

func NewAuditedAuthorization(inner IAuthorization, logger *slog.Logger) IAuthorization {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditedAuthorization{
		inner:  inner,
		logger: logger,
	}
}

func (a *AuditedAuthorization) Enforce(ctx context.Context, role domain.Role, object Resource, action Action) (bool, error) {
	start := time.Now()
	allowed, err := a.inner.Enforce(ctx, role, object, action)

	attrs := []any{
		"role", role.String(),
		"resource", string(object),
		"action", string(action),
		"allowed", allowed,
		"duration_ms", time.Since(start).Milliseconds(),
	}

	switch {
	case err != nil:
		attrs = append(attrs, "error", err.Error())
		a.logger.ErrorContext(ctx, "authz_decision", attrs...)
	case allowed:
		a.logger.DebugContext(ctx, "authz_decision", attrs...)
	default:
		a.logger.WarnContext(ctx, "authz_decision", attrs...)
	}

	return allowed, err
}

func (a *AuditedAuthorization) MustEnforce(ctx context.Context, role domain.Role, object Resource, action Action) error {
	ok, err := a.Enforce(ctx, role, object, action)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}

func (a *AuditedAuthorization) AddPermission(ctx context.Context, role Role, object Resource, action Action, effect PolicyEffect) (bool, error) {
	added, err := a.inner.AddPermission(ctx, role, object, action, effect)
	a.change(ctx, "add_permission", err,
		"role", string(role), "resource", string(object), "action", string(action), "effect", string(effect), "added", added)
	return added, err
}

func (a *AuditedAuthorization) RemovePermission(ctx context.Context, role Role, object Resource, action Action, effect PolicyEffect) (bool, error) {
	removed, err := a.inner.RemovePermission(ctx, role, object, action, effect)
	a.change(ctx, "remove_permission", err,
		"role", string(role), "resource", string(object), "action", string(action), "effect", string(effect), "removed", removed)
	return removed, err
}

func (a *AuditedAuthorization) AddGrouping(ctx context.Context, member, group Role) (bool, error) {
	added, err := a.inner.AddGrouping(ctx, member, group)
	a.change(ctx, "add_grouping", err, "member", string(member), "group", string(group), "added", added)
	return added, err
}

func (a *AuditedAuthorization) change(ctx context.Context, op string, err error, attrs ...any) {
	attrs = append([]any{"operation", op}, attrs...)
	if err != nil {
		attrs = append(attrs, "error", err.Error())
		a.logger.ErrorContext(ctx, "authz_policy_change", attrs...)
		return
	}
	a.logger.InfoContext(ctx, "authz_policy_change", attrs...)
}

func (a *AuditedAuthorization) Raw() *casbin.DistributedEnforcer {
	return a.inner.Raw()
}
