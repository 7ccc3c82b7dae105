package authorize

import (
	"context"
	"log/slog"
)

// DefaultPolicies is the role-level rule set. Ownership rules (which chief
// runs which internship, which doctor owns which evaluation) stay in the
// services.
func DefaultPolicies() []PermissionPolicy {
	return []PermissionPolicy{
		// Everyone reads internships and owns a notification inbox.
		{RoleStudent, ResourceInternship, ActionRead, EffectAllow},
		{RoleStudent, ResourceInternship, ActionList, EffectAllow},
		{RoleDoctor, ResourceInternship, ActionRead, EffectAllow},
		{RoleDoctor, ResourceInternship, ActionList, EffectAllow},
		{RoleStudent, ResourceNotification, WildcardAction, EffectAllow},
		{RoleDoctor, ResourceNotification, WildcardAction, EffectAllow},
		{RoleStaff, ResourceNotification, WildcardAction, EffectAllow},

		// Students apply and follow their own records.
		{RoleStudent, ResourceInternship, ActionApply, EffectAllow},
		{RoleStudent, ResourceApplication, ActionRead, EffectAllow},
		{RoleStudent, ResourceApplication, ActionList, EffectAllow},
		{RoleStudent, ResourceApplication, ActionCancel, EffectAllow},
		{RoleStudent, ResourceEvaluation, ActionRead, EffectAllow},
		{RoleStudent, ResourceEvaluation, ActionList, EffectAllow},

		// Doctors fill in evaluations.
		{RoleDoctor, ResourceEvaluation, ActionCreate, EffectAllow},
		{RoleDoctor, ResourceEvaluation, ActionRead, EffectAllow},
		{RoleDoctor, ResourceEvaluation, ActionList, EffectAllow},
		{RoleDoctor, ResourceEvaluation, ActionUpdate, EffectAllow},
		{RoleDoctor, ResourceEvaluation, ActionSubmit, EffectAllow},

		// Chiefs and the dean run internships and review their outcome.
		{RoleStaff, ResourceInternship, ActionCreate, EffectAllow},
		{RoleStaff, ResourceInternship, ActionRead, EffectAllow},
		{RoleStaff, ResourceInternship, ActionList, EffectAllow},
		{RoleStaff, ResourceInternship, ActionUpdate, EffectAllow},
		{RoleStaff, ResourceInternship, ActionStatus, EffectAllow},
		{RoleStaff, ResourceApplication, ActionRead, EffectAllow},
		{RoleStaff, ResourceApplication, ActionList, EffectAllow},
		{RoleStaff, ResourceApplication, ActionDecide, EffectAllow},
		{RoleStaff, ResourceEvaluation, ActionRead, EffectAllow},
		{RoleStaff, ResourceEvaluation, ActionList, EffectAllow},
		{RoleStaff, ResourceEvaluation, ActionValidate, EffectAllow},
		{RoleStaff, ResourceEvaluation, ActionRemind, EffectAllow},

		// Only the dean deletes internships.
		{RoleDean, ResourceInternship, ActionDelete, EffectAllow},
	}
}

func DefaultGroupings() []GroupingPolicy {
	return []GroupingPolicy{
		{RoleServiceChief, RoleStaff},
		{RoleDean, RoleStaff},
	}
}

// SeedDefaultPolicies writes the default rule set. Existing rows are left as they are.
func SeedDefaultPolicies(ctx context.Context, auth IAuthorization) error {
	logger := slog.Default()

	policies := DefaultPolicies()
	for _, p := range policies {
		added, err := auth.AddPermission(ctx, p.Subject, p.Object, p.Action, p.Effect)
		if err != nil {
			logger.Error("failed to add policy", "policy", p, "error", err)
			return err
		}
		if added {
			logger.Debug("added policy", "role", p.Subject, "resource", p.Object, "action", p.Action)
		}
	}

	for _, g := range DefaultGroupings() {
		if _, err := auth.AddGrouping(ctx, g.Member, g.Group); err != nil {
			logger.Error("failed to add grouping", "member", g.Member, "group", g.Group, "error", err)
			return err
		}
	}

	logger.Info("seeded default RBAC policies", "count", len(policies))
	return nil
}
