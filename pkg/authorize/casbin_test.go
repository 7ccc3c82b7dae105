package authorize

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Alijeyrad/medstage_backend/internal/domain"
)

func newTestAuthorization(t *testing.T) IAuthorization {
	t.Helper()
	e, err := NewMemoryEnforcer("")
	if err != nil {
		t.Fatalf("NewMemoryEnforcer: %v", err)
	}
	auth, err := NewAuthorization(e)
	if err != nil {
		t.Fatalf("NewAuthorization: %v", err)
	}
	return auth
}

func TestNewAuthorization(t *testing.T) {
	if _, err := NewAuthorization(nil); !errors.Is(err, ErrInvalidArgs) {
		t.Errorf("err = %v, want ErrInvalidArgs", err)
	}
}

func TestDefaultPolicies(t *testing.T) {
	auth := newTestAuthorization(t)
	ctx := context.Background()

	tests := []struct {
		role     domain.Role
		resource Resource
		action   Action
		want     bool
	}{
		{domain.RoleStudent, ResourceInternship, ActionList, true},
		{domain.RoleStudent, ResourceInternship, ActionApply, true},
		{domain.RoleStudent, ResourceInternship, ActionCreate, false},
		{domain.RoleStudent, ResourceApplication, ActionCancel, true},
		{domain.RoleStudent, ResourceApplication, ActionDecide, false},
		{domain.RoleStudent, ResourceEvaluation, ActionSubmit, false},
		{domain.RoleStudent, ResourceNotification, ActionDelete, true},

		{domain.RoleDoctor, ResourceEvaluation, ActionCreate, true},
		{domain.RoleDoctor, ResourceEvaluation, ActionSubmit, true},
		{domain.RoleDoctor, ResourceEvaluation, ActionValidate, false},
		{domain.RoleDoctor, ResourceApplication, ActionDecide, false},
		{domain.RoleDoctor, ResourceInternship, ActionApply, false},

		{domain.RoleServiceChief, ResourceInternship, ActionCreate, true},
		{domain.RoleServiceChief, ResourceInternship, ActionStatus, true},
		{domain.RoleServiceChief, ResourceInternship, ActionDelete, false},
		{domain.RoleServiceChief, ResourceApplication, ActionDecide, true},
		{domain.RoleServiceChief, ResourceEvaluation, ActionValidate, true},
		{domain.RoleServiceChief, ResourceEvaluation, ActionSubmit, false},
		{domain.RoleServiceChief, ResourceNotification, ActionRead, true},

		{domain.RoleDean, ResourceInternship, ActionDelete, true},
		{domain.RoleDean, ResourceApplication, ActionDecide, true},
		{domain.RoleDean, ResourceEvaluation, ActionRemind, true},
		{domain.RoleDean, ResourceApplication, ActionCancel, false},
	}

	for _, tt := range tests {
		t.Run(tt.role.String()+"/"+string(tt.resource)+"/"+string(tt.action), func(t *testing.T) {
			got, err := auth.Enforce(ctx, tt.role, tt.resource, tt.action)
			if err != nil {
				t.Fatalf("Enforce: %v", err)
			}
			if got != tt.want {
				t.Errorf("Enforce = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEnforceRejectsUnknownArgs(t *testing.T) {
	auth := newTestAuthorization(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		role     domain.Role
		resource Resource
		action   Action
	}{
		{"zero role", domain.Role{}, ResourceInternship, ActionRead},
		{"unknown resource", domain.RoleDean, Resource("clinic"), ActionRead},
		{"wildcard resource", domain.RoleDean, WildcardResource, ActionRead},
		{"unknown action", domain.RoleDean, ResourceInternship, Action("teleport")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := auth.Enforce(ctx, tt.role, tt.resource, tt.action); !errors.Is(err, ErrInvalidArgs) {
				t.Errorf("err = %v, want ErrInvalidArgs", err)
			}
		})
	}
}

func TestMustEnforce(t *testing.T) {
	auth := newTestAuthorization(t)
	ctx := context.Background()

	if err := auth.MustEnforce(ctx, domain.RoleDean, ResourceInternship, ActionDelete); err != nil {
		t.Errorf("dean delete: %v", err)
	}
	if err := auth.MustEnforce(ctx, domain.RoleStudent, ResourceInternship, ActionDelete); !errors.Is(err, ErrForbidden) {
		t.Errorf("student delete: err = %v, want ErrForbidden", err)
	}
}

func TestDenyOverridesAllow(t *testing.T) {
	auth := newTestAuthorization(t)
	ctx := context.Background()

	if _, err := auth.AddPermission(ctx, RoleServiceChief, ResourceApplication, ActionDecide, EffectDeny); err != nil {
		t.Fatalf("AddPermission: %v", err)
	}
	if ok, _ := auth.Enforce(ctx, domain.RoleServiceChief, ResourceApplication, ActionDecide); ok {
		t.Error("deny rule should win over the staff allow")
	}
	if ok, _ := auth.Enforce(ctx, domain.RoleDean, ResourceApplication, ActionDecide); !ok {
		t.Error("dean should keep the staff allow")
	}

	if _, err := auth.RemovePermission(ctx, RoleServiceChief, ResourceApplication, ActionDecide, EffectDeny); err != nil {
		t.Fatalf("RemovePermission: %v", err)
	}
	if ok, _ := auth.Enforce(ctx, domain.RoleServiceChief, ResourceApplication, ActionDecide); !ok {
		t.Error("allow should be back after removing the deny rule")
	}
}

func TestAddPermissionValidation(t *testing.T) {
	auth := newTestAuthorization(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		role   Role
		object Resource
		action Action
		effect PolicyEffect
	}{
		{"unknown role", Role("role:janitor"), ResourceInternship, ActionRead, EffectAllow},
		{"unknown resource", RoleDean, Resource("payment"), ActionRead, EffectAllow},
		{"unknown action", RoleDean, ResourceInternship, Action("fly"), EffectAllow},
		{"bad effect", RoleDean, ResourceInternship, ActionRead, PolicyEffect("maybe")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := auth.AddPermission(ctx, tt.role, tt.object, tt.action, tt.effect); !errors.Is(err, ErrInvalidArgs) {
				t.Errorf("err = %v, want ErrInvalidArgs", err)
			}
		})
	}

	if _, err := auth.AddGrouping(ctx, RoleDoctor, Role("role:nobody")); !errors.Is(err, ErrInvalidArgs) {
		t.Errorf("AddGrouping err = %v, want ErrInvalidArgs", err)
	}
}

func TestSeedDefaultPoliciesIsIdempotent(t *testing.T) {
	auth := newTestAuthorization(t)
	ctx := context.Background()

	policies, err := auth.Raw().GetPolicy()
	if err != nil {
		t.Fatalf("GetPolicy: %v", err)
	}
	before := len(policies)
	if err := SeedDefaultPolicies(ctx, auth); err != nil {
		t.Fatalf("SeedDefaultPolicies: %v", err)
	}
	policies, err = auth.Raw().GetPolicy()
	if err != nil {
		t.Fatalf("GetPolicy: %v", err)
	}
	if after := len(policies); after != before {
		t.Errorf("policy count = %d after reseeding, want %d", after, before)
	}
	if before != len(DefaultPolicies()) {
		t.Errorf("loaded %d policies, want %d", before, len(DefaultPolicies()))
	}
}

func TestAuditedAuthorizationLogsDecisions(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	auth := NewAuditedAuthorization(newTestAuthorization(t), logger)
	ctx := context.Background()

	if err := auth.MustEnforce(ctx, domain.RoleDoctor, ResourceApplication, ActionDecide); !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}

	out := buf.String()
	for _, want := range []string{"authz_decision", "role=doctor", "resource=application", "allowed=false", "level=WARN"} {
		if !strings.Contains(out, want) {
			t.Errorf("log %q missing %q", out, want)
		}
	}
}

func TestLoadModelFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.conf")
	if err := os.WriteFile(path, []byte(DefaultModel), 0o644); err != nil {
		t.Fatal(err)
	}

	e, err := NewMemoryEnforcer(path)
	if err != nil {
		t.Fatalf("NewMemoryEnforcer: %v", err)
	}
	ok, err := e.Enforce(string(RoleDean), string(ResourceInternship), string(ActionDelete))
	if err != nil || !ok {
		t.Errorf("Enforce = %v, %v", ok, err)
	}

	if _, err := LoadModel(filepath.Join(t.TempDir(), "missing.conf")); err == nil {
		t.Error("expected an error for a missing model file")
	}
}

func TestSubjectFor(t *testing.T) {
	for _, r := range domain.Roles() {
		if s := SubjectFor(r); s != Role("role:"+r.String()) {
			t.Errorf("SubjectFor(%s) = %q", r, s)
		}
	}
	if s := SubjectFor(domain.Role{}); s != "" {
		t.Errorf("SubjectFor(zero) = %q", s)
	}
}

func TestPolicyCSV(t *testing.T) {
	got := PolicyCSV(
		[]PermissionPolicy{{RoleDean, ResourceInternship, ActionDelete, EffectAllow}},
		[]GroupingPolicy{{RoleDean, RoleStaff}},
	)
	want := "p, role:dean, internship, delete, allow\ng, role:dean, role:staff\n"
	if got != want {
		t.Errorf("PolicyCSV = %q, want %q", got, want)
	}
}
