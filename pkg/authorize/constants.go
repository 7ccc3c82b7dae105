package authorize

import "github.com/Alijeyrad/medstage_backend/internal/domain"

type Action string
type Resource string
type Role string

// ----------------------------
// Actions
// ----------------------------

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionList   Action = "list"

	// Lifecycle actions
	ActionStatus   Action = "status" // close, archive, mark full
	ActionApply    Action = "apply"
	ActionCancel   Action = "cancel"
	ActionDecide   Action = "decide"
	ActionSubmit   Action = "submit"
	ActionValidate Action = "validate"
	ActionRemind   Action = "remind"
)

const (
	WildcardAction Action = "*"
)

var KnownActions = map[Action]struct{}{
	ActionCreate: {}, ActionRead: {}, ActionUpdate: {}, ActionDelete: {}, ActionList: {},
	ActionStatus: {}, ActionApply: {}, ActionCancel: {}, ActionDecide: {},
	ActionSubmit: {}, ActionValidate: {}, ActionRemind: {},
}

// ----------------------------
// Resources
// ----------------------------

const (
	WildcardResource Resource = "*"

	ResourceInternship   Resource = "internship"
	ResourceApplication  Resource = "application"
	ResourceEvaluation   Resource = "evaluation"
	ResourceNotification Resource = "notification"
)

var KnownResources = map[Resource]struct{}{
	ResourceInternship: {}, ResourceApplication: {}, ResourceEvaluation: {}, ResourceNotification: {},
}

// ----------------------------
// Roles
// ----------------------------
//
// Policy subjects. Every actor role maps to exactly one of them; RoleStaff is
// a group the supervising roles inherit from.

const (
	WildcardRole Role = "*"

	RoleStudent      Role = "role:student"
	RoleServiceChief Role = "role:service_chief"
	RoleDoctor       Role = "role:doctor"
	RoleDean         Role = "role:dean"

	RoleStaff Role = "role:staff"
)

var KnownRoles = map[Role]struct{}{
	RoleStudent:      {},
	RoleServiceChief: {},
	RoleDoctor:       {},
	RoleDean:         {},
	RoleStaff:        {},
}

type subjectOf struct{}

func (subjectOf) Student() Role      { return RoleStudent }
func (subjectOf) ServiceChief() Role { return RoleServiceChief }
func (subjectOf) Doctor() Role       { return RoleDoctor }
func (subjectOf) Dean() Role         { return RoleDean }

// SubjectFor returns the policy subject of an actor role, or "" for the zero role.
func SubjectFor(r domain.Role) Role {
	s, _ := domain.MatchRole[Role](r, subjectOf{})
	return s
}

// ----------------------------
// Casbin tuple helpers
// ----------------------------

type PolicyEffect string

const (
	EffectAllow PolicyEffect = "allow"
	EffectDeny  PolicyEffect = "deny"
)

// Permission rows: p, role, resource, action, eft
type PermissionPolicy struct {
	Subject Role
	Object  Resource
	Action  Action
	Effect  PolicyEffect
}

// Grouping rows: g, member, group
type GroupingPolicy struct {
	Member Role
	Group  Role
}
