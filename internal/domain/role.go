package domain

import (
	"database/sql/driver"
	"fmt"
)

// Role is one of the four actor roles. The zero value is not a valid role;
// values come from the Role* variables or ParseRole.
type Role struct {
	name string
}

var (
	RoleStudent      = Role{name: "student"}
	RoleServiceChief = Role{name: "service_chief"}
	RoleDoctor       = Role{name: "doctor"}
	RoleDean         = Role{name: "dean"}
)

// Roles lists every role in a stable order.
func Roles() []Role {
	return []Role{RoleStudent, RoleServiceChief, RoleDoctor, RoleDean}
}

func ParseRole(s string) (Role, error) {
	for _, r := range Roles() {
		if r.name == s {
			return r, nil
		}
	}
	return Role{}, fmt.Errorf("%w: unknown role %q", ErrValidation, s)
}

func (r Role) String() string { return r.name }

func (r Role) IsZero() bool { return r.name == "" }

func (r Role) MarshalText() ([]byte, error) {
	if r.IsZero() {
		return nil, fmt.Errorf("marshal role: zero value")
	}
	return []byte(r.name), nil
}

func (r *Role) UnmarshalText(b []byte) error {
	parsed, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

func (r Role) Value() (driver.Value, error) {
	if r.IsZero() {
		return nil, fmt.Errorf("store role: zero value")
	}
	return r.name, nil
}

func (r *Role) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return r.UnmarshalText([]byte(v))
	case []byte:
		return r.UnmarshalText(v)
	default:
		return fmt.Errorf("scan role: unsupported type %T", src)
	}
}

// RoleMatcher has one method per role. Adding a role adds a method, so every
// matcher in the tree stops compiling until it handles the new case.
type RoleMatcher[T any] interface {
	Student() T
	ServiceChief() T
	Doctor() T
	Dean() T
}

// MatchRole dispatches r to the matching method of m. ok is false for the zero Role.
func MatchRole[T any](r Role, m RoleMatcher[T]) (out T, ok bool) {
	switch r {
	case RoleStudent:
		return m.Student(), true
	case RoleServiceChief:
		return m.ServiceChief(), true
	case RoleDoctor:
		return m.Doctor(), true
	case RoleDean:
		return m.Dean(), true
	default:
		return out, false
	}
}
