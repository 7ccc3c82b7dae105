package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// Actor is the authenticated caller of a lifecycle operation.
type Actor struct {
	UserID uuid.UUID
	Role   Role
}

func (a Actor) Validate() error {
	if a.UserID == uuid.Nil {
		return fmt.Errorf("%w: actor has no user id", ErrUnauthorized)
	}
	if a.Role.IsZero() {
		return fmt.Errorf("%w: actor has no role", ErrUnauthorized)
	}
	return nil
}

func (a Actor) Is(r Role) bool { return a.Role == r }

// Require fails with ErrUnauthorized unless the actor holds one of roles.
func (a Actor) Require(roles ...Role) error {
	if err := a.Validate(); err != nil {
		return err
	}
	for _, r := range roles {
		if a.Role == r {
			return nil
		}
	}
	return fmt.Errorf("%w: role %s may not perform this action", ErrUnauthorized, a.Role)
}

// manageRule decides who may manage an internship.
type manageRule struct {
	userID uuid.UUID
	in     *Internship
}

func (manageRule) Student() bool        { return false }
func (m manageRule) ServiceChief() bool { return m.in.ManagedBy(m.userID) }
func (manageRule) Doctor() bool         { return false }
func (manageRule) Dean() bool           { return true }

// CanManage reports whether the actor may administer in and review its applications.
func (a Actor) CanManage(in *Internship) bool {
	allowed, ok := MatchRole[bool](a.Role, manageRule{userID: a.UserID, in: in})
	return ok && allowed
}
