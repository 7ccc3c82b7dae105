package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type ApplicationStatus string

const (
	ApplicationPending   ApplicationStatus = "pending"
	ApplicationAccepted  ApplicationStatus = "accepted"
	ApplicationRejected  ApplicationStatus = "rejected"
	ApplicationCancelled ApplicationStatus = "cancelled"
)

func ParseApplicationStatus(s string) (ApplicationStatus, error) {
	st := ApplicationStatus(s)
	switch st {
	case ApplicationPending, ApplicationAccepted, ApplicationRejected, ApplicationCancelled:
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown application status %q", ErrValidation, s)
}

// Terminal reports whether no transition leaves s.
func (s ApplicationStatus) Terminal() bool { return s != ApplicationPending }

// Active reports whether s counts toward the one-application-per-internship rule.
func (s ApplicationStatus) Active() bool {
	return s == ApplicationPending || s == ApplicationAccepted
}

// ActiveApplicationStatuses are the statuses covered by the duplicate check.
var ActiveApplicationStatuses = []ApplicationStatus{ApplicationPending, ApplicationAccepted}

// Decision is the reviewer's verdict on a pending application.
type Decision string

const (
	DecisionAccept Decision = "accepted"
	DecisionReject Decision = "rejected"
)

func ParseDecision(s string) (Decision, error) {
	switch d := Decision(s); d {
	case DecisionAccept, DecisionReject:
		return d, nil
	}
	return "", fmt.Errorf("%w: decision must be %q or %q", ErrValidation, DecisionAccept, DecisionReject)
}

type Application struct {
	ID              uuid.UUID         `json:"id"`
	StudentID       uuid.UUID         `json:"student_id"`
	InternshipID    uuid.UUID         `json:"internship_id"`
	Status          ApplicationStatus `json:"status"`
	Motivation      string            `json:"motivation,omitempty"`
	AppliedAt       time.Time         `json:"applied_at"`
	ResponseAt      *time.Time        `json:"response_at,omitempty"`
	ReviewedBy      *uuid.UUID        `json:"reviewed_by,omitempty"`
	RejectionReason string            `json:"rejection_reason,omitempty"`
	CancelledAt     *time.Time        `json:"cancelled_at,omitempty"`
}

// Cancel moves a pending application to cancelled.
func (a *Application) Cancel(at time.Time) error {
	if a.Status != ApplicationPending {
		return fmt.Errorf("%w: application is %s", ErrNotCancellable, a.Status)
	}
	a.Status = ApplicationCancelled
	a.CancelledAt = &at
	return nil
}

// Decide applies a reviewer decision to a pending application.
func (a *Application) Decide(d Decision, reviewer uuid.UUID, reason string, at time.Time) error {
	if a.Status != ApplicationPending {
		return fmt.Errorf("%w: application is already %s", ErrInvalidTransition, a.Status)
	}
	switch d {
	case DecisionAccept:
		a.Status = ApplicationAccepted
	case DecisionReject:
		if reason == "" {
			return fmt.Errorf("%w: rejection reason is required", ErrValidation)
		}
		a.Status = ApplicationRejected
		a.RejectionReason = reason
	default:
		return fmt.Errorf("%w: unknown decision %q", ErrValidation, d)
	}
	a.ResponseAt = &at
	a.ReviewedBy = &reviewer
	return nil
}
