package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type InternshipStatus string

const (
	InternshipActive   InternshipStatus = "active"
	InternshipFull     InternshipStatus = "full"
	InternshipArchived InternshipStatus = "archived"
	InternshipClosed   InternshipStatus = "closed"
)

// internshipEdges lists the allowed manual transitions keyed by the current status.
// closed and archived have no outgoing edges.
var internshipEdges = map[InternshipStatus][]InternshipStatus{
	InternshipActive: {InternshipFull, InternshipClosed, InternshipArchived},
	InternshipFull:   {InternshipActive, InternshipClosed, InternshipArchived},
}

func ParseInternshipStatus(s string) (InternshipStatus, error) {
	st := InternshipStatus(s)
	switch st {
	case InternshipActive, InternshipFull, InternshipArchived, InternshipClosed:
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown internship status %q", ErrValidation, s)
}

// CanTransition reports whether from -> to is an edge of the internship state machine.
func (from InternshipStatus) CanTransition(to InternshipStatus) bool {
	return lo.Contains(internshipEdges[from], to)
}

// Open reports whether students may still apply in this status.
func (s InternshipStatus) Open() bool { return s == InternshipActive }

// Listed reports whether students can see internships in this status.
func (s InternshipStatus) Listed() bool { return s == InternshipActive || s == InternshipFull }

type Internship struct {
	ID              uuid.UUID        `json:"id"`
	Title           string           `json:"title"`
	Description     string           `json:"description"`
	DepartmentID    uuid.UUID        `json:"department_id"`
	EstablishmentID uuid.UUID        `json:"establishment_id"`
	ChiefID         *uuid.UUID       `json:"chief_id,omitempty"`
	CreatedBy       uuid.UUID        `json:"created_by"`
	TotalPlaces     int              `json:"total_places"`
	FilledPlaces    int              `json:"filled_places"`
	Status          InternshipStatus `json:"status"`
	StartDate       time.Time        `json:"start_date"`
	EndDate         time.Time        `json:"end_date"`
	Requirements    []string         `json:"requirements"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// HasRoom reports whether one more application can be accepted.
func (i *Internship) HasRoom() bool { return i.FilledPlaces < i.TotalPlaces }

// AcceptsApplications reports whether a student may apply right now.
func (i *Internship) AcceptsApplications() bool { return i.Status.Open() && i.HasRoom() }

// ManagedBy reports whether userID is the assigned chief or the creator.
func (i *Internship) ManagedBy(userID uuid.UUID) bool {
	if i.ChiefID != nil && *i.ChiefID == userID {
		return true
	}
	return i.CreatedBy == userID
}

// RecomputeCapacityStatus keeps status in line with filled places. It returns
// true when the status changed. closed and archived are left as they are.
func (i *Internship) RecomputeCapacityStatus() bool {
	switch {
	case i.Status == InternshipActive && i.FilledPlaces >= i.TotalPlaces:
		i.Status = InternshipFull
		return true
	case i.Status == InternshipFull && i.FilledPlaces < i.TotalPlaces:
		i.Status = InternshipActive
		return true
	}
	return false
}

// Validate checks the fields a caller controls.
func (i *Internship) Validate() error {
	switch {
	case strings.TrimSpace(i.Title) == "":
		return fmt.Errorf("%w: title is required", ErrValidation)
	case i.TotalPlaces <= 0:
		return fmt.Errorf("%w: total places must be positive", ErrValidation)
	case i.FilledPlaces < 0 || i.FilledPlaces > i.TotalPlaces:
		return fmt.Errorf("%w: filled places must be between 0 and %d", ErrValidation, i.TotalPlaces)
	case i.StartDate.IsZero() || i.EndDate.IsZero():
		return fmt.Errorf("%w: start and end dates are required", ErrValidation)
	case !i.StartDate.Before(i.EndDate):
		return fmt.Errorf("%w: start date must be before end date", ErrValidation)
	case i.DepartmentID == uuid.Nil || i.EstablishmentID == uuid.Nil:
		return fmt.Errorf("%w: department and establishment are required", ErrValidation)
	}
	return nil
}

// ParseRequirements splits a comma separated list, dropping blanks.
func ParseRequirements(s string) []string {
	return CleanRequirements(strings.Split(s, ","))
}

// CleanRequirements trims each entry and drops the blank ones.
func CleanRequirements(in []string) []string {
	return lo.Compact(lo.Map(in, func(p string, _ int) string {
		return strings.TrimSpace(p)
	}))
}
