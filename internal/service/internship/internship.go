package internship

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/Alijeyrad/medstage_backend/internal/domain"
	"github.com/Alijeyrad/medstage_backend/internal/service/dispatch"
	"github.com/Alijeyrad/medstage_backend/internal/store"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type CreateRequest struct {
	Title           string
	Description     string
	DepartmentID    uuid.UUID
	EstablishmentID uuid.UUID // optional; taken from the department when empty
	ChiefID         *uuid.UUID
	TotalPlaces     int
	StartDate       time.Time
	EndDate         time.Time
	Requirements    []string
}

type UpdateRequest struct {
	Title        *string
	Description  *string
	ChiefID      *uuid.UUID
	TotalPlaces  *int
	StartDate    *time.Time
	EndDate      *time.Time
	Requirements []string
}

type ListFilter struct {
	Status       *domain.InternshipStatus
	DepartmentID *uuid.UUID
	ChiefID      *uuid.UUID
	Limit        int
	Offset       int
}

// View is an internship as one actor sees it.
type View struct {
	*domain.Internship
	HasApplied *bool `json:"has_applied,omitempty"`
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	Create(ctx context.Context, actor domain.Actor, req CreateRequest) (*domain.Internship, error)
	CloseOrArchive(ctx context.Context, actor domain.Actor, id uuid.UUID, to domain.InternshipStatus) (*domain.Internship, error)
	Update(ctx context.Context, actor domain.Actor, id uuid.UUID, req UpdateRequest) (*domain.Internship, error)
	Delete(ctx context.Context, actor domain.Actor, id uuid.UUID) error
	Get(ctx context.Context, actor domain.Actor, id uuid.UUID) (*View, error)
	List(ctx context.Context, actor domain.Actor, f ListFilter) ([]*View, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type internshipService struct {
	st     store.Store
	notify dispatch.Dispatcher
	now    func() time.Time
}

func New(st store.Store, notify dispatch.Dispatcher) Service {
	return &internshipService{st: st, notify: notify, now: time.Now}
}

func (s *internshipService) Create(ctx context.Context, actor domain.Actor, req CreateRequest) (*domain.Internship, error) {
	if err := actor.Require(domain.RoleServiceChief, domain.RoleDean); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	in := &domain.Internship{
		ID:           domain.NewID(),
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		DepartmentID: req.DepartmentID,
		ChiefID:      req.ChiefID,
		CreatedBy:    actor.UserID,
		TotalPlaces:  req.TotalPlaces,
		Status:       domain.InternshipActive,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		Requirements: domain.CleanRequirements(req.Requirements),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if in.ChiefID == nil && actor.Is(domain.RoleServiceChief) {
		in.ChiefID = &actor.UserID
	}

	err := s.st.WithTx(ctx, func(tx store.Store) error {
		dep, err := tx.Departments().GetDepartment(ctx, req.DepartmentID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrDepartmentNotFound
		}
		if err != nil {
			return storeErr("get department", err)
		}
		switch {
		case req.EstablishmentID == uuid.Nil:
			in.EstablishmentID = dep.EstablishmentID
		case req.EstablishmentID != dep.EstablishmentID:
			return fmt.Errorf("%w: department does not belong to the establishment", domain.ErrValidation)
		default:
			in.EstablishmentID = req.EstablishmentID
		}
		if err := in.Validate(); err != nil {
			return err
		}
		if err := tx.Internships().Create(ctx, in); err != nil {
			return storeErr("create internship", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify.Notify(ctx, dispatch.ToRole(domain.RoleStudent), dispatch.InternshipCreated(in))
	return in, nil
}

// CloseOrArchive applies a manual status change. Moving between active and
// full must agree with the filled places.
func (s *internshipService) CloseOrArchive(ctx context.Context, actor domain.Actor, id uuid.UUID, to domain.InternshipStatus) (*domain.Internship, error) {
	if err := actor.Require(domain.RoleServiceChief, domain.RoleDean); err != nil {
		return nil, err
	}

	var in *domain.Internship
	err := s.st.WithTx(ctx, func(tx store.Store) error {
		var err error
		in, err = tx.Internships().GetForUpdate(ctx, id)
		if err != nil {
			return storeErr("get internship", err)
		}
		if !actor.CanManage(in) {
			return fmt.Errorf("%w: not in charge of this internship", domain.ErrUnauthorized)
		}
		if !in.Status.CanTransition(to) {
			return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, in.Status, to)
		}
		switch {
		case to == domain.InternshipFull && in.HasRoom():
			return fmt.Errorf("%w: internship still has %d free places", domain.ErrInvalidTransition, in.TotalPlaces-in.FilledPlaces)
		case to == domain.InternshipActive && !in.HasRoom():
			return fmt.Errorf("%w: internship has no free place", domain.ErrInvalidTransition)
		}

		in.Status = to
		in.UpdatedAt = s.now().UTC()
		if err := tx.Internships().Update(ctx, in); err != nil {
			return storeErr("update internship", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	switch to {
	case domain.InternshipFull:
		s.notify.Notify(ctx, dispatch.ToRole(domain.RoleStudent), dispatch.InternshipFull(in))
	case domain.InternshipClosed:
		s.notify.Notify(ctx, dispatch.ToRole(domain.RoleStudent), dispatch.InternshipClosed(in))
	}
	return in, nil
}

func (s *internshipService) Update(ctx context.Context, actor domain.Actor, id uuid.UUID, req UpdateRequest) (*domain.Internship, error) {
	if err := actor.Require(domain.RoleServiceChief, domain.RoleDean); err != nil {
		return nil, err
	}

	var (
		in      *domain.Internship
		changed bool
	)
	err := s.st.WithTx(ctx, func(tx store.Store) error {
		var err error
		in, err = tx.Internships().GetForUpdate(ctx, id)
		if err != nil {
			return storeErr("get internship", err)
		}
		if !actor.CanManage(in) {
			return fmt.Errorf("%w: not in charge of this internship", domain.ErrUnauthorized)
		}

		if req.Title != nil {
			in.Title = strings.TrimSpace(*req.Title)
		}
		if req.Description != nil {
			in.Description = *req.Description
		}
		if req.ChiefID != nil {
			in.ChiefID = req.ChiefID
		}
		if req.StartDate != nil {
			in.StartDate = *req.StartDate
		}
		if req.EndDate != nil {
			in.EndDate = *req.EndDate
		}
		if req.Requirements != nil {
			in.Requirements = domain.CleanRequirements(req.Requirements)
		}
		if req.TotalPlaces != nil {
			if *req.TotalPlaces < in.FilledPlaces {
				return fmt.Errorf("%w: total places cannot go below the %d filled places", domain.ErrValidation, in.FilledPlaces)
			}
			in.TotalPlaces = *req.TotalPlaces
		}
		if err := in.Validate(); err != nil {
			return err
		}

		changed = in.RecomputeCapacityStatus()
		in.UpdatedAt = s.now().UTC()
		if err := tx.Internships().Update(ctx, in); err != nil {
			return storeErr("update internship", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		switch in.Status {
		case domain.InternshipActive:
			s.notify.Notify(ctx, dispatch.ToRole(domain.RoleStudent), dispatch.InternshipReopened(in))
		case domain.InternshipFull:
			s.notify.Notify(ctx, dispatch.ToRole(domain.RoleStudent), dispatch.InternshipFull(in))
		}
	}
	return in, nil
}

// Delete removes the internship with its evaluations and applications.
func (s *internshipService) Delete(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	if err := actor.Require(domain.RoleDean); err != nil {
		return err
	}

	return s.st.WithTx(ctx, func(tx store.Store) error {
		if _, err := tx.Internships().GetForUpdate(ctx, id); err != nil {
			return storeErr("get internship", err)
		}
		if _, err := tx.Evaluations().DeleteByInternship(ctx, id); err != nil {
			return storeErr("delete evaluations", err)
		}
		if _, err := tx.Applications().DeleteByInternship(ctx, id); err != nil {
			return storeErr("delete applications", err)
		}
		if err := tx.Internships().Delete(ctx, id); err != nil {
			return storeErr("delete internship", err)
		}
		return nil
	})
}

func (s *internshipService) Get(ctx context.Context, actor domain.Actor, id uuid.UUID) (*View, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}

	in, err := s.st.Internships().Get(ctx, id)
	if err != nil {
		return nil, storeErr("get internship", err)
	}
	if actor.Is(domain.RoleStudent) && !in.Status.Listed() {
		return nil, ErrNotFound
	}

	views, err := s.views(ctx, actor, []*domain.Internship{in})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

func (s *internshipService) List(ctx context.Context, actor domain.Actor, f ListFilter) ([]*View, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	if f.Limit < 0 || f.Offset < 0 {
		return nil, fmt.Errorf("%w: limit and offset must not be negative", domain.ErrValidation)
	}

	filter := store.InternshipFilter{
		DepartmentID: f.DepartmentID,
		ManagedBy:    f.ChiefID,
		Limit:        f.Limit,
		Offset:       f.Offset,
	}
	if f.Status != nil {
		filter.Statuses = []domain.InternshipStatus{*f.Status}
	}
	if actor.Is(domain.RoleStudent) {
		listed := []domain.InternshipStatus{domain.InternshipActive, domain.InternshipFull}
		if len(filter.Statuses) > 0 {
			filter.Statuses = lo.Intersect(filter.Statuses, listed)
			if len(filter.Statuses) == 0 {
				return []*View{}, nil
			}
		} else {
			filter.Statuses = listed
		}
	}

	list, err := s.st.Internships().List(ctx, filter)
	if err != nil {
		return nil, storeErr("list internships", err)
	}
	return s.views(ctx, actor, list)
}

// views adds has_applied for students.
func (s *internshipService) views(ctx context.Context, actor domain.Actor, list []*domain.Internship) ([]*View, error) {
	out := make([]*View, 0, len(list))
	for _, in := range list {
		v := &View{Internship: in}
		if actor.Is(domain.RoleStudent) {
			_, err := s.st.Applications().FindActive(ctx, actor.UserID, in.ID)
			switch {
			case err == nil:
				v.HasApplied = lo.ToPtr(true)
			case errors.Is(err, store.ErrNotFound):
				v.HasApplied = lo.ToPtr(false)
			default:
				return nil, storeErr("find application", err)
			}
		}
		out = append(out, v)
	}
	return out, nil
}
