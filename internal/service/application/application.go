package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/medstage_backend/internal/domain"
	"github.com/Alijeyrad/medstage_backend/internal/service/dispatch"
	"github.com/Alijeyrad/medstage_backend/internal/store"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type DecideRequest struct {
	Decision        string
	RejectionReason string
}

type ListFilter struct {
	InternshipID *uuid.UUID
	Status       *domain.ApplicationStatus
	Limit        int
	Offset       int
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	Apply(ctx context.Context, actor domain.Actor, internshipID uuid.UUID, motivation string) (*domain.Application, error)
	Cancel(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Application, error)
	Decide(ctx context.Context, actor domain.Actor, id uuid.UUID, req DecideRequest) (*domain.Application, error)
	Get(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Application, error)
	List(ctx context.Context, actor domain.Actor, f ListFilter) ([]*domain.Application, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type applicationService struct {
	st     store.Store
	notify dispatch.Dispatcher
	now    func() time.Time
}

func New(st store.Store, notify dispatch.Dispatcher) Service {
	return &applicationService{st: st, notify: notify, now: time.Now}
}

// Apply locks the internship row so capacity and the duplicate check are read
// consistently with concurrent applications and decisions.
func (s *applicationService) Apply(ctx context.Context, actor domain.Actor, internshipID uuid.UUID, motivation string) (*domain.Application, error) {
	if err := actor.Require(domain.RoleStudent); err != nil {
		return nil, err
	}

	var (
		app *domain.Application
		in  *domain.Internship
	)
	err := s.st.WithTx(ctx, func(tx store.Store) error {
		var err error
		in, err = tx.Internships().GetForUpdate(ctx, internshipID)
		if err != nil {
			return storeErr("get internship", err, ErrInternshipNotFound)
		}

		switch {
		case in.Status == domain.InternshipClosed || in.Status == domain.InternshipArchived:
			return fmt.Errorf("%w: %w", ErrUnavailable, domain.ErrInvalidTransition)
		case !in.AcceptsApplications():
			return fmt.Errorf("%w: %w", ErrUnavailable, domain.ErrCapacityExceeded)
		}

		_, err = tx.Applications().FindActive(ctx, actor.UserID, internshipID)
		switch {
		case err == nil:
			return fmt.Errorf("%w: already applied to this internship", domain.ErrDuplicateApplication)
		case !errors.Is(err, store.ErrNotFound):
			return storeErr("find application", err, ErrNotFound)
		}

		app = &domain.Application{
			ID:           domain.NewID(),
			StudentID:    actor.UserID,
			InternshipID: internshipID,
			Status:       domain.ApplicationPending,
			Motivation:   strings.TrimSpace(motivation),
			AppliedAt:    s.now().UTC(),
		}
		if err := tx.Applications().Create(ctx, app); err != nil {
			return storeErr("create application", err, ErrInternshipNotFound)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify.Notify(ctx, dispatch.ChiefOr(in.ChiefID), dispatch.NewApplication(app, in))
	s.notify.Notify(ctx, dispatch.ToUsers(app.StudentID), dispatch.ApplicationSubmitted(app, in))
	return app, nil
}

func (s *applicationService) Cancel(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Application, error) {
	if err := actor.Require(domain.RoleStudent); err != nil {
		return nil, err
	}

	var app *domain.Application
	err := s.st.WithTx(ctx, func(tx store.Store) error {
		var err error
		app, err = tx.Applications().GetForUpdate(ctx, id)
		if err != nil {
			return storeErr("get application", err, ErrNotFound)
		}
		if app.StudentID != actor.UserID {
			return ErrNotFound
		}
		if err := app.Cancel(s.now().UTC()); err != nil {
			return err
		}
		if err := tx.Applications().Update(ctx, app); err != nil {
			return storeErr("update application", err, ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return app, nil
}

// Decide locks the internship before the application, the same order Apply
// uses, and re-reads capacity under that lock before accepting.
func (s *applicationService) Decide(ctx context.Context, actor domain.Actor, id uuid.UUID, req DecideRequest) (*domain.Application, error) {
	if err := actor.Require(domain.RoleServiceChief, domain.RoleDean); err != nil {
		return nil, err
	}
	decision, err := domain.ParseDecision(req.Decision)
	if err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(req.RejectionReason)
	if decision == domain.DecisionReject && reason == "" {
		return nil, fmt.Errorf("%w: rejection reason is required", domain.ErrValidation)
	}

	var (
		app     *domain.Application
		in      *domain.Internship
		nowFull bool
	)
	err = s.st.WithTx(ctx, func(tx store.Store) error {
		peek, err := tx.Applications().Get(ctx, id)
		if err != nil {
			return storeErr("get application", err, ErrNotFound)
		}

		in, err = tx.Internships().GetForUpdate(ctx, peek.InternshipID)
		if err != nil {
			return storeErr("get internship", err, ErrInternshipNotFound)
		}
		app, err = tx.Applications().GetForUpdate(ctx, id)
		if err != nil {
			return storeErr("get application", err, ErrNotFound)
		}

		if !actor.CanManage(in) {
			return fmt.Errorf("%w: not in charge of this internship", domain.ErrUnauthorized)
		}
		if decision == domain.DecisionAccept && app.Status == domain.ApplicationPending {
			switch {
			case in.Status == domain.InternshipClosed || in.Status == domain.InternshipArchived:
				return fmt.Errorf("%w: internship is %s", domain.ErrInvalidTransition, in.Status)
			case !in.HasRoom():
				return fmt.Errorf("%w: all %d places are filled", domain.ErrCapacityExceeded, in.TotalPlaces)
			}
		}

		now := s.now().UTC()
		if err := app.Decide(decision, actor.UserID, reason, now); err != nil {
			return err
		}
		if err := tx.Applications().Update(ctx, app); err != nil {
			return storeErr("update application", err, ErrNotFound)
		}

		if decision == domain.DecisionAccept {
			in.FilledPlaces++
			changed := in.RecomputeCapacityStatus()
			nowFull = changed && in.Status == domain.InternshipFull
			in.UpdatedAt = now
			if err := tx.Internships().Update(ctx, in); err != nil {
				return storeErr("update internship", err, ErrInternshipNotFound)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify.Notify(ctx, dispatch.ToUsers(app.StudentID), dispatch.ApplicationDecided(app, in))
	if nowFull {
		s.notify.Notify(ctx, dispatch.ToRole(domain.RoleStudent), dispatch.InternshipFull(in))
	}
	return app, nil
}

func (s *applicationService) Get(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Application, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}

	app, err := s.st.Applications().Get(ctx, id)
	if err != nil {
		return nil, storeErr("get application", err, ErrNotFound)
	}

	switch {
	case actor.Is(domain.RoleStudent):
		if app.StudentID != actor.UserID {
			return nil, ErrNotFound
		}
	case actor.Is(domain.RoleServiceChief) || actor.Is(domain.RoleDean):
		in, err := s.st.Internships().Get(ctx, app.InternshipID)
		if err != nil {
			return nil, storeErr("get internship", err, ErrInternshipNotFound)
		}
		if !actor.CanManage(in) {
			return nil, ErrNotFound
		}
	default:
		return nil, fmt.Errorf("%w: role %s may not read applications", domain.ErrUnauthorized, actor.Role)
	}
	return app, nil
}

func (s *applicationService) List(ctx context.Context, actor domain.Actor, f ListFilter) ([]*domain.Application, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	if f.Limit < 0 || f.Offset < 0 {
		return nil, fmt.Errorf("%w: limit and offset must not be negative", domain.ErrValidation)
	}

	filter := store.ApplicationFilter{
		InternshipID: f.InternshipID,
		Limit:        f.Limit,
		Offset:       f.Offset,
	}
	if f.Status != nil {
		filter.Statuses = []domain.ApplicationStatus{*f.Status}
	}

	switch {
	case actor.Is(domain.RoleStudent):
		filter.StudentID = &actor.UserID
	case actor.Is(domain.RoleServiceChief):
		filter.ManagedBy = &actor.UserID
	case actor.Is(domain.RoleDean):
	default:
		return nil, fmt.Errorf("%w: role %s may not list applications", domain.ErrUnauthorized, actor.Role)
	}

	list, err := s.st.Applications().List(ctx, filter)
	if err != nil {
		return nil, storeErr("list applications", err, ErrNotFound)
	}
	return list, nil
}
