package evaluation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
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

type ScoresRequest struct {
	Attendance           *int
	PracticalSkills      *int
	ProfessionalBehavior *int
	Comments             *string
}

func (r ScoresRequest) scores() domain.Scores {
	return domain.Scores{
		Attendance:           r.Attendance,
		PracticalSkills:      r.PracticalSkills,
		ProfessionalBehavior: r.ProfessionalBehavior,
	}
}

type ListFilter struct {
	InternshipID *uuid.UUID
	Status       *domain.EvaluationStatus
	Limit        int
	Offset       int
}

type Options struct {
	// ResendAfter is the minimum gap between two automatic reminders.
	ResendAfter time.Duration
	// BatchSize caps how many reminders one SendDueReminders run sends.
	BatchSize int
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	Open(ctx context.Context, actor domain.Actor, applicationID uuid.UUID) (*domain.Evaluation, error)
	SaveDraft(ctx context.Context, actor domain.Actor, id uuid.UUID, req ScoresRequest) (*domain.Evaluation, error)
	Submit(ctx context.Context, actor domain.Actor, id uuid.UUID, req ScoresRequest) (*domain.Evaluation, error)
	Validate(ctx context.Context, actor domain.Actor, id uuid.UUID, chiefComments string) (*domain.Evaluation, error)
	Remind(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Evaluation, error)
	SendDueReminders(ctx context.Context, now time.Time) (int, error)
	Get(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Evaluation, error)
	List(ctx context.Context, actor domain.Actor, f ListFilter) ([]*domain.Evaluation, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type evaluationService struct {
	st     store.Store
	notify dispatch.Dispatcher
	opts   Options
	now    func() time.Time
}

func New(st store.Store, notify dispatch.Dispatcher, opts Options) Service {
	if opts.ResendAfter <= 0 {
		opts.ResendAfter = 72 * time.Hour
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	return &evaluationService{st: st, notify: notify, opts: opts, now: time.Now}
}

// Open finds or creates the calling doctor's evaluation for an accepted
// application. Any doctor may open one; the evaluation then belongs to them.
func (s *evaluationService) Open(ctx context.Context, actor domain.Actor, applicationID uuid.UUID) (*domain.Evaluation, error) {
	if err := actor.Require(domain.RoleDoctor); err != nil {
		return nil, err
	}

	app, err := s.st.Applications().Get(ctx, applicationID)
	if err != nil {
		return nil, storeErr("get application", err, ErrApplicationNotFound)
	}
	if app.Status != domain.ApplicationAccepted {
		return nil, fmt.Errorf("%w: only accepted applications can be evaluated", domain.ErrValidation)
	}
	in, err := s.st.Internships().Get(ctx, app.InternshipID)
	if err != nil {
		return nil, storeErr("get internship", err, ErrInternshipNotFound)
	}

	existing, err := s.st.Evaluations().FindByKey(ctx, app.StudentID, app.InternshipID, actor.UserID)
	switch {
	case err == nil:
		return existing, nil
	case !errors.Is(err, store.ErrNotFound):
		return nil, storeErr("find evaluation", err, ErrNotFound)
	}

	now := s.now().UTC()
	ev := &domain.Evaluation{
		ID:            domain.NewID(),
		ApplicationID: app.ID,
		StudentID:     app.StudentID,
		InternshipID:  app.InternshipID,
		DoctorID:      actor.UserID,
		Status:        domain.EvaluationPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.st.Evaluations().Create(ctx, ev); err != nil {
		if errors.Is(err, store.ErrConflict) {
			// Lost a race with a concurrent Open; return the winner's row.
			existing, ferr := s.st.Evaluations().FindByKey(ctx, app.StudentID, app.InternshipID, actor.UserID)
			if ferr != nil {
				return nil, storeErr("find evaluation", ferr, ErrNotFound)
			}
			return existing, nil
		}
		return nil, storeErr("create evaluation", err, ErrApplicationNotFound)
	}

	s.notify.Notify(ctx, dispatch.ToUsers(ev.StudentID), dispatch.EvaluationStarted(ev, in))
	return ev, nil
}

// edit runs fn on the locked evaluation of its assigned doctor and persists it.
func (s *evaluationService) edit(ctx context.Context, actor domain.Actor, id uuid.UUID, fn func(*domain.Evaluation, time.Time) error) (*domain.Evaluation, error) {
	if err := actor.Require(domain.RoleDoctor); err != nil {
		return nil, err
	}

	var ev *domain.Evaluation
	err := s.st.WithTx(ctx, func(tx store.Store) error {
		var err error
		ev, err = tx.Evaluations().GetForUpdate(ctx, id)
		if err != nil {
			return storeErr("get evaluation", err, ErrNotFound)
		}
		if ev.DoctorID != actor.UserID {
			return fmt.Errorf("%w: evaluation is assigned to another doctor", domain.ErrUnauthorized)
		}
		if err := fn(ev, s.now().UTC()); err != nil {
			return err
		}
		if err := tx.Evaluations().Update(ctx, ev); err != nil {
			return storeErr("update evaluation", err, ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ev, nil
}

func (s *evaluationService) SaveDraft(ctx context.Context, actor domain.Actor, id uuid.UUID, req ScoresRequest) (*domain.Evaluation, error) {
	return s.edit(ctx, actor, id, func(ev *domain.Evaluation, now time.Time) error {
		return ev.SaveDraft(req.scores(), req.Comments, now)
	})
}

func (s *evaluationService) Submit(ctx context.Context, actor domain.Actor, id uuid.UUID, req ScoresRequest) (*domain.Evaluation, error) {
	ev, err := s.edit(ctx, actor, id, func(ev *domain.Evaluation, now time.Time) error {
		sc := req.scores()
		// Sub-scores left out of the request fall back to the saved draft.
		sc.Attendance = lo.CoalesceOrEmpty(sc.Attendance, ev.Attendance)
		sc.PracticalSkills = lo.CoalesceOrEmpty(sc.PracticalSkills, ev.PracticalSkills)
		sc.ProfessionalBehavior = lo.CoalesceOrEmpty(sc.ProfessionalBehavior, ev.ProfessionalBehavior)
		comments := ev.Comments
		if req.Comments != nil {
			comments = *req.Comments
		}
		return ev.Submit(sc, comments, now)
	})
	if err != nil {
		return nil, err
	}

	in, err := s.st.Internships().Get(ctx, ev.InternshipID)
	if err != nil {
		slog.Warn("evaluation: internship lookup for notification failed", "evaluation_id", ev.ID, "err", err)
		return ev, nil
	}
	s.notify.Notify(ctx, dispatch.ToUsers(ev.StudentID), dispatch.EvaluationSubmitted(ev, in))
	s.notify.Notify(ctx, dispatch.ChiefOr(in.ChiefID), dispatch.EvaluationAwaitingValidation(ev, in))
	return ev, nil
}

// supervise runs fn on the locked evaluation for a chief or dean in charge of its internship.
func (s *evaluationService) supervise(ctx context.Context, actor domain.Actor, id uuid.UUID, fn func(*domain.Evaluation, time.Time) error) (*domain.Evaluation, *domain.Internship, error) {
	if err := actor.Require(domain.RoleServiceChief, domain.RoleDean); err != nil {
		return nil, nil, err
	}

	var (
		ev *domain.Evaluation
		in *domain.Internship
	)
	err := s.st.WithTx(ctx, func(tx store.Store) error {
		var err error
		ev, err = tx.Evaluations().GetForUpdate(ctx, id)
		if err != nil {
			return storeErr("get evaluation", err, ErrNotFound)
		}
		in, err = tx.Internships().Get(ctx, ev.InternshipID)
		if err != nil {
			return storeErr("get internship", err, ErrInternshipNotFound)
		}
		if !actor.CanManage(in) {
			return fmt.Errorf("%w: not in charge of this internship", domain.ErrUnauthorized)
		}
		if err := fn(ev, s.now().UTC()); err != nil {
			return err
		}
		if err := tx.Evaluations().Update(ctx, ev); err != nil {
			return storeErr("update evaluation", err, ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return ev, in, nil
}

func (s *evaluationService) Validate(ctx context.Context, actor domain.Actor, id uuid.UUID, chiefComments string) (*domain.Evaluation, error) {
	ev, in, err := s.supervise(ctx, actor, id, func(ev *domain.Evaluation, now time.Time) error {
		return ev.Validate(actor.UserID, strings.TrimSpace(chiefComments), now)
	})
	if err != nil {
		return nil, err
	}

	s.notify.Notify(ctx, dispatch.ToUsers(ev.DoctorID), dispatch.EvaluationValidated(ev, in))
	return ev, nil
}

func (s *evaluationService) Remind(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Evaluation, error) {
	ev, in, err := s.supervise(ctx, actor, id, func(ev *domain.Evaluation, now time.Time) error {
		if ev.Submitted() {
			return fmt.Errorf("%w: evaluation is already submitted", domain.ErrInvalidTransition)
		}
		ev.RemindedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify.Notify(ctx, dispatch.ToUsers(ev.DoctorID), dispatch.EvaluationReminder(ev, in))
	return ev, nil
}

// SendDueReminders reminds doctors of open evaluations on internships that
// have ended. Each evaluation is reminded at most once per resend window.
func (s *evaluationService) SendDueReminders(ctx context.Context, now time.Time) (int, error) {
	now = now.UTC()
	cutoff := now.Add(-s.opts.ResendAfter)
	due, err := s.st.Evaluations().ListDueForReminder(ctx, now, cutoff, s.opts.BatchSize)
	if err != nil {
		return 0, storeErr("list due evaluations", err, ErrNotFound)
	}

	internships := map[uuid.UUID]*domain.Internship{}
	sent := 0
	for _, ev := range due {
		in, ok := internships[ev.InternshipID]
		if !ok {
			in, err = s.st.Internships().Get(ctx, ev.InternshipID)
			if err != nil {
				slog.Warn("evaluation: reminder skipped", "evaluation_id", ev.ID, "err", err)
				continue
			}
			internships[ev.InternshipID] = in
		}

		stamped, err := s.stampReminder(ctx, ev.ID, now, cutoff)
		if err != nil {
			slog.Warn("evaluation: stamping reminder failed", "evaluation_id", ev.ID, "err", err)
			continue
		}
		if stamped == nil {
			continue
		}
		s.notify.Notify(ctx, dispatch.ToUsers(stamped.DoctorID), dispatch.EvaluationReminder(stamped, in))
		sent++
	}
	return sent, nil
}

// stampReminder sets reminded_at on the locked row. It returns nil when the
// evaluation was submitted or reminded since it was listed.
func (s *evaluationService) stampReminder(ctx context.Context, id uuid.UUID, now, cutoff time.Time) (*domain.Evaluation, error) {
	var out *domain.Evaluation
	err := s.st.WithTx(ctx, func(tx store.Store) error {
		ev, err := tx.Evaluations().GetForUpdate(ctx, id)
		if err != nil {
			return storeErr("get evaluation", err, ErrNotFound)
		}
		if ev.Submitted() || (ev.RemindedAt != nil && !ev.RemindedAt.Before(cutoff)) {
			return nil
		}
		ev.RemindedAt = &now
		ev.UpdatedAt = now
		if err := tx.Evaluations().Update(ctx, ev); err != nil {
			return storeErr("update evaluation", err, ErrNotFound)
		}
		out = ev
		return nil
	})
	return out, err
}

func (s *evaluationService) Get(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Evaluation, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}

	ev, err := s.st.Evaluations().Get(ctx, id)
	if err != nil {
		return nil, storeErr("get evaluation", err, ErrNotFound)
	}

	switch {
	case actor.Is(domain.RoleStudent):
		if ev.StudentID != actor.UserID {
			return nil, ErrNotFound
		}
	case actor.Is(domain.RoleDoctor):
		if ev.DoctorID != actor.UserID {
			return nil, ErrNotFound
		}
	default:
		in, err := s.st.Internships().Get(ctx, ev.InternshipID)
		if err != nil {
			return nil, storeErr("get internship", err, ErrInternshipNotFound)
		}
		if !actor.CanManage(in) {
			return nil, ErrNotFound
		}
	}
	return ev, nil
}

func (s *evaluationService) List(ctx context.Context, actor domain.Actor, f ListFilter) ([]*domain.Evaluation, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	if f.Limit < 0 || f.Offset < 0 {
		return nil, fmt.Errorf("%w: limit and offset must not be negative", domain.ErrValidation)
	}

	filter := store.EvaluationFilter{
		InternshipID: f.InternshipID,
		Limit:        f.Limit,
		Offset:       f.Offset,
	}
	if f.Status != nil {
		filter.Statuses = []domain.EvaluationStatus{*f.Status}
	}

	switch {
	case actor.Is(domain.RoleStudent):
		filter.StudentID = &actor.UserID
	case actor.Is(domain.RoleDoctor):
		filter.DoctorID = &actor.UserID
	case actor.Is(domain.RoleServiceChief):
		filter.ManagedBy = &actor.UserID
	}

	list, err := s.st.Evaluations().List(ctx, filter)
	if err != nil {
		return nil, storeErr("list evaluations", err, ErrNotFound)
	}
	return list, nil
}
