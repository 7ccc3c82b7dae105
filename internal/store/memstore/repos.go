package memstore

import (
	"bytes"
	"context"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/medstage_backend/internal/domain"
	"github.com/Alijeyrad/medstage_backend/internal/store"
)

// ---------------------------------------------------------------------------
// users and departments
// ---------------------------------------------------------------------------

type userRepo struct{ v view }

func (r userRepo) Create(_ context.Context, u *domain.User) error {
	return r.v.run(func(s *state) error {
		if _, ok := s.users[u.ID]; ok {
			return store.ErrConflict
		}
		s.users[u.ID] = *u
		return nil
	})
}

func (r userRepo) Get(_ context.Context, id uuid.UUID) (*domain.User, error) {
	var out *domain.User
	err := r.v.run(func(s *state) error {
		u, ok := s.users[id]
		if !ok {
			return store.ErrNotFound
		}
		out = &u
		return nil
	})
	return out, err
}

func (r userRepo) ListIDsByRole(_ context.Context, role domain.Role) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.v.run(func(s *state) error {
		for id, u := range s.users {
			if u.Role == role {
				ids = append(ids, id)
			}
		}
		return nil
	})
	slices.SortFunc(ids, func(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) })
	return ids, err
}

type departmentRepo struct{ v view }

func (r departmentRepo) CreateEstablishment(_ context.Context, e *domain.Establishment) error {
	return r.v.run(func(s *state) error {
		if _, ok := s.establishments[e.ID]; ok {
			return store.ErrConflict
		}
		s.establishments[e.ID] = *e
		return nil
	})
}

func (r departmentRepo) CreateDepartment(_ context.Context, d *domain.Department) error {
	return r.v.run(func(s *state) error {
		if _, ok := s.departments[d.ID]; ok {
			return store.ErrConflict
		}
		if _, ok := s.establishments[d.EstablishmentID]; !ok {
			return store.ErrNotFound
		}
		s.departments[d.ID] = *d
		return nil
	})
}

func (r departmentRepo) GetDepartment(_ context.Context, id uuid.UUID) (*domain.Department, error) {
	var out *domain.Department
	err := r.v.run(func(s *state) error {
		d, ok := s.departments[id]
		if !ok {
			return store.ErrNotFound
		}
		out = &d
		return nil
	})
	return out, err
}

// ---------------------------------------------------------------------------
// internships
// ---------------------------------------------------------------------------

type internshipRepo struct{ v view }

func copyInternship(in domain.Internship) *domain.Internship {
	in.Requirements = slices.Clone(in.Requirements)
	return &in
}

func (r internshipRepo) Create(_ context.Context, in *domain.Internship) error {
	return r.v.run(func(s *state) error {
		if _, ok := s.internships[in.ID]; ok {
			return store.ErrConflict
		}
		s.internships[in.ID] = *copyInternship(*in)
		return nil
	})
}

func (r internshipRepo) Get(_ context.Context, id uuid.UUID) (*domain.Internship, error) {
	var out *domain.Internship
	err := r.v.run(func(s *state) error {
		in, ok := s.internships[id]
		if !ok {
			return store.ErrNotFound
		}
		out = copyInternship(in)
		return nil
	})
	return out, err
}

func (r internshipRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Internship, error) {
	return r.Get(ctx, id)
}

func (r internshipRepo) Update(_ context.Context, in *domain.Internship) error {
	return r.v.run(func(s *state) error {
		if _, ok := s.internships[in.ID]; !ok {
			return store.ErrNotFound
		}
		s.internships[in.ID] = *copyInternship(*in)
		return nil
	})
}

func (r internshipRepo) Delete(_ context.Context, id uuid.UUID) error {
	return r.v.run(func(s *state) error {
		if _, ok := s.internships[id]; !ok {
			return store.ErrNotFound
		}
		for _, a := range s.applications {
			if a.InternshipID == id {
				return store.ErrConflict
			}
		}
		for _, e := range s.evaluations {
			if e.InternshipID == id {
				return store.ErrConflict
			}
		}
		delete(s.internships, id)
		return nil
	})
}

func (r internshipRepo) List(_ context.Context, f store.InternshipFilter) ([]*domain.Internship, error) {
	var out []*domain.Internship
	err := r.v.run(func(s *state) error {
		for _, in := range s.internships {
			if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, in.Status) {
				continue
			}
			if f.DepartmentID != nil && in.DepartmentID != *f.DepartmentID {
				continue
			}
			if f.ManagedBy != nil && !in.ManagedBy(*f.ManagedBy) {
				continue
			}
			out = append(out, copyInternship(in))
		}
		return nil
	})
	sortDesc(out, func(in *domain.Internship) (int64, uuid.UUID) { return in.CreatedAt.UnixNano(), in.ID })
	return page(out, f.Limit, f.Offset), err
}

// ---------------------------------------------------------------------------
// applications
// ---------------------------------------------------------------------------

type applicationRepo struct{ v view }

func (r applicationRepo) Create(_ context.Context, a *domain.Application) error {
	return r.v.run(func(s *state) error {
		if _, ok := s.applications[a.ID]; ok {
			return store.ErrConflict
		}
		if _, ok := s.internships[a.InternshipID]; !ok {
			return store.ErrNotFound
		}
		if a.Status.Active() {
			for _, other := range s.applications {
				if other.StudentID == a.StudentID && other.InternshipID == a.InternshipID && other.Status.Active() {
					return store.ErrConflict
				}
			}
		}
		s.applications[a.ID] = *a
		return nil
	})
}

func (r applicationRepo) Get(_ context.Context, id uuid.UUID) (*domain.Application, error) {
	var out *domain.Application
	err := r.v.run(func(s *state) error {
		a, ok := s.applications[id]
		if !ok {
			return store.ErrNotFound
		}
		out = &a
		return nil
	})
	return out, err
}

func (r applicationRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Application, error) {
	return r.Get(ctx, id)
}

func (r applicationRepo) FindActive(_ context.Context, studentID, internshipID uuid.UUID) (*domain.Application, error) {
	var out *domain.Application
	err := r.v.run(func(s *state) error {
		for _, a := range s.applications {
			if a.StudentID == studentID && a.InternshipID == internshipID && a.Status.Active() {
				out = &a
				return nil
			}
		}
		return store.ErrNotFound
	})
	return out, err
}

func (r applicationRepo) Update(_ context.Context, a *domain.Application) error {
	return r.v.run(func(s *state) error {
		if _, ok := s.applications[a.ID]; !ok {
			return store.ErrNotFound
		}
		s.applications[a.ID] = *a
		return nil
	})
}

func (r applicationRepo) List(_ context.Context, f store.ApplicationFilter) ([]*domain.Application, error) {
	var out []*domain.Application
	err := r.v.run(func(s *state) error {
		for _, a := range s.applications {
			if f.StudentID != nil && a.StudentID != *f.StudentID {
				continue
			}
			if f.InternshipID != nil && a.InternshipID != *f.InternshipID {
				continue
			}
			if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, a.Status) {
				continue
			}
			if f.ManagedBy != nil {
				in, ok := s.internships[a.InternshipID]
				if !ok || !in.ManagedBy(*f.ManagedBy) {
					continue
				}
			}
			out = append(out, &a)
		}
		return nil
	})
	sortDesc(out, func(a *domain.Application) (int64, uuid.UUID) { return a.AppliedAt.UnixNano(), a.ID })
	return page(out, f.Limit, f.Offset), err
}

func (r applicationRepo) DeleteByInternship(_ context.Context, internshipID uuid.UUID) (int, error) {
	n := 0
	err := r.v.run(func(s *state) error {
		for id, a := range s.applications {
			if a.InternshipID != internshipID {
				continue
			}
			for _, e := range s.evaluations {
				if e.ApplicationID == id {
					return store.ErrConflict
				}
			}
			delete(s.applications, id)
			n++
		}
		return nil
	})
	return n, err
}

// ---------------------------------------------------------------------------
// evaluations
// ---------------------------------------------------------------------------

type evaluationRepo struct{ v view }

func (r evaluationRepo) Create(_ context.Context, e *domain.Evaluation) error {
	return r.v.run(func(s *state) error {
		if _, ok := s.evaluations[e.ID]; ok {
			return store.ErrConflict
		}
		if _, ok := s.applications[e.ApplicationID]; !ok {
			return store.ErrNotFound
		}
		for _, other := range s.evaluations {
			if other.StudentID == e.StudentID && other.InternshipID == e.InternshipID && other.DoctorID == e.DoctorID {
				return store.ErrConflict
			}
		}
		s.evaluations[e.ID] = *e
		return nil
	})
}

func (r evaluationRepo) Get(_ context.Context, id uuid.UUID) (*domain.Evaluation, error) {
	var out *domain.Evaluation
	err := r.v.run(func(s *state) error {
		e, ok := s.evaluations[id]
		if !ok {
			return store.ErrNotFound
		}
		out = &e
		return nil
	})
	return out, err
}

func (r evaluationRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Evaluation, error) {
	return r.Get(ctx, id)
}

func (r evaluationRepo) FindByKey(_ context.Context, studentID, internshipID, doctorID uuid.UUID) (*domain.Evaluation, error) {
	var out *domain.Evaluation
	err := r.v.run(func(s *state) error {
		for _, e := range s.evaluations {
			if e.StudentID == studentID && e.InternshipID == internshipID && e.DoctorID == doctorID {
				out = &e
				return nil
			}
		}
		return store.ErrNotFound
	})
	return out, err
}

func (r evaluationRepo) Update(_ context.Context, e *domain.Evaluation) error {
	return r.v.run(func(s *state) error {
		if _, ok := s.evaluations[e.ID]; !ok {
			return store.ErrNotFound
		}
		s.evaluations[e.ID] = *e
		return nil
	})
}

func (r evaluationRepo) List(_ context.Context, f store.EvaluationFilter) ([]*domain.Evaluation, error) {
	var out []*domain.Evaluation
	err := r.v.run(func(s *state) error {
		for _, e := range s.evaluations {
			if f.StudentID != nil && e.StudentID != *f.StudentID {
				continue
			}
			if f.DoctorID != nil && e.DoctorID != *f.DoctorID {
				continue
			}
			if f.InternshipID != nil && e.InternshipID != *f.InternshipID {
				continue
			}
			if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, e.Status) {
				continue
			}
			if f.ManagedBy != nil {
				in, ok := s.internships[e.InternshipID]
				if !ok || !in.ManagedBy(*f.ManagedBy) {
					continue
				}
			}
			out = append(out, &e)
		}
		return nil
	})
	sortDesc(out, func(e *domain.Evaluation) (int64, uuid.UUID) { return e.CreatedAt.UnixNano(), e.ID })
	return page(out, f.Limit, f.Offset), err
}

func (r evaluationRepo) ListDueForReminder(_ context.Context, endedBefore, remindedBefore time.Time, limit int) ([]*domain.Evaluation, error) {
	var out []*domain.Evaluation
	err := r.v.run(func(s *state) error {
		for _, e := range s.evaluations {
			if !slices.Contains(domain.OpenEvaluationStatuses, e.Status) {
				continue
			}
			in, ok := s.internships[e.InternshipID]
			if !ok || !in.EndDate.Before(endedBefore) {
				continue
			}
			if e.RemindedAt != nil && !e.RemindedAt.Before(remindedBefore) {
				continue
			}
			out = append(out, &e)
		}
		return nil
	})
	sortDesc(out, func(e *domain.Evaluation) (int64, uuid.UUID) { return -e.CreatedAt.UnixNano(), e.ID })
	return page(out, limit, 0), err
}

func (r evaluationRepo) DeleteByInternship(_ context.Context, internshipID uuid.UUID) (int, error) {
	n := 0
	err := r.v.run(func(s *state) error {
		for id, e := range s.evaluations {
			if e.InternshipID == internshipID {
				delete(s.evaluations, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

// ---------------------------------------------------------------------------
// notifications
// ---------------------------------------------------------------------------

type notificationRepo struct{ v view }

func (r notificationRepo) Create(_ context.Context, n *domain.Notification) error {
	return r.v.run(func(s *state) error {
		if _, ok := s.notifications[n.ID]; ok {
			return store.ErrConflict
		}
		s.notifications[n.ID] = *n
		return nil
	})
}

func (r notificationRepo) ListForUser(_ context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Notification, error) {
	var out []*domain.Notification
	err := r.v.run(func(s *state) error {
		for _, n := range s.notifications {
			if n.UserID == userID {
				out = append(out, &n)
			}
		}
		return nil
	})
	sortDesc(out, func(n *domain.Notification) (int64, uuid.UUID) { return n.CreatedAt.UnixNano(), n.ID })
	return page(out, limit, offset), err
}

func (r notificationRepo) MarkRead(_ context.Context, userID, id uuid.UUID, at time.Time) (bool, error) {
	found := false
	err := r.v.run(func(s *state) error {
		n, ok := s.notifications[id]
		if !ok || n.UserID != userID {
			return nil
		}
		found = true
		if n.IsRead {
			return nil
		}
		n.IsRead = true
		n.ReadAt = &at
		s.notifications[id] = n
		return nil
	})
	return found, err
}

func (r notificationRepo) MarkAllRead(_ context.Context, userID uuid.UUID, at time.Time) (int, error) {
	count := 0
	err := r.v.run(func(s *state) error {
		for id, n := range s.notifications {
			if n.UserID != userID || n.IsRead {
				continue
			}
			n.IsRead = true
			n.ReadAt = &at
			s.notifications[id] = n
			count++
		}
		return nil
	})
	return count, err
}

func (r notificationRepo) Delete(_ context.Context, userID, id uuid.UUID) (bool, error) {
	found := false
	err := r.v.run(func(s *state) error {
		n, ok := s.notifications[id]
		if !ok || n.UserID != userID {
			return nil
		}
		delete(s.notifications, id)
		found = true
		return nil
	})
	return found, err
}

func (r notificationRepo) CountUnread(_ context.Context, userID uuid.UUID) (int, error) {
	count := 0
	err := r.v.run(func(s *state) error {
		for _, n := range s.notifications {
			if n.UserID == userID && !n.IsRead {
				count++
			}
		}
		return nil
	})
	return count, err
}
