package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/medstage_backend/internal/domain"
	"github.com/Alijeyrad/medstage_backend/internal/store"
)

func seedInternship(t *testing.T, s *Store) *domain.Internship {
	t.Helper()
	ctx := context.Background()

	est := &domain.Establishment{ID: domain.NewID(), Name: "CHU"}
	if err := s.Departments().CreateEstablishment(ctx, est); err != nil {
		t.Fatalf("CreateEstablishment: %v", err)
	}
	dep := &domain.Department{ID: domain.NewID(), EstablishmentID: est.ID, Name: "Cardiology"}
	if err := s.Departments().CreateDepartment(ctx, dep); err != nil {
		t.Fatalf("CreateDepartment: %v", err)
	}

	now := time.Now().UTC()
	in := &domain.Internship{
		ID:              domain.NewID(),
		Title:           "Cardiology rotation",
		DepartmentID:    dep.ID,
		EstablishmentID: est.ID,
		CreatedBy:       domain.NewID(),
		TotalPlaces:     2,
		Status:          domain.InternshipActive,
		StartDate:       now,
		EndDate:         now.Add(30 * 24 * time.Hour),
		Requirements:    []string{"BLS"},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.Internships().Create(ctx, in); err != nil {
		t.Fatalf("Create internship: %v", err)
	}
	return in
}

func TestWithTxRollsBackOnError(t *testing.T) {
	s := New()
	in := seedInternship(t, s)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(tx store.Store) error {
		got, err := tx.Internships().GetForUpdate(ctx, in.ID)
		if err != nil {
			return err
		}
		got.FilledPlaces = 2
		if err := tx.Internships().Update(ctx, got); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTx error = %v, want %v", err, boom)
	}

	got, err := s.Internships().Get(ctx, in.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.FilledPlaces != 0 {
		t.Errorf("FilledPlaces = %d after rollback, want 0", got.FilledPlaces)
	}
}

func TestWithTxCommits(t *testing.T) {
	s := New()
	in := seedInternship(t, s)
	ctx := context.Background()

	err := s.WithTx(ctx, func(tx store.Store) error {
		got, err := tx.Internships().GetForUpdate(ctx, in.ID)
		if err != nil {
			return err
		}
		got.FilledPlaces = 1
		// Nested WithTx joins the outer transaction instead of deadlocking.
		return tx.WithTx(ctx, func(inner store.Store) error {
			return inner.Internships().Update(ctx, got)
		})
	})
	if err != nil {
		t.Fatalf("WithTx: %v", err)
	}

	got, _ := s.Internships().Get(ctx, in.ID)
	if got.FilledPlaces != 1 {
		t.Errorf("FilledPlaces = %d, want 1", got.FilledPlaces)
	}
}

func TestInternshipCopiesAreIndependent(t *testing.T) {
	s := New()
	in := seedInternship(t, s)
	ctx := context.Background()

	got, _ := s.Internships().Get(ctx, in.ID)
	got.Requirements[0] = "changed"
	got.Title = "changed"

	again, _ := s.Internships().Get(ctx, in.ID)
	if again.Requirements[0] != "BLS" || again.Title != in.Title {
		t.Errorf("stored internship was mutated through a returned copy: %+v", again)
	}
}

func TestApplicationActiveUniqueness(t *testing.T) {
	s := New()
	in := seedInternship(t, s)
	ctx := context.Background()
	student := domain.NewID()

	first := &domain.Application{ID: domain.NewID(), StudentID: student, InternshipID: in.ID, Status: domain.ApplicationPending, AppliedAt: time.Now()}
	if err := s.Applications().Create(ctx, first); err != nil {
		t.Fatalf("Create: %v", err)
	}

	dup := &domain.Application{ID: domain.NewID(), StudentID: student, InternshipID: in.ID, Status: domain.ApplicationPending, AppliedAt: time.Now()}
	if err := s.Applications().Create(ctx, dup); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("duplicate Create error = %v, want ErrConflict", err)
	}

	first.Status = domain.ApplicationCancelled
	if err := s.Applications().Update(ctx, first); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := s.Applications().Create(ctx, dup); err != nil {
		t.Fatalf("re-apply after cancel: %v", err)
	}

	active, err := s.Applications().FindActive(ctx, student, in.ID)
	if err != nil {
		t.Fatalf("FindActive: %v", err)
	}
	if active.ID != dup.ID {
		t.Errorf("FindActive returned %s, want %s", active.ID, dup.ID)
	}
}

func TestInternshipDeleteWithDependents(t *testing.T) {
	s := New()
	in := seedInternship(t, s)
	ctx := context.Background()

	app := &domain.Application{ID: domain.NewID(), StudentID: domain.NewID(), InternshipID: in.ID, Status: domain.ApplicationPending, AppliedAt: time.Now()}
	if err := s.Applications().Create(ctx, app); err != nil {
		t.Fatalf("Create application: %v", err)
	}

	if err := s.Internships().Delete(ctx, in.ID); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("Delete error = %v, want ErrConflict", err)
	}

	if n, err := s.Applications().DeleteByInternship(ctx, in.ID); err != nil || n != 1 {
		t.Fatalf("DeleteByInternship = %d, %v", n, err)
	}
	if err := s.Internships().Delete(ctx, in.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Internships().Get(ctx, in.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Get after delete error = %v, want ErrNotFound", err)
	}
}

func TestEvaluationTripleConflictAndReminders(t *testing.T) {
	s := New()
	in := seedInternship(t, s)
	ctx := context.Background()

	in.EndDate = time.Now().Add(-time.Hour)
	if err := s.Internships().Update(ctx, in); err != nil {
		t.Fatalf("Update: %v", err)
	}

	app := &domain.Application{ID: domain.NewID(), StudentID: domain.NewID(), InternshipID: in.ID, Status: domain.ApplicationAccepted, AppliedAt: time.Now()}
	if err := s.Applications().Create(ctx, app); err != nil {
		t.Fatalf("Create application: %v", err)
	}

	doctor := domain.NewID()
	ev := &domain.Evaluation{
		ID: domain.NewID(), ApplicationID: app.ID, StudentID: app.StudentID,
		InternshipID: in.ID, DoctorID: doctor, Status: domain.EvaluationPending, CreatedAt: time.Now(),
	}
	if err := s.Evaluations().Create(ctx, ev); err != nil {
		t.Fatalf("Create evaluation: %v", err)
	}
	again := *ev
	again.ID = domain.NewID()
	if err := s.Evaluations().Create(ctx, &again); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("second Create error = %v, want ErrConflict", err)
	}

	now := time.Now()
	due, err := s.Evaluations().ListDueForReminder(ctx, now, now.Add(-72*time.Hour), 10)
	if err != nil {
		t.Fatalf("ListDueForReminder: %v", err)
	}
	if len(due) != 1 || due[0].ID != ev.ID {
		t.Fatalf("due = %v, want [%s]", due, ev.ID)
	}

	ev.RemindedAt = &now
	if err := s.Evaluations().Update(ctx, ev); err != nil {
		t.Fatalf("Update: %v", err)
	}
	due, _ = s.Evaluations().ListDueForReminder(ctx, now, now.Add(-72*time.Hour), 10)
	if len(due) != 0 {
		t.Errorf("recently reminded evaluation is still due: %v", due)
	}
}

func TestNotificationLedger(t *testing.T) {
	s := New()
	ctx := context.Background()
	user, other := domain.NewID(), domain.NewID()
	base := time.Now().UTC()

	var ids []uuid.UUID
	for i := range 3 {
		n := &domain.Notification{
			ID: domain.NewID(), UserID: user, Type: domain.NotificationInfo,
			Title: "t", Message: "m", CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := s.Notifications().Create(ctx, n); err != nil {
			t.Fatalf("Create: %v", err)
		}
		ids = append(ids, n.ID)
	}

	list, err := s.Notifications().ListForUser(ctx, user, 2, 0)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(list) != 2 || list[0].ID != ids[2] || list[1].ID != ids[1] {
		t.Fatalf("ListForUser is not newest first: %v", list)
	}

	found, err := s.Notifications().MarkRead(ctx, other, ids[0], base)
	if err != nil || found {
		t.Fatalf("MarkRead by other user = %v, %v; want not found", found, err)
	}

	readAt := base.Add(time.Minute)
	if found, _ := s.Notifications().MarkRead(ctx, user, ids[0], readAt); !found {
		t.Fatal("MarkRead: not found")
	}
	if found, _ := s.Notifications().MarkRead(ctx, user, ids[0], readAt.Add(time.Hour)); !found {
		t.Fatal("second MarkRead: not found")
	}
	list, _ = s.Notifications().ListForUser(ctx, user, 0, 2)
	if !list[0].IsRead || !list[0].ReadAt.Equal(readAt) {
		t.Errorf("second MarkRead changed read_at: %v", list[0].ReadAt)
	}

	if n, _ := s.Notifications().CountUnread(ctx, user); n != 2 {
		t.Errorf("CountUnread = %d, want 2", n)
	}
	if n, _ := s.Notifications().MarkAllRead(ctx, user, readAt); n != 2 {
		t.Errorf("MarkAllRead = %d, want 2", n)
	}
	if n, _ := s.Notifications().CountUnread(ctx, user); n != 0 {
		t.Errorf("CountUnread after MarkAllRead = %d, want 0", n)
	}

	if found, _ := s.Notifications().Delete(ctx, other, ids[1]); found {
		t.Error("Delete by other user succeeded")
	}
	if found, _ := s.Notifications().Delete(ctx, user, ids[1]); !found {
		t.Error("Delete: not found")
	}
	if list, _ := s.Notifications().ListForUser(ctx, user, 0, 0); len(list) != 2 {
		t.Errorf("len after delete = %d, want 2", len(list))
	}
}
