// Package store defines the persistence boundary of the placement core.
// Implementations live in pgstore (Postgres through ent's SQL layer) and
// memstore (a serialized in-memory store used by tests and local runs).
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/medstage_backend/internal/domain"
)

var (
	ErrNotFound = errors.New("store: not found")
	// ErrConflict reports a unique constraint violation.
	ErrConflict = errors.New("store: conflict")
)

type Store interface {
	Users() UserRepository
	Departments() DepartmentRepository
	Internships() InternshipRepository
	Applications() ApplicationRepository
	Evaluations() EvaluationRepository
	Notifications() NotificationRepository

	// WithTx runs fn in a single transaction. The Store passed to fn is bound
	// to that transaction; fn returning an error rolls everything back.
	// Calling WithTx on a transaction-bound Store reuses the transaction.
	WithTx(ctx context.Context, fn func(tx Store) error) error

	Close() error
}

type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, id uuid.UUID) (*domain.User, error)
	ListIDsByRole(ctx context.Context, role domain.Role) ([]uuid.UUID, error)
}

type DepartmentRepository interface {
	CreateEstablishment(ctx context.Context, e *domain.Establishment) error
	CreateDepartment(ctx context.Context, d *domain.Department) error
	GetDepartment(ctx context.Context, id uuid.UUID) (*domain.Department, error)
}

type InternshipFilter struct {
	Statuses     []domain.InternshipStatus
	DepartmentID *uuid.UUID
	// ManagedBy matches chief_id or created_by.
	ManagedBy *uuid.UUID
	Limit     int
	Offset    int
}

type InternshipRepository interface {
	Create(ctx context.Context, in *domain.Internship) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Internship, error)
	// GetForUpdate locks the row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Internship, error)
	Update(ctx context.Context, in *domain.Internship) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f InternshipFilter) ([]*domain.Internship, error)
}

type ApplicationFilter struct {
	StudentID    *uuid.UUID
	InternshipID *uuid.UUID
	// ManagedBy restricts to internships whose chief or creator is this user.
	ManagedBy *uuid.UUID
	Statuses  []domain.ApplicationStatus
	Limit     int
	Offset    int
}

type ApplicationRepository interface {
	// Create returns ErrConflict when an active application already exists
	// for the same student and internship.
	Create(ctx context.Context, a *domain.Application) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Application, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Application, error)
	// FindActive returns the pending or accepted application of the pair, or ErrNotFound.
	FindActive(ctx context.Context, studentID, internshipID uuid.UUID) (*domain.Application, error)
	Update(ctx context.Context, a *domain.Application) error
	List(ctx context.Context, f ApplicationFilter) ([]*domain.Application, error)
	DeleteByInternship(ctx context.Context, internshipID uuid.UUID) (int, error)
}

type EvaluationFilter struct {
	StudentID    *uuid.UUID
	DoctorID     *uuid.UUID
	InternshipID *uuid.UUID
	ManagedBy    *uuid.UUID
	Statuses     []domain.EvaluationStatus
	Limit        int
	Offset       int
}

type EvaluationRepository interface {
	// Create returns ErrConflict when the (student, internship, doctor) triple exists.
	Create(ctx context.Context, e *domain.Evaluation) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Evaluation, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Evaluation, error)
	FindByKey(ctx context.Context, studentID, internshipID, doctorID uuid.UUID) (*domain.Evaluation, error)
	Update(ctx context.Context, e *domain.Evaluation) error
	List(ctx context.Context, f EvaluationFilter) ([]*domain.Evaluation, error)
	// ListDueForReminder returns open evaluations whose internship ended before
	// endedBefore and that were never reminded or last reminded before remindedBefore.
	ListDueForReminder(ctx context.Context, endedBefore, remindedBefore time.Time, limit int) ([]*domain.Evaluation, error)
	DeleteByInternship(ctx context.Context, internshipID uuid.UUID) (int, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	// ListForUser returns newest first.
	ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Notification, error)
	// MarkRead sets is_read/read_at on an unread row owned by userID. found is
	// false when no row with that id belongs to the user; an already read row
	// is found and left unchanged.
	MarkRead(ctx context.Context, userID, id uuid.UUID, at time.Time) (found bool, err error)
	MarkAllRead(ctx context.Context, userID uuid.UUID, at time.Time) (int, error)
	Delete(ctx context.Context, userID, id uuid.UUID) (found bool, err error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
}
