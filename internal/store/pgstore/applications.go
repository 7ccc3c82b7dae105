package pgstore

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/Alijeyrad/medstage_backend/internal/domain"
	"github.com/Alijeyrad/medstage_backend/internal/store"
)

var applicationColumns = []string{
	"id", "student_id", "internship_id", "status", "motivation", "applied_at",
	"response_at", "reviewed_by", "rejection_reason", "cancelled_at",
}

type applicationRepo struct{ q dialect.ExecQuerier }

func scanApplication(rows *sql.Rows) (*domain.Application, error) {
	var (
		a          domain.Application
		motivation sql.NullString
		responseAt sql.NullTime
		reviewedBy uuid.NullUUID
		reason     sql.NullString
		cancelled  sql.NullTime
	)
	err := rows.Scan(
		&a.ID, &a.StudentID, &a.InternshipID, &a.Status, &motivation, &a.AppliedAt,
		&responseAt, &reviewedBy, &reason, &cancelled,
	)
	if err != nil {
		return nil, err
	}
	a.Motivation = motivation.String
	a.ResponseAt = timePtr(responseAt)
	a.ReviewedBy = idPtr(reviewedBy)
	a.RejectionReason = reason.String
	a.CancelledAt = timePtr(cancelled)
	return &a, nil
}

func (r applicationRepo) Create(ctx context.Context, a *domain.Application) error {
	query, args := builder().Insert(tableApplications).
		Columns(applicationColumns...).
		Values(
			a.ID, a.StudentID, a.InternshipID, string(a.Status), nullString(a.Motivation), a.AppliedAt,
			nullTime(a.ResponseAt), nullID(a.ReviewedBy), nullString(a.RejectionReason), nullTime(a.CancelledAt),
		).
		Query()
	if _, err := exec(ctx, r.q, query, args); err != nil {
		return fmt.Errorf("pgstore: create application: %w", err)
	}
	return nil
}

func (r applicationRepo) one(ctx context.Context, pred *sql.Predicate, lock bool) (*domain.Application, error) {
	sel := builder().Select(applicationColumns...).
		From(sql.Table(tableApplications)).
		Where(pred).
		Limit(1)
	if lock {
		sel.ForUpdate()
	}
	query, args := sel.Query()

	var out *domain.Application
	err := queryRows(ctx, r.q, query, args, func(rows *sql.Rows) error {
		a, err := scanApplication(rows)
		out = a
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("pgstore: get application: %w", err)
	}
	if out == nil {
		return nil, store.ErrNotFound
	}
	return out, nil
}

func (r applicationRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Application, error) {
	return r.one(ctx, sql.EQ("id", id), false)
}

func (r applicationRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Application, error) {
	return r.one(ctx, sql.EQ("id", id), true)
}

func (r applicationRepo) FindActive(ctx context.Context, studentID, internshipID uuid.UUID) (*domain.Application, error) {
	return r.one(ctx, sql.And(
		sql.EQ("student_id", studentID),
		sql.EQ("internship_id", internshipID),
		sql.In("status", strs(domain.ActiveApplicationStatuses)...),
	), false)
}

func (r applicationRepo) Update(ctx context.Context, a *domain.Application) error {
	query, args := builder().Update(tableApplications).
		Set("status", string(a.Status)).
		Set("motivation", nullString(a.Motivation)).
		Set("response_at", nullTime(a.ResponseAt)).
		Set("reviewed_by", nullID(a.ReviewedBy)).
		Set("rejection_reason", nullString(a.RejectionReason)).
		Set("cancelled_at", nullTime(a.CancelledAt)).
		Where(sql.EQ("id", a.ID)).
		Query()
	n, err := exec(ctx, r.q, query, args)
	if err != nil {
		return fmt.Errorf("pgstore: update application: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r applicationRepo) List(ctx context.Context, f store.ApplicationFilter) ([]*domain.Application, error) {
	b := builder()
	t := b.Table(tableApplications)

	cols := make([]string, len(applicationColumns))
	for i, c := range applicationColumns {
		cols[i] = t.C(c)
	}
	sel := b.Select(cols...).From(t)

	var preds []*sql.Predicate
	if f.StudentID != nil {
		preds = append(preds, sql.EQ(t.C("student_id"), *f.StudentID))
	}
	if f.InternshipID != nil {
		preds = append(preds, sql.EQ(t.C("internship_id"), *f.InternshipID))
	}
	if len(f.Statuses) > 0 {
		preds = append(preds, sql.In(t.C("status"), strs(f.Statuses)...))
	}
	if f.ManagedBy != nil {
		i := b.Table(tableInternships)
		sel.Join(i).On(t.C("internship_id"), i.C("id"))
		preds = append(preds, sql.Or(sql.EQ(i.C("chief_id"), *f.ManagedBy), sql.EQ(i.C("created_by"), *f.ManagedBy)))
	}
	if len(preds) > 0 {
		sel.Where(sql.And(preds...))
	}
	sel.OrderBy(sql.Desc(t.C("applied_at")), sql.Desc(t.C("id")))
	if f.Limit > 0 {
		sel.Limit(f.Limit)
	}
	if f.Offset > 0 {
		sel.Offset(f.Offset)
	}
	query, args := sel.Query()

	out := []*domain.Application{}
	err := queryRows(ctx, r.q, query, args, func(rows *sql.Rows) error {
		a, err := scanApplication(rows)
		if err != nil {
			return err
		}
		out = append(out, a)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("pgstore: list applications: %w", err)
	}
	return out, nil
}

func (r applicationRepo) DeleteByInternship(ctx context.Context, internshipID uuid.UUID) (int, error) {
	query, args := builder().Delete(tableApplications).Where(sql.EQ("internship_id", internshipID)).Query()
	n, err := exec(ctx, r.q, query, args)
	if err != nil {
		return 0, fmt.Errorf("pgstore: delete applications: %w", err)
	}
	return int(n), nil
}
