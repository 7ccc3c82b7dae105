package pgstore

import (
	"context"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/Alijeyrad/medstage_backend/internal/domain"
	"github.com/Alijeyrad/medstage_backend/internal/store"
)

var evaluationColumns = []string{
	"id", "application_id", "student_id", "internship_id", "doctor_id", "status",
	"attendance", "practical_skills", "professional_behavior", "score", "comments",
	"submitted_at", "validated", "validated_by", "validated_at", "chief_comments",
	"reminded_at", "created_at", "updated_at",
}

type evaluationRepo struct{ q dialect.ExecQuerier }

func scanEvaluation(rows *sql.Rows) (*domain.Evaluation, error) {
	var (
		e                                    domain.Evaluation
		attendance, practical, behavior      sql.NullInt64
		score                                sql.NullFloat64
		comments, chiefComments              sql.NullString
		submittedAt, validatedAt, remindedAt sql.NullTime
		validatedBy                          uuid.NullUUID
	)
	err := rows.Scan(
		&e.ID, &e.ApplicationID, &e.StudentID, &e.InternshipID, &e.DoctorID, &e.Status,
		&attendance, &practical, &behavior, &score, &comments,
		&submittedAt, &e.Validated, &validatedBy, &validatedAt, &chiefComments,
		&remindedAt, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Attendance = intPtr(attendance)
	e.PracticalSkills = intPtr(practical)
	e.ProfessionalBehavior = intPtr(behavior)
	e.Score = floatPtr(score)
	e.Comments = comments.String
	e.SubmittedAt = timePtr(submittedAt)
	e.ValidatedBy = idPtr(validatedBy)
	e.ValidatedAt = timePtr(validatedAt)
	e.ChiefComments = chiefComments.String
	e.RemindedAt = timePtr(remindedAt)
	return &e, nil
}

func (r evaluationRepo) Create(ctx context.Context, e *domain.Evaluation) error {
	query, args := builder().Insert(tableEvaluations).
		Columns(evaluationColumns...).
		Values(
			e.ID, e.ApplicationID, e.StudentID, e.InternshipID, e.DoctorID, string(e.Status),
			intValue(e.Attendance), intValue(e.PracticalSkills), intValue(e.ProfessionalBehavior), floatValue(e.Score), nullString(e.Comments),
			nullTime(e.SubmittedAt), e.Validated, nullID(e.ValidatedBy), nullTime(e.ValidatedAt), nullString(e.ChiefComments),
			nullTime(e.RemindedAt), e.CreatedAt, e.UpdatedAt,
		).
		Query()
	if _, err := exec(ctx, r.q, query, args); err != nil {
		return fmt.Errorf("pgstore: create evaluation: %w", err)
	}
	return nil
}

func (r evaluationRepo) one(ctx context.Context, pred *sql.Predicate, lock bool) (*domain.Evaluation, error) {
	sel := builder().Select(evaluationColumns...).
		From(sql.Table(tableEvaluations)).
		Where(pred).
		Limit(1)
	if lock {
		sel.ForUpdate()
	}
	query, args := sel.Query()

	var out *domain.Evaluation
	err := queryRows(ctx, r.q, query, args, func(rows *sql.Rows) error {
		e, err := scanEvaluation(rows)
		out = e
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("pgstore: get evaluation: %w", err)
	}
	if out == nil {
		return nil, store.ErrNotFound
	}
	return out, nil
}

func (r evaluationRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Evaluation, error) {
	return r.one(ctx, sql.EQ("id", id), false)
}

func (r evaluationRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Evaluation, error) {
	return r.one(ctx, sql.EQ("id", id), true)
}

func (r evaluationRepo) FindByKey(ctx context.Context, studentID, internshipID, doctorID uuid.UUID) (*domain.Evaluation, error) {
	return r.one(ctx, sql.And(
		sql.EQ("student_id", studentID),
		sql.EQ("internship_id", internshipID),
		sql.EQ("doctor_id", doctorID),
	), false)
}

func (r evaluationRepo) Update(ctx context.Context, e *domain.Evaluation) error {
	query, args := builder().Update(tableEvaluations).
		Set("status", string(e.Status)).
		Set("attendance", intValue(e.Attendance)).
		Set("practical_skills", intValue(e.PracticalSkills)).
		Set("professional_behavior", intValue(e.ProfessionalBehavior)).
		Set("score", floatValue(e.Score)).
		Set("comments", nullString(e.Comments)).
		Set("submitted_at", nullTime(e.SubmittedAt)).
		Set("validated", e.Validated).
		Set("validated_by", nullID(e.ValidatedBy)).
		Set("validated_at", nullTime(e.ValidatedAt)).
		Set("chief_comments", nullString(e.ChiefComments)).
		Set("reminded_at", nullTime(e.RemindedAt)).
		Set("updated_at", e.UpdatedAt).
		Where(sql.EQ("id", e.ID)).
		Query()
	n, err := exec(ctx, r.q, query, args)
	if err != nil {
		return fmt.Errorf("pgstore: update evaluation: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// selectJoined selects evaluation columns joined with their internship.
func selectJoined(b *sql.DialectBuilder) (*sql.Selector, *sql.SelectTable, *sql.SelectTable) {
	t := b.Table(tableEvaluations)
	i := b.Table(tableInternships)
	cols := make([]string, len(evaluationColumns))
	for n, c := range evaluationColumns {
		cols[n] = t.C(c)
	}
	sel := b.Select(cols...).From(t).Join(i).On(t.C("internship_id"), i.C("id"))
	return sel, t, i
}

func (r evaluationRepo) list(ctx context.Context, sel *sql.Selector) ([]*domain.Evaluation, error) {
	query, args := sel.Query()
	out := []*domain.Evaluation{}
	err := queryRows(ctx, r.q, query, args, func(rows *sql.Rows) error {
		e, err := scanEvaluation(rows)
		if err != nil {
			return err
		}
		out = append(out, e)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("pgstore: list evaluations: %w", err)
	}
	return out, nil
}

func (r evaluationRepo) List(ctx context.Context, f store.EvaluationFilter) ([]*domain.Evaluation, error) {
	sel, t, i := selectJoined(builder())

	var preds []*sql.Predicate
	if f.StudentID != nil {
		preds = append(preds, sql.EQ(t.C("student_id"), *f.StudentID))
	}
	if f.DoctorID != nil {
		preds = append(preds, sql.EQ(t.C("doctor_id"), *f.DoctorID))
	}
	if f.InternshipID != nil {
		preds = append(preds, sql.EQ(t.C("internship_id"), *f.InternshipID))
	}
	if len(f.Statuses) > 0 {
		preds = append(preds, sql.In(t.C("status"), strs(f.Statuses)...))
	}
	if f.ManagedBy != nil {
		preds = append(preds, sql.Or(sql.EQ(i.C("chief_id"), *f.ManagedBy), sql.EQ(i.C("created_by"), *f.ManagedBy)))
	}
	if len(preds) > 0 {
		sel.Where(sql.And(preds...))
	}
	sel.OrderBy(sql.Desc(t.C("created_at")), sql.Desc(t.C("id")))
	if f.Limit > 0 {
		sel.Limit(f.Limit)
	}
	if f.Offset > 0 {
		sel.Offset(f.Offset)
	}
	return r.list(ctx, sel)
}

func (r evaluationRepo) ListDueForReminder(ctx context.Context, endedBefore, remindedBefore time.Time, limit int) ([]*domain.Evaluation, error) {
	sel, t, i := selectJoined(builder())
	sel.Where(sql.And(
		sql.In(t.C("status"), strs(domain.OpenEvaluationStatuses)...),
		sql.LT(i.C("end_date"), endedBefore),
		sql.Or(sql.IsNull(t.C("reminded_at")), sql.LT(t.C("reminded_at"), remindedBefore)),
	))
	sel.OrderBy(t.C("created_at"), t.C("id"))
	if limit > 0 {
		sel.Limit(limit)
	}
	return r.list(ctx, sel)
}

func (r evaluationRepo) DeleteByInternship(ctx context.Context, internshipID uuid.UUID) (int, error) {
	query, args := builder().Delete(tableEvaluations).Where(sql.EQ("internship_id", internshipID)).Query()
	n, err := exec(ctx, r.q, query, args)
	if err != nil {
		return 0, fmt.Errorf("pgstore: delete evaluations: %w", err)
	}
	return int(n), nil
}
