package pgstore

import (
	"context"
	"encoding/json"
	"fmt"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/Alijeyrad/medstage_backend/internal/domain"
	"github.com/Alijeyrad/medstage_backend/internal/store"
)

var internshipColumns = []string{
	"id", "title", "description", "department_id", "establishment_id", "chief_id",
	"created_by", "total_places", "filled_places", "status", "start_date", "end_date",
	"requirements", "created_at", "updated_at",
}

type internshipRepo struct{ q dialect.ExecQuerier }

func scanInternship(rows *sql.Rows) (*domain.Internship, error) {
	var (
		in    domain.Internship
		chief uuid.NullUUID
		reqs  []byte
	)
	err := rows.Scan(
		&in.ID, &in.Title, &in.Description, &in.DepartmentID, &in.EstablishmentID, &chief,
		&in.CreatedBy, &in.TotalPlaces, &in.FilledPlaces, &in.Status, &in.StartDate, &in.EndDate,
		&reqs, &in.CreatedAt, &in.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	in.ChiefID = idPtr(chief)
	if len(reqs) > 0 {
		if err := json.Unmarshal(reqs, &in.Requirements); err != nil {
			return nil, fmt.Errorf("decode requirements: %w", err)
		}
	}
	return &in, nil
}

func encodeRequirements(reqs []string) ([]byte, error) {
	if reqs == nil {
		reqs = []string{}
	}
	return json.Marshal(reqs)
}

func (r internshipRepo) Create(ctx context.Context, in *domain.Internship) error {
	reqs, err := encodeRequirements(in.Requirements)
	if err != nil {
		return fmt.Errorf("pgstore: create internship: %w", err)
	}
	query, args := builder().Insert(tableInternships).
		Columns(internshipColumns...).
		Values(
			in.ID, in.Title, in.Description, in.DepartmentID, in.EstablishmentID, nullID(in.ChiefID),
			in.CreatedBy, in.TotalPlaces, in.FilledPlaces, string(in.Status), in.StartDate, in.EndDate,
			reqs, in.CreatedAt, in.UpdatedAt,
		).
		Query()
	if _, err := exec(ctx, r.q, query, args); err != nil {
		return fmt.Errorf("pgstore: create internship: %w", err)
	}
	return nil
}

func (r internshipRepo) get(ctx context.Context, id uuid.UUID, lock bool) (*domain.Internship, error) {
	sel := builder().Select(internshipColumns...).
		From(sql.Table(tableInternships)).
		Where(sql.EQ("id", id))
	if lock {
		sel.ForUpdate()
	}
	query, args := sel.Query()

	var out *domain.Internship
	err := queryRows(ctx, r.q, query, args, func(rows *sql.Rows) error {
		in, err := scanInternship(rows)
		out = in
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("pgstore: get internship: %w", err)
	}
	if out == nil {
		return nil, store.ErrNotFound
	}
	return out, nil
}

func (r internshipRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Internship, error) {
	return r.get(ctx, id, false)
}

func (r internshipRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Internship, error) {
	return r.get(ctx, id, true)
}

func (r internshipRepo) Update(ctx context.Context, in *domain.Internship) error {
	reqs, err := encodeRequirements(in.Requirements)
	if err != nil {
		return fmt.Errorf("pgstore: update internship: %w", err)
	}
	query, args := builder().Update(tableInternships).
		Set("title", in.Title).
		Set("description", in.Description).
		Set("department_id", in.DepartmentID).
		Set("establishment_id", in.EstablishmentID).
		Set("chief_id", nullID(in.ChiefID)).
		Set("total_places", in.TotalPlaces).
		Set("filled_places", in.FilledPlaces).
		Set("status", string(in.Status)).
		Set("start_date", in.StartDate).
		Set("end_date", in.EndDate).
		Set("requirements", reqs).
		Set("updated_at", in.UpdatedAt).
		Where(sql.EQ("id", in.ID)).
		Query()
	n, err := exec(ctx, r.q, query, args)
	if err != nil {
		return fmt.Errorf("pgstore: update internship: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Delete refuses while applications or evaluations still reference the row.
func (r internshipRepo) Delete(ctx context.Context, id uuid.UUID) error {
	for _, table := range []string{tableApplications, tableEvaluations} {
		query, args := builder().Select(sql.Count("*")).
			From(sql.Table(table)).
			Where(sql.EQ("internship_id", id)).
			Query()
		n, err := queryInt(ctx, r.q, query, args)
		if err != nil {
			return fmt.Errorf("pgstore: delete internship: %w", err)
		}
		if n > 0 {
			return fmt.Errorf("%w: internship has %d %s", store.ErrConflict, n, table)
		}
	}

	query, args := builder().Delete(tableInternships).Where(sql.EQ("id", id)).Query()
	n, err := exec(ctx, r.q, query, args)
	if err != nil {
		return fmt.Errorf("pgstore: delete internship: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r internshipRepo) List(ctx context.Context, f store.InternshipFilter) ([]*domain.Internship, error) {
	var preds []*sql.Predicate
	if len(f.Statuses) > 0 {
		preds = append(preds, sql.In("status", strs(f.Statuses)...))
	}
	if f.DepartmentID != nil {
		preds = append(preds, sql.EQ("department_id", *f.DepartmentID))
	}
	if f.ManagedBy != nil {
		preds = append(preds, sql.Or(sql.EQ("chief_id", *f.ManagedBy), sql.EQ("created_by", *f.ManagedBy)))
	}

	sel := builder().Select(internshipColumns...).
		From(sql.Table(tableInternships)).
		OrderBy(sql.Desc("created_at"), sql.Desc("id"))
	if len(preds) > 0 {
		sel.Where(sql.And(preds...))
	}
	if f.Limit > 0 {
		sel.Limit(f.Limit)
	}
	if f.Offset > 0 {
		sel.Offset(f.Offset)
	}
	query, args := sel.Query()

	out := []*domain.Internship{}
	err := queryRows(ctx, r.q, query, args, func(rows *sql.Rows) error {
		in, err := scanInternship(rows)
		if err != nil {
			return err
		}
		out = append(out, in)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("pgstore: list internships: %w", err)
	}
	return out, nil
}
