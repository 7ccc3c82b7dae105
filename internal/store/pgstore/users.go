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

type userRepo struct{ q dialect.ExecQuerier }

func (r userRepo) Create(ctx context.Context, u *domain.User) error {
	query, args := builder().Insert(tableUsers).
		Columns("id", "full_name", "email", "role", "created_at").
		Values(u.ID, u.FullName, u.Email, u.Role.String(), u.CreatedAt).
		Query()
	if _, err := exec(ctx, r.q, query, args); err != nil {
		return fmt.Errorf("pgstore: create user: %w", err)
	}
	return nil
}

func (r userRepo) Get(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query, args := builder().Select("id", "full_name", "email", "role", "created_at").
		From(sql.Table(tableUsers)).
		Where(sql.EQ("id", id)).
		Query()

	var out *domain.User
	err := queryRows(ctx, r.q, query, args, func(rows *sql.Rows) error {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.FullName, &u.Email, &u.Role, &u.CreatedAt); err != nil {
			return err
		}
		out = &u
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("pgstore: get user: %w", err)
	}
	if out == nil {
		return nil, store.ErrNotFound
	}
	return out, nil
}

func (r userRepo) ListIDsByRole(ctx context.Context, role domain.Role) ([]uuid.UUID, error) {
	query, args := builder().Select("id").
		From(sql.Table(tableUsers)).
		Where(sql.EQ("role", role.String())).
		OrderBy("id").
		Query()

	var out []uuid.UUID
	err := queryRows(ctx, r.q, query, args, func(rows *sql.Rows) error {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return err
		}
		out = append(out, id)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("pgstore: list users by role: %w", err)
	}
	return out, nil
}

type departmentRepo struct{ q dialect.ExecQuerier }

func (r departmentRepo) CreateEstablishment(ctx context.Context, e *domain.Establishment) error {
	query, args := builder().Insert(tableEstablishments).
		Columns("id", "name").
		Values(e.ID, e.Name).
		Query()
	if _, err := exec(ctx, r.q, query, args); err != nil {
		return fmt.Errorf("pgstore: create establishment: %w", err)
	}
	return nil
}

func (r departmentRepo) CreateDepartment(ctx context.Context, d *domain.Department) error {
	query, args := builder().Insert(tableDepartments).
		Columns("id", "name", "establishment_id", "chief_id").
		Values(d.ID, d.Name, d.EstablishmentID, nullID(d.ChiefID)).
		Query()
	if _, err := exec(ctx, r.q, query, args); err != nil {
		return fmt.Errorf("pgstore: create department: %w", err)
	}
	return nil
}

func (r departmentRepo) GetDepartment(ctx context.Context, id uuid.UUID) (*domain.Department, error) {
	query, args := builder().Select("id", "name", "establishment_id", "chief_id").
		From(sql.Table(tableDepartments)).
		Where(sql.EQ("id", id)).
		Query()

	var out *domain.Department
	err := queryRows(ctx, r.q, query, args, func(rows *sql.Rows) error {
		var (
			d     domain.Department
			chief uuid.NullUUID
		)
		if err := rows.Scan(&d.ID, &d.Name, &d.EstablishmentID, &chief); err != nil {
			return err
		}
		d.ChiefID = idPtr(chief)
		out = &d
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("pgstore: get department: %w", err)
	}
	if out == nil {
		return nil, store.ErrNotFound
	}
	return out, nil
}
