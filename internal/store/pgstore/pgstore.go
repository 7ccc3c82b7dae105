// Package pgstore implements store.Store on Postgres through ent's SQL
// builder and driver.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/Alijeyrad/medstage_backend/internal/store"
)

// pgUniqueViolation is the SQLSTATE Postgres reports for a unique index hit.
const pgUniqueViolation = "23505"

type Store struct {
	drv dialect.Driver
	q   dialect.ExecQuerier
	tx  bool
}

var _ store.Store = (*Store)(nil)

func New(drv dialect.Driver) *Store {
	return &Store{drv: drv, q: drv}
}

func (s *Store) Users() store.UserRepository                 { return userRepo{s.q} }
func (s *Store) Departments() store.DepartmentRepository     { return departmentRepo{s.q} }
func (s *Store) Internships() store.InternshipRepository     { return internshipRepo{s.q} }
func (s *Store) Applications() store.ApplicationRepository   { return applicationRepo{s.q} }
func (s *Store) Evaluations() store.EvaluationRepository     { return evaluationRepo{s.q} }
func (s *Store) Notifications() store.NotificationRepository { return notificationRepo{s.q} }

func (s *Store) WithTx(ctx context.Context, fn func(tx store.Store) error) (err error) {
	if s.tx {
		return fn(s)
	}

	tx, err := s.drv.Tx(ctx)
	if err != nil {
		return fmt.Errorf("pgstore: begin tx: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()
			panic(r)
		}
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				err = errors.Join(err, fmt.Errorf("pgstore: rollback: %w", rerr))
			}
			return
		}
		if cerr := tx.Commit(); cerr != nil {
			err = mapErr(fmt.Errorf("pgstore: commit: %w", cerr))
		}
	}()

	return fn(&Store{drv: s.drv, q: tx, tx: true})
}

func (s *Store) Close() error {
	if s.tx {
		return nil
	}
	return s.drv.Close()
}

func builder() *sql.DialectBuilder { return sql.Dialect(dialect.Postgres) }

// mapErr converts driver errors into store sentinels.
func mapErr(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
		return fmt.Errorf("%w: %s", store.ErrConflict, pqErr.Constraint)
	}
	return err
}

func exec(ctx context.Context, q dialect.ExecQuerier, query string, args []any) (int64, error) {
	var res sql.Result
	if err := q.Exec(ctx, query, args, &res); err != nil {
		return 0, mapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, nil
}

// queryRows runs query and calls scan once per row.
func queryRows(ctx context.Context, q dialect.ExecQuerier, query string, args []any, scan func(*sql.Rows) error) error {
	rows := &sql.Rows{}
	if err := q.Query(ctx, query, args, rows); err != nil {
		return mapErr(err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

func queryInt(ctx context.Context, q dialect.ExecQuerier, query string, args []any) (int, error) {
	var n int
	err := queryRows(ctx, q, query, args, func(rows *sql.Rows) error {
		return rows.Scan(&n)
	})
	return n, err
}

func nullID(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return *id
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func idPtr(n uuid.NullUUID) *uuid.UUID {
	if !n.Valid {
		return nil
	}
	id := n.UUID
	return &id
}

func timePtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	t := n.Time
	return &t
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

func intValue(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func floatValue(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func strs[T ~string](in []T) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = string(v)
	}
	return out
}
