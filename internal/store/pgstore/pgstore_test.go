package pgstore

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"entgo.io/ent/dialect"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/Alijeyrad/medstage_backend/internal/store"
)

var errStop = errors.New("stop")

// recorder captures statements and fails every call so no rows are needed.
type recorder struct {
	queries    []string
	committed  bool
	rolledBack bool
	execErr    error
}

func (r *recorder) Exec(_ context.Context, query string, _, _ any) error {
	r.queries = append(r.queries, query)
	if r.execErr != nil {
		return r.execErr
	}
	return errStop
}

func (r *recorder) Query(_ context.Context, query string, _, _ any) error {
	r.queries = append(r.queries, query)
	return errStop
}

func (r *recorder) Tx(context.Context) (dialect.Tx, error) { return &recTx{r}, nil }
func (r *recorder) Close() error                         { return nil }
func (r *recorder) Dialect() string                      { return dialect.Postgres }

type recTx struct{ *recorder }

func (t *recTx) Commit() error   { t.committed = true; return nil }
func (t *recTx) Rollback() error { t.rolledBack = true; return nil }

var _ dialect.Driver = (*recorder)(nil)

func TestGetForUpdateLocksRow(t *testing.T) {
	rec := &recorder{}
	s := New(rec)

	_, err := s.Internships().GetForUpdate(context.Background(), uuid.New())
	if !errors.Is(err, errStop) {
		t.Fatalf("GetForUpdate error = %v", err)
	}
	if len(rec.queries) != 1 || !strings.HasSuffix(rec.queries[0], "FOR UPDATE") {
		t.Errorf("query = %q, want a FOR UPDATE select", rec.queries)
	}
}

func TestListDueForReminderJoinsInternships(t *testing.T) {
	rec := &recorder{}
	s := New(rec)

	now := time.Now()
	_, _ = s.Evaluations().ListDueForReminder(context.Background(), now, now.Add(-time.Hour), 10)

	q := rec.queries[0]
	for _, want := range []string{
		`JOIN "internships"`,
		`"internships"."end_date" <`,
		`"evaluations"."reminded_at" IS NULL`,
		`LIMIT 10`,
	} {
		if !strings.Contains(q, want) {
			t.Errorf("query %q does not contain %q", q, want)
		}
	}
}

func TestApplicationListManagedByJoins(t *testing.T) {
	rec := &recorder{}
	s := New(rec)
	chief := uuid.New()

	_, _ = s.Applications().List(context.Background(), store.ApplicationFilter{ManagedBy: &chief, Limit: 5})

	q := rec.queries[0]
	if !strings.Contains(q, `"internships"."chief_id"`) || !strings.Contains(q, `"internships"."created_by"`) {
		t.Errorf("query %q does not filter on the managing chief", q)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	rec := &recorder{}
	s := New(rec)

	err := s.WithTx(context.Background(), func(tx store.Store) error {
		_, err := tx.Internships().Get(context.Background(), uuid.New())
		return err
	})
	if !errors.Is(err, errStop) {
		t.Fatalf("WithTx error = %v", err)
	}
	if !rec.rolledBack || rec.committed {
		t.Errorf("rolledBack=%v committed=%v, want rollback only", rec.rolledBack, rec.committed)
	}
}

func TestWithTxCommits(t *testing.T) {
	rec := &recorder{}
	s := New(rec)

	err := s.WithTx(context.Background(), func(tx store.Store) error {
		return tx.WithTx(context.Background(), func(store.Store) error { return nil })
	})
	if err != nil {
		t.Fatalf("WithTx: %v", err)
	}
	if !rec.committed || rec.rolledBack {
		t.Errorf("rolledBack=%v committed=%v, want commit only", rec.rolledBack, rec.committed)
	}
}

func TestMapErrUniqueViolation(t *testing.T) {
	rec := &recorder{execErr: &pq.Error{Code: pgUniqueViolation, Constraint: "application_student_id_internship_id_active"}}
	s := New(rec)

	_, err := s.Applications().DeleteByInternship(context.Background(), uuid.New())
	if !errors.Is(err, store.ErrConflict) {
		t.Errorf("error = %v, want ErrConflict", err)
	}
}
