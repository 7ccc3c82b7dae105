// Package memstore is an in-memory store.Store. Every transaction holds one
// store-wide mutex, so transactions are serializable and row locks are implied.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/Alijeyrad/medstage_backend/internal/domain"
	"github.com/Alijeyrad/medstage_backend/internal/store"
)

type state struct {
	users          map[uuid.UUID]domain.User
	establishments map[uuid.UUID]domain.Establishment
	departments    map[uuid.UUID]domain.Department
	internships    map[uuid.UUID]domain.Internship
	applications   map[uuid.UUID]domain.Application
	evaluations    map[uuid.UUID]domain.Evaluation
	notifications  map[uuid.UUID]domain.Notification
}

func newState() *state {
	return &state{
		users:          map[uuid.UUID]domain.User{},
		establishments: map[uuid.UUID]domain.Establishment{},
		departments:    map[uuid.UUID]domain.Department{},
		internships:    map[uuid.UUID]domain.Internship{},
		applications:   map[uuid.UUID]domain.Application{},
		evaluations:    map[uuid.UUID]domain.Evaluation{},
		notifications:  map[uuid.UUID]domain.Notification{},
	}
}

func cloneMap[V any](m map[uuid.UUID]V) map[uuid.UUID]V {
	out := make(map[uuid.UUID]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *state) clone() *state {
	return &state{
		users:          cloneMap(s.users),
		establishments: cloneMap(s.establishments),
		departments:    cloneMap(s.departments),
		internships:    cloneMap(s.internships),
		applications:   cloneMap(s.applications),
		evaluations:    cloneMap(s.evaluations),
		notifications:  cloneMap(s.notifications),
	}
}

type Store struct {
	mu sync.Mutex
	st *state
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{st: newState()}
}

// view routes repository calls either through the mutex or, inside a
// transaction that already holds it, straight to the state.
type view struct {
	root   *Store
	locked bool
}

func (v view) run(fn func(*state) error) error {
	if v.locked {
		return fn(v.root.st)
	}
	v.root.mu.Lock()
	defer v.root.mu.Unlock()
	return fn(v.root.st)
}

func (s *Store) Users() store.UserRepository             { return userRepo{view{root: s}} }
func (s *Store) Departments() store.DepartmentRepository { return departmentRepo{view{root: s}} }
func (s *Store) Internships() store.InternshipRepository { return internshipRepo{view{root: s}} }
func (s *Store) Applications() store.ApplicationRepository {
	return applicationRepo{view{root: s}}
}
func (s *Store) Evaluations() store.EvaluationRepository { return evaluationRepo{view{root: s}} }
func (s *Store) Notifications() store.NotificationRepository {
	return notificationRepo{view{root: s}}
}

func (s *Store) WithTx(ctx context.Context, fn func(tx store.Store) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	defer func() {
		if r := recover(); r != nil {
			s.st = snapshot
			panic(r)
		}
		if err != nil {
			s.st = snapshot
		}
	}()

	return fn(&txStore{v: view{root: s, locked: true}})
}

func (s *Store) Close() error { return nil }

type txStore struct {
	v view
}

func (t *txStore) Users() store.UserRepository                 { return userRepo{t.v} }
func (t *txStore) Departments() store.DepartmentRepository     { return departmentRepo{t.v} }
func (t *txStore) Internships() store.InternshipRepository     { return internshipRepo{t.v} }
func (t *txStore) Applications() store.ApplicationRepository   { return applicationRepo{t.v} }
func (t *txStore) Evaluations() store.EvaluationRepository     { return evaluationRepo{t.v} }
func (t *txStore) Notifications() store.NotificationRepository { return notificationRepo{t.v} }

func (t *txStore) WithTx(_ context.Context, fn func(tx store.Store) error) error {
	return fn(t)
}

func (t *txStore) Close() error { return nil }

// page applies limit/offset to an already sorted slice. limit <= 0 means no limit.
func page[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func sortDesc[T any](items []T, key func(T) (int64, uuid.UUID)) {
	sort.Slice(items, func(i, j int) bool {
		ti, idi := key(items[i])
		tj, idj := key(items[j])
		if ti != tj {
			return ti > tj
		}
		return idi.String() > idj.String()
	})
}
