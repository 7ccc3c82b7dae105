// Package servicetest wires the lifecycle services over the in-memory store
// for package tests.
package servicetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/medstage_backend/internal/domain"
	"github.com/Alijeyrad/medstage_backend/internal/service/dispatch"
	"github.com/Alijeyrad/medstage_backend/internal/service/notification"
	"github.com/Alijeyrad/medstage_backend/internal/store/memstore"
	"github.com/Alijeyrad/medstage_backend/pkg/push"
)

// Now is the fixed clock the fixture's internships are dated against.
var Now = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type Fixture struct {
	Store  *memstore.Store
	Push   *push.Registry
	Ledger notification.Service
	Notify dispatch.Dispatcher

	Dean       domain.Actor
	Chief      domain.Actor
	OtherChief domain.Actor
	Doctor     domain.Actor
	Students   []domain.Actor

	EstablishmentID uuid.UUID
	DepartmentID    uuid.UUID
}

// New seeds one dean, two chiefs, one doctor and the given number of students.
func New(t testing.TB, students int) *Fixture {
	t.Helper()
	ctx := context.Background()

	st := memstore.New()
	reg := push.NewRegistry(64)
	t.Cleanup(func() { _ = reg.Close() })

	ledger := notification.New(st, notification.Options{})
	f := &Fixture{
		Store:  st,
		Push:   reg,
		Ledger: ledger,
		Notify: dispatch.New(st, ledger, reg, dispatch.Options{PushTimeout: time.Second}),
	}

	f.Dean = f.user(t, domain.RoleDean)
	f.Chief = f.user(t, domain.RoleServiceChief)
	f.OtherChief = f.user(t, domain.RoleServiceChief)
	f.Doctor = f.user(t, domain.RoleDoctor)
	for range students {
		f.Students = append(f.Students, f.user(t, domain.RoleStudent))
	}

	est := &domain.Establishment{ID: domain.NewID(), Name: "CHU Ibn Rochd"}
	require.NoError(t, st.Departments().CreateEstablishment(ctx, est))
	dep := &domain.Department{ID: domain.NewID(), EstablishmentID: est.ID, Name: "Cardiology", ChiefID: &f.Chief.UserID}
	require.NoError(t, st.Departments().CreateDepartment(ctx, dep))
	f.EstablishmentID, f.DepartmentID = est.ID, dep.ID

	return f
}

func (f *Fixture) user(t testing.TB, role domain.Role) domain.Actor {
	t.Helper()
	u := &domain.User{ID: domain.NewID(), FullName: role.String(), Role: role, CreatedAt: Now}
	require.NoError(t, f.Store.Users().Create(context.Background(), u))
	return domain.Actor{UserID: u.ID, Role: role}
}

// AddDoctor seeds an extra doctor.
func (f *Fixture) AddDoctor(t testing.TB) domain.Actor {
	t.Helper()
	return f.user(t, domain.RoleDoctor)
}

// Internship stores an active internship run by Chief straight through the
// store, bypassing notifications. opts may adjust it before it is saved.
func (f *Fixture) Internship(t testing.TB, places int, opts ...func(*domain.Internship)) *domain.Internship {
	t.Helper()
	in := &domain.Internship{
		ID:              domain.NewID(),
		Title:           "Cardiology rotation",
		DepartmentID:    f.DepartmentID,
		EstablishmentID: f.EstablishmentID,
		ChiefID:         lo.ToPtr(f.Chief.UserID),
		CreatedBy:       f.Chief.UserID,
		TotalPlaces:     places,
		Status:          domain.InternshipActive,
		StartDate:       Now.AddDate(0, 1, 0),
		EndDate:         Now.AddDate(0, 4, 0),
		CreatedAt:       Now,
		UpdatedAt:       Now,
	}
	for _, opt := range opts {
		opt(in)
	}
	require.NoError(t, f.Store.Internships().Create(context.Background(), in))
	return in
}

// Reload reads the internship back from the store.
func (f *Fixture) Reload(t testing.TB, id uuid.UUID) *domain.Internship {
	t.Helper()
	in, err := f.Store.Internships().Get(context.Background(), id)
	require.NoError(t, err)
	return in
}

// Titles lists the ledger titles of userID, newest first.
func (f *Fixture) Titles(t testing.TB, userID uuid.UUID) []string {
	t.Helper()
	list, err := f.Store.Notifications().ListForUser(context.Background(), userID, 0, 0)
	require.NoError(t, err)
	return lo.Map(list, func(n *domain.Notification, _ int) string { return n.Title })
}

// Unread counts the unread ledger rows of userID.
func (f *Fixture) Unread(t testing.TB, userID uuid.UUID) int {
	t.Helper()
	n, err := f.Store.Notifications().CountUnread(context.Background(), userID)
	require.NoError(t, err)
	return n
}
