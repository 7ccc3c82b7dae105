package internship

import (
	"context"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/medstage_backend/pkg/constants"
	"github.com/Alijeyrad/medstage_backend/internal/domain"
	"github.com/Alijeyrad/medstage_backend/internal/service/servicetest"
	"github.com/Alijeyrad/medstage_backend/pkg/push"
)

func newService(f *servicetest.Fixture) *internshipService {
	s := New(f.Store, f.Notify).(*internshipService)
	s.now = func() time.Time { return servicetest.Now }
	return s
}

func createRequest(f *servicetest.Fixture) CreateRequest {
	return CreateRequest{
		Title:        "  Pediatrics  ",
		DepartmentID: f.DepartmentID,
		TotalPlaces:  2,
		StartDate:    servicetest.Now.AddDate(0, 1, 0),
		EndDate:      servicetest.Now.AddDate(0, 3, 0),
		Requirements: []string{"vaccination record", "", "white coat"},
	}
}

func TestCreateNotifiesEveryStudentOnce(t *testing.T) {
	f := servicetest.New(t, 4)
	s := newService(f)
	ctx := context.Background()

	sub := f.Push.Subscribe(ctx, push.RoleTopic(domain.RoleStudent.String()))
	defer sub.Close()

	in, err := s.Create(ctx, f.Dean, createRequest(f))
	require.NoError(t, err)
	assert.Equal(t, "Pediatrics", in.Title)
	assert.Equal(t, domain.InternshipActive, in.Status)
	assert.Equal(t, 0, in.FilledPlaces)
	assert.Equal(t, f.EstablishmentID, in.EstablishmentID)
	assert.Equal(t, []string{"vaccination record", "white coat"}, in.Requirements)
	assert.Nil(t, in.ChiefID)

	for _, st := range f.Students {
		list, err := f.Store.Notifications().ListForUser(ctx, st.UserID, 0, 0)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, constants.EntityInternship, list[0].RelatedEntityType)
		require.NotNil(t, list[0].RelatedEntityID)
		assert.Equal(t, in.ID, *list[0].RelatedEntityID)
	}
	assert.Empty(t, f.Titles(t, f.Doctor.UserID))
	assert.Empty(t, f.Titles(t, f.Chief.UserID))

	select {
	case ev := <-sub.Events():
		assert.Equal(t, "internship:created", ev.Name)
		assert.Nil(t, ev.NotificationID)
	case <-time.After(time.Second):
		t.Fatal("no push on the student role topic")
	}
}

func TestCreateByChiefAssignsChief(t *testing.T) {
	f := servicetest.New(t, 0)
	s := newService(f)

	in, err := s.Create(context.Background(), f.Chief, createRequest(f))
	require.NoError(t, err)
	require.NotNil(t, in.ChiefID)
	assert.Equal(t, f.Chief.UserID, *in.ChiefID)
	assert.Equal(t, f.Chief.UserID, in.CreatedBy)
}

func TestRequirementsAreTrimmed(t *testing.T) {
	f := servicetest.New(t, 0)
	s := newService(f)
	ctx := context.Background()

	req := createRequest(f)
	req.Requirements = []string{" ", " BLS certificate ", ""}
	in, err := s.Create(ctx, f.Dean, req)
	require.NoError(t, err)
	assert.Equal(t, []string{"BLS certificate"}, in.Requirements)

	got, err := s.Update(ctx, f.Dean, in.ID, UpdateRequest{Requirements: []string{"  ", "vaccination record  "}})
	require.NoError(t, err)
	assert.Equal(t, []string{"vaccination record"}, got.Requirements)
}

func TestCreateValidation(t *testing.T) {
	f := servicetest.New(t, 1)
	s := newService(f)
	ctx := context.Background()

	tests := []struct {
		name    string
		actor   domain.Actor
		mutate  func(*CreateRequest)
		wantErr error
	}{
		{"student", f.Students[0], nil, domain.ErrUnauthorized},
		{"doctor", f.Doctor, nil, domain.ErrUnauthorized},
		{"no title", f.Dean, func(r *CreateRequest) { r.Title = " " }, domain.ErrValidation},
		{"no places", f.Dean, func(r *CreateRequest) { r.TotalPlaces = 0 }, domain.ErrValidation},
		{"end before start", f.Dean, func(r *CreateRequest) { r.EndDate = r.StartDate.AddDate(0, 0, -1) }, domain.ErrValidation},
		{"unknown department", f.Dean, func(r *CreateRequest) { r.DepartmentID = domain.NewID() }, ErrDepartmentNotFound},
		{"foreign establishment", f.Dean, func(r *CreateRequest) { r.EstablishmentID = domain.NewID() }, domain.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := createRequest(f)
			if tt.mutate != nil {
				tt.mutate(&req)
			}
			_, err := s.Create(ctx, tt.actor, req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Empty(t, f.Titles(t, f.Students[0].UserID))
}

func TestCloseOrArchive(t *testing.T) {
	f := servicetest.New(t, 1)
	s := newService(f)
	ctx := context.Background()

	tests := []struct {
		name    string
		actor   domain.Actor
		setup   func(*domain.Internship)
		to      domain.InternshipStatus
		wantErr error
	}{
		{name: "chief closes", actor: f.Chief, to: domain.InternshipClosed},
		{name: "dean archives", actor: f.Dean, to: domain.InternshipArchived},
		{name: "other chief", actor: f.OtherChief, to: domain.InternshipClosed, wantErr: domain.ErrUnauthorized},
		{name: "student", actor: f.Students[0], to: domain.InternshipClosed, wantErr: domain.ErrUnauthorized},
		{
			name: "closed is final", actor: f.Chief, to: domain.InternshipActive,
			setup:   func(in *domain.Internship) { in.Status = domain.InternshipClosed },
			wantErr: domain.ErrInvalidTransition,
		},
		{name: "full with free places", actor: f.Chief, to: domain.InternshipFull, wantErr: domain.ErrInvalidTransition},
		{
			name: "reopen with no room", actor: f.Chief, to: domain.InternshipActive,
			setup:   func(in *domain.Internship) { in.Status, in.FilledPlaces = domain.InternshipFull, 2 },
			wantErr: domain.ErrInvalidTransition,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts []func(*domain.Internship)
			if tt.setup != nil {
				opts = append(opts, tt.setup)
			}
			in := f.Internship(t, 2, opts...)

			got, err := s.CloseOrArchive(ctx, tt.actor, in.ID, tt.to)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, in.Status, f.Reload(t, in.ID).Status)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, got.Status)
			assert.Equal(t, tt.to, f.Reload(t, in.ID).Status)
		})
	}

	assert.Equal(t, []string{"Internship closed"}, f.Titles(t, f.Students[0].UserID))
}

func TestUpdateRecomputesCapacity(t *testing.T) {
	f := servicetest.New(t, 1)
	s := newService(f)
	ctx := context.Background()
	in := f.Internship(t, 2, func(in *domain.Internship) { in.FilledPlaces = 1 })

	got, err := s.Update(ctx, f.Chief, in.ID, UpdateRequest{TotalPlaces: lo.ToPtr(1)})
	require.NoError(t, err)
	assert.Equal(t, domain.InternshipFull, got.Status)

	got, err = s.Update(ctx, f.Chief, in.ID, UpdateRequest{TotalPlaces: lo.ToPtr(3), Title: lo.ToPtr("Cardiology II")})
	require.NoError(t, err)
	assert.Equal(t, domain.InternshipActive, got.Status)
	assert.Equal(t, "Cardiology II", got.Title)

	_, err = s.Update(ctx, f.Chief, in.ID, UpdateRequest{TotalPlaces: lo.ToPtr(0)})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = s.Update(ctx, f.OtherChief, in.ID, UpdateRequest{Title: lo.ToPtr("x")})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	assert.Equal(t, []string{"Internship updated", "Internship full"}, f.Titles(t, f.Students[0].UserID))
}

func TestUpdateLeavesClosedAlone(t *testing.T) {
	f := servicetest.New(t, 1)
	s := newService(f)
	in := f.Internship(t, 2, func(in *domain.Internship) { in.Status = domain.InternshipClosed })

	got, err := s.Update(context.Background(), f.Dean, in.ID, UpdateRequest{TotalPlaces: lo.ToPtr(5)})
	require.NoError(t, err)
	assert.Equal(t, domain.InternshipClosed, got.Status)
	assert.Equal(t, 5, got.TotalPlaces)
	assert.Empty(t, f.Titles(t, f.Students[0].UserID))
}

func TestDelete(t *testing.T) {
	f := servicetest.New(t, 1)
	s := newService(f)
	ctx := context.Background()
	in := f.Internship(t, 2)

	app := &domain.Application{
		ID: domain.NewID(), StudentID: f.Students[0].UserID, InternshipID: in.ID,
		Status: domain.ApplicationAccepted, AppliedAt: servicetest.Now,
	}
	require.NoError(t, f.Store.Applications().Create(ctx, app))
	ev := &domain.Evaluation{
		ID: domain.NewID(), ApplicationID: app.ID, StudentID: app.StudentID, InternshipID: in.ID,
		DoctorID: f.Doctor.UserID, Status: domain.EvaluationPending, CreatedAt: servicetest.Now, UpdatedAt: servicetest.Now,
	}
	require.NoError(t, f.Store.Evaluations().Create(ctx, ev))

	assert.ErrorIs(t, s.Delete(ctx, f.Chief, in.ID), domain.ErrUnauthorized)

	require.NoError(t, s.Delete(ctx, f.Dean, in.ID))
	_, err := s.Get(ctx, f.Dean, in.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.Store.Applications().Get(ctx, app.ID)
	assert.Error(t, err)
	_, err = f.Store.Evaluations().Get(ctx, ev.ID)
	assert.Error(t, err)

	assert.ErrorIs(t, s.Delete(ctx, f.Dean, in.ID), ErrNotFound)
}

func TestStudentView(t *testing.T) {
	f := servicetest.New(t, 1)
	s := newService(f)
	ctx := context.Background()
	student := f.Students[0]

	applied := f.Internship(t, 2)
	open := f.Internship(t, 2)
	closed := f.Internship(t, 2, func(in *domain.Internship) { in.Status = domain.InternshipClosed })
	require.NoError(t, f.Store.Applications().Create(ctx, &domain.Application{
		ID: domain.NewID(), StudentID: student.UserID, InternshipID: applied.ID,
		Status: domain.ApplicationPending, AppliedAt: servicetest.Now,
	}))

	list, err := s.List(ctx, student, ListFilter{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	byID := lo.SliceToMap(list, func(v *View) (string, bool) { return v.ID.String(), *v.HasApplied })
	assert.True(t, byID[applied.ID.String()])
	assert.False(t, byID[open.ID.String()])

	_, err = s.Get(ctx, student, closed.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	status := domain.InternshipClosed
	list, err = s.List(ctx, student, ListFilter{Status: &status})
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = s.List(ctx, f.Dean, ListFilter{Status: &status})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Nil(t, list[0].HasApplied)

	v, err := s.Get(ctx, f.Dean, closed.ID)
	require.NoError(t, err)
	assert.Equal(t, closed.ID, v.ID)
}
