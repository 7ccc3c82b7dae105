package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/medstage_backend/internal/domain"
	"github.com/Alijeyrad/medstage_backend/internal/service/notification"
	"github.com/Alijeyrad/medstage_backend/internal/store/memstore"
	"github.com/Alijeyrad/medstage_backend/pkg/push"
)

type pushCall struct {
	user  uuid.UUID
	role  string
	event push.Event
}

type fakeChannel struct {
	mu    sync.Mutex
	calls []pushCall
	err   error
	block bool
}

func (f *fakeChannel) record(ctx context.Context, c pushCall) error {
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	return f.err
}

func (f *fakeChannel) PushToUser(ctx context.Context, userID uuid.UUID, ev push.Event) error {
	return f.record(ctx, pushCall{user: userID, event: ev})
}

func (f *fakeChannel) PushToRole(ctx context.Context, role string, ev push.Event) error {
	return f.record(ctx, pushCall{role: role, event: ev})
}

// failingLedger fails Create for the listed users.
type failingLedger struct {
	notification.Service
	fail map[uuid.UUID]bool
}

func (l failingLedger) Create(ctx context.Context, userID uuid.UUID, req notification.CreateRequest) (*domain.Notification, error) {
	if l.fail[userID] {
		return nil, domain.ErrPersistence
	}
	return l.Service.Create(ctx, userID, req)
}

func seedUsers(t *testing.T, st *memstore.Store, role domain.Role, n int) []uuid.UUID {
	t.Helper()
	var ids []uuid.UUID
	for range n {
		u := &domain.User{ID: domain.NewID(), Role: role, CreatedAt: time.Now()}
		require.NoError(t, st.Users().Create(context.Background(), u))
		ids = append(ids, u.ID)
	}
	return ids
}

func payload() Payload {
	id := uuid.New()
	return Payload{
		Event:             EventInternshipCreated,
		Title:             "New internship available",
		Message:           "Cardiology",
		RelatedEntityType: "Internship",
		RelatedEntityID:   &id,
	}
}

func TestNotifyRoleWritesOneRowPerUserAndPushesOnce(t *testing.T) {
	st := memstore.New()
	students := seedUsers(t, st, domain.RoleStudent, 3)
	seedUsers(t, st, domain.RoleDoctor, 2)

	ledger := notification.New(st, notification.Options{})
	ch := &fakeChannel{}
	d := New(st, ledger, ch, Options{PushTimeout: time.Second})

	rep := d.Notify(context.Background(), ToRole(domain.RoleStudent), payload())
	assert.Equal(t, Report{Recipients: 3, Persisted: 3}, rep)

	for _, id := range students {
		list, err := ledger.ListForUser(context.Background(), id, 10, 0)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, domain.NotificationInfo, list[0].Type)
		assert.False(t, list[0].IsRead)
	}

	require.Len(t, ch.calls, 1)
	assert.Equal(t, "student", ch.calls[0].role)
	assert.Nil(t, ch.calls[0].event.NotificationID)
}

func TestNotifyUsersDeduplicatesAndCarriesNotificationID(t *testing.T) {
	st := memstore.New()
	ledger := notification.New(st, notification.Options{})
	ch := &fakeChannel{}
	d := New(st, ledger, ch, Options{})

	user := uuid.New()
	rep := d.Notify(context.Background(), ToUsers(user, user, uuid.Nil), payload())
	assert.Equal(t, 1, rep.Recipients)
	assert.Equal(t, 1, rep.Persisted)

	list, _ := ledger.ListForUser(context.Background(), user, 10, 0)
	require.Len(t, list, 1)
	require.Len(t, ch.calls, 1)
	assert.Equal(t, user, ch.calls[0].user)
	require.NotNil(t, ch.calls[0].event.NotificationID)
	assert.Equal(t, list[0].ID, *ch.calls[0].event.NotificationID)
}

func TestNotifyKeepsGoingAfterLedgerFailure(t *testing.T) {
	st := memstore.New()
	ok1, bad, ok2 := uuid.New(), uuid.New(), uuid.New()
	ledger := failingLedger{Service: notification.New(st, notification.Options{}), fail: map[uuid.UUID]bool{bad: true}}
	ch := &fakeChannel{}
	d := New(st, ledger, ch, Options{})

	rep := d.Notify(context.Background(), ToUsers(ok1, bad, ok2), payload())
	assert.Equal(t, Report{Recipients: 3, Persisted: 2, Failed: 1}, rep)
	assert.Len(t, ch.calls, 2, "only persisted rows are pushed")
}

func TestNotifySwallowsPushErrors(t *testing.T) {
	st := memstore.New()
	ledger := notification.New(st, notification.Options{})
	d := New(st, ledger, &fakeChannel{err: errors.New("socket gone")}, Options{})

	rep := d.Notify(context.Background(), ToUsers(uuid.New(), uuid.New()), payload())
	assert.Equal(t, 2, rep.Persisted)
	assert.Equal(t, 2, rep.PushFailed)
}

func TestNotifyBoundsPushWithTimeout(t *testing.T) {
	st := memstore.New()
	ledger := notification.New(st, notification.Options{})
	d := New(st, ledger, &fakeChannel{block: true}, Options{PushTimeout: 20 * time.Millisecond})

	start := time.Now()
	rep := d.Notify(context.Background(), ToUsers(uuid.New()), payload())
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, 1, rep.Persisted)
	assert.Equal(t, 1, rep.PushFailed)
}

func TestNotifyIgnoresCallerCancellation(t *testing.T) {
	st := memstore.New()
	ledger := notification.New(st, notification.Options{})
	ch := &fakeChannel{}
	d := New(st, ledger, ch, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep := d.Notify(ctx, ToUsers(uuid.New()), payload())
	assert.Equal(t, 1, rep.Persisted)
	assert.Len(t, ch.calls, 1)
}

func TestNotifyWithoutChannel(t *testing.T) {
	st := memstore.New()
	d := New(st, notification.New(st, notification.Options{}), nil, Options{})

	rep := d.Notify(context.Background(), ToUsers(uuid.New()), payload())
	assert.Equal(t, Report{Recipients: 1, Persisted: 1}, rep)
}

func TestChiefOr(t *testing.T) {
	chief := uuid.New()
	assert.False(t, ChiefOr(&chief).IsRole())
	assert.True(t, ChiefOr(nil).IsRole())
	assert.Equal(t, "role:service_chief", ChiefOr(nil).String())
}

func TestApplicationDecidedPayload(t *testing.T) {
	in := &domain.Internship{ID: uuid.New(), Title: "Pediatrics"}
	a := &domain.Application{ID: uuid.New(), Status: domain.ApplicationRejected, RejectionReason: "no places left"}

	p := ApplicationDecided(a, in)
	assert.Equal(t, EventApplicationRejected, p.Event)
	assert.Equal(t, domain.NotificationError, p.Type)
	assert.Contains(t, p.Message, "no places left")

	a.Status = domain.ApplicationAccepted
	p = ApplicationDecided(a, in)
	assert.Equal(t, EventApplicationAccepted, p.Event)
	assert.Equal(t, domain.NotificationSuccess, p.Type)
}
