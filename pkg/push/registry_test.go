package push

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, sub *Subscription) Event {
	t.Helper()
	select {
	case ev, ok := <-sub.Events():
		require.True(t, ok, "subscription closed")
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestRegistryRoutesByTopic(t *testing.T) {
	reg := NewRegistry(4)
	defer reg.Close()

	alice, bob := uuid.New(), uuid.New()
	aliceSub := reg.Subscribe(context.Background(), UserTopic(alice), RoleTopic("dean"))
	bobSub := reg.Subscribe(context.Background(), UserTopic(bob))

	require.NoError(t, reg.PushToUser(context.Background(), alice, Event{Name: "application:accepted"}))
	require.NoError(t, reg.PushToRole(context.Background(), "dean", Event{Name: "internship:created"}))

	assert.Equal(t, "application:accepted", receive(t, aliceSub).Name)
	assert.Equal(t, "internship:created", receive(t, aliceSub).Name)

	select {
	case ev := <-bobSub.Events():
		t.Fatalf("bob received %v", ev)
	default:
	}
}

func TestRegistryDropsSlowSubscriber(t *testing.T) {
	reg := NewRegistry(1)
	defer reg.Close()

	topic := UserTopic(uuid.New())
	sub := reg.Subscribe(context.Background(), topic)

	assert.Equal(t, 1, reg.Publish(topic, Event{Name: "first"}))
	assert.Equal(t, 0, reg.Publish(topic, Event{Name: "second"}))

	assert.Eventually(t, func() bool { return reg.Subscribers(topic) == 0 }, time.Second, 10*time.Millisecond)

	ev, ok := <-sub.Events()
	assert.True(t, ok)
	assert.Equal(t, "first", ev.Name)
	_, ok = <-sub.Events()
	assert.False(t, ok)
}

func TestRegistryUnsubscribesOnContextDone(t *testing.T) {
	reg := NewRegistry(1)
	defer reg.Close()

	topic := RoleTopic("doctor")
	ctx, cancel := context.WithCancel(context.Background())
	reg.Subscribe(ctx, topic)
	require.Equal(t, 1, reg.Subscribers(topic))

	cancel()
	assert.Eventually(t, func() bool { return reg.Subscribers(topic) == 0 }, time.Second, 10*time.Millisecond)
}

func TestRegistryClosed(t *testing.T) {
	reg := NewRegistry(1)
	sub := reg.Subscribe(context.Background(), RoleTopic("student"))
	require.NoError(t, reg.Close())
	require.NoError(t, reg.Close())

	_, ok := <-sub.Events()
	assert.False(t, ok)
	assert.ErrorIs(t, reg.PushToRole(context.Background(), "student", Event{}), ErrClosed)

	late := reg.Subscribe(context.Background(), RoleTopic("student"))
	_, ok = <-late.Events()
	assert.False(t, ok)
	late.Close()
}

func TestValidTopic(t *testing.T) {
	tests := []struct {
		topic string
		want  bool
	}{
		{UserTopic(uuid.New()), true},
		{RoleTopic("service_chief"), true},
		{"user-not-a-uuid", false},
		{"role-", false},
		{"admin", false},
	}
	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidTopic(tt.topic))
		})
	}
}

func TestEventRoundTrip(t *testing.T) {
	id := uuid.New()
	in := Event{Name: "evaluation:submitted", NotificationID: &id, Type: "success", Title: "t", Message: "m"}

	b, err := encode(in)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"event":"evaluation:submitted"`)

	out, err := decode(b)
	require.NoError(t, err)
	assert.Equal(t, in.Name, out.Name)
	assert.Equal(t, id, *out.NotificationID)

	_, err = decode([]byte("{"))
	assert.Error(t, err)
}
