// Package push delivers real-time events to connected users. A Channel
// publishes to a user or a role topic; the Registry fans topics out to the
// local subscribers (SSE streams). The redis and nats channels let several
// API instances share one topic space.
package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var ErrClosed = errors.New("push: channel closed")

// Event is the payload delivered to a subscriber.
type Event struct {
	Name              string     `json:"event"`
	NotificationID    *uuid.UUID `json:"notification_id,omitempty"`
	Type              string     `json:"type"`
	Title             string     `json:"title"`
	Message           string     `json:"message"`
	RelatedEntityType string     `json:"related_entity_type,omitempty"`
	RelatedEntityID   *uuid.UUID `json:"related_entity_id,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// Channel is the best-effort push side of the notification dispatcher.
type Channel interface {
	PushToUser(ctx context.Context, userID uuid.UUID, ev Event) error
	PushToRole(ctx context.Context, role string, ev Event) error
}

// Relay copies events published by other instances into a local Registry
// until ctx is done.
type Relay interface {
	Relay(ctx context.Context, reg *Registry) error
}

const (
	userTopicPrefix = "user-"
	roleTopicPrefix = "role-"
)

func UserTopic(id uuid.UUID) string { return userTopicPrefix + id.String() }

func RoleTopic(role string) string { return roleTopicPrefix + role }

// ValidTopic reports whether topic names a user or role room.
func ValidTopic(topic string) bool {
	switch {
	case strings.HasPrefix(topic, userTopicPrefix):
		_, err := uuid.Parse(strings.TrimPrefix(topic, userTopicPrefix))
		return err == nil
	case strings.HasPrefix(topic, roleTopicPrefix):
		return len(topic) > len(roleTopicPrefix)
	}
	return false
}

func encode(ev Event) ([]byte, error) {
	b, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("push: encode event: %w", err)
	}
	return b, nil
}

var relayed, _ = otel.Meter("github.com/Alijeyrad/medstage_backend/pkg/push").Int64Counter(
	"push_relayed_events_total",
	metric.WithDescription("Events copied from a shared push backend into the local registry"),
)

func countRelayed(ctx context.Context, backend string) {
	relayed.Add(ctx, 1, metric.WithAttributes(attribute.String("backend", backend)))
}

func decode(b []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(b, &ev); err != nil {
		return Event{}, fmt.Errorf("push: decode event: %w", err)
	}
	return ev, nil
}
