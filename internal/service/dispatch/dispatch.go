// Package dispatch fans lifecycle events out to the notification ledger and
// the push channel. Nothing here ever fails the calling operation.
package dispatch

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Alijeyrad/medstage_backend/internal/domain"
	"github.com/Alijeyrad/medstage_backend/internal/service/notification"
	"github.com/Alijeyrad/medstage_backend/internal/store"
	"github.com/Alijeyrad/medstage_backend/pkg/push"
)

const meterName = "github.com/Alijeyrad/medstage_backend/internal/service/dispatch"

// Audience is either an explicit user list or every user holding a role.
type Audience struct {
	users []uuid.UUID
	role  domain.Role
}

func ToUsers(ids ...uuid.UUID) Audience {
	ids = lo.Uniq(lo.Filter(ids, func(id uuid.UUID, _ int) bool { return id != uuid.Nil }))
	return Audience{users: ids}
}

func ToRole(r domain.Role) Audience { return Audience{role: r} }

// ChiefOr targets the assigned chief when there is one, otherwise every service chief.
func ChiefOr(chiefID *uuid.UUID) Audience {
	if chiefID != nil && *chiefID != uuid.Nil {
		return ToUsers(*chiefID)
	}
	return ToRole(domain.RoleServiceChief)
}

func (a Audience) IsRole() bool { return !a.role.IsZero() }

func (a Audience) String() string {
	if a.IsRole() {
		return "role:" + a.role.String()
	}
	return "users"
}

type Payload struct {
	Event             string
	Type              domain.NotificationType
	Title             string
	Message           string
	RelatedEntityType string
	RelatedEntityID   *uuid.UUID
}

// Report summarizes one fan-out.
type Report struct {
	Recipients int
	Persisted  int
	Failed     int
	PushFailed int
}

type Dispatcher interface {
	Notify(ctx context.Context, to Audience, p Payload) Report
}

type Options struct {
	PushTimeout time.Duration
}

type dispatcher struct {
	st     store.Store
	ledger notification.Service
	ch     push.Channel
	opts   Options

	ledgerFailures metric.Int64Counter
	pushFailures   metric.Int64Counter
	delivered      metric.Int64Counter
}

func New(st store.Store, ledger notification.Service, ch push.Channel, opts Options) Dispatcher {
	if opts.PushTimeout <= 0 {
		opts.PushTimeout = 2 * time.Second
	}

	meter := otel.Meter(meterName)
	ledgerFailures, _ := meter.Int64Counter(
		"notification_ledger_failures_total",
		metric.WithDescription("Notifications that could not be written to the ledger"),
	)
	pushFailures, _ := meter.Int64Counter(
		"notification_push_failures_total",
		metric.WithDescription("Push deliveries that failed or timed out"),
	)
	delivered, _ := meter.Int64Counter(
		"notifications_persisted_total",
		metric.WithDescription("Notifications written to the ledger"),
	)

	return &dispatcher{
		st:             st,
		ledger:         ledger,
		ch:             ch,
		opts:           opts,
		ledgerFailures: ledgerFailures,
		pushFailures:   pushFailures,
		delivered:      delivered,
	}
}

func (d *dispatcher) Notify(ctx context.Context, to Audience, p Payload) Report {
	// The fan-out outlives the request that triggered it.
	ctx = context.WithoutCancel(ctx)
	if p.Type == "" {
		p.Type = domain.NotificationInfo
	}
	attrs := metric.WithAttributes(attribute.String("event", p.Event))

	recipients, err := d.resolve(ctx, to)
	if err != nil {
		slog.Error("dispatch: resolve audience failed", "audience", to.String(), "event", p.Event, "err", err)
		d.ledgerFailures.Add(ctx, 1, attrs)
		return Report{Failed: 1}
	}

	rep := Report{Recipients: len(recipients)}
	req := notification.CreateRequest{
		Type:              string(p.Type),
		Title:             p.Title,
		Message:           p.Message,
		RelatedEntityType: p.RelatedEntityType,
		RelatedEntityID:   p.RelatedEntityID,
	}

	saved := make(map[uuid.UUID]*domain.Notification, len(recipients))
	for _, uid := range recipients {
		n, err := d.ledger.Create(ctx, uid, req)
		if err != nil {
			rep.Failed++
			d.ledgerFailures.Add(ctx, 1, attrs)
			slog.Warn("dispatch: ledger write failed", "user_id", uid, "event", p.Event, "err", err)
			continue
		}
		rep.Persisted++
		saved[uid] = n
	}
	d.delivered.Add(ctx, int64(rep.Persisted), attrs)

	if d.ch == nil {
		return rep
	}

	if to.IsRole() {
		ev := event(p, nil, time.Now().UTC())
		if err := d.push(ctx, func(ctx context.Context) error { return d.ch.PushToRole(ctx, to.role.String(), ev) }); err != nil {
			rep.PushFailed++
			d.pushFailures.Add(ctx, 1, attrs)
			slog.Warn("dispatch: push failed", "role", to.role.String(), "event", p.Event, "err", err)
		}
		return rep
	}

	for _, uid := range recipients {
		n, ok := saved[uid]
		if !ok {
			continue
		}
		ev := event(p, &n.ID, n.CreatedAt)
		if err := d.push(ctx, func(ctx context.Context) error { return d.ch.PushToUser(ctx, uid, ev) }); err != nil {
			rep.PushFailed++
			d.pushFailures.Add(ctx, 1, attrs)
			slog.Warn("dispatch: push failed", "user_id", uid, "event", p.Event, "err", err)
		}
	}
	return rep
}

func (d *dispatcher) resolve(ctx context.Context, to Audience) ([]uuid.UUID, error) {
	if !to.IsRole() {
		return to.users, nil
	}
	ids, err := d.st.Users().ListIDsByRole(ctx, to.role)
	if err != nil {
		return nil, err
	}
	return lo.Uniq(ids), nil
}

func (d *dispatcher) push(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, d.opts.PushTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- fn(ctx) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func event(p Payload, notificationID *uuid.UUID, at time.Time) push.Event {
	return push.Event{
		Name:              p.Event,
		NotificationID:    notificationID,
		Type:              string(p.Type),
		Title:             p.Title,
		Message:           p.Message,
		RelatedEntityType: p.RelatedEntityType,
		RelatedEntityID:   p.RelatedEntityID,
		CreatedAt:         at,
	}
}
