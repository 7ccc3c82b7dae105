package push

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// NatsChannel publishes events on subjects named "<prefix>.<topic>".
type NatsChannel struct {
	nc     *nats.Conn
	prefix string
}

var (
	_ Channel = (*NatsChannel)(nil)
	_ Relay   = (*NatsChannel)(nil)
)

func NewNatsChannel(nc *nats.Conn, prefix string) *NatsChannel {
	return &NatsChannel{nc: nc, prefix: prefix}
}

func (c *NatsChannel) subject(topic string) string { return c.prefix + "." + topic }

func (c *NatsChannel) publish(ctx context.Context, topic string, ev Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := encode(ev)
	if err != nil {
		return err
	}
	if err := c.nc.Publish(c.subject(topic), b); err != nil {
		return fmt.Errorf("push: nats publish %s: %w", topic, err)
	}
	return nil
}

func (c *NatsChannel) PushToUser(ctx context.Context, userID uuid.UUID, ev Event) error {
	return c.publish(ctx, UserTopic(userID), ev)
}

func (c *NatsChannel) PushToRole(ctx context.Context, role string, ev Event) error {
	return c.publish(ctx, RoleTopic(role), ev)
}

func (c *NatsChannel) Relay(ctx context.Context, reg *Registry) error {
	sub, err := c.nc.Subscribe(c.subject(">"), func(msg *nats.Msg) {
		ev, err := decode(msg.Data)
		if err != nil {
			slog.Warn("push: dropping nats message", "subject", msg.Subject, "err", err)
			return
		}
		reg.Publish(strings.TrimPrefix(msg.Subject, c.prefix+"."), ev)
		countRelayed(ctx, "nats")
	})
	if err != nil {
		return fmt.Errorf("push: nats subscribe: %w", err)
	}
	defer func() { _ = sub.Unsubscribe() }()

	<-ctx.Done()
	return nil
}
