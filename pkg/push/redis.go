package push

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// RedisChannel publishes events on redis pub/sub channels named
// "<prefix>:<topic>".
type RedisChannel struct {
	rdb    *goredis.Client
	prefix string
}

var (
	_ Channel = (*RedisChannel)(nil)
	_ Relay   = (*RedisChannel)(nil)
)

func NewRedisChannel(rdb *goredis.Client, prefix string) *RedisChannel {
	return &RedisChannel{rdb: rdb, prefix: prefix}
}

func (c *RedisChannel) channel(topic string) string { return c.prefix + ":" + topic }

func (c *RedisChannel) publish(ctx context.Context, topic string, ev Event) error {
	b, err := encode(ev)
	if err != nil {
		return err
	}
	if err := c.rdb.Publish(ctx, c.channel(topic), b).Err(); err != nil {
		return fmt.Errorf("push: redis publish %s: %w", topic, err)
	}
	return nil
}

func (c *RedisChannel) PushToUser(ctx context.Context, userID uuid.UUID, ev Event) error {
	return c.publish(ctx, UserTopic(userID), ev)
}

func (c *RedisChannel) PushToRole(ctx context.Context, role string, ev Event) error {
	return c.publish(ctx, RoleTopic(role), ev)
}

func (c *RedisChannel) Relay(ctx context.Context, reg *Registry) error {
	ps := c.rdb.PSubscribe(ctx, c.channel("*"))
	defer ps.Close()

	if _, err := ps.Receive(ctx); err != nil {
		return fmt.Errorf("push: redis psubscribe: %w", err)
	}

	msgs := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			ev, err := decode([]byte(msg.Payload))
			if err != nil {
				slog.Warn("push: dropping redis message", "channel", msg.Channel, "err", err)
				continue
			}
			reg.Publish(strings.TrimPrefix(msg.Channel, c.prefix+":"), ev)
			countRelayed(ctx, "redis")
		}
	}
}
