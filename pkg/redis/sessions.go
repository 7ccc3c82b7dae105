package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// Sessions tracks access-token sessions issued by the identity service.
// A token whose sid has no key here has been revoked.
type Sessions struct {
	rdb    goredis.UniversalClient
	prefix string
}

func NewSessions(rdb goredis.UniversalClient, prefix string) *Sessions {
	if prefix == "" {
		prefix = "session"
	}
	return &Sessions{rdb: rdb, prefix: prefix}
}

func (s *Sessions) key(sid string) string { return s.prefix + ":" + sid }

// Put records sid for userID until ttl elapses.
func (s *Sessions) Put(ctx context.Context, sid string, userID uuid.UUID, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, s.key(sid), userID.String(), ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// Active reports whether sid is live and belongs to userID.
func (s *Sessions) Active(ctx context.Context, sid string, userID uuid.UUID) (bool, error) {
	owner, err := s.rdb.Get(ctx, s.key(sid)).Result()
	if errors.Is(err, goredis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load session: %w", err)
	}
	return owner == userID.String(), nil
}

func (s *Sessions) Revoke(ctx context.Context, sid string) error {
	if err := s.rdb.Del(ctx, s.key(sid)).Err(); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}
