package redis

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Alijeyrad/medstage_backend/config"
)

var ErrNotConfigured = errors.New("redis: addr is empty")

// New connects and pings. An empty addr returns ErrNotConfigured so callers
// can run without redis.
func New(ctx context.Context, cfg config.RedisConfig) (*goredis.Client, error) {
	if cfg.Addr == "" {
		return nil, ErrNotConfigured
	}

	rdb := goredis.NewClient(Options(cfg))
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}
