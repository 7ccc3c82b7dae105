package redis

import (
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Alijeyrad/medstage_backend/config"
)

const (
	defaultPoolSize     = 10
	defaultMinIdleConns = 2
	defaultDialTimeout  = 5 * time.Second
	defaultIOTimeout    = 3 * time.Second
)

func seconds(n int, fallback time.Duration) time.Duration {
	if n <= 0 {
		return fallback
	}
	return time.Duration(n) * time.Second
}

// Options maps the central redis section onto client options, filling unset
// pool sizes and timeouts with defaults.
func Options(c config.RedisConfig) *goredis.Options {
	opts := &goredis.Options{
		Addr:         c.Addr,
		Username:     c.Username,
		Password:     c.Password,
		DB:           c.DB,
		PoolSize:     c.PoolSize,
		MinIdleConns: c.MinIdleConns,
		DialTimeout:  seconds(c.DialTimeoutSeconds, defaultDialTimeout),
		ReadTimeout:  seconds(c.ReadTimeoutSeconds, defaultIOTimeout),
		WriteTimeout: seconds(c.WriteTimeoutSeconds, defaultIOTimeout),
	}
	if opts.PoolSize <= 0 {
		opts.PoolSize = defaultPoolSize
	}
	if opts.MinIdleConns <= 0 {
		opts.MinIdleConns = defaultMinIdleConns
	}
	return opts
}
