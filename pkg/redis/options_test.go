package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Alijeyrad/medstage_backend/config"
)

func TestOptionsDefaults(t *testing.T) {
	opts := Options(config.RedisConfig{Addr: "localhost:6379"})

	if opts.PoolSize != defaultPoolSize || opts.MinIdleConns != defaultMinIdleConns {
		t.Errorf("pool = %d/%d, want defaults", opts.PoolSize, opts.MinIdleConns)
	}
	if opts.DialTimeout != 5*time.Second || opts.ReadTimeout != 3*time.Second || opts.WriteTimeout != 3*time.Second {
		t.Errorf("unexpected timeouts: %v %v %v", opts.DialTimeout, opts.ReadTimeout, opts.WriteTimeout)
	}
}

func TestOptionsOverrides(t *testing.T) {
	opts := Options(config.RedisConfig{
		Addr:               "cache:6380",
		DB:                 2,
		PoolSize:           50,
		MinIdleConns:       5,
		DialTimeoutSeconds: 1,
	})

	if opts.Addr != "cache:6380" || opts.DB != 2 {
		t.Errorf("addr/db = %s/%d", opts.Addr, opts.DB)
	}
	if opts.PoolSize != 50 || opts.MinIdleConns != 5 {
		t.Errorf("pool = %d/%d", opts.PoolSize, opts.MinIdleConns)
	}
	if opts.DialTimeout != time.Second {
		t.Errorf("dial timeout = %v", opts.DialTimeout)
	}
}

func TestNewWithoutAddr(t *testing.T) {
	_, err := New(context.Background(), config.RedisConfig{})
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}
}

func TestSessionKey(t *testing.T) {
	if got := NewSessions(nil, "").key("abc"); got != "session:abc" {
		t.Errorf("key = %q", got)
	}
	if got := NewSessions(nil, "medstage:session").key("abc"); got != "medstage:session:abc" {
		t.Errorf("key = %q", got)
	}
}
