package database

import (
	"context"
	"log/slog"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/Alijeyrad/medstage_backend/config"
)

// NewDriver opens an ent SQL driver from central config.
func NewDriver(cfg config.DatabaseConfig) (*entsql.Driver, error) {
	return NewDriverFromConfig(FromCentralConfig(cfg))
}

// NewDriverFromConfig opens an ent SQL driver from package Config.
func NewDriverFromConfig(cfg Config) (*entsql.Driver, error) {
	db, err := openSQLDB(cfg)
	if err != nil {
		return nil, err
	}
	return entsql.OpenDB(dialect.Postgres, db), nil
}

// WithQueryLogging wraps drv so that every statement is logged at debug
// level, and statements slower than the configured threshold at warn level.
func WithQueryLogging(drv dialect.Driver, cfg Config) dialect.Driver {
	if !cfg.EnableLogging {
		return drv
	}
	threshold := time.Duration(cfg.SlowQueryThresholdMs) * time.Millisecond
	return &slowLogDriver{
		Driver: dialect.DebugWithContext(drv, func(ctx context.Context, v ...any) {
			slog.DebugContext(ctx, "database: query", "stmt", v)
		}),
		threshold: threshold,
	}
}

type slowLogDriver struct {
	dialect.Driver
	threshold time.Duration
}

func (d *slowLogDriver) Exec(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := d.Driver.Exec(ctx, query, args, v)
	d.observe(ctx, query, start)
	return err
}

func (d *slowLogDriver) Query(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := d.Driver.Query(ctx, query, args, v)
	d.observe(ctx, query, start)
	return err
}

func (d *slowLogDriver) observe(ctx context.Context, query string, start time.Time) {
	if d.threshold <= 0 {
		return
	}
	if took := time.Since(start); took >= d.threshold {
		slog.WarnContext(ctx, "database: slow query", "query", query, "took_ms", took.Milliseconds())
	}
}
