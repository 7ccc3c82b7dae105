package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

const pingTimeout = 5 * time.Second

// openSQLDB opens a lib/pq pool sized from cfg and pings it once.
func openSQLDB(cfg Config) (*sql.DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("database: open %s: %w", cfg.DBName, err)
	}
	applyPool(db, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database: ping %s@%s:%d: %w", cfg.DBName, cfg.Host, cfg.Port, err)
	}
	return db, nil
}

func applyPool(db *sql.DB, cfg Config) {
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	idle := cfg.MaxIdleConns
	if cfg.MaxOpenConns > 0 && idle > cfg.MaxOpenConns {
		idle = cfg.MaxOpenConns
	}
	if idle > 0 {
		db.SetMaxIdleConns(idle)
	}
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime())
}
