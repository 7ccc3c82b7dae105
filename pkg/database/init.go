package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/samber/lo"

	"github.com/Alijeyrad/medstage_backend/config"
)

// TargetDatabases lists server.databases, or the main and casbin database
// names when that list is empty.
func TargetDatabases(cfg *config.Config) []string {
	if len(cfg.Server.Databases) > 0 {
		return cfg.Server.Databases
	}
	return lo.Uniq(lo.Compact([]string{cfg.Database.DBName, cfg.CasbinDatabase.DBName}))
}

// InitializeDatabases creates the missing target databases, connecting
// through the default 'postgres' database. It returns the names it created.
func InitializeDatabases(cfg *config.Config) ([]string, error) {
	targets := TargetDatabases(cfg)
	if len(targets) == 0 {
		return nil, fmt.Errorf("no database names provided")
	}

	postgresConfig := Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   "postgres",
		SSLMode:  cfg.Database.SSLMode,
	}

	conn, err := openSQLDB(postgresConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres database: %w", err)
	}
	defer conn.Close()

	var created []string
	for _, dbName := range targets {
		ok, err := createDatabaseIfNotExists(conn, dbName)
		if err != nil {
			return created, fmt.Errorf("failed to create database %q: %w", dbName, err)
		}
		if ok {
			created = append(created, dbName)
		}
	}
	return created, nil
}

func createDatabaseIfNotExists(conn *sql.DB, dbName string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)`
	if err := conn.QueryRowContext(ctx, query, dbName).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check if database exists: %w", err)
	}
	if exists {
		return false, nil
	}

	// CREATE DATABASE takes no bind parameters.
	if _, err := conn.ExecContext(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(dbName)); err != nil {
		return false, fmt.Errorf("failed to create database: %w", err)
	}
	return true, nil
}
