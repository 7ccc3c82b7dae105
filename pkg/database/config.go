package database

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Alijeyrad/medstage_backend/config"
)

// Config is the connection and pool view of a config.DatabaseConfig.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string

	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int

	AutoMigrate bool
	SafeMode    bool

	EnableLogging        bool
	SlowQueryThresholdMs int
}

func (c Config) Validate() error {
	var errs []error
	if c.Host == "" {
		errs = append(errs, errors.New("database: host is required"))
	}
	if c.DBName == "" {
		errs = append(errs, errors.New("database: dbname is required"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("database: invalid port %d", c.Port))
	}
	return errors.Join(errs...)
}

// DSN renders a libpq keyword/value connection string. Empty values are
// omitted so lib/pq falls back to its PG* environment defaults.
func (c Config) DSN() string {
	parts := make([]string, 0, 6)
	add := func(k, v string) {
		if v != "" {
			parts = append(parts, k+"="+quoteDSNValue(v))
		}
	}
	add("host", c.Host)
	if c.Port > 0 {
		add("port", fmt.Sprint(c.Port))
	}
	add("user", c.User)
	add("password", c.Password)
	add("dbname", c.DBName)
	add("sslmode", c.SSLMode)
	return strings.Join(parts, " ")
}

// quoteDSNValue quotes values holding spaces, quotes or backslashes.
func quoteDSNValue(v string) string {
	if !strings.ContainsAny(v, ` '\`) {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}

func (c Config) ConnMaxLifetime() time.Duration {
	if c.ConnMaxLifetimeMin <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.ConnMaxLifetimeMin) * time.Minute
}

func FromCentralConfig(c config.DatabaseConfig) Config {
	return Config{
		Host:                 c.Host,
		Port:                 c.Port,
		User:                 c.User,
		Password:             c.Password,
		DBName:               c.DBName,
		SSLMode:              c.SSLMode,
		MaxOpenConns:         c.Pool.MaxOpenConns,
		MaxIdleConns:         c.Pool.MaxIdleConns,
		ConnMaxLifetimeMin:   c.Pool.ConnMaxLifetimeMin,
		AutoMigrate:          c.Migrations.AutoMigrate,
		SafeMode:             c.Migrations.SafeMode,
		EnableLogging:        c.Logging.Enabled,
		SlowQueryThresholdMs: c.Logging.SlowQueryThresholdMs,
	}
}

// NewDSN is the DSN of a central database section, used for the casbin
// adapter and watcher.
func NewDSN(c config.DatabaseConfig) string {
	return FromCentralConfig(c).DSN()
}
