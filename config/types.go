package config

import (
	"errors"
	"fmt"
	"time"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"

	PushBackendMemory = "memory"
	PushBackendRedis  = "redis"
	PushBackendNats   = "nats"
)

type Config struct {
	Database       DatabaseConfig       `mapstructure:"database"`
	CasbinDatabase DatabaseConfig       `mapstructure:"casbin_database"`
	Redis          RedisConfig          `mapstructure:"redis"`
	Server         ServerConfig         `mapstructure:"server"`
	Authentication AuthenticationConfig `mapstructure:"authentication"`
	Authorization  AuthorizationConfig  `mapstructure:"authorization"`
	Observability  ObservabilityConfig  `mapstructure:"observability"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	Nats           NatsConfig           `mapstructure:"nats"`
	Push           PushConfig           `mapstructure:"push"`
	Notifications  NotificationsConfig  `mapstructure:"notifications"`
	Workers        WorkersConfig        `mapstructure:"workers"`
}

type NatsConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
}

type DatabaseConfig struct {
	// Driver selects the store implementation: postgres or memory.
	Driver     string                  `mapstructure:"driver"`
	Host       string                  `mapstructure:"host"`
	Port       int                     `mapstructure:"port"`
	User       string                  `mapstructure:"user"`
	Password   string                  `mapstructure:"password"`
	DBName     string                  `mapstructure:"dbname"`
	SSLMode    string                  `mapstructure:"sslmode"`
	Pool       DatabasePoolConfig      `mapstructure:"pool"`
	Migrations DatabaseMigrationConfig `mapstructure:"migrations"`
	Logging    DatabaseLoggingConfig   `mapstructure:"logging"`
}

type DatabasePoolConfig struct {
	MaxOpenConns       int `mapstructure:"max_open_conns"`
	MaxIdleConns       int `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeMin int `mapstructure:"conn_max_lifetime_minutes"`
}

type DatabaseMigrationConfig struct {
	AutoMigrate bool `mapstructure:"auto_migrate"`
	SafeMode    bool `mapstructure:"safe_mode"`
}

type DatabaseLoggingConfig struct {
	Enabled              bool `mapstructure:"enabled"`
	SlowQueryThresholdMs int  `mapstructure:"slow_query_threshold_ms"`
}

type RedisConfig struct {
	Addr                string `mapstructure:"addr"`
	DB                  int    `mapstructure:"db"`
	Username            string `mapstructure:"username"`
	Password            string `mapstructure:"password"`
	PoolSize            int    `mapstructure:"pool_size"`
	MinIdleConns        int    `mapstructure:"min_idle_conns"`
	DialTimeoutSeconds  int    `mapstructure:"dial_timeout_seconds"`
	ReadTimeoutSeconds  int    `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `mapstructure:"write_timeout_seconds"`
}

type ServerConfig struct {
	Port           int        `mapstructure:"port"`
	TimeoutSeconds int        `mapstructure:"timeout_seconds"`
	Environment    string     `mapstructure:"environment"`
	Domain         string     `mapstructure:"domain"`
	Databases      []string   `mapstructure:"databases"`
	CORS           CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowOrigins     []string `mapstructure:"allow_origins"`
	AllowMethods     []string `mapstructure:"allow_methods"`
	AllowHeaders     []string `mapstructure:"allow_headers"`
	ExposeHeaders    []string `mapstructure:"expose_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAgeSeconds    int      `mapstructure:"max_age_seconds"`
}

type AuthenticationConfig struct {
	Paseto PasetoConfig `mapstructure:"paseto"`
}

type PasetoConfig struct {
	Mode             string `mapstructure:"mode"`
	LocalKeyHex      string `mapstructure:"local_key_hex"`
	SecretKeyHex     string `mapstructure:"secret_key_hex"`
	PublicKeyHex     string `mapstructure:"public_key_hex"`
	Issuer           string `mapstructure:"issuer"`
	Audience         string `mapstructure:"audience"`
	AccessTTLMinutes int    `mapstructure:"access_ttl_minutes"`
}

type AuthorizationConfig struct {
	// CasbinModelPath overrides the built-in model when set.
	CasbinModelPath   string `mapstructure:"casbin_model_path"`
	EnableAudit       bool   `mapstructure:"enable_audit"`
	PolicySyncEnabled bool   `mapstructure:"policy_sync_enabled"`
}

type ObservabilityConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	ServiceName    string        `mapstructure:"service_name"`
	ServiceVersion string        `mapstructure:"service_version"`
	Tracing        TracingConfig `mapstructure:"tracing"`
	Metrics        MetricsConfig `mapstructure:"metrics"`
}

type TracingConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
	SamplingRate float64 `mapstructure:"sampling_rate"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type LoggingConfig struct {
	Level  string       `mapstructure:"level"`  // debug, info, warn, error
	Format string       `mapstructure:"format"` // text, json
	Output OutputConfig `mapstructure:"output"`
}

type OutputConfig struct {
	Stdout bool          `mapstructure:"stdout"`
	File   FileLogConfig `mapstructure:"file"`
	Loki   LokiConfig    `mapstructure:"loki"`
}

type FileLogConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Path       string `mapstructure:"path"`        // e.g. "logs/app.log"
	MaxSizeMB  int    `mapstructure:"max_size_mb"` // rotate after N MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

type LokiConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"` // e.g. "http://localhost:3100"
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type PushConfig struct {
	Backend       string `mapstructure:"backend"` // memory, redis, nats
	TimeoutMs     int    `mapstructure:"timeout_ms"`
	BufferSize    int    `mapstructure:"buffer_size"`
	ChannelPrefix string `mapstructure:"channel_prefix"`
}

// Timeout bounds a single push call made by the dispatcher.
func (p PushConfig) Timeout() time.Duration {
	if p.TimeoutMs <= 0 {
		return 2 * time.Second
	}
	return time.Duration(p.TimeoutMs) * time.Millisecond
}

type NotificationsConfig struct {
	DefaultPageSize int `mapstructure:"default_page_size"`
	MaxPageSize     int `mapstructure:"max_page_size"`
}

type WorkersConfig struct {
	EvaluationReminder EvaluationReminderConfig `mapstructure:"evaluation_reminder"`
}

type EvaluationReminderConfig struct {
	Enabled          bool `mapstructure:"enabled"`
	IntervalMinutes  int  `mapstructure:"interval_minutes"`
	ResendAfterHours int  `mapstructure:"resend_after_hours"`
}

func (c EvaluationReminderConfig) Interval() time.Duration {
	if c.IntervalMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(c.IntervalMinutes) * time.Minute
}

func (c EvaluationReminderConfig) ResendAfter() time.Duration {
	if c.ResendAfterHours <= 0 {
		return 72 * time.Hour
	}
	return time.Duration(c.ResendAfterHours) * time.Hour
}

func (c *Config) Validate() error {
	var errs []error

	switch c.Database.Driver {
	case DriverPostgres, DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("database.driver: unknown driver %q", c.Database.Driver))
	}

	switch c.Push.Backend {
	case PushBackendMemory:
	case PushBackendRedis:
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("push.backend redis requires redis.addr"))
		}
	case PushBackendNats:
		if c.Nats.URL == "" {
			errs = append(errs, errors.New("push.backend nats requires nats.url"))
		}
	default:
		errs = append(errs, fmt.Errorf("push.backend: unknown backend %q", c.Push.Backend))
	}

	switch c.Authentication.Paseto.Mode {
	case "local", "public":
	default:
		errs = append(errs, fmt.Errorf("authentication.paseto.mode: unknown mode %q", c.Authentication.Paseto.Mode))
	}

	if c.Server.Port <= 0 {
		errs = append(errs, errors.New("server.port must be positive"))
	}
	if c.Notifications.DefaultPageSize < 0 || c.Notifications.MaxPageSize < 0 {
		errs = append(errs, errors.New("notifications page sizes must not be negative"))
	}

	return errors.Join(errs...)
}
