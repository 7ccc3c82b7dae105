package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/Alijeyrad/medstage_backend/pkg/constants"
	"github.com/spf13/viper"
)

var GlobalConf *Config

func ReadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(constants.ConfigName)
	v.SetConfigType(constants.ConfigFormat)
	v.AddConfigPath(configPath)

	setDefaults(v)

	// Allow env vars to override config values.
	// e.g. MEDSTAGE_DATABASE_HOST overrides database.host
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read the config file (optional in Docker environments)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if os.Getenv(constants.EnvPrefix+"_DATABASE_HOST") == "" {
				return nil, fmt.Errorf("error reading config file: %v", err)
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %v", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func MustReadConfig(path string) *Config {
	config, err := ReadConfig(path)
	if err != nil {
		panic(err)
	}

	GlobalConf = config

	return config
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.timeout_seconds", 30)
	v.SetDefault("server.environment", "development")

	v.SetDefault("authentication.paseto.mode", "local")
	v.SetDefault("authentication.paseto.issuer", constants.AppName)
	v.SetDefault("authentication.paseto.audience", constants.AppName)
	v.SetDefault("authentication.paseto.access_ttl_minutes", 15)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output.stdout", true)

	v.SetDefault("observability.service_name", constants.AppName)

	v.SetDefault("push.backend", PushBackendMemory)
	v.SetDefault("push.timeout_ms", 2000)
	v.SetDefault("push.buffer_size", 64)
	v.SetDefault("push.channel_prefix", constants.AppName+".push")

	v.SetDefault("notifications.default_page_size", 50)
	v.SetDefault("notifications.max_page_size", 100)

	v.SetDefault("workers.evaluation_reminder.enabled", true)
	v.SetDefault("workers.evaluation_reminder.interval_minutes", 60)
	v.SetDefault("workers.evaluation_reminder.resend_after_hours", 72)
}
