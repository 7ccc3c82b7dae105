package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/Alijeyrad/medstage_backend/config"
	"github.com/Alijeyrad/medstage_backend/internal/store"
	"github.com/Alijeyrad/medstage_backend/internal/store/memstore"
	"github.com/Alijeyrad/medstage_backend/internal/store/pgstore"
	"github.com/Alijeyrad/medstage_backend/pkg/authorize"
	"github.com/Alijeyrad/medstage_backend/pkg/database"
	"github.com/Alijeyrad/medstage_backend/pkg/observability"
	"github.com/Alijeyrad/medstage_backend/pkg/push"
	redispkg "github.com/Alijeyrad/medstage_backend/pkg/redis"
)

// InfraModule provides all infrastructure dependencies.
var InfraModule = fx.Module("infra",
	fx.Provide(ProvideStore),
	fx.Provide(ProvideRedis),
	fx.Provide(ProvideNatsClient),
	fx.Provide(ProvideAuthorization),
	fx.Provide(ProvideOTel),
	fx.Provide(ProvidePushRegistry),
	fx.Provide(ProvidePushChannel),
)

// ProvideStore opens the configured store. The postgres driver applies the
// schema on start when database.migrations.auto_migrate is set.
func ProvideStore(lc fx.Lifecycle, cfg *config.Config) (store.Store, error) {
	if cfg.Database.Driver == config.DriverMemory {
		slog.Warn("using in-memory store; data is lost on restart")
		return memstore.New(), nil
	}

	dbCfg := database.FromCentralConfig(cfg.Database)
	drv, err := database.NewDriverFromConfig(dbCfg)
	if err != nil {
		return nil, err
	}
	st := pgstore.New(database.WithQueryLogging(drv, dbCfg))

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if !cfg.Database.Migrations.AutoMigrate {
				return nil
			}
			slog.Info("applying database schema")
			return pgstore.Migrate(ctx, drv)
		},
		OnStop: func(ctx context.Context) error {
			slog.Debug("closing main database connection")
			return st.Close()
		},
	})
	return st, nil
}

// ProvideRedis returns nil when redis.addr is empty.
func ProvideRedis(lc fx.Lifecycle, cfg *config.Config) (*goredis.Client, error) {
	rdb, err := redispkg.New(context.Background(), cfg.Redis)
	if errors.Is(err, redispkg.ErrNotConfigured) {
		slog.Info("redis not configured; sessions and shared rate limits disabled")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("closing Redis connection")
			return rdb.Close()
		},
	})
	return rdb, nil
}

// ProvideNatsClient returns nil when nats.url is empty.
func ProvideNatsClient(lc fx.Lifecycle, cfg *config.Config) (*nats.Conn, error) {
	if cfg.Nats.URL == "" {
		return nil, nil
	}
	nc, err := nats.Connect(cfg.Nats.URL, nats.Name("medstage"))
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("draining NATS connection")
			return nc.Drain()
		},
	})
	return nc, nil
}

// ProvideAuthorization keeps policies in memory for the memory store and in
// the casbin database otherwise.
func ProvideAuthorization(lc fx.Lifecycle, cfg *config.Config) (authorize.IAuthorization, error) {
	authCfg := authorize.FromCentralConfig(cfg.Authorization)

	var base authorize.IAuthorization
	if cfg.Database.Driver == config.DriverMemory {
		enforcer, err := authorize.NewMemoryEnforcer(authCfg.CasbinModelPath)
		if err != nil {
			return nil, err
		}
		if base, err = authorize.NewAuthorization(enforcer); err != nil {
			return nil, err
		}
	} else {
		enforcer, cleanup, err := authorize.NewEnforcer(authCfg, database.NewDSN(cfg.CasbinDatabase))
		if err != nil {
			return nil, err
		}
		if base, err = authorize.NewAuthorization(enforcer); err != nil {
			cleanup(context.Background())
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				slog.Debug("cleaning up Casbin enforcer")
				cleanup(ctx)
				return nil
			},
		})
	}

	if !authCfg.EnableAudit {
		return base, nil
	}
	return authorize.NewAuditedAuthorization(base, slog.Default()), nil
}

func ProvideOTel(lc fx.Lifecycle, cfg *config.Config) (*observability.Provider, error) {
	if !cfg.Observability.Enabled {
		return nil, nil
	}
	provider, err := observability.InitTelemetry(context.Background(),
		observability.FromCentralConfig(cfg.Observability, cfg.Server.Environment))
	if err != nil {
		return nil, err
	}
	slog.Info("observability initialized",
		"tracing", cfg.Observability.Tracing.Enabled,
		"metrics", cfg.Observability.Metrics.Enabled,
	)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("shutting down observability providers")
			return provider.Shutdown(ctx)
		},
	})
	return provider, nil
}

// ProvidePushRegistry holds the SSE subscribers of this instance.
func ProvidePushRegistry(lc fx.Lifecycle, cfg *config.Config) *push.Registry {
	reg := push.NewRegistry(cfg.Push.BufferSize)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return reg.Close()
		},
	})
	return reg
}

// PushOut is the channel the dispatcher publishes on plus, for the shared
// backends, the relay feeding the local registry.
type PushOut struct {
	fx.Out

	Channel push.Channel
	Relay   push.Relay
}

func ProvidePushChannel(cfg *config.Config, reg *push.Registry, rdb *goredis.Client, nc *nats.Conn) (PushOut, error) {
	switch cfg.Push.Backend {
	case config.PushBackendRedis:
		if rdb == nil {
			return PushOut{}, errors.New("push backend redis needs a redis connection")
		}
		ch := push.NewRedisChannel(rdb, cfg.Push.ChannelPrefix)
		return PushOut{Channel: ch, Relay: ch}, nil
	case config.PushBackendNats:
		if nc == nil {
			return PushOut{}, errors.New("push backend nats needs a nats connection")
		}
		ch := push.NewNatsChannel(nc, cfg.Push.ChannelPrefix)
		return PushOut{Channel: ch, Relay: ch}, nil
	default:
		return PushOut{Channel: reg}, nil
	}
}
