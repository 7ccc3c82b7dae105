package app

import (
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/Alijeyrad/medstage_backend/config"
	"github.com/Alijeyrad/medstage_backend/internal/service/application"
	"github.com/Alijeyrad/medstage_backend/internal/service/dispatch"
	"github.com/Alijeyrad/medstage_backend/internal/service/evaluation"
	"github.com/Alijeyrad/medstage_backend/internal/service/internship"
	"github.com/Alijeyrad/medstage_backend/internal/service/notification"
	"github.com/Alijeyrad/medstage_backend/internal/store"
	pasetotoken "github.com/Alijeyrad/medstage_backend/pkg/paseto"
	"github.com/Alijeyrad/medstage_backend/pkg/push"
	redispkg "github.com/Alijeyrad/medstage_backend/pkg/redis"
)

// ServiceModule provides all application service dependencies.
var ServiceModule = fx.Module("services",
	fx.Provide(
		ProvideNotificationService,
		ProvideDispatcher,
		ProvideInternshipService,
		ProvideApplicationService,
		ProvideEvaluationService,
		ProvidePasetoManager,
		ProvideSessions,
	),
)

func ProvideNotificationService(st store.Store, cfg *config.Config) notification.Service {
	return notification.New(st, notification.Options{
		DefaultPageSize: cfg.Notifications.DefaultPageSize,
		MaxPageSize:     cfg.Notifications.MaxPageSize,
	})
}

func ProvideDispatcher(st store.Store, ledger notification.Service, ch push.Channel, cfg *config.Config) dispatch.Dispatcher {
	return dispatch.New(st, ledger, ch, dispatch.Options{PushTimeout: cfg.Push.Timeout()})
}

func ProvideInternshipService(st store.Store, notify dispatch.Dispatcher) internship.Service {
	return internship.New(st, notify)
}

func ProvideApplicationService(st store.Store, notify dispatch.Dispatcher) application.Service {
	return application.New(st, notify)
}

func ProvideEvaluationService(st store.Store, notify dispatch.Dispatcher, cfg *config.Config) evaluation.Service {
	return evaluation.New(st, notify, evaluation.Options{
		ResendAfter: cfg.Workers.EvaluationReminder.ResendAfter(),
	})
}

func ProvidePasetoManager(cfg *config.Config) (*pasetotoken.Manager, error) {
	return pasetotoken.NewFromConfig(cfg)
}

// ProvideSessions returns nil without redis; tokens are then trusted until
// they expire.
func ProvideSessions(rdb *goredis.Client) *redispkg.Sessions {
	if rdb == nil {
		return nil
	}
	return redispkg.NewSessions(rdb, "")
}
