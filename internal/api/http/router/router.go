package router

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"

	"github.com/Alijeyrad/medstage_backend/config"
	"github.com/Alijeyrad/medstage_backend/internal/api/http/handler"
	"github.com/Alijeyrad/medstage_backend/internal/api/http/middleware"
	"github.com/Alijeyrad/medstage_backend/internal/service/application"
	"github.com/Alijeyrad/medstage_backend/internal/service/evaluation"
	"github.com/Alijeyrad/medstage_backend/internal/service/internship"
	"github.com/Alijeyrad/medstage_backend/internal/service/notification"
	"github.com/Alijeyrad/medstage_backend/pkg/authorize"
	pasetotoken "github.com/Alijeyrad/medstage_backend/pkg/paseto"
	"github.com/Alijeyrad/medstage_backend/pkg/push"
	redispkg "github.com/Alijeyrad/medstage_backend/pkg/redis"
)

// Module provides the Router to the fx graph.
var Module = fx.Module("router", fx.Provide(NewRouter))

type Params struct {
	fx.In

	Cfg             *config.Config
	Auth            authorize.IAuthorization
	PasetoMgr       *pasetotoken.Manager
	Sessions        *redispkg.Sessions `optional:"true"`
	Registry        *push.Registry
	InternshipSvc   internship.Service
	ApplicationSvc  application.Service
	EvaluationSvc   evaluation.Service
	NotificationSvc notification.Service
}

type Router struct {
	p Params
}

func NewRouter(p Params) *Router {
	return &Router{p: p}
}

type permFunc func(authorize.Resource, authorize.Action) fiber.Handler

func (r *Router) Register(app *fiber.App) {
	r.registerSystemRoutes(app)

	authRequired := middleware.AuthRequired(r.p.PasetoMgr, r.p.Sessions)
	requirePerm := func(res authorize.Resource, act authorize.Action) fiber.Handler {
		return middleware.RequirePermission(r.p.Auth, res, act)
	}

	internshipH := handler.NewInternshipHandler(r.p.InternshipSvc)
	applicationH := handler.NewApplicationHandler(r.p.ApplicationSvc)
	evaluationH := handler.NewEvaluationHandler(r.p.EvaluationSvc)
	notificationH := handler.NewNotificationHandler(r.p.NotificationSvc, r.p.Registry)

	api := app.Group("/api/v1", authRequired)

	r.registerInternshipRoutes(api, internshipH, applicationH, requirePerm)
	r.registerApplicationRoutes(api, applicationH, evaluationH, requirePerm)
	r.registerEvaluationRoutes(api, evaluationH, requirePerm)
	r.registerNotificationRoutes(api, notificationH, requirePerm)
}

func (r *Router) registerSystemRoutes(app *fiber.App) {
	app.Get(healthcheck.LivenessEndpoint, healthcheck.New())
	app.Get(healthcheck.ReadinessEndpoint, healthcheck.New(healthcheck.Config{
		Probe: func(c fiber.Ctx) bool { return authorize.IsPolicyHealthy() },
	}))
	app.Get(healthcheck.StartupEndpoint, healthcheck.New())

	if r.p.Cfg.Observability.Enabled && r.p.Cfg.Observability.Metrics.Enabled {
		path := r.p.Cfg.Observability.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		app.Get(path, adaptor.HTTPHandler(promhttp.Handler()))
	}
}
