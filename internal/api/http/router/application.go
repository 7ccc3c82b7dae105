package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/medstage_backend/internal/api/http/handler"
	"github.com/Alijeyrad/medstage_backend/pkg/authorize"
)

func (r *Router) registerApplicationRoutes(
	api fiber.Router,
	ah *handler.ApplicationHandler,
	eh *handler.EvaluationHandler,
	requirePerm permFunc,
) {
	apps := api.Group("/applications")

	apps.Get("/", requirePerm(authorize.ResourceApplication, authorize.ActionList), ah.List)
	apps.Get("/:id", requirePerm(authorize.ResourceApplication, authorize.ActionRead), ah.Get)
	apps.Post("/:id/cancel", requirePerm(authorize.ResourceApplication, authorize.ActionCancel), ah.Cancel)
	apps.Post("/:id/decision", requirePerm(authorize.ResourceApplication, authorize.ActionDecide), ah.Decide)

	apps.Post("/:id/evaluation", requirePerm(authorize.ResourceEvaluation, authorize.ActionCreate), eh.Open)
}
