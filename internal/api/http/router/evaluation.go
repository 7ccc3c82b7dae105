package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/medstage_backend/internal/api/http/handler"
	"github.com/Alijeyrad/medstage_backend/pkg/authorize"
)

func (r *Router) registerEvaluationRoutes(
	api fiber.Router,
	eh *handler.EvaluationHandler,
	requirePerm permFunc,
) {
	evs := api.Group("/evaluations")

	evs.Get("/", requirePerm(authorize.ResourceEvaluation, authorize.ActionList), eh.List)
	evs.Get("/:id", requirePerm(authorize.ResourceEvaluation, authorize.ActionRead), eh.Get)
	evs.Put("/:id/draft", requirePerm(authorize.ResourceEvaluation, authorize.ActionUpdate), eh.SaveDraft)
	evs.Post("/:id/submit", requirePerm(authorize.ResourceEvaluation, authorize.ActionSubmit), eh.Submit)
	evs.Post("/:id/validate", requirePerm(authorize.ResourceEvaluation, authorize.ActionValidate), eh.Validate)
	evs.Post("/:id/remind", requirePerm(authorize.ResourceEvaluation, authorize.ActionRemind), eh.Remind)
}
