package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/medstage_backend/internal/api/http/handler"
	"github.com/Alijeyrad/medstage_backend/pkg/authorize"
)

func (r *Router) registerInternshipRoutes(
	api fiber.Router,
	ih *handler.InternshipHandler,
	ah *handler.ApplicationHandler,
	requirePerm permFunc,
) {
	in := api.Group("/internships")

	in.Get("/", requirePerm(authorize.ResourceInternship, authorize.ActionList), ih.List)
	in.Post("/", requirePerm(authorize.ResourceInternship, authorize.ActionCreate), ih.Create)
	in.Get("/:id", requirePerm(authorize.ResourceInternship, authorize.ActionRead), ih.Get)
	in.Patch("/:id", requirePerm(authorize.ResourceInternship, authorize.ActionUpdate), ih.Update)
	in.Patch("/:id/status", requirePerm(authorize.ResourceInternship, authorize.ActionStatus), ih.SetStatus)
	in.Delete("/:id", requirePerm(authorize.ResourceInternship, authorize.ActionDelete), ih.Delete)

	in.Post("/:id/applications", requirePerm(authorize.ResourceInternship, authorize.ActionApply), ah.Apply)
}
