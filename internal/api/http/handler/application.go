package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/medstage_backend/internal/domain"
	"github.com/Alijeyrad/medstage_backend/internal/service/application"
)

type ApplicationHandler struct {
	svc application.Service
}

func NewApplicationHandler(svc application.Service) *ApplicationHandler {
	return &ApplicationHandler{svc: svc}
}

// POST /internships/:id/applications
func (h *ApplicationHandler) Apply(c fiber.Ctx) error {
	a, authed := actor(c)
	if !authed {
		return unauthorized(c)
	}
	internshipID, valid := paramID(c, "id")
	if !valid {
		return badRequest(c, "invalid internship id")
	}

	var body struct {
		Motivation string `json:"motivation"`
	}
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&body); err != nil {
			return badRequest(c, "invalid request body")
		}
	}

	app, err := h.svc.Apply(c.Context(), a, internshipID, body.Motivation)
	if err != nil {
		return mapError(c, err)
	}
	return created(c, app)
}

// GET /applications
func (h *ApplicationHandler) List(c fiber.Ctx) error {
	a, authed := actor(c)
	if !authed {
		return unauthorized(c)
	}

	p, err := paging(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	f := application.ListFilter{Limit: p.Limit, Offset: p.Offset}
	if s := c.Query("status"); s != "" {
		st := domain.ApplicationStatus(s)
		f.Status = &st
	}
	if f.InternshipID, err = queryID(c, "internship_id"); err != nil {
		return badRequest(c, "invalid internship_id")
	}

	apps, err := h.svc.List(c.Context(), a, f)
	if err != nil {
		return mapError(c, err)
	}
	return ok(c, apps)
}

// GET /applications/:id
func (h *ApplicationHandler) Get(c fiber.Ctx) error {
	a, authed := actor(c)
	if !authed {
		return unauthorized(c)
	}
	id, valid := paramID(c, "id")
	if !valid {
		return badRequest(c, "invalid application id")
	}

	app, err := h.svc.Get(c.Context(), a, id)
	if err != nil {
		return mapError(c, err)
	}
	return ok(c, app)
}

// POST /applications/:id/cancel
func (h *ApplicationHandler) Cancel(c fiber.Ctx) error {
	a, authed := actor(c)
	if !authed {
		return unauthorized(c)
	}
	id, valid := paramID(c, "id")
	if !valid {
		return badRequest(c, "invalid application id")
	}

	app, err := h.svc.Cancel(c.Context(), a, id)
	if err != nil {
		return mapError(c, err)
	}
	return ok(c, app)
}

// POST /applications/:id/decision
func (h *ApplicationHandler) Decide(c fiber.Ctx) error {
	a, authed := actor(c)
	if !authed {
		return unauthorized(c)
	}
	id, valid := paramID(c, "id")
	if !valid {
		return badRequest(c, "invalid application id")
	}

	var body struct {
		Decision        string `json:"decision"`
		RejectionReason string `json:"rejection_reason"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	app, err := h.svc.Decide(c.Context(), a, id, application.DecideRequest{
		Decision:        body.Decision,
		RejectionReason: body.RejectionReason,
	})
	if err != nil {
		return mapError(c, err)
	}
	return ok(c, app)
}
