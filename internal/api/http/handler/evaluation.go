package handler

import (
	"context"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/Alijeyrad/medstage_backend/internal/domain"
	"github.com/Alijeyrad/medstage_backend/internal/service/evaluation"
)

type EvaluationHandler struct {
	svc evaluation.Service
}

func NewEvaluationHandler(svc evaluation.Service) *EvaluationHandler {
	return &EvaluationHandler{svc: svc}
}

type scoresBody struct {
	Attendance           *int    `json:"attendance"`
	PracticalSkills      *int    `json:"practical_skills"`
	ProfessionalBehavior *int    `json:"professional_behavior"`
	Comments             *string `json:"comments"`
}

func (b scoresBody) request() evaluation.ScoresRequest {
	return evaluation.ScoresRequest{
		Attendance:           b.Attendance,
		PracticalSkills:      b.PracticalSkills,
		ProfessionalBehavior: b.ProfessionalBehavior,
		Comments:             b.Comments,
	}
}

// POST /applications/:id/evaluation
func (h *EvaluationHandler) Open(c fiber.Ctx) error {
	a, authed := actor(c)
	if !authed {
		return unauthorized(c)
	}
	applicationID, valid := paramID(c, "id")
	if !valid {
		return badRequest(c, "invalid application id")
	}

	ev, err := h.svc.Open(c.Context(), a, applicationID)
	if err != nil {
		return mapError(c, err)
	}
	return ok(c, ev)
}

// GET /evaluations
func (h *EvaluationHandler) List(c fiber.Ctx) error {
	a, authed := actor(c)
	if !authed {
		return unauthorized(c)
	}

	p, err := paging(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	f := evaluation.ListFilter{Limit: p.Limit, Offset: p.Offset}
	if s := c.Query("status"); s != "" {
		st := domain.EvaluationStatus(s)
		f.Status = &st
	}
	if f.InternshipID, err = queryID(c, "internship_id"); err != nil {
		return badRequest(c, "invalid internship_id")
	}

	evs, err := h.svc.List(c.Context(), a, f)
	if err != nil {
		return mapError(c, err)
	}
	return ok(c, evs)
}

// GET /evaluations/:id
func (h *EvaluationHandler) Get(c fiber.Ctx) error {
	a, authed := actor(c)
	if !authed {
		return unauthorized(c)
	}
	id, valid := paramID(c, "id")
	if !valid {
		return badRequest(c, "invalid evaluation id")
	}

	ev, err := h.svc.Get(c.Context(), a, id)
	if err != nil {
		return mapError(c, err)
	}
	return ok(c, ev)
}

// PUT /evaluations/:id/draft
func (h *EvaluationHandler) SaveDraft(c fiber.Ctx) error {
	return h.scores(c, h.svc.SaveDraft)
}

// POST /evaluations/:id/submit
func (h *EvaluationHandler) Submit(c fiber.Ctx) error {
	return h.scores(c, h.svc.Submit)
}

func (h *EvaluationHandler) scores(c fiber.Ctx, fn func(ctx context.Context, a domain.Actor, id uuid.UUID, req evaluation.ScoresRequest) (*domain.Evaluation, error)) error {
	a, authed := actor(c)
	if !authed {
		return unauthorized(c)
	}
	id, valid := paramID(c, "id")
	if !valid {
		return badRequest(c, "invalid evaluation id")
	}

	var body scoresBody
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&body); err != nil {
			return badRequest(c, "invalid request body")
		}
	}

	ev, err := fn(c.Context(), a, id, body.request())
	if err != nil {
		return mapError(c, err)
	}
	return ok(c, ev)
}

// POST /evaluations/:id/validate
func (h *EvaluationHandler) Validate(c fiber.Ctx) error {
	a, authed := actor(c)
	if !authed {
		return unauthorized(c)
	}
	id, valid := paramID(c, "id")
	if !valid {
		return badRequest(c, "invalid evaluation id")
	}

	var body struct {
		ChiefComments string `json:"chief_comments"`
	}
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&body); err != nil {
			return badRequest(c, "invalid request body")
		}
	}

	ev, err := h.svc.Validate(c.Context(), a, id, body.ChiefComments)
	if err != nil {
		return mapError(c, err)
	}
	return ok(c, ev)
}

// POST /evaluations/:id/remind
func (h *EvaluationHandler) Remind(c fiber.Ctx) error {
	a, authed := actor(c)
	if !authed {
		return unauthorized(c)
	}
	id, valid := paramID(c, "id")
	if !valid {
		return badRequest(c, "invalid evaluation id")
	}

	ev, err := h.svc.Remind(c.Context(), a, id)
	if err != nil {
		return mapError(c, err)
	}
	return ok(c, ev)
}
