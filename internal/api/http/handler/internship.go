package handler

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/Alijeyrad/medstage_backend/internal/domain"
	"github.com/Alijeyrad/medstage_backend/internal/service/internship"
)

type InternshipHandler struct {
	svc internship.Service
}

func NewInternshipHandler(svc internship.Service) *InternshipHandler {
	return &InternshipHandler{svc: svc}
}

// POST /internships
func (h *InternshipHandler) Create(c fiber.Ctx) error {
	a, authed := actor(c)
	if !authed {
		return unauthorized(c)
	}

	var body struct {
		Title           string     `json:"title"`
		Description     string     `json:"description"`
		DepartmentID    uuid.UUID  `json:"department_id"`
		EstablishmentID uuid.UUID  `json:"establishment_id"`
		ChiefID         *uuid.UUID `json:"chief_id"`
		TotalPlaces     int        `json:"total_places"`
		StartDate       time.Time  `json:"start_date"`
		EndDate         time.Time  `json:"end_date"`
		Requirements    []string   `json:"requirements"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	in, err := h.svc.Create(c.Context(), a, internship.CreateRequest{
		Title:           body.Title,
		Description:     body.Description,
		DepartmentID:    body.DepartmentID,
		EstablishmentID: body.EstablishmentID,
		ChiefID:         body.ChiefID,
		TotalPlaces:     body.TotalPlaces,
		StartDate:       body.StartDate,
		EndDate:         body.EndDate,
		Requirements:    body.Requirements,
	})
	if err != nil {
		return mapError(c, err)
	}
	return created(c, in)
}

// GET /internships
func (h *InternshipHandler) List(c fiber.Ctx) error {
	a, authed := actor(c)
	if !authed {
		return unauthorized(c)
	}

	p, err := paging(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	f := internship.ListFilter{Limit: p.Limit, Offset: p.Offset}
	if s := c.Query("status"); s != "" {
		st := domain.InternshipStatus(s)
		f.Status = &st
	}
	if f.DepartmentID, err = queryID(c, "department_id"); err != nil {
		return badRequest(c, "invalid department_id")
	}
	if f.ChiefID, err = queryID(c, "chief_id"); err != nil {
		return badRequest(c, "invalid chief_id")
	}

	views, err := h.svc.List(c.Context(), a, f)
	if err != nil {
		return mapError(c, err)
	}
	return ok(c, views)
}

// GET /internships/:id
func (h *InternshipHandler) Get(c fiber.Ctx) error {
	a, authed := actor(c)
	if !authed {
		return unauthorized(c)
	}
	id, valid := paramID(c, "id")
	if !valid {
		return badRequest(c, "invalid internship id")
	}

	v, err := h.svc.Get(c.Context(), a, id)
	if err != nil {
		return mapError(c, err)
	}
	return ok(c, v)
}

// PATCH /internships/:id
func (h *InternshipHandler) Update(c fiber.Ctx) error {
	a, authed := actor(c)
	if !authed {
		return unauthorized(c)
	}
	id, valid := paramID(c, "id")
	if !valid {
		return badRequest(c, "invalid internship id")
	}

	var body struct {
		Title        *string    `json:"title"`
		Description  *string    `json:"description"`
		ChiefID      *uuid.UUID `json:"chief_id"`
		TotalPlaces  *int       `json:"total_places"`
		StartDate    *time.Time `json:"start_date"`
		EndDate      *time.Time `json:"end_date"`
		Requirements []string   `json:"requirements"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	in, err := h.svc.Update(c.Context(), a, id, internship.UpdateRequest{
		Title:        body.Title,
		Description:  body.Description,
		ChiefID:      body.ChiefID,
		TotalPlaces:  body.TotalPlaces,
		StartDate:    body.StartDate,
		EndDate:      body.EndDate,
		Requirements: body.Requirements,
	})
	if err != nil {
		return mapError(c, err)
	}
	return ok(c, in)
}

// PATCH /internships/:id/status
func (h *InternshipHandler) SetStatus(c fiber.Ctx) error {
	a, authed := actor(c)
	if !authed {
		return unauthorized(c)
	}
	id, valid := paramID(c, "id")
	if !valid {
		return badRequest(c, "invalid internship id")
	}

	var body struct {
		Status domain.InternshipStatus `json:"status"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	in, err := h.svc.CloseOrArchive(c.Context(), a, id, body.Status)
	if err != nil {
		return mapError(c, err)
	}
	return ok(c, in)
}

// DELETE /internships/:id
func (h *InternshipHandler) Delete(c fiber.Ctx) error {
	a, authed := actor(c)
	if !authed {
		return unauthorized(c)
	}
	id, valid := paramID(c, "id")
	if !valid {
		return badRequest(c, "invalid internship id")
	}

	if err := h.svc.Delete(c.Context(), a, id); err != nil {
		return mapError(c, err)
	}
	return noContent(c)
}
