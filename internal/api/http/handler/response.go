package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/Alijeyrad/medstage_backend/internal/api/http/middleware"
	"github.com/Alijeyrad/medstage_backend/internal/domain"
)

func ok(c fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{"data": data})
}

func created(c fiber.Ctx, data any) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": data})
}

func noContent(c fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNoContent)
}

func badRequest(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

func unauthorized(c fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
}

func forbidden(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": msg})
}

func notFound(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": msg})
}

func conflict(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": msg})
}

func internalError(c fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
}

// mapError turns a service error into a response. Persistence failures are
// reported without their cause.
func mapError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		return forbidden(c, err.Error())
	case errors.Is(err, domain.ErrValidation):
		return badRequest(c, err.Error())
	case errors.Is(err, domain.ErrDuplicateApplication),
		errors.Is(err, domain.ErrCapacityExceeded),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrNotCancellable):
		return conflict(c, err.Error())
	default:
		return internalError(c)
	}
}

func actor(c fiber.Ctx) (domain.Actor, bool) {
	return middleware.ActorFromFiber(c)
}

func paramID(c fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	return id, err == nil
}

// queryID parses an optional uuid query parameter.
func queryID(c fiber.Ctx, name string) (*uuid.UUID, error) {
	s := c.Query(name)
	if s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

type page struct {
	Limit  int
	Offset int
}

func paging(c fiber.Ctx) (page, error) {
	var p page
	for _, q := range []struct {
		name string
		dst  *int
	}{{"limit", &p.Limit}, {"offset", &p.Offset}} {
		s := c.Query(q.name)
		if s == "" {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return page{}, errors.New(q.name + " must be a non-negative integer")
		}
		*q.dst = n
	}
	return p, nil
}
