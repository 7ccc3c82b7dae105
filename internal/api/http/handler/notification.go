package handler

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/medstage_backend/internal/service/notification"
	"github.com/Alijeyrad/medstage_backend/pkg/push"
)

type NotificationHandler struct {
	svc       notification.Service
	registry  *push.Registry
	keepAlive time.Duration
}

func NewNotificationHandler(svc notification.Service, registry *push.Registry) *NotificationHandler {
	return &NotificationHandler{svc: svc, registry: registry, keepAlive: 25 * time.Second}
}

// GET /notifications
func (h *NotificationHandler) List(c fiber.Ctx) error {
	a, authed := actor(c)
	if !authed {
		return unauthorized(c)
	}

	p, err := paging(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	notifs, err := h.svc.ListForUser(c.Context(), a.UserID, p.Limit, p.Offset)
	if err != nil {
		return mapError(c, err)
	}
	return ok(c, notifs)
}

// GET /notifications/unread-count
func (h *NotificationHandler) UnreadCount(c fiber.Ctx) error {
	a, authed := actor(c)
	if !authed {
		return unauthorized(c)
	}

	n, err := h.svc.UnreadCount(c.Context(), a.UserID)
	if err != nil {
		return mapError(c, err)
	}
	return ok(c, fiber.Map{"unread": n})
}

// PATCH /notifications/:id/read
func (h *NotificationHandler) MarkRead(c fiber.Ctx) error {
	a, authed := actor(c)
	if !authed {
		return unauthorized(c)
	}
	id, valid := paramID(c, "id")
	if !valid {
		return badRequest(c, "invalid notification id")
	}

	if err := h.svc.MarkRead(c.Context(), a.UserID, id); err != nil {
		return mapError(c, err)
	}
	return noContent(c)
}

// PATCH /notifications/read-all
func (h *NotificationHandler) MarkAllRead(c fiber.Ctx) error {
	a, authed := actor(c)
	if !authed {
		return unauthorized(c)
	}

	n, err := h.svc.MarkAllRead(c.Context(), a.UserID)
	if err != nil {
		return mapError(c, err)
	}
	return ok(c, fiber.Map{"updated": n})
}

// DELETE /notifications/:id
func (h *NotificationHandler) Delete(c fiber.Ctx) error {
	a, authed := actor(c)
	if !authed {
		return unauthorized(c)
	}
	id, valid := paramID(c, "id")
	if !valid {
		return badRequest(c, "invalid notification id")
	}

	if err := h.svc.Delete(c.Context(), a.UserID, id); err != nil {
		return mapError(c, err)
	}
	return noContent(c)
}

// GET /notifications/stream
//
// Server-sent events for the caller's user topic and role topic. The stream
// ends when the client goes away or the subscriber falls behind.
func (h *NotificationHandler) Stream(c fiber.Ctx) error {
	a, authed := actor(c)
	if !authed {
		return unauthorized(c)
	}

	sub := h.registry.Subscribe(c.Context(), push.UserTopic(a.UserID), push.RoleTopic(a.Role.String()))

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	keepAlive := h.keepAlive
	return c.SendStreamWriter(func(w *bufio.Writer) {
		defer sub.Close()

		ticker := time.NewTicker(keepAlive)
		defer ticker.Stop()

		if _, err := fmt.Fprint(w, ": connected\n\n"); err != nil || w.Flush() != nil {
			return
		}
		for {
			select {
			case ev, open := <-sub.Events():
				if !open {
					return
				}
				if err := writeEvent(w, ev); err != nil {
					slog.Debug("notification stream: encode failed", "err", err)
					continue
				}
			case <-ticker.C:
				if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
					return
				}
			}
			if err := w.Flush(); err != nil {
				return
			}
		}
	})
}

func writeEvent(w *bufio.Writer, ev push.Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Name, b)
	return err
}
