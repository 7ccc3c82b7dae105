package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/medstage_backend/internal/api/http/handler"
	"github.com/Alijeyrad/medstage_backend/pkg/authorize"
)

func (r *Router) registerNotificationRoutes(
	api fiber.Router,
	nh *handler.NotificationHandler,
	requirePerm permFunc,
) {
	notifs := api.Group("/notifications")

	notifs.Get("/", requirePerm(authorize.ResourceNotification, authorize.ActionList), nh.List)
	notifs.Get("/unread-count", requirePerm(authorize.ResourceNotification, authorize.ActionRead), nh.UnreadCount)
	notifs.Get("/stream", requirePerm(authorize.ResourceNotification, authorize.ActionRead), nh.Stream)
	notifs.Patch("/read-all", requirePerm(authorize.ResourceNotification, authorize.ActionUpdate), nh.MarkAllRead)
	notifs.Patch("/:id/read", requirePerm(authorize.ResourceNotification, authorize.ActionUpdate), nh.MarkRead)
	notifs.Delete("/:id", requirePerm(authorize.ResourceNotification, authorize.ActionDelete), nh.Delete)
}
