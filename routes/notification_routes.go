package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/prismlearn/mentor_platform/handlers"
	"github.com/prismlearn/mentor_platform/middleware"
)

func NotificationRoutes(app *fiber.App, h *handlers.NotificationHandler) {
	api := app.Group("/api/v1")

	notifications := api.Group("/users/notifications", middleware.Protected())
	notifications.Get("", h.GetNotifications)
	notifications.Patch("/read-all", h.MarkAllNotificationsRead)
	notifications.Patch("/:id/read", h.MarkNotificationRead)
}
