package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/prismlearn/mentor_platform/middleware"
	"github.com/prismlearn/mentor_platform/services"
)

type NotificationHandler struct {
	notifications *services.NotificationService
}

func NewNotificationHandler(notifications *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

func (h *NotificationHandler) GetNotifications(c *fiber.Ctx) error {
	userID := middleware.CurrentUserID(c)
	limit, _ := strconv.Atoi(c.Query("limit", "20"))

	notifications, err := h.notifications.ListForUser(userID, limit)
	if err != nil {
		return domainError(c, err)
	}

	return c.JSON(fiber.Map{"notifications": notifications})
}

func (h *NotificationHandler) MarkNotificationRead(c *fiber.Ctx) error {
	userID := middleware.CurrentUserID(c)

	notificationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid notification id"})
	}

	if err := h.notifications.MarkRead(notificationID, userID); err != nil {
		return domainError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Notification marked as read"})
}

func (h *NotificationHandler) MarkAllNotificationsRead(c *fiber.Ctx) error {
	userID := middleware.CurrentUserID(c)

	if err := h.notifications.MarkAllRead(userID); err != nil {
		return domainError(c, err)
	}

	return c.JSON(fiber.Map{"message": "All notifications marked as read"})
}
