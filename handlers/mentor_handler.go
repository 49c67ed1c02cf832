package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/prismlearn/mentor_platform/middleware"
	"github.com/prismlearn/mentor_platform/models"
	"github.com/prismlearn/mentor_platform/services"
)

type MentorHandler struct {
	availability *services.AvailabilityService
}

func NewMentorHandler(availability *services.AvailabilityService) *MentorHandler {
	return &MentorHandler{availability: availability}
}

func (h *MentorHandler) GetMentorAvailability(c *fiber.Ctx) error {
	mentorID, err := uuid.Parse(c.Params("mentorId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid mentor id"})
	}

	date := c.Query("date")
	if date == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "date query parameter is required"})
	}

	availability, err := h.availability.Resolve(mentorID, date)
	if err != nil {
		return domainError(c, err)
	}

	return c.JSON(availability)
}

type UpdateAvailabilityRequest struct {
	Availability models.WeeklyAvailability `json:"availability" validate:"required"`
}

func (h *MentorHandler) UpdateMyAvailability(c *fiber.Ctx) error {
	mentorID := middleware.CurrentUserID(c)

	var req UpdateAvailabilityRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	stored, err := h.availability.UpdateTemplate(mentorID, req.Availability)
	if err != nil {
		return domainError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Availability updated", "availability": stored})
}
