package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/prismlearn/mentor_platform/handlers"
	"github.com/prismlearn/mentor_platform/middleware"
)

func MentorRoutes(app *fiber.App, h *handlers.MentorHandler) {
	api := app.Group("/api/v1")

	mentors := api.Group("/mentors")
	mentors.Get("/:mentorId/availability", h.GetMentorAvailability)
	mentors.Put("/availability", middleware.Protected(), middleware.MentorRequired(), h.UpdateMyAvailability)
}
