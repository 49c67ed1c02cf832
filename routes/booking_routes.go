package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/prismlearn/mentor_platform/handlers"
	"github.com/prismlearn/mentor_platform/middleware"
)

func BookingRoutes(app *fiber.App, h *handlers.BookingHandler) {
	api := app.Group("/api/v1")

	booking := api.Group("/bookings", middleware.Protected())
	booking.Get("/me", h.GetMyBookings)
	booking.Post("", h.CreateBooking)
	booking.Patch("/:bookingId/status", h.UpdateBookingStatus)
	booking.Post("/:bookingId/review", h.CreateReview)
}
