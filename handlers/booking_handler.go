package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/prismlearn/mentor_platform/middleware"
	"github.com/prismlearn/mentor_platform/services"
)

type BookingHandler struct {
	bookings *services.BookingService
}

func NewBookingHandler(bookings *services.BookingService) *BookingHandler {
	return &BookingHandler{bookings: bookings}
}

type CreateBookingRequest struct {
	MentorID string `json:"mentor_id" validate:"required,uuid"`
	Date     string `json:"date" validate:"required"`
	Time     string `json:"time" validate:"required"`
	Duration int    `json:"duration,omitempty"`
	Topic    string `json:"topic,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

func (h *BookingHandler) CreateBooking(c *fiber.Ctx) error {
	studentID := middleware.CurrentUserID(c)

	var req CreateBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	mentorID, _ := uuid.Parse(req.MentorID)

	booking, err := h.bookings.CreateBooking(services.CreateBookingInput{
		StudentID: studentID,
		MentorID:  mentorID,
		Date:      req.Date,
		Time:      req.Time,
		Duration:  req.Duration,
		Topic:     req.Topic,
		Notes:     req.Notes,
	})
	if err != nil {
		return domainError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"booking": booking})
}

type UpdateBookingStatusRequest struct {
	Status     string  `json:"status" validate:"required,oneof=accepted declined completed cancelled"`
	MeetingURL *string `json:"meeting_url,omitempty"`
}

func (h *BookingHandler) UpdateBookingStatus(c *fiber.Ctx) error {
	actorID := middleware.CurrentUserID(c)

	bookingID, err := uuid.Parse(c.Params("bookingId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking id"})
	}

	var req UpdateBookingStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	booking, err := h.bookings.UpdateStatus(bookingID, actorID, req.Status, req.MeetingURL)
	if err != nil {
		return domainError(c, err)
	}

	return c.JSON(fiber.Map{"booking": booking})
}

func (h *BookingHandler) GetMyBookings(c *fiber.Ctx) error {
	userID := middleware.CurrentUserID(c)
	role := middleware.CurrentUserRole(c)

	bookings, err := h.bookings.ListForUser(userID, role)
	if err != nil {
		return domainError(c, err)
	}

	return c.JSON(fiber.Map{"bookings": bookings})
}

type ReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

func (h *BookingHandler) CreateReview(c *fiber.Ctx) error {
	studentID := middleware.CurrentUserID(c)

	bookingID, err := uuid.Parse(c.Params("bookingId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking id"})
	}

	var req ReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	review, err := h.bookings.SubmitReview(services.SubmitReviewInput{
		BookingID: bookingID,
		StudentID: studentID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		return domainError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"review": review})
}
