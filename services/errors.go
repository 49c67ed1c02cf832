package services

import "errors"

// Domain errors. All are client-facing and non-retryable as-is: the caller
// must change its request, not replay it. Handlers map them to HTTP statuses
// with errors.Is.
var (
	ErrNotFound          = errors.New("resource not found")
	ErrForbidden         = errors.New("not authorized for this action")
	ErrSlotConflict      = errors.New("this time slot is already booked")
	ErrInvalidTransition = errors.New("invalid booking status transition")
	ErrInvalidState      = errors.New("booking is not in the required state")
	ErrDuplicateReview   = errors.New("a review for this booking already exists")
	ErrValidation        = errors.New("invalid request")
)
