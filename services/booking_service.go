package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/prismlearn/mentor_platform/models"
	"github.com/prismlearn/mentor_platform/notifications"
	"github.com/prismlearn/mentor_platform/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// transitions maps every legal status change to the booking party allowed to
// make it. Anything absent here is an invalid transition.
var transitions = map[string]map[string]string{
	models.BookingPending: {
		models.BookingAccepted: "mentor",
		models.BookingDeclined: "mentor",
	},
	models.BookingAccepted: {
		models.BookingCompleted: "mentor",
		models.BookingCancelled: "student",
	},
}

type BookingService struct {
	db        *gorm.DB
	notifier  *NotificationService
	ratings   *RatingService
	reminders *ReminderService
	mailer    notifications.Mailer

	// slotLocks serialises the conflict-check/insert sequence per
	// (mentorID, date, time) key. Distinct slots never block each other.
	slotLocks *keyedMutex
}

func NewBookingService(db *gorm.DB, notifier *NotificationService, ratings *RatingService, reminders *ReminderService, mailer notifications.Mailer) *BookingService {
	if mailer == nil {
		mailer = notifications.NoopMailer{}
	}
	return &BookingService{
		db:        db,
		notifier:  notifier,
		ratings:   ratings,
		reminders: reminders,
		mailer:    mailer,
		slotLocks: newKeyedMutex(),
	}
}

type CreateBookingInput struct {
	StudentID uuid.UUID
	MentorID  uuid.UUID
	Date      string
	Time      string
	Duration  int
	Topic     string
	Notes     string
}

func slotKey(mentorID uuid.UUID, date, timeLabel string) string {
	return mentorID.String() + "|" + date + "|" + timeLabel
}

// CreateBooking arbitrates the slot and inserts a pending booking. Exactly one
// of any number of concurrent requests for the same slot succeeds; the rest
// fail with ErrSlotConflict.
func (s *BookingService) CreateBooking(in CreateBookingInput) (*models.Booking, error) {
	if _, err := time.Parse("2006-01-02", in.Date); err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidation)
	}
	if _, err := time.Parse("15:04", in.Time); err != nil {
		return nil, fmt.Errorf("%w: time must be HH:MM", ErrValidation)
	}
	if in.Duration <= 0 {
		in.Duration = 60
	}

	var mentor models.User
	if err := s.db.Where("id = ? AND role = ?", in.MentorID, "mentor").First(&mentor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: mentor", ErrNotFound)
		}
		return nil, err
	}

	var student models.User
	if err := s.db.First(&student, "id = ?", in.StudentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: student", ErrNotFound)
		}
		return nil, err
	}

	key := slotKey(in.MentorID, in.Date, in.Time)
	s.slotLocks.Lock(key)
	defer s.slotLocks.Unlock(key)

	var booking models.Booking
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Booking{}).
			Where("mentor_id = ? AND date = ? AND time = ? AND status IN ?", in.MentorID, in.Date, in.Time, models.ActiveStatuses).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrSlotConflict
		}

		booking = models.Booking{
			StudentID: in.StudentID,
			MentorID:  in.MentorID,
			Date:      in.Date,
			Time:      in.Time,
			Duration:  in.Duration,
			Topic:     in.Topic,
			Notes:     in.Notes,
			Status:    models.BookingPending,
		}
		return tx.Create(&booking).Error
	})
	if err != nil {
		return nil, err
	}

	s.dispatch(
		mentor.ID,
		models.NotificationBookingRequest,
		"New Booking Request",
		fmt.Sprintf("%s %s has requested a session", student.FirstName, student.LastName),
		models.NotificationData{"bookingId": booking.ID.String()},
	)
	go s.mailer.SendBookingEmail(mentor.Email, "New Booking Request", &booking)

	return &booking, nil
}

// UpdateStatus moves a booking through the state machine on behalf of actorID.
// The booking row is locked FOR UPDATE for the duration of the transaction, so
// two racing transitions serialise and the loser observes the already-changed
// status as an invalid transition.
func (s *BookingService) UpdateStatus(bookingID, actorID uuid.UUID, newStatus string, meetingURL *string) (*models.Booking, error) {
	if _, known := transitions[newStatus]; !known && !models.IsTerminalStatus(newStatus) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, newStatus)
	}

	var booking models.Booking
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&booking, "id = ?", bookingID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: booking", ErrNotFound)
			}
			return err
		}

		requiredActor, ok := transitions[booking.Status][newStatus]
		if !ok {
			return ErrInvalidTransition
		}
		switch requiredActor {
		case "mentor":
			if actorID != booking.MentorID {
				return ErrForbidden
			}
		case "student":
			if actorID != booking.StudentID {
				return ErrForbidden
			}
		}

		booking.Status = newStatus
		if newStatus == models.BookingAccepted {
			if meetingURL != nil && *meetingURL != "" {
				booking.MeetingURL = meetingURL
			} else if booking.MeetingURL == nil {
				url := utils.GenerateMeetingURL()
				booking.MeetingURL = &url
			}
		}
		if err := tx.Save(&booking).Error; err != nil {
			return err
		}

		switch newStatus {
		case models.BookingAccepted:
			return s.reminders.Schedule(tx, &booking)
		case models.BookingDeclined, models.BookingCancelled, models.BookingCompleted:
			return s.reminders.Cancel(tx, booking.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyTransition(&booking)

	return &booking, nil
}

func (s *BookingService) notifyTransition(b *models.Booking) {
	data := models.NotificationData{"bookingId": b.ID.String(), "status": b.Status}

	switch b.Status {
	case models.BookingAccepted:
		s.dispatch(b.StudentID, models.NotificationBookingAccepted,
			"Booking Accepted!", "Your session has been confirmed", data)
	case models.BookingDeclined:
		s.dispatch(b.StudentID, models.NotificationBookingDeclined,
			"Booking Declined", "Your session request was declined", data)
	case models.BookingCancelled:
		s.dispatch(b.MentorID, models.NotificationBookingCancelled,
			"Booking Cancelled", "The student cancelled the session", data)
	}
}

// dispatch is fire-and-forget from the scheduler's point of view: the booking
// write already committed, so a failed notification is logged, not surfaced.
func (s *BookingService) dispatch(userID uuid.UUID, typ, title, message string, data models.NotificationData) {
	if _, err := s.notifier.Notify(userID, typ, title, message, data); err != nil {
		log.Printf("Failed to dispatch %s notification for user %s: %v", typ, userID, err)
	}
}

type SubmitReviewInput struct {
	BookingID uuid.UUID
	StudentID uuid.UUID
	Rating    int
	Comment   string
}

// SubmitReview creates the one allowed review for a completed booking and
// recomputes the mentor's aggregate rating in the same transaction.
func (s *BookingService) SubmitReview(in SubmitReviewInput) (*models.Review, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", ErrValidation)
	}

	var review models.Review
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var booking models.Booking
		if err := tx.First(&booking, "id = ?", in.BookingID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: booking", ErrNotFound)
			}
			return err
		}
		if booking.StudentID != in.StudentID {
			return ErrForbidden
		}
		if booking.Status != models.BookingCompleted {
			return ErrInvalidState
		}

		var existing models.Review
		if err := tx.Where("booking_id = ?", in.BookingID).First(&existing).Error; err == nil {
			return ErrDuplicateReview
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		review = models.Review{
			BookingID: booking.ID,
			StudentID: in.StudentID,
			MentorID:  booking.MentorID,
			Rating:    in.Rating,
			Comment:   in.Comment,
		}
		if err := tx.Create(&review).Error; err != nil {
			return err
		}

		return s.ratings.Recompute(tx, booking.MentorID)
	})
	if err != nil {
		return nil, err
	}

	return &review, nil
}

// VerifyMentor confirms userID is the mentor on the booking. Used by the
// realtime relay so only the booking's mentor can push live status hints
// about it.
func (s *BookingService) VerifyMentor(bookingID, userID uuid.UUID) error {
	var booking models.Booking
	if err := s.db.Select("id", "mentor_id").First(&booking, "id = ?", bookingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: booking", ErrNotFound)
		}
		return err
	}
	if booking.MentorID != userID {
		return ErrForbidden
	}
	return nil
}

// ListForUser returns the caller's bookings with the counterpart profile
// preloaded, newest session first. Mentors see the mentor side, everyone else
// the student side.
func (s *BookingService) ListForUser(userID uuid.UUID, role string) ([]models.Booking, error) {
	var bookings []models.Booking
	q := s.db.Preload("Student").Preload("Mentor").
		Order("date desc").Order("time desc")
	if role == "mentor" {
		q = q.Where("mentor_id = ?", userID)
	} else {
		q = q.Where("student_id = ?", userID)
	}
	if err := q.Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}
