package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/prismlearn/mentor_platform/models"
	"gorm.io/gorm"
)

// reminderLead is how long before the session start the reminder fires.
const reminderLead = time.Hour

// ReminderService owns the durable deferred-task table behind session
// reminders. Tasks are scheduled when a booking is accepted and cancelled
// when it leaves the accepted state, so a cancelled booking can never fire a
// stale reminder. A cron sweep dispatches whatever is due.
type ReminderService struct {
	db       *gorm.DB
	notifier *NotificationService
}

func NewReminderService(db *gorm.DB, notifier *NotificationService) *ReminderService {
	return &ReminderService{db: db, notifier: notifier}
}

// Schedule upserts the booking's reminder task inside the caller's
// transaction. Re-accepting or rescheduling replaces the previous due time.
func (s *ReminderService) Schedule(tx *gorm.DB, booking *models.Booking) error {
	start, err := time.ParseInLocation("2006-01-02 15:04", booking.Date+" "+booking.Time, time.Local)
	if err != nil {
		return fmt.Errorf("%w: booking has unparseable schedule", ErrValidation)
	}
	dueAt := start.Add(-reminderLead)
	if dueAt.Before(time.Now()) {
		// Session starts within the lead window; nothing to remind about.
		return nil
	}

	var task models.ReminderTask
	err = tx.Where("booking_id = ?", booking.ID).First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		task = models.ReminderTask{
			BookingID: booking.ID,
			DueAt:     dueAt,
			Status:    models.ReminderPending,
		}
		return tx.Create(&task).Error
	}
	if err != nil {
		return err
	}

	task.DueAt = dueAt
	task.Status = models.ReminderPending
	return tx.Save(&task).Error
}

// Cancel marks the booking's pending reminder cancelled, if one exists.
func (s *ReminderService) Cancel(tx *gorm.DB, bookingID uuid.UUID) error {
	return tx.Model(&models.ReminderTask{}).
		Where("booking_id = ? AND status = ?", bookingID, models.ReminderPending).
		Update("status", models.ReminderCancelled).Error
}

// Sweep fires every due pending reminder. A task whose booking is no longer
// accepted is dropped instead of fired; the reminder itself goes to both
// parties through the dispatcher.
func (s *ReminderService) Sweep() (int, error) {
	var due []models.ReminderTask
	err := s.db.Preload("Booking").
		Where("status = ? AND due_at <= ?", models.ReminderPending, time.Now()).
		Find(&due).Error
	if err != nil {
		return 0, err
	}

	fired := 0
	for _, task := range due {
		if task.Booking.Status != models.BookingAccepted {
			if err := s.db.Model(&task).Update("status", models.ReminderCancelled).Error; err != nil {
				log.Printf("Failed to cancel stale reminder %s: %v", task.ID, err)
			}
			continue
		}

		data := models.NotificationData{"bookingId": task.BookingID.String()}
		message := fmt.Sprintf("Your session at %s starts in one hour", task.Booking.Time)
		for _, userID := range []uuid.UUID{task.Booking.StudentID, task.Booking.MentorID} {
			if _, err := s.notifier.Notify(userID, models.NotificationBookingReminder, "Upcoming Session", message, data); err != nil {
				log.Printf("Failed to send reminder for booking %s to user %s: %v", task.BookingID, userID, err)
			}
		}

		if err := s.db.Model(&task).Update("status", models.ReminderSent).Error; err != nil {
			log.Printf("Failed to mark reminder %s as sent: %v", task.ID, err)
			continue
		}
		fired++
	}
	return fired, nil
}
