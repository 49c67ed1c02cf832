package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ReminderPending   = "pending"
	ReminderSent      = "sent"
	ReminderCancelled = "cancelled"
)

// ReminderTask is a durable deferred notification keyed by booking. In-process
// timers do not survive restarts, so due tasks live in the database and a cron
// sweep fires them. Cancelling or rescheduling the booking updates the row, so
// a stale reminder can never fire.
type ReminderTask struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	BookingID uuid.UUID `gorm:"not null;unique" json:"booking_id"`
	DueAt     time.Time `gorm:"not null;index" json:"due_at"`
	Status    string    `gorm:"size:20;not null;default:'pending'" json:"status"`

	Booking Booking `gorm:"foreignkey:BookingID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
