package models

import (
	"time"

	"github.com/google/uuid"
)

// Booking statuses. The state machine is
// pending -> accepted | declined, accepted -> completed | cancelled;
// declined, completed and cancelled are terminal.
const (
	BookingPending   = "pending"
	BookingAccepted  = "accepted"
	BookingDeclined  = "declined"
	BookingCompleted = "completed"
	BookingCancelled = "cancelled"
)

type Booking struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	StudentID uuid.UUID `gorm:"not null;index" json:"student_id"`
	MentorID  uuid.UUID `gorm:"not null;index:idx_bookings_slot" json:"mentor_id"`

	// Date is a calendar day ("2006-01-02"), Time a time-of-day label ("15:04").
	// Together with MentorID they identify one bookable slot.
	Date     string `gorm:"size:10;not null;index:idx_bookings_slot" json:"date"`
	Time     string `gorm:"size:5;not null;index:idx_bookings_slot" json:"time"`
	Duration int    `gorm:"not null;default:60" json:"duration"`

	Status     string  `gorm:"size:20;not null;default:'pending'" json:"status"`
	Topic      string  `gorm:"size:255" json:"topic"`
	Notes      string  `gorm:"type:text" json:"notes"`
	MeetingURL *string `gorm:"size:255" json:"meeting_url"`

	Student User `gorm:"foreignkey:StudentID" json:"student,omitempty"`
	Mentor  User `gorm:"foreignkey:MentorID" json:"mentor,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ActiveStatuses are the statuses that hold a slot against new requests.
var ActiveStatuses = []string{BookingPending, BookingAccepted}

func IsTerminalStatus(status string) bool {
	switch status {
	case BookingDeclined, BookingCompleted, BookingCancelled:
		return true
	}
	return false
}
