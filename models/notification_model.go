package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Notification types form a closed enum; handlers and services only ever use
// these constants.
const (
	NotificationBookingRequest   = "booking_request"
	NotificationBookingAccepted  = "booking_accepted"
	NotificationBookingDeclined  = "booking_declined"
	NotificationBookingCancelled = "booking_cancelled"
	NotificationBookingReminder  = "booking_reminder"
	NotificationForumReply       = "forum_reply"
	NotificationNewMessage       = "new_message"
)

// NotificationData is the opaque structured payload attached to a notification.
type NotificationData map[string]interface{}

func (d NotificationData) Value() (driver.Value, error) {
	if d == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(d)
}

func (d *NotificationData) Scan(value interface{}) error {
	if value == nil {
		*d = NotificationData{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	}
	return errors.New("unsupported type for NotificationData")
}

type Notification struct {
	ID      uuid.UUID        `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	UserID  uuid.UUID        `gorm:"not null;index" json:"user_id"`
	Type    string           `gorm:"size:50;not null" json:"type"`
	Title   string           `gorm:"size:255;not null" json:"title"`
	Message string           `gorm:"type:text;not null" json:"message"`
	IsRead  bool             `gorm:"not null;default:false" json:"is_read"`
	Data    NotificationData `gorm:"type:jsonb;default:'{}'" json:"data"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
