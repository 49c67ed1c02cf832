package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// WeeklyAvailability is a mentor's recurring template: weekday name mapped to
// the ordered time labels the mentor opens that day, e.g. "tuesday": ["09:00", "10:00"].
// Stored as a JSONB document on the user row.
type WeeklyAvailability map[string][]string

func (a WeeklyAvailability) Value() (driver.Value, error) {
	if a == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(a)
}

func (a *WeeklyAvailability) Scan(value interface{}) error {
	if value == nil {
		*a = WeeklyAvailability{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	}
	return errors.New("unsupported type for WeeklyAvailability")
}

// StringList is a JSONB-backed string slice (mentor expertise tags).
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = StringList{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	}
	return errors.New("unsupported type for StringList")
}

type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	FirstName string    `gorm:"size:100;not null" json:"first_name"`
	LastName  string    `gorm:"size:100;not null" json:"last_name"`
	Email     string    `gorm:"size:255;not null;unique" json:"email"`
	Password  string    `gorm:"not null" json:"-"`
	Role      string    `gorm:"size:20;not null;default:'student'" json:"role"`

	Avatar *string `gorm:"size:255" json:"avatar"`
	Bio    *string `gorm:"type:text" json:"bio"`

	// Mentor-only fields.
	Expertise    StringList         `gorm:"type:jsonb;default:'[]'" json:"expertise"`
	Availability WeeklyAvailability `gorm:"type:jsonb;default:'{}'" json:"availability"`
	Rating       float64            `gorm:"type:numeric(3,2);default:0" json:"rating"`
	TotalReviews int                `gorm:"default:0" json:"total_reviews"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
