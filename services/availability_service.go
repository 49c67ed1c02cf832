package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prismlearn/mentor_platform/models"
	"gorm.io/gorm"
)

var weekdays = map[string]bool{
	"monday": true, "tuesday": true, "wednesday": true,
	"thursday": true, "friday": true, "saturday": true, "sunday": true,
}

type AvailabilityService struct {
	db *gorm.DB
}

func NewAvailabilityService(db *gorm.DB) *AvailabilityService {
	return &AvailabilityService{db: db}
}

// DayAvailability is the resolver output: the mentor's template for the date's
// weekday partitioned into still-free and already-booked time labels.
type DayAvailability struct {
	Free   []string `json:"free"`
	Booked []string `json:"booked"`
}

// Resolve derives availability for one mentor and calendar day. Nothing is
// persisted; the answer is recomputed from the template and the booking ledger
// on every call, so it can never go stale independently of either.
func (s *AvailabilityService) Resolve(mentorID uuid.UUID, date string) (*DayAvailability, error) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidation)
	}

	var mentor models.User
	if err := s.db.Where("id = ? AND role = ?", mentorID, "mentor").First(&mentor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: mentor", ErrNotFound)
		}
		return nil, err
	}

	template := weekdayTemplate(mentor.Availability, day.Weekday())

	var activeTimes []string
	if err := s.db.Model(&models.Booking{}).
		Where("mentor_id = ? AND date = ? AND status IN ?", mentorID, date, models.ActiveStatuses).
		Pluck("time", &activeTimes).Error; err != nil {
		return nil, err
	}

	free, booked := partitionSlots(template, activeTimes)
	return &DayAvailability{Free: free, Booked: booked}, nil
}

// weekdayTemplate looks the weekday up case-insensitively. UpdateTemplate
// lowercases keys before persisting, but documents written before that
// normalization may still carry mixed-case weekday names.
func weekdayTemplate(availability models.WeeklyAvailability, weekday time.Weekday) []string {
	key := strings.ToLower(weekday.String())
	if template, ok := availability[key]; ok {
		return template
	}
	for day, template := range availability {
		if strings.ToLower(day) == key {
			return template
		}
	}
	return nil
}

// partitionSlots splits a template into free and booked labels. The two
// results are disjoint, preserve template order and union back to the
// template; booked times outside the template are ignored.
func partitionSlots(template, activeTimes []string) (free, booked []string) {
	free = make([]string, 0, len(template))
	booked = make([]string, 0)

	taken := make(map[string]bool, len(activeTimes))
	for _, t := range activeTimes {
		taken[t] = true
	}

	for _, label := range template {
		if taken[label] {
			booked = append(booked, label)
		} else {
			free = append(free, label)
		}
	}
	return free, booked
}

// UpdateTemplate replaces the mentor's weekly availability document and
// returns the form that was stored. Weekday keys are lowercased before
// persisting so Resolve's weekday lookup always finds them regardless of how
// the client cased them. Only the owning mentor ever reaches this
// (route-level mentor guard plus the id taken from the token).
func (s *AvailabilityService) UpdateTemplate(mentorID uuid.UUID, availability models.WeeklyAvailability) (models.WeeklyAvailability, error) {
	normalized := make(models.WeeklyAvailability, len(availability))
	for day, times := range availability {
		key := strings.ToLower(day)
		if !weekdays[key] {
			return nil, fmt.Errorf("%w: unknown weekday %q", ErrValidation, day)
		}
		for _, label := range times {
			if _, err := time.Parse("15:04", label); err != nil {
				return nil, fmt.Errorf("%w: time label %q must be HH:MM", ErrValidation, label)
			}
		}
		normalized[key] = times
	}

	res := s.db.Model(&models.User{}).
		Where("id = ? AND role = ?", mentorID, "mentor").
		Update("availability", normalized)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: mentor", ErrNotFound)
	}
	return normalized, nil
}
