package services

import (
	"math"

	"github.com/google/uuid"
	"github.com/prismlearn/mentor_platform/models"
	"gorm.io/gorm"
)

// RatingService maintains the derived rating cache on mentor rows. The review
// ledger stays authoritative: every recompute reads the full set, so the
// aggregate is idempotently reconstructible and cannot drift through
// incremental updates.
type RatingService struct {
	mentorLocks *keyedMutex
}

func NewRatingService() *RatingService {
	return &RatingService{mentorLocks: newKeyedMutex()}
}

// Recompute recalculates the mentor's average rating and review count from
// all reviews and writes both to the user row. Safe to call from inside the
// review-creation transaction; concurrent recomputes for one mentor serialise
// on a per-mentor lock.
func (s *RatingService) Recompute(tx *gorm.DB, mentorID uuid.UUID) error {
	key := mentorID.String()
	s.mentorLocks.Lock(key)
	defer s.mentorLocks.Unlock(key)

	var agg struct {
		Avg   float64
		Total int
	}
	if err := tx.Model(&models.Review{}).
		Where("mentor_id = ?", mentorID).
		Select("COALESCE(AVG(rating), 0) as avg, COUNT(id) as total").
		Scan(&agg).Error; err != nil {
		return err
	}

	return tx.Model(&models.User{}).
		Where("id = ?", mentorID).
		Updates(map[string]interface{}{
			"rating":        RoundRating(agg.Avg),
			"total_reviews": agg.Total,
		}).Error
}

// RoundRating rounds to the two decimal places the public profile displays.
func RoundRating(avg float64) float64 {
	return math.Round(avg*100) / 100
}
