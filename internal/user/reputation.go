package user

import (
	"math"

	"github.com/sudo-init-do/fixhub/internal/apperr"
)

const (
	newProScore        = 85
	newProRatingsCount = 1
)

// ValidateRating checks that a rating lies in [0,100].
func ValidateRating(rating int) error {
	if rating < 0 || rating > 100 {
		return apperr.Validation("rating must be between 0 and 100")
	}
	return nil
}

// RunningMean folds rating into the integer mean of oldCount ratings.
func RunningMean(oldScore, oldCount, rating int) int {
	if oldCount < 0 {
		oldCount = 0
	}
	mean := float64(oldScore*oldCount+rating) / float64(oldCount+1)
	score := int(math.Floor(mean + 0.5))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// ApplyRating updates the profile's score and ratings count.
func ApplyRating(p *Profile, rating int) {
	p.Score = RunningMean(p.Score, p.RatingsCount, rating)
	p.RatingsCount++
}
