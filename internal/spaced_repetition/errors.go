package spaced_repetition

import "errors"

var (
	// ErrInvalidRating is returned for ratings outside Again..Easy
	ErrInvalidRating = errors.New("spaced_repetition: invalid rating")
	// ErrInvalidParameters is returned when model weights are out of bounds
	ErrInvalidParameters = errors.New("spaced_repetition: parameters out of bounds")
	// ErrInvalidRetention is returned when desired retention is not in (0, 1]
	ErrInvalidRetention = errors.New("spaced_repetition: desired retention out of range")
	// ErrReviewBeforeLastReview is returned when a review predates the card's last review
	ErrReviewBeforeLastReview = errors.New("spaced_repetition: review time precedes last review")
)
