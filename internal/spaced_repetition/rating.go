package spaced_repetition

import (
	"fmt"
)

// Rating is the qualitative outcome of a review fed into the memory model
type Rating int

const (
	// Again is a complete failure to recall
	Again Rating = iota + 1
	// Hard is a recall with significant difficulty
	Hard
	// Good is a recall with some effort
	Good
	// Easy is an effortless recall
	Easy
)

// Ratings lists every valid rating in ascending order.
var Ratings = []Rating{Again, Hard, Good, Easy}

var ratingNames = [...]string{Again: "Again", Hard: "Hard", Good: "Good", Easy: "Easy"}

// ScoreToRating maps an exam score in [0, 10] to a rating.
// The score is expected to be validated by the caller.
func ScoreToRating(score int) Rating {
	switch {
	case score <= 1:
		return Again
	case score <= 4:
		return Hard
	case score <= 8:
		return Good
	default:
		return Easy
	}
}

// IsValid reports whether r is one of Again, Hard, Good, Easy.
func (r Rating) IsValid() bool {
	return r >= Again && r <= Easy
}

// String returns the rating name
func (r Rating) String() string {
	if r.IsValid() {
		return ratingNames[r]
	}
	return fmt.Sprintf("Rating(%d)", int(r))
}

// MarshalText implements encoding.TextMarshaler
func (r Rating) MarshalText() ([]byte, error) {
	if !r.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRating, int(r))
	}
	return []byte(ratingNames[r]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (r *Rating) UnmarshalText(text []byte) error {
	for _, candidate := range Ratings {
		if ratingNames[candidate] == string(text) {
			*r = candidate
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrInvalidRating, text)
}
