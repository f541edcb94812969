package spaced_repetition

import (
	"fmt"
	"time"
)

// State is the learning stage of a card
type State int

const (
	// New cards have never been reviewed
	New State = iota
	// Learning cards are going through the initial learning steps
	Learning
	// Review cards are in the long-term review cycle
	Review
	// Relearning cards lapsed from Review and are going through relearning steps
	Relearning
)

var stateNames = [...]string{New: "New", Learning: "Learning", Review: "Review", Relearning: "Relearning"}

// String returns the state name
func (s State) String() string {
	if s >= New && s <= Relearning {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Card is the memory state of one (character, card type) pair.
// Stability, Difficulty and LastReview stay nil until the first review.
type Card struct {
	State      State      `json:"state"`
	Step       *int       `json:"step,omitempty"`
	Stability  *float64   `json:"stability,omitempty"`
	Difficulty *float64   `json:"difficulty,omitempty"`
	Due        time.Time  `json:"due"`
	LastReview *time.Time `json:"last_review,omitempty"`
}

// NewCard returns an unreviewed card due at the given time.
func NewCard(due time.Time) Card {
	return Card{State: New, Due: due}
}

// IsReviewed reports whether the card has any review history.
func (c Card) IsReviewed() bool {
	return c.LastReview != nil && c.Stability != nil
}

// IsDue reports whether the card should be reviewed at the given time.
func (c Card) IsDue(at time.Time) bool {
	return !c.Due.After(at)
}

// clone copies the card so pointer fields are not shared.
func (c Card) clone() Card {
	out := c
	if c.Step != nil {
		v := *c.Step
		out.Step = &v
	}
	if c.Stability != nil {
		v := *c.Stability
		out.Stability = &v
	}
	if c.Difficulty != nil {
		v := *c.Difficulty
		out.Difficulty = &v
	}
	if c.LastReview != nil {
		v := *c.LastReview
		out.LastReview = &v
	}
	return out
}

func (c *Card) setStep(step int) {
	c.Step = &step
}

// ReviewLog records a single review applied to a card
type ReviewLog struct {
	Rating      Rating    `json:"rating"`
	ReviewedAt  time.Time `json:"reviewed_at"`
	StateBefore State     `json:"state_before"`
	ElapsedDays float64   `json:"elapsed_days"`
}
