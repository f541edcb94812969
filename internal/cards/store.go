package cards

import (
	"time"

	sr "github.com/example/hanzibot/internal/spaced_repetition"
	"github.com/example/hanzibot/pkg/models"
)

// CardKey identifies one memory card
type CardKey struct {
	Character string
	Type      models.TaskType
}

// Store is an immutable snapshot of every card built from an event log.
type Store struct {
	builder *Builder
	cards   map[CardKey]sr.Card
	chars   []string
}

func newStore(b *Builder, chars []string) *Store {
	return &Store{
		builder: b,
		cards:   make(map[CardKey]sr.Card, 2*len(chars)),
		chars:   chars,
	}
}

// Card returns the card for a character and card type
func (s *Store) Card(char string, cardType models.TaskType) (sr.Card, bool) {
	c, ok := s.cards[CardKey{Character: char, Type: cardType}]
	return c, ok
}

// Retrievability returns the probability of recall at the given time.
// ok is false for unknown characters and cards that were never reviewed.
func (s *Store) Retrievability(char string, cardType models.TaskType, at time.Time) (float64, bool) {
	c, ok := s.Card(char, cardType)
	if !ok {
		return 0, false
	}
	return s.builder.Scheduler(cardType).Retrievability(c, at)
}

// Characters returns every character with cards, sorted
func (s *Store) Characters() []string {
	out := make([]string, len(s.chars))
	copy(out, s.chars)
	return out
}

// Len returns the number of cards
func (s *Store) Len() int {
	return len(s.cards)
}
