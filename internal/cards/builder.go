// Package cards rebuilds per-character memory cards from the review event log.
package cards

import (
	"fmt"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	sr "github.com/example/hanzibot/internal/spaced_repetition"
	"github.com/example/hanzibot/pkg/models"
)

// Builder replays review events through the read and write schedulers.
type Builder struct {
	Read  *sr.Scheduler
	Write *sr.Scheduler
}

// NewBuilder returns a builder using the default read (0.9) and write (0.6)
// schedulers.
func NewBuilder() *Builder {
	return &Builder{
		Read:  sr.NewReadScheduler(),
		Write: sr.NewWriteScheduler(),
	}
}

// Scheduler returns the scheduler owning cards of the given type, or nil
// for study task types.
func (b *Builder) Scheduler(cardType models.TaskType) *sr.Scheduler {
	switch cardType {
	case models.TaskRead:
		return b.Read
	case models.TaskWrite:
		return b.Write
	}
	return nil
}

// sequenced is an event tagged with the insertion position used to break date ties.
type sequenced struct {
	models.ReviewEvent
	seq int
}

// Build validates every event and replays the full history into a Store.
// Events must be in insertion order; they need not be sorted by date.
// Every character that appears in any event receives both a read and a
// write card. A card with no contributing events stays New.
func (b *Builder) Build(events []models.ReviewEvent) (*Store, error) {
	for i, e := range events {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
	}

	all := SynthesizeImpliedEvents(events)
	seq := make([]int, len(all))
	next := len(events)
	for i, e := range events {
		seq[i] = i
		if e.Type == models.TaskWrite {
			seq[next] = i
			next++
		}
	}

	byChar := make(map[string][]sequenced)
	for i, e := range all {
		byChar[e.Character] = append(byChar[e.Character], sequenced{ReviewEvent: e, seq: seq[i]})
	}

	chars := make([]string, 0, len(byChar))
	for c := range byChar {
		chars = append(chars, c)
	}
	sort.Strings(chars)

	results := make([][2]sr.Card, len(chars))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, char := range chars {
		i, char := i, char
		g.Go(func() error {
			for j, cardType := range models.CardTypes {
				card, err := b.replay(byChar[char], cardType)
				if err != nil {
					return fmt.Errorf("failed to replay %s card for %q: %w", cardType, char, err)
				}
				results[i][j] = card
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	store := newStore(b, chars)
	for i, char := range chars {
		for j, cardType := range models.CardTypes {
			store.cards[CardKey{Character: char, Type: cardType}] = results[i][j]
		}
	}
	return store, nil
}

// replay runs the events of one character for a single card type in
// (date, insertion) order.
func (b *Builder) replay(events []sequenced, cardType models.TaskType) (sr.Card, error) {
	var relevant []sequenced
	for _, e := range events {
		if e.Type == cardType {
			relevant = append(relevant, e)
		}
	}
	sort.SliceStable(relevant, func(i, j int) bool {
		if !relevant[i].Date.Equal(relevant[j].Date) {
			return relevant[i].Date.Before(relevant[j].Date)
		}
		return relevant[i].seq < relevant[j].seq
	})

	scheduler := b.Scheduler(cardType)
	card := sr.NewCard(time.Time{})
	for _, e := range relevant {
		var err error
		card, _, err = scheduler.ReviewCard(card, sr.ScoreToRating(e.Score), models.CivilDate(e.Date))
		if err != nil {
			return sr.Card{}, err
		}
	}
	return card, nil
}
