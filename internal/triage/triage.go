// Package triage detects characters stuck in repeated failure.
package triage

import (
	"sort"

	"github.com/example/hanzibot/pkg/models"
)

// HardModeMaxScore is the highest score that still counts as a failure.
const HardModeMaxScore = 1

// Set is a set of characters
type Set map[string]struct{}

// Has reports whether char is in the set
func (s Set) Has(char string) bool {
	_, ok := s[char]
	return ok
}

// Sorted returns the members in ascending order
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// HardModeCharacters returns the characters whose two most recent real
// events of taskType both scored at most HardModeMaxScore. Recency is by
// date, with later insertion winning ties. Events are expected in
// insertion order.
func HardModeCharacters(events []models.ReviewEvent, taskType models.TaskType) Set {
	type entry struct {
		score int
		date  int64
		seq   int
	}
	// Only the latest two entries per character are kept.
	latest := make(map[string][2]*entry)
	for i, e := range events {
		if e.Type != taskType {
			continue
		}
		cur := &entry{score: e.Score, date: models.CivilDate(e.Date).Unix(), seq: i}
		pair := latest[e.Character]
		switch {
		case pair[0] == nil || newer(cur.date, cur.seq, pair[0].date, pair[0].seq):
			pair[1], pair[0] = pair[0], cur
		case pair[1] == nil || newer(cur.date, cur.seq, pair[1].date, pair[1].seq):
			pair[1] = cur
		}
		latest[e.Character] = pair
	}

	hard := make(Set)
	for char, pair := range latest {
		if pair[1] == nil {
			continue
		}
		if pair[0].score <= HardModeMaxScore && pair[1].score <= HardModeMaxScore {
			hard[char] = struct{}{}
		}
	}
	return hard
}

func newer(date int64, seq int, otherDate int64, otherSeq int) bool {
	if date != otherDate {
		return date > otherDate
	}
	return seq > otherSeq
}
