package cards

import "github.com/example/hanzibot/pkg/models"

// impliedReadBonus is added to a write score to derive the implied read score.
const impliedReadBonus = 3

// SynthesizeImpliedEvents returns the real events followed by one implied
// read event per write event. An implied event carries the date and ID of
// the write event it was derived from and a score of min(score+3, 10).
// The input slice is not modified.
func SynthesizeImpliedEvents(events []models.ReviewEvent) []models.ReviewEvent {
	out := make([]models.ReviewEvent, len(events), len(events)+countWrites(events))
	copy(out, events)
	for _, e := range events {
		if e.Type == models.TaskWrite {
			out = append(out, impliedRead(e))
		}
	}
	return out
}

func impliedRead(write models.ReviewEvent) models.ReviewEvent {
	implied := write
	implied.Type = models.TaskRead
	implied.Score = min(write.Score+impliedReadBonus, 10)
	return implied
}

func countWrites(events []models.ReviewEvent) int {
	n := 0
	for _, e := range events {
		if e.Type == models.TaskWrite {
			n++
		}
	}
	return n
}
