package stats

import (
	"fmt"
	"time"

	"github.com/example/hanzibot/internal/cards"
	"github.com/example/hanzibot/pkg/models"
)

// MonthlyHistory replays the log truncated at every month end between the
// first and last event and buckets the cards as of that instant.
// Months are returned newest first.
func MonthlyHistory(events []models.ReviewEvent, builder *cards.Builder) ([]models.MonthlyStats, error) {
	if len(events) == 0 {
		return []models.MonthlyStats{}, nil
	}
	if builder == nil {
		builder = cards.NewBuilder()
	}
	for i, e := range events {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
	}

	first, last := models.CivilDate(events[0].Date), models.CivilDate(events[0].Date)
	for _, e := range events[1:] {
		d := models.CivilDate(e.Date)
		if d.Before(first) {
			first = d
		}
		if d.After(last) {
			last = d
		}
	}

	var out []models.MonthlyStats
	for month := monthStart(first); !month.After(last); month = month.AddDate(0, 1, 0) {
		nextMonth := month.AddDate(0, 1, 0)
		// last instant of the month
		asOf := nextMonth.Add(-time.Nanosecond)

		var upTo []models.ReviewEvent
		ms := models.MonthlyStats{Month: month.Format("2006-01")}
		seen := make(map[string]bool)
		for _, e := range events {
			d := models.CivilDate(e.Date)
			if !d.Before(nextMonth) {
				continue
			}
			upTo = append(upTo, e)
			seen[e.Character] = true
			if d.Before(month) {
				continue
			}
			if e.Type.IsExam() {
				ms.TotalReviews++
			} else {
				ms.TotalStudies++
			}
		}
		ms.CumulativeUniqueChars = len(seen)

		store, err := builder.Build(upTo)
		if err != nil {
			return nil, fmt.Errorf("failed to build cards for %s: %w", ms.Month, err)
		}
		for _, cs := range CharacterStats(store, upTo, asOf) {
			Bucket(&ms.Read, cs.Read)
			Bucket(&ms.Write, cs.Write)
		}
		out = append(out, ms)
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
