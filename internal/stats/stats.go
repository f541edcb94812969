// Package stats summarizes card state for progress reporting.
package stats

import (
	"math"
	"sort"
	"time"

	"github.com/example/hanzibot/internal/cards"
	sr "github.com/example/hanzibot/internal/spaced_repetition"
	"github.com/example/hanzibot/internal/triage"
	"github.com/example/hanzibot/pkg/models"
)

// Retention band boundaries.
const (
	MasteredAbove = 0.9
	LearningFrom  = 0.6
)

// CharacterStats returns the read and write stats of every character in
// the store at the given time. Cards without review history have nil
// Retrievability and DueInDays.
func CharacterStats(store *cards.Store, events []models.ReviewEvent, now time.Time) map[string]models.CharacterStats {
	hard := map[models.TaskType]triage.Set{
		models.TaskRead:  triage.HardModeCharacters(events, models.TaskRead),
		models.TaskWrite: triage.HardModeCharacters(events, models.TaskWrite),
	}

	out := make(map[string]models.CharacterStats, len(store.Characters()))
	for _, char := range store.Characters() {
		var cs models.CharacterStats
		for _, cardType := range models.CardTypes {
			st := cardStats(store, char, cardType, now)
			st.IsHardMode = hard[cardType].Has(char)
			if cardType == models.TaskRead {
				cs.Read = st
			} else {
				cs.Write = st
			}
		}
		out[char] = cs
	}
	return out
}

func cardStats(store *cards.Store, char string, cardType models.TaskType, now time.Time) models.CardStats {
	var st models.CardStats
	r, ok := store.Retrievability(char, cardType, now)
	if !ok {
		return st
	}
	st.Retrievability = &r
	card, _ := store.Card(char, cardType)
	due := int(math.Floor(card.Due.Sub(now).Hours() / 24))
	st.DueInDays = &due
	return st
}

// Bucket adds one card to the buckets. Cards without retrievability are ignored.
func Bucket(b *models.Buckets, st models.CardStats) {
	if st.Retrievability == nil {
		return
	}
	b.Total++
	r := *st.Retrievability
	switch {
	case st.IsHardMode:
		b.Hard++
	case r > MasteredAbove:
		b.Mastered++
	case r >= LearningFrom:
		b.Learning++
	default:
		b.Lapsing++
	}
}

// AggregateLessonStats buckets the given characters per card type.
// Characters missing from charStats are skipped.
func AggregateLessonStats(charStats map[string]models.CharacterStats, chars []string) models.LessonAggregate {
	var agg models.LessonAggregate
	for _, c := range chars {
		cs, ok := charStats[c]
		if !ok {
			continue
		}
		Bucket(&agg.Read, cs.Read)
		Bucket(&agg.Write, cs.Write)
	}
	return agg
}

// LessonProgress aggregates each lesson's characters
func LessonProgress(lessons []models.Lesson, charStats map[string]models.CharacterStats) []models.LessonProgress {
	out := make([]models.LessonProgress, 0, len(lessons))
	for _, l := range lessons {
		out = append(out, models.LessonProgress{
			Lesson:    l,
			Aggregate: AggregateLessonStats(charStats, l.Characters),
		})
	}
	return out
}

// RecentHistory returns up to n of the latest exam results per character
// and card type, oldest first.
func RecentHistory(events []models.ReviewEvent, now time.Time, n int) map[string]map[models.TaskType][]models.RecentRecord {
	type indexed struct {
		models.ReviewEvent
		seq int
	}
	groups := make(map[cards.CardKey][]indexed)
	for i, e := range events {
		if !e.Type.IsExam() {
			continue
		}
		key := cards.CardKey{Character: e.Character, Type: e.Type}
		groups[key] = append(groups[key], indexed{ReviewEvent: e, seq: i})
	}

	today := models.CivilDate(now)
	out := make(map[string]map[models.TaskType][]models.RecentRecord)
	for key, group := range groups {
		sort.SliceStable(group, func(i, j int) bool {
			if !group[i].Date.Equal(group[j].Date) {
				return group[i].Date.After(group[j].Date)
			}
			return group[i].seq > group[j].seq
		})
		if len(group) > n {
			group = group[:n]
		}

		records := make([]models.RecentRecord, len(group))
		for i, e := range group {
			records[len(group)-1-i] = models.RecentRecord{
				DaysAgo: int(today.Sub(models.CivilDate(e.Date)).Hours() / 24),
				Rating:  sr.ScoreToRating(e.Score).String(),
			}
		}
		if out[key.Character] == nil {
			out[key.Character] = make(map[models.TaskType][]models.RecentRecord)
		}
		out[key.Character][key.Type] = records
	}
	return out
}
