package stats

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/hanzibot/internal/cards"
	"github.com/example/hanzibot/pkg/models"
)

func ev(char string, t models.TaskType, score int, date string) models.ReviewEvent {
	d, err := models.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return models.ReviewEvent{Character: char, Type: t, Score: score, Date: d}
}

func ptr(f float64) *float64 { return &f }

func TestCharacterStats(t *testing.T) {
	events := []models.ReviewEvent{
		ev("你", models.TaskRead, 10, "2024-01-01"),
		ev("你", models.TaskWrite, 9, "2024-01-10"),
		ev("吗", models.TaskWrite, 1, "2024-01-05"),
		ev("吗", models.TaskWrite, 0, "2024-01-06"),
		ev("学", models.TaskWriteStudy, 7, "2024-01-06"),
	}
	store, err := cards.NewBuilder().Build(events)
	require.NoError(t, err)
	now := time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC)

	got := CharacterStats(store, events, now)
	require.Len(t, got, 3)

	ni := got["你"]
	require.NotNil(t, ni.Read.Retrievability)
	require.NotNil(t, ni.Write.Retrievability)
	assert.False(t, ni.Read.IsHardMode)
	card, _ := store.Card("你", models.TaskWrite)
	assert.Equal(t, int(math.Floor(card.Due.Sub(now).Hours()/24)), *ni.Write.DueInDays)
	assert.Greater(t, *ni.Write.DueInDays, 100)

	ma := got["吗"]
	assert.True(t, ma.Write.IsHardMode)
	assert.False(t, ma.Read.IsHardMode)
	require.NotNil(t, ma.Read.Retrievability, "implied read events give a read card")
	assert.Equal(t, ma.Write, ma.ForType(models.TaskWrite))

	xue := got["学"]
	assert.Nil(t, xue.Read.Retrievability)
	assert.Nil(t, xue.Read.DueInDays)
	assert.Nil(t, xue.Write.Retrievability)
	assert.Nil(t, xue.Write.DueInDays)
}

func TestCharacterStatsOverdueIsNegative(t *testing.T) {
	events := []models.ReviewEvent{ev("山", models.TaskRead, 5, "2024-01-01")}
	store, err := cards.NewBuilder().Build(events)
	require.NoError(t, err)

	got := CharacterStats(store, events, time.Date(2024, 1, 3, 6, 0, 0, 0, time.UTC))
	require.NotNil(t, got["山"].Read.DueInDays)
	// Due at 00:10 on Jan 1, queried 2 days and ~6 hours later.
	assert.Equal(t, -3, *got["山"].Read.DueInDays)
}

func TestBucket(t *testing.T) {
	var b models.Buckets
	for _, st := range []models.CardStats{
		{Retrievability: ptr(0.95)},
		{Retrievability: ptr(0.9)},
		{Retrievability: ptr(0.6)},
		{Retrievability: ptr(0.59)},
		{Retrievability: ptr(0.99), IsHardMode: true},
		{},
		{IsHardMode: true},
	} {
		Bucket(&b, st)
	}
	assert.Equal(t, models.Buckets{Mastered: 1, Learning: 2, Lapsing: 1, Hard: 1, Total: 5}, b)
}

func TestAggregateLessonStats(t *testing.T) {
	charStats := map[string]models.CharacterStats{
		"一": {Read: models.CardStats{Retrievability: ptr(0.97)}, Write: models.CardStats{Retrievability: ptr(0.3)}},
		"二": {Read: models.CardStats{Retrievability: ptr(0.7)}},
		"三": {Read: models.CardStats{Retrievability: ptr(0.1), IsHardMode: true}, Write: models.CardStats{Retrievability: ptr(0.8)}},
	}
	agg := AggregateLessonStats(charStats, []string{"一", "二", "三", "四"})
	assert.Equal(t, models.Buckets{Mastered: 1, Learning: 1, Hard: 1, Total: 3}, agg.Read)
	assert.Equal(t, models.Buckets{Learning: 1, Lapsing: 1, Total: 2}, agg.Write)

	progress := LessonProgress([]models.Lesson{
		{ID: 1, Characters: []string{"一"}},
		{ID: 2, Characters: []string{"五"}},
	}, charStats)
	require.Len(t, progress, 2)
	assert.Equal(t, 1, progress[0].Aggregate.Read.Mastered)
	assert.Equal(t, models.LessonAggregate{}, progress[1].Aggregate)
}

func TestRecentHistory(t *testing.T) {
	events := []models.ReviewEvent{
		ev("水", models.TaskRead, 0, "2024-01-01"),
		ev("水", models.TaskRead, 3, "2024-01-05"),
		ev("水", models.TaskRead, 10, "2024-01-02"),
		ev("水", models.TaskRead, 6, "2024-01-09"),
		ev("水", models.TaskWrite, 2, "2024-01-09"),
		ev("水", models.TaskReadStudy, 9, "2024-01-10"),
	}
	now := time.Date(2024, 1, 10, 20, 0, 0, 0, time.UTC)

	got := RecentHistory(events, now, 3)
	require.Contains(t, got, "水")
	assert.Equal(t, []models.RecentRecord{
		{DaysAgo: 8, Rating: "Easy"},
		{DaysAgo: 5, Rating: "Hard"},
		{DaysAgo: 1, Rating: "Good"},
	}, got["水"][models.TaskRead])
	assert.Equal(t, []models.RecentRecord{{DaysAgo: 1, Rating: "Hard"}}, got["水"][models.TaskWrite])
	assert.NotContains(t, got["水"], models.TaskReadStudy)
}

func TestMonthlyHistory(t *testing.T) {
	events := []models.ReviewEvent{
		ev("我", models.TaskRead, 10, "2024-01-15"),
		ev("我", models.TaskReadStudy, 7, "2024-02-10"),
		ev("你", models.TaskWrite, 0, "2024-03-03"),
	}
	got, err := MonthlyHistory(events, nil)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, models.MonthlyStats{
		Month:                 "2024-03",
		TotalReviews:          1,
		CumulativeUniqueChars: 2,
		Read:                  models.Buckets{Learning: 2, Total: 2},
		Write:                 models.Buckets{Lapsing: 1, Total: 1},
	}, got[0])
	assert.Equal(t, models.MonthlyStats{
		Month:                 "2024-02",
		TotalStudies:          1,
		CumulativeUniqueChars: 1,
		Read:                  models.Buckets{Learning: 1, Total: 1},
	}, got[1])
	assert.Equal(t, models.MonthlyStats{
		Month:                 "2024-01",
		TotalReviews:          1,
		CumulativeUniqueChars: 1,
		Read:                  models.Buckets{Learning: 1, Total: 1},
	}, got[2])
}

func TestMonthlyHistoryEmptyAndInvalid(t *testing.T) {
	got, err := MonthlyHistory(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = MonthlyHistory([]models.ReviewEvent{ev("我", models.TaskRead, 11, "2024-01-01")}, nil)
	assert.ErrorIs(t, err, models.ErrInvalidEvent)
}
