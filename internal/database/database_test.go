package database

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/hanzibot/pkg/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := Connect("sqlite", ":memory:")
	require.NoError(t, err)
	s := NewStore(db)
	t.Cleanup(func() { s.Close() })
	return s
}

func event(t *testing.T, char string, typ models.TaskType, score int, date string) models.ReviewEvent {
	t.Helper()
	d, err := models.ParseDate(date)
	require.NoError(t, err)
	return models.ReviewEvent{Character: char, Type: typ, Score: score, Date: d}
}

func TestDriverName(t *testing.T) {
	for in, want := range map[string]string{
		"":           DriverSQLite,
		"sqlite":     DriverSQLite,
		"SQLite3":    DriverSQLite,
		"postgres":   DriverPostgres,
		"postgresql": DriverPostgres,
	} {
		got, err := DriverName(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := DriverName("mysql")
	assert.Error(t, err)
}

func TestInitSchemaIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, InitSchema(context.Background(), s.DB()))
}

func TestReviewEventsRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	saved, err := s.AppendEvents(ctx, []models.ReviewEvent{
		event(t, "你", models.TaskRead, 7, "2024-01-01"),
		event(t, "好", models.TaskWrite, 3, "2024-01-02"),
		event(t, "你", models.TaskReadStudy, 5, "2024-01-03"),
	})
	require.NoError(t, err)
	require.Len(t, saved, 3)
	assert.Less(t, saved[0].ID, saved[1].ID)
	assert.Less(t, saved[1].ID, saved[2].ID)

	events, err := s.ListEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, saved, events)

	until, err := s.ListUntil(ctx, time.Date(2024, 1, 2, 23, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, until, 2)

	mine, err := s.ListByCharacter(ctx, "你")
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestAppendRejectsInvalidBatch(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.AppendEvents(ctx, []models.ReviewEvent{
		event(t, "你", models.TaskRead, 7, "2024-01-01"),
		event(t, "好", models.TaskRead, 11, "2024-01-01"),
	})
	assert.ErrorIs(t, err, models.ErrInvalidEvent)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDeleteEvent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	saved, err := s.AppendEvents(ctx, []models.ReviewEvent{event(t, "你", models.TaskRead, 7, "2024-01-01")})
	require.NoError(t, err)

	require.NoError(t, s.ReviewEventRepository.Delete(ctx, saved[0].ID))
	assert.ErrorIs(t, s.ReviewEventRepository.Delete(ctx, saved[0].ID), ErrNotFound)
}

func TestLessons(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	b2, err := s.EnsureBook(ctx, "Book 2")
	require.NoError(t, err)
	b1, err := s.EnsureBook(ctx, "Book 1")
	require.NoError(t, err)
	again, err := s.EnsureBook(ctx, "Book 2")
	require.NoError(t, err)
	assert.Equal(t, b2.ID, again.ID)

	require.NoError(t, s.UpsertLesson(ctx, &models.Lesson{BookID: b1.ID, LessonNum: 1, Characters: []string{"人"}}))
	l := &models.Lesson{BookID: b2.ID, LessonNum: 1, Characters: []string{"你", "好"}}
	require.NoError(t, s.UpsertLesson(ctx, l))
	require.NotZero(t, l.ID)

	// re-importing replaces the characters in place
	update := &models.Lesson{BookID: b2.ID, LessonNum: 1, IsLearned: true, Characters: []string{"你", "们"}}
	require.NoError(t, s.UpsertLesson(ctx, update))
	assert.Equal(t, l.ID, update.ID)

	lessons, err := s.ListLessons(ctx)
	require.NoError(t, err)
	require.Len(t, lessons, 2)
	assert.Equal(t, b2.ID, lessons[0].BookID)
	assert.Equal(t, []string{"你", "们"}, lessons[0].Characters)
	assert.True(t, lessons[0].IsLearned)
	assert.Equal(t, []string{"人"}, lessons[1].Characters)

	require.NoError(t, s.SetLearned(ctx, lessons[1].ID, true))
	got, err := s.GetLesson(ctx, b1.ID, 1)
	require.NoError(t, err)
	assert.True(t, got.IsLearned)

	_, err = s.GetLesson(ctx, b1.ID, 9)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.SetLearned(ctx, 999, true), ErrNotFound)
}

func TestExamSettings(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	got, err := s.GetExamSettings(ctx, models.SheetReadExam)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultExamSettings(models.SheetReadExam), got)

	score, days := 6, 3
	want := models.ExamSettings{
		ExamType:        models.SheetReadExam,
		NumChars:        25,
		ScoreFilter:     &score,
		DaysFilter:      &days,
		Title:           "Quiz",
		IncludeHardMode: true,
	}
	require.NoError(t, s.Upsert(ctx, want))
	got, err = s.GetExamSettings(ctx, models.SheetReadExam)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	want.ScoreFilter = nil
	want.NumChars = 5
	require.NoError(t, s.Upsert(ctx, want))
	got, err = s.GetExamSettings(ctx, models.SheetReadExam)
	require.NoError(t, err)
	assert.Nil(t, got.ScoreFilter)
	assert.Equal(t, 5, got.NumChars)

	assert.Error(t, s.Upsert(ctx, models.ExamSettings{ExamType: models.SheetWriteExam}))
}

func TestSheets(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	sheet := &models.Sheet{Type: models.SheetReview, Characters: []string{"你", "好"}, Title: "Review"}
	require.NoError(t, s.SaveSheet(ctx, sheet))
	require.NotEqual(t, uuid.Nil, sheet.ID)

	got, err := s.SheetRepository.Get(ctx, sheet.ID)
	require.NoError(t, err)
	assert.Equal(t, sheet.Characters, got.Characters)
	assert.Equal(t, models.SheetReview, got.Type)
	assert.False(t, got.Done)

	pending, err := s.ListPending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	require.NoError(t, s.MarkSheetDone(ctx, sheet.ID))
	pending, err = s.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	assert.ErrorIs(t, s.MarkSheetDone(ctx, uuid.New()), ErrNotFound)
	_, err = s.SheetRepository.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}
