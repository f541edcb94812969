package activity

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/hanzibot/internal/cards"
	"github.com/example/hanzibot/internal/selection"
	"github.com/example/hanzibot/pkg/models"
)

var now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeStore struct {
	events   []models.ReviewEvent
	lessons  []models.Lesson
	settings map[models.SheetType]models.ExamSettings
	sheets   map[uuid.UUID]*models.Sheet
	done     map[uuid.UUID]bool
	loads    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		settings: make(map[models.SheetType]models.ExamSettings),
		sheets:   make(map[uuid.UUID]*models.Sheet),
		done:     make(map[uuid.UUID]bool),
	}
}

func (f *fakeStore) ListEvents(ctx context.Context) ([]models.ReviewEvent, error) {
	f.loads++
	out := make([]models.ReviewEvent, len(f.events))
	copy(out, f.events)
	return out, nil
}

func (f *fakeStore) ListLessons(ctx context.Context) ([]models.Lesson, error) {
	return f.lessons, nil
}

func (f *fakeStore) GetExamSettings(ctx context.Context, t models.SheetType) (models.ExamSettings, error) {
	if s, ok := f.settings[t]; ok {
		return s, nil
	}
	return models.DefaultExamSettings(t), nil
}

func (f *fakeStore) AppendEvents(ctx context.Context, events []models.ReviewEvent) ([]models.ReviewEvent, error) {
	out := make([]models.ReviewEvent, len(events))
	for i, e := range events {
		e.ID = int64(len(f.events) + 1)
		f.events = append(f.events, e)
		out[i] = e
	}
	return out, nil
}

func (f *fakeStore) SaveSheet(ctx context.Context, sheet *models.Sheet) error {
	f.sheets[sheet.ID] = sheet
	return nil
}

func (f *fakeStore) MarkSheetDone(ctx context.Context, id uuid.UUID) error {
	f.done[id] = true
	return nil
}

func (f *fakeStore) add(char string, t models.TaskType, score int, date string) {
	d, err := models.ParseDate(date)
	if err != nil {
		panic(err)
	}
	f.events = append(f.events, models.ReviewEvent{
		ID: int64(len(f.events) + 1), Character: char, Type: t, Score: score, Date: d,
	})
}

func newModule(f *fakeStore) *Module {
	cache := cards.NewCache(cards.NewBuilder(), f.ListEvents)
	return NewModule(f, f, cache,
		WithClock(func() time.Time { return now }),
		WithRand(rand.New(rand.NewSource(42))),
	)
}

func intPtr(v int) *int { return &v }

func TestReadExamExcludesHardMode(t *testing.T) {
	f := newFakeStore()
	f.lessons = []models.Lesson{{ID: 1, IsLearned: true, Characters: []string{"你", "吗", "好"}}}
	f.add("吗", models.TaskRead, 1, "2024-02-01")
	f.add("吗", models.TaskRead, 0, "2024-02-03")
	m := newModule(f)

	sheet, err := m.ReadExam(context.Background(), selection.Scope{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"你", "好"}, sheet.Characters)
	assert.Equal(t, models.SheetReadExam, sheet.Type)
	assert.Equal(t, "Reading Test", sheet.Title)
	assert.Contains(t, f.sheets, sheet.ID)

	settings := models.DefaultExamSettings(models.SheetReadExam)
	settings.IncludeHardMode = true
	f.settings[models.SheetReadExam] = settings
	sheet, err = m.ReadExam(context.Background(), selection.Scope{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"你", "吗", "好"}, sheet.Characters)
}

func TestWriteExamAppliesFilters(t *testing.T) {
	f := newFakeStore()
	f.lessons = []models.Lesson{{ID: 1, IsLearned: true, Characters: []string{"一", "二", "三", "四"}}}
	f.add("一", models.TaskWrite, 9, "2024-01-01")
	f.add("二", models.TaskWrite, 3, "2024-01-01")
	f.add("三", models.TaskReadStudy, 5, "2024-02-29")
	f.settings[models.SheetWriteExam] = models.ExamSettings{
		ExamType:    models.SheetWriteExam,
		NumChars:    10,
		ScoreFilter: intPtr(5),
		DaysFilter:  intPtr(3),
		Title:       "W",
	}
	m := newModule(f)

	sheet, err := m.WriteExam(context.Background(), selection.Scope{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"二", "四"}, sheet.Characters)
	assert.Equal(t, "W", sheet.Title)
}

func TestReviewExamTakesDueLowestFirst(t *testing.T) {
	f := newFakeStore()
	f.add("二", models.TaskRead, 0, "2024-01-01")
	f.add("三", models.TaskRead, 5, "2024-02-01")
	f.add("一", models.TaskRead, 10, "2024-02-28")
	f.settings[models.SheetReadReview] = models.ExamSettings{ExamType: models.SheetReadReview, NumChars: 1, Title: "Reading Review"}
	m := newModule(f)

	sheet, err := m.ReviewExam(context.Background(), models.TaskRead)
	require.NoError(t, err)
	assert.Equal(t, []string{"二"}, sheet.Characters)
	assert.Equal(t, "Reviewing 1 due characters. Test date: ____.", sheet.HeaderText)

	_, err = m.ReviewExam(context.Background(), models.TaskWrite)
	assert.ErrorIs(t, err, ErrEmptySheet)

	_, err = m.ReviewExam(context.Background(), models.TaskReadStudy)
	assert.ErrorIs(t, err, selection.ErrInvalidCardType)
}

func TestStudyChars(t *testing.T) {
	f := newFakeStore()
	f.lessons = []models.Lesson{{ID: 1, IsLearned: true, Characters: []string{"一", "二"}}}
	f.add("一", models.TaskWrite, 4, "2024-02-01")
	f.add("二", models.TaskWrite, 0, "2024-01-01")
	m := newModule(f)

	sheet, err := m.StudyChars(context.Background(), StudyRequest{NumChars: 5, Source: StudyReview})
	require.NoError(t, err)
	assert.Equal(t, []string{"二", "一"}, sheet.Characters)
	assert.Equal(t, models.SheetChars, sheet.Type)

	sheet, err = m.StudyChars(context.Background(), StudyRequest{NumChars: 5, Characters: []string{"水", "水", "火"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"水", "火"}, sheet.Characters)

	sheet, err = m.StudyChars(context.Background(), StudyRequest{NumChars: 5, DaysFilter: intPtr(40)})
	require.NoError(t, err)
	assert.Equal(t, []string{"二"}, sheet.Characters)
}

func TestReviewSheetSkipsRecentStudy(t *testing.T) {
	f := newFakeStore()
	f.add("一", models.TaskWrite, 0, "2024-01-01")
	f.add("二", models.TaskWrite, 2, "2024-01-01")
	f.add("三", models.TaskWrite, 9, "2024-02-01")
	f.add("一", models.TaskWriteStudy, 5, "2024-02-29")
	m := newModule(f)

	sheet, err := m.ReviewSheet(context.Background(), 5, intPtr(2))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"二", "三"}, sheet.Characters)
	assert.Equal(t, models.SheetReview, sheet.Type)
}

func TestFailedSheetPrioritizesBoth(t *testing.T) {
	f := newFakeStore()
	f.add("一", models.TaskRead, 1, "2024-02-25")
	f.add("一", models.TaskWrite, 2, "2024-02-25")
	f.add("二", models.TaskRead, 3, "2024-02-26")
	f.add("三", models.TaskWrite, 0, "2024-02-27")
	f.add("四", models.TaskWrite, 0, "2024-01-01")
	f.add("五", models.TaskRead, 2, "2024-02-20")
	f.add("五", models.TaskRead, 9, "2024-02-28")
	m := newModule(f)

	sheet, err := m.FailedSheet(context.Background(), 10, nil, nil)
	require.NoError(t, err)
	require.Len(t, sheet.Characters, 3)
	assert.Equal(t, "一", sheet.Characters[0])
	assert.ElementsMatch(t, []string{"二", "三"}, sheet.Characters[1:])
	assert.Equal(t, "二", sheet.Characters[1], "read-only failures precede write-only")

	sheet, err = m.FailedSheet(context.Background(), 1, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"一"}, sheet.Characters)
}

func TestRecoverySheet(t *testing.T) {
	f := newFakeStore()
	f.add("吗", models.TaskWrite, 1, "2024-02-01")
	f.add("吗", models.TaskWrite, 0, "2024-02-03")
	m := newModule(f)

	sheet, err := m.RecoverySheet(context.Background(), models.TaskWrite, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"吗"}, sheet.Characters)
	assert.Equal(t, models.SheetRecovery, sheet.Type)

	_, err = m.RecoverySheet(context.Background(), models.TaskRead, 0)
	assert.ErrorIs(t, err, ErrEmptySheet)
}

func TestRecordResultsInvalidatesCache(t *testing.T) {
	f := newFakeStore()
	f.add("吗", models.TaskWrite, 1, "2024-02-01")
	f.add("吗", models.TaskWrite, 0, "2024-02-03")
	m := newModule(f)
	ctx := context.Background()

	hard, err := m.HardMode(ctx, models.TaskWrite)
	require.NoError(t, err)
	assert.Equal(t, []string{"吗"}, hard)

	saved, err := m.RecordResults(ctx, models.TaskWrite, map[string]int{"吗": 8}, now)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, int64(3), saved[0].ID)
	assert.Equal(t, models.CivilDate(now), saved[0].Date)

	hard, err = m.HardMode(ctx, models.TaskWrite)
	require.NoError(t, err)
	assert.Empty(t, hard)
	assert.Equal(t, 2, f.loads)
}

func TestRecordResultsRejectsInvalidScore(t *testing.T) {
	f := newFakeStore()
	m := newModule(f)

	_, err := m.RecordResults(context.Background(), models.TaskRead, map[string]int{"好": 3, "你": 11}, now)
	assert.ErrorIs(t, err, models.ErrInvalidEvent)
	assert.Empty(t, f.events)
}

func TestCompleteStudySheet(t *testing.T) {
	f := newFakeStore()
	m := newModule(f)
	sheet, err := m.StudyChars(context.Background(), StudyRequest{Characters: []string{"山", "水"}})
	require.NoError(t, err)

	saved, err := m.CompleteSheet(context.Background(), sheet, nil, now)
	require.NoError(t, err)
	require.Len(t, saved, 2)
	for _, e := range saved {
		assert.Equal(t, models.TaskWriteStudy, e.Type)
		assert.Equal(t, StudyDoneScore, e.Score)
	}
	assert.True(t, sheet.Done)
	assert.True(t, f.done[sheet.ID])
}

func TestCompleteReviewExamRecordsCardType(t *testing.T) {
	f := newFakeStore()
	m := newModule(f)
	sheet := &models.Sheet{ID: uuid.New(), Type: models.SheetWriteReview, Characters: []string{"山"}}

	saved, err := m.CompleteSheet(context.Background(), sheet, map[string]int{"山": 7}, now)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, models.TaskWrite, saved[0].Type)
}

func TestCompleteExamSheetRequiresScores(t *testing.T) {
	f := newFakeStore()
	m := newModule(f)
	ctx := context.Background()
	sheet := &models.Sheet{ID: uuid.New(), Type: models.SheetReadExam, Characters: []string{"山", "水"}}

	_, err := m.CompleteSheet(ctx, sheet, nil, now)
	assert.ErrorIs(t, err, ErrSheetResults)
	_, err = m.CompleteSheet(ctx, sheet, map[string]int{}, now)
	assert.ErrorIs(t, err, ErrSheetResults)
	assert.False(t, sheet.Done)
	assert.False(t, f.done[sheet.ID])
	assert.Empty(t, f.events)

	saved, err := m.CompleteSheet(ctx, sheet, map[string]int{"山": 5}, now)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.True(t, f.done[sheet.ID])
}

func TestCompleteSheetRejectsCharactersNotOnSheet(t *testing.T) {
	f := newFakeStore()
	m := newModule(f)
	sheet := &models.Sheet{ID: uuid.New(), Type: models.SheetReadExam, Characters: []string{"山"}}

	_, err := m.CompleteSheet(context.Background(), sheet, map[string]int{"山": 5, "火": 0}, now)
	assert.ErrorIs(t, err, ErrSheetResults)
	assert.Empty(t, f.events)
	assert.False(t, f.done[sheet.ID])

	study := &models.Sheet{ID: uuid.New(), Type: models.SheetChars, Characters: []string{"山"}}
	_, err = m.CompleteSheet(context.Background(), study, map[string]int{"火": 5}, now)
	assert.ErrorIs(t, err, ErrSheetResults)
}

func TestProgressAndHistory(t *testing.T) {
	f := newFakeStore()
	f.lessons = []models.Lesson{{ID: 1, IsLearned: true, Characters: []string{"你"}}}
	f.add("你", models.TaskRead, 10, "2024-01-01")
	f.add("你", models.TaskWrite, 9, "2024-01-10")
	f.add("好", models.TaskRead, 0, "2024-01-20")
	m := newModule(f)
	ctx := context.Background()

	p, err := m.Progress(ctx)
	require.NoError(t, err)
	require.Contains(t, p.Characters, "你")
	require.Len(t, p.Lessons, 1)
	assert.Equal(t, 1, p.Lessons[0].Aggregate.Read.Total)
	assert.Equal(t, 2, p.Overall.Read.Total)
	assert.Equal(t, 1, p.Overall.Write.Total)

	months, err := m.MonthlyHistory(ctx)
	require.NoError(t, err)
	require.Len(t, months, 1)
	assert.Equal(t, "2024-01", months[0].Month)

	recent, err := m.RecentHistory(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, recent["你"][models.TaskRead], 1)

	due, err := m.Due(ctx, models.TaskRead)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "好", due[0].Character)
}
