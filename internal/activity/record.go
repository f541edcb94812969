package activity

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/example/hanzibot/pkg/models"
)

// StudyDoneScore is recorded for every character of a completed study sheet.
const StudyDoneScore = 5

// RecordResults validates and appends one event per scored character on
// the given date, then invalidates the card cache. Characters are recorded
// in sorted order.
func (m *Module) RecordResults(ctx context.Context, taskType models.TaskType, scores map[string]int, date time.Time) ([]models.ReviewEvent, error) {
	chars := make([]string, 0, len(scores))
	for c := range scores {
		chars = append(chars, c)
	}
	sort.Strings(chars)

	day := models.CivilDate(date)
	events := make([]models.ReviewEvent, 0, len(chars))
	for _, c := range chars {
		e := models.ReviewEvent{Character: c, Type: taskType, Score: scores[c], Date: day}
		if err := e.Validate(); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if len(events) == 0 {
		return events, nil
	}

	saved, err := m.recorder.AppendEvents(ctx, events)
	if err != nil {
		return nil, fmt.Errorf("failed to record results: %w", err)
	}
	m.cache.Invalidate()

	m.logger.Info().
		Str("type", string(taskType)).
		Int("events", len(saved)).
		Str("date", day.Format(models.DateLayout)).
		Msg("Results recorded")
	return saved, nil
}

// CompleteSheet records the results of a generated sheet and marks it done.
// Exam sheets need at least one score and study sheets record StudyDoneScore
// for every character when scores is empty. Scores must name characters on
// the sheet.
func (m *Module) CompleteSheet(ctx context.Context, sheet *models.Sheet, scores map[string]int, date time.Time) ([]models.ReviewEvent, error) {
	taskType, ok := sheet.Type.LogType()
	if !ok {
		return nil, fmt.Errorf("%w: unknown sheet type %q", models.ErrInvalidEvent, sheet.Type)
	}
	if len(scores) == 0 {
		if taskType.IsExam() {
			return nil, fmt.Errorf("%w: %s sheet needs scores", ErrSheetResults, sheet.Type)
		}
		scores = make(map[string]int, len(sheet.Characters))
		for _, c := range sheet.Characters {
			scores[c] = StudyDoneScore
		}
	}

	onSheet := make(map[string]bool, len(sheet.Characters))
	for _, c := range sheet.Characters {
		onSheet[c] = true
	}
	for c := range scores {
		if !onSheet[c] {
			return nil, fmt.Errorf("%w: %s is not on the sheet", ErrSheetResults, c)
		}
	}

	saved, err := m.RecordResults(ctx, taskType, scores, date)
	if err != nil {
		return nil, err
	}
	if err := m.recorder.MarkSheetDone(ctx, sheet.ID); err != nil {
		return nil, fmt.Errorf("failed to mark sheet done: %w", err)
	}
	sheet.Done = true
	return saved, nil
}
