package activity

import (
	"context"
	"fmt"

	"github.com/example/hanzibot/internal/selection"
	"github.com/example/hanzibot/internal/stats"
	"github.com/example/hanzibot/internal/triage"
	"github.com/example/hanzibot/pkg/models"
)

// Progress is the per-character and per-lesson state at the current time
type Progress struct {
	Characters map[string]models.CharacterStats
	Lessons    []models.LessonProgress
	Overall    models.LessonAggregate
}

// Due returns the due cards of cardType, least retained first
func (m *Module) Due(ctx context.Context, cardType models.TaskType) ([]selection.Scored, error) {
	s, err := m.selection(ctx)
	if err != nil {
		return nil, err
	}
	return s.FromFSRS(cardType, true, selection.Scope{}).SortByRetrievabilityAscending().Scored()
}

// HardMode returns the characters in hard mode for taskType, sorted
func (m *Module) HardMode(ctx context.Context, taskType models.TaskType) ([]string, error) {
	_, events, err := m.cache.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return triage.HardModeCharacters(events, taskType).Sorted(), nil
}

// Progress computes character stats and lesson aggregates
func (m *Module) Progress(ctx context.Context) (*Progress, error) {
	store, events, err := m.cache.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	lessons, err := m.source.ListLessons(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list lessons: %w", err)
	}

	charStats := stats.CharacterStats(store, events, m.now())
	return &Progress{
		Characters: charStats,
		Lessons:    stats.LessonProgress(lessons, charStats),
		Overall:    stats.AggregateLessonStats(charStats, store.Characters()),
	}, nil
}

// RecentHistory returns the last n exam results per character and card type
func (m *Module) RecentHistory(ctx context.Context, n int) (map[string]map[models.TaskType][]models.RecentRecord, error) {
	_, events, err := m.cache.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return stats.RecentHistory(events, m.now(), n), nil
}

// MonthlyHistory returns the retroactive monthly progress, newest first
func (m *Module) MonthlyHistory(ctx context.Context) ([]models.MonthlyStats, error) {
	_, events, err := m.cache.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return stats.MonthlyHistory(events, m.cache.Builder())
}
