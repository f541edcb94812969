// Package activity chooses characters for exams and study sheets and
// records their results.
package activity

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/example/hanzibot/internal/cards"
	"github.com/example/hanzibot/internal/selection"
	"github.com/example/hanzibot/pkg/models"
)

// ErrEmptySheet is returned when no character qualifies for a sheet
var ErrEmptySheet = errors.New("activity: no characters selected")

// ErrSheetResults is returned when results do not fit the sheet they complete
var ErrSheetResults = errors.New("activity: results do not match sheet")

// Source provides the curriculum and stored exam settings
type Source interface {
	ListLessons(ctx context.Context) ([]models.Lesson, error)
	GetExamSettings(ctx context.Context, examType models.SheetType) (models.ExamSettings, error)
}

// Recorder persists review events and generated sheets
type Recorder interface {
	AppendEvents(ctx context.Context, events []models.ReviewEvent) ([]models.ReviewEvent, error)
	SaveSheet(ctx context.Context, sheet *models.Sheet) error
	MarkSheetDone(ctx context.Context, id uuid.UUID) error
}

// Module builds study activities on top of the card cache
type Module struct {
	source   Source
	recorder Recorder
	cache    *cards.Cache
	now      func() time.Time
	rng      *rand.Rand
	logger   zerolog.Logger
}

// Option configures a Module
type Option func(*Module)

// WithClock overrides the current time
func WithClock(now func() time.Time) Option {
	return func(m *Module) { m.now = now }
}

// WithRand fixes the random source for sampling
func WithRand(r *rand.Rand) Option {
	return func(m *Module) { m.rng = r }
}

// WithLogger sets the module logger
func WithLogger(l zerolog.Logger) Option {
	return func(m *Module) { m.logger = l.With().Str("component", "activity").Logger() }
}

// NewModule creates a new activity module
func NewModule(source Source, recorder Recorder, cache *cards.Cache, opts ...Option) *Module {
	m := &Module{
		source:   source,
		recorder: recorder,
		cache:    cache,
		now:      time.Now,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.rng == nil {
		m.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return m
}

// Today returns the current calendar date
func (m *Module) Today() time.Time {
	return models.CivilDate(m.now())
}

// selection loads the current events, lessons and cards into a new Selection.
func (m *Module) selection(ctx context.Context) (*selection.Selection, error) {
	store, events, err := m.cache.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	lessons, err := m.source.ListLessons(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list lessons: %w", err)
	}
	return selection.New(selection.Input{
		Events:  events,
		Lessons: lessons,
		Builder: m.cache.Builder(),
		Store:   store,
		Now:     m.now(),
	}, selection.WithRand(m.rng)), nil
}

// newSheet stores a sheet of the selected characters.
func (m *Module) newSheet(ctx context.Context, t models.SheetType, chars []string, title, header string) (*models.Sheet, error) {
	if len(chars) == 0 {
		return nil, fmt.Errorf("%w for %s sheet", ErrEmptySheet, t)
	}
	sheet := &models.Sheet{
		ID:         uuid.New(),
		Type:       t,
		Characters: chars,
		Title:      title,
		HeaderText: header,
		CreatedAt:  m.now(),
	}
	if err := m.recorder.SaveSheet(ctx, sheet); err != nil {
		return nil, fmt.Errorf("failed to save sheet: %w", err)
	}
	m.logger.Info().
		Str("sheet_id", sheet.ID.String()).
		Str("type", string(t)).
		Int("characters", len(chars)).
		Msg("Sheet created")
	return sheet, nil
}
