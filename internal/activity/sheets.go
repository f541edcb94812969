package activity

import (
	"context"
	"fmt"

	"github.com/example/hanzibot/internal/selection"
	"github.com/example/hanzibot/pkg/models"
)

// Defaults for the failed-characters sheet.
const (
	DefaultFailedThreshold   = 5
	DefaultFailedRecencyDays = 8
)

// StudySource selects where study characters come from
type StudySource string

const (
	// StudyBasic samples learned lesson characters
	StudyBasic StudySource = "basic"
	// StudyReview takes the write cards with the lowest retrievability
	StudyReview StudySource = "review"
)

// StudyRequest parameters a character study sheet
type StudyRequest struct {
	NumChars    int
	ScoreFilter *int
	DaysFilter  *int
	Source      StudySource
	Scope       selection.Scope
	// Characters overrides selection when non-empty
	Characters []string
	HeaderText string
}

// ReadExam samples learned characters for a reading test
func (m *Module) ReadExam(ctx context.Context, scope selection.Scope) (*models.Sheet, error) {
	return m.lessonExam(ctx, models.SheetReadExam, models.TaskRead, scope)
}

// WriteExam samples learned characters for a writing test
func (m *Module) WriteExam(ctx context.Context, scope selection.Scope) (*models.Sheet, error) {
	return m.lessonExam(ctx, models.SheetWriteExam, models.TaskWrite, scope)
}

func (m *Module) lessonExam(ctx context.Context, t models.SheetType, taskType models.TaskType, scope selection.Scope) (*models.Sheet, error) {
	settings, err := m.source.GetExamSettings(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("failed to get exam settings: %w", err)
	}
	s, err := m.selection(ctx)
	if err != nil {
		return nil, err
	}

	s = s.FromLearnedLessons(scope)
	if settings.ScoreFilter != nil {
		s = s.RemoveScoreGreater(taskType, *settings.ScoreFilter)
	}
	if settings.DaysFilter != nil {
		s = s.RemoveRecentRecords(*settings.DaysFilter)
	}
	if !settings.IncludeHardMode {
		s = s.RemoveHardMode(taskType)
	}
	chars, err := s.Random(settings.NumChars)
	if err != nil {
		return nil, err
	}
	return m.newSheet(ctx, t, chars, settings.Title, settings.HeaderText)
}

// ReviewExam takes the due cards of cardType with the lowest retrievability.
func (m *Module) ReviewExam(ctx context.Context, cardType models.TaskType) (*models.Sheet, error) {
	var t models.SheetType
	switch cardType {
	case models.TaskRead:
		t = models.SheetReadReview
	case models.TaskWrite:
		t = models.SheetWriteReview
	default:
		return nil, fmt.Errorf("%w: %q", selection.ErrInvalidCardType, cardType)
	}

	settings, err := m.source.GetExamSettings(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("failed to get exam settings: %w", err)
	}
	s, err := m.selection(ctx)
	if err != nil {
		return nil, err
	}

	s = s.FromFSRS(cardType, true, selection.Scope{})
	if !settings.IncludeHardMode {
		s = s.RemoveHardMode(cardType)
	}
	chars, err := s.SortByRetrievabilityAscending().Take(settings.NumChars)
	if err != nil {
		return nil, err
	}

	header := settings.HeaderText
	if header == "" {
		header = fmt.Sprintf("Reviewing %d due characters. Test date: ____.", len(chars))
	}
	return m.newSheet(ctx, t, chars, settings.Title, header)
}

// StudyChars creates a character study sheet
func (m *Module) StudyChars(ctx context.Context, req StudyRequest) (*models.Sheet, error) {
	s, err := m.selection(ctx)
	if err != nil {
		return nil, err
	}

	var chars []string
	switch {
	case len(req.Characters) > 0:
		chars, err = s.FromCharacters(req.Characters).All()
	case req.Source == StudyReview:
		s = s.FromFSRS(models.TaskWrite, false, req.Scope).
			RetrievabilityRange(0.000001, 1).
			SortByRetrievabilityAscending()
		if req.DaysFilter != nil {
			s = s.RemoveRecentRecords(*req.DaysFilter)
		}
		chars, err = s.Take(req.NumChars)
	default:
		s = s.FromLearnedLessons(req.Scope)
		if req.ScoreFilter != nil {
			s = s.RemoveScoreGreater(models.TaskRead, *req.ScoreFilter)
		}
		if req.DaysFilter != nil {
			s = s.RemoveRecentRecords(*req.DaysFilter)
		}
		chars, err = s.Random(req.NumChars)
	}
	if err != nil {
		return nil, err
	}
	return m.newSheet(ctx, models.SheetChars, chars, "Character Study", req.HeaderText)
}

// ReviewSheet samples n write cards from the 3n least retained, skipping
// characters studied within daysFilter days.
func (m *Module) ReviewSheet(ctx context.Context, n int, daysFilter *int) (*models.Sheet, error) {
	s, err := m.selection(ctx)
	if err != nil {
		return nil, err
	}
	s = s.FromFSRS(models.TaskWrite, false, selection.Scope{}).SortByRetrievabilityAscending()
	if daysFilter != nil {
		s = s.RemoveRecentRecords(*daysFilter, models.TaskReadStudy, models.TaskWriteStudy)
	}
	chars, err := s.PoolSample(n)
	if err != nil {
		return nil, err
	}
	return m.newSheet(ctx, models.SheetReview, chars, "Review", "")
}

// FailedSheet collects characters whose latest recent read or write exam
// scored below threshold. Characters that failed both come first, then the
// read-only and write-only failures in random order, truncated to n.
func (m *Module) FailedSheet(ctx context.Context, n int, threshold, recencyDays *int) (*models.Sheet, error) {
	th, days := DefaultFailedThreshold, DefaultFailedRecencyDays
	if threshold != nil {
		th = *threshold
	}
	if recencyDays != nil {
		days = *recencyDays
	}
	cutoff := m.Today().AddDate(0, 0, -days)

	s, err := m.selection(ctx)
	if err != nil {
		return nil, err
	}
	readFailed, err := s.FromFailedRecords(models.TaskRead, cutoff, th).All()
	if err != nil {
		return nil, err
	}
	writeFailed, err := s.FromFailedRecords(models.TaskWrite, cutoff, th).All()
	if err != nil {
		return nil, err
	}

	inWrite := make(map[string]bool, len(writeFailed))
	for _, c := range writeFailed {
		inWrite[c] = true
	}
	inRead := make(map[string]bool, len(readFailed))
	var both, readOnly, writeOnly []string
	for _, c := range readFailed {
		inRead[c] = true
		if inWrite[c] {
			both = append(both, c)
		} else {
			readOnly = append(readOnly, c)
		}
	}
	for _, c := range writeFailed {
		if !inRead[c] {
			writeOnly = append(writeOnly, c)
		}
	}
	m.rng.Shuffle(len(readOnly), func(i, j int) { readOnly[i], readOnly[j] = readOnly[j], readOnly[i] })
	m.rng.Shuffle(len(writeOnly), func(i, j int) { writeOnly[i], writeOnly[j] = writeOnly[j], writeOnly[i] })

	chars := append(append(both, readOnly...), writeOnly...)
	if len(chars) > n {
		chars = chars[:n]
	}
	return m.newSheet(ctx, models.SheetFailed, chars, "Failed Characters", "")
}

// RecoverySheet lists characters in hard mode for taskType. n <= 0 means all.
func (m *Module) RecoverySheet(ctx context.Context, taskType models.TaskType, n int) (*models.Sheet, error) {
	s, err := m.selection(ctx)
	if err != nil {
		return nil, err
	}
	s = s.FromHardMode(taskType)

	var chars []string
	if n > 0 {
		chars, err = s.Random(n)
	} else {
		chars, err = s.All()
	}
	if err != nil {
		return nil, err
	}
	return m.newSheet(ctx, models.SheetRecovery, chars, "Recovery", "")
}
