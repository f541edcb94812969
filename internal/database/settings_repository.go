package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/hanzibot/pkg/models"
)

// ExamSettingsRepository stores per-exam generation defaults
type ExamSettingsRepository struct {
	db *sqlx.DB
}

// NewExamSettingsRepository creates a new repository instance
func NewExamSettingsRepository(db *sqlx.DB) *ExamSettingsRepository {
	return &ExamSettingsRepository{db: db}
}

// GetExamSettings returns the stored settings, or the defaults if none are stored
func (r *ExamSettingsRepository) GetExamSettings(ctx context.Context, examType models.SheetType) (models.ExamSettings, error) {
	var s models.ExamSettings
	query := r.db.Rebind(`
		SELECT exam_type, num_chars, score_filter, days_filter, title, header_text, include_hard_mode
		FROM exam_settings WHERE exam_type = ?`)
	err := r.db.GetContext(ctx, &s, query, string(examType))
	if errors.Is(notFound(err), ErrNotFound) {
		return models.DefaultExamSettings(examType), nil
	}
	if err != nil {
		return models.ExamSettings{}, fmt.Errorf("failed to get exam settings: %v", err)
	}
	return s, nil
}

// Upsert saves the settings for one exam type
func (r *ExamSettingsRepository) Upsert(ctx context.Context, s models.ExamSettings) error {
	if s.NumChars <= 0 {
		return fmt.Errorf("num_chars must be positive, got %d", s.NumChars)
	}
	query := r.db.Rebind(`
		INSERT INTO exam_settings (exam_type, num_chars, score_filter, days_filter, title, header_text, include_hard_mode)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (exam_type) DO UPDATE SET
			num_chars = excluded.num_chars,
			score_filter = excluded.score_filter,
			days_filter = excluded.days_filter,
			title = excluded.title,
			header_text = excluded.header_text,
			include_hard_mode = excluded.include_hard_mode`)
	_, err := r.db.ExecContext(ctx, query,
		string(s.ExamType), s.NumChars, s.ScoreFilter, s.DaysFilter, s.Title, s.HeaderText, s.IncludeHardMode)
	if err != nil {
		return fmt.Errorf("failed to save exam settings: %v", err)
	}
	return nil
}
