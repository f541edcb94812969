package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/hanzibot/pkg/models"
)

// reviewEventRow is the stored form of a review event; dates are ISO strings.
type reviewEventRow struct {
	ID        int64  `db:"id"`
	Character string `db:"hanzi"`
	Type      string `db:"type"`
	Score     int    `db:"score"`
	StudyDate string `db:"study_date"`
}

func (r reviewEventRow) toModel() (models.ReviewEvent, error) {
	date, err := models.ParseDate(r.StudyDate)
	if err != nil {
		return models.ReviewEvent{}, fmt.Errorf("review event %d: %w", r.ID, err)
	}
	return models.ReviewEvent{
		ID:        r.ID,
		Character: r.Character,
		Type:      models.TaskType(r.Type),
		Score:     r.Score,
		Date:      date,
	}, nil
}

// ReviewEventRepository handles database operations for review events
type ReviewEventRepository struct {
	db *sqlx.DB
}

// NewReviewEventRepository creates a new repository instance
func NewReviewEventRepository(db *sqlx.DB) *ReviewEventRepository {
	return &ReviewEventRepository{db: db}
}

// List returns every review event in insertion order
func (r *ReviewEventRepository) List(ctx context.Context) ([]models.ReviewEvent, error) {
	var rows []reviewEventRow
	err := r.db.SelectContext(ctx, &rows, "SELECT id, hanzi, type, score, study_date FROM review_events ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list review events: %w", err)
	}
	return toModels(rows)
}

// ListUntil returns the events dated on or before the given date in insertion order
func (r *ReviewEventRepository) ListUntil(ctx context.Context, until time.Time) ([]models.ReviewEvent, error) {
	var rows []reviewEventRow
	query := r.db.Rebind("SELECT id, hanzi, type, score, study_date FROM review_events WHERE study_date <= ? ORDER BY id")
	if err := r.db.SelectContext(ctx, &rows, query, models.CivilDate(until).Format(models.DateLayout)); err != nil {
		return nil, fmt.Errorf("failed to list review events: %w", err)
	}
	return toModels(rows)
}

// ListByCharacter returns the events of one character in insertion order
func (r *ReviewEventRepository) ListByCharacter(ctx context.Context, char string) ([]models.ReviewEvent, error) {
	var rows []reviewEventRow
	query := r.db.Rebind("SELECT id, hanzi, type, score, study_date FROM review_events WHERE hanzi = ? ORDER BY id")
	if err := r.db.SelectContext(ctx, &rows, query, char); err != nil {
		return nil, fmt.Errorf("failed to list review events for %q: %w", char, err)
	}
	return toModels(rows)
}

// ListEvents implements the card cache loader
func (r *ReviewEventRepository) ListEvents(ctx context.Context) ([]models.ReviewEvent, error) {
	return r.List(ctx)
}

// Append validates and inserts events in one transaction and returns them
// with their assigned IDs. Nothing is written if any event is invalid.
func (r *ReviewEventRepository) Append(ctx context.Context, events []models.ReviewEvent) ([]models.ReviewEvent, error) {
	for _, e := range events {
		if err := e.Validate(); err != nil {
			return nil, err
		}
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	saved := make([]models.ReviewEvent, len(events))
	for i, e := range events {
		id, err := insertReturningID(ctx, tx,
			"INSERT INTO review_events (hanzi, type, score, study_date) VALUES (?, ?, ?, ?)",
			e.Character, string(e.Type), e.Score, e.DateString())
		if err != nil {
			return nil, fmt.Errorf("failed to insert review event: %w", err)
		}
		e.ID = id
		saved[i] = e
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit review events: %w", err)
	}
	return saved, nil
}

// AppendEvents implements activity.Recorder
func (r *ReviewEventRepository) AppendEvents(ctx context.Context, events []models.ReviewEvent) ([]models.ReviewEvent, error) {
	return r.Append(ctx, events)
}

// Delete removes a review event
func (r *ReviewEventRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM review_events WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("failed to delete review event: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("review event %d: %w", id, ErrNotFound)
	}
	return nil
}

// Count returns the number of stored events
func (r *ReviewEventRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM review_events"); err != nil {
		return 0, fmt.Errorf("failed to count review events: %w", err)
	}
	return n, nil
}

func toModels(rows []reviewEventRow) ([]models.ReviewEvent, error) {
	events := make([]models.ReviewEvent, 0, len(rows))
	for _, row := range rows {
		e, err := row.toModel()
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, nil
}
