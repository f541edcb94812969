package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/example/hanzibot/pkg/models"
)

type sheetRow struct {
	ID         string    `db:"id"`
	Type       string    `db:"type"`
	Characters string    `db:"characters"`
	Title      string    `db:"title"`
	HeaderText string    `db:"header_text"`
	Done       bool      `db:"done"`
	CreatedAt  time.Time `db:"created_at"`
}

func (r sheetRow) toModel() (*models.Sheet, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid sheet id %q: %v", r.ID, err)
	}
	return &models.Sheet{
		ID:         id,
		Type:       models.SheetType(r.Type),
		Characters: models.NormalizeCharacters(r.Characters),
		Title:      r.Title,
		HeaderText: r.HeaderText,
		Done:       r.Done,
		CreatedAt:  r.CreatedAt,
	}, nil
}

// SheetRepository stores generated sheets until their results are recorded
type SheetRepository struct {
	db *sqlx.DB
}

// NewSheetRepository creates a new repository instance
func NewSheetRepository(db *sqlx.DB) *SheetRepository {
	return &SheetRepository{db: db}
}

// SaveSheet inserts a sheet, assigning an ID if it has none
func (r *SheetRepository) SaveSheet(ctx context.Context, sheet *models.Sheet) error {
	if sheet.ID == uuid.Nil {
		sheet.ID = uuid.New()
	}
	if sheet.CreatedAt.IsZero() {
		sheet.CreatedAt = time.Now().UTC()
	}
	query := r.db.Rebind(`
		INSERT INTO sheets (id, type, characters, title, header_text, done, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, query,
		sheet.ID.String(), string(sheet.Type), models.JoinCharacters(sheet.Characters),
		sheet.Title, sheet.HeaderText, sheet.Done, sheet.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save sheet: %v", err)
	}
	return nil
}

// Get returns a sheet by ID
func (r *SheetRepository) Get(ctx context.Context, id uuid.UUID) (*models.Sheet, error) {
	var row sheetRow
	query := r.db.Rebind("SELECT id, type, characters, title, header_text, done, created_at FROM sheets WHERE id = ?")
	if err := r.db.GetContext(ctx, &row, query, id.String()); err != nil {
		return nil, fmt.Errorf("failed to get sheet %s: %w", id, notFound(err))
	}
	return row.toModel()
}

// ListPending returns the sheets not yet marked done, oldest first
func (r *SheetRepository) ListPending(ctx context.Context) ([]*models.Sheet, error) {
	var rows []sheetRow
	err := r.db.SelectContext(ctx, &rows, r.db.Rebind(`
		SELECT id, type, characters, title, header_text, done, created_at
		FROM sheets WHERE done = ? ORDER BY created_at, id`), false)
	if err != nil {
		return nil, fmt.Errorf("failed to list sheets: %v", err)
	}

	sheets := make([]*models.Sheet, 0, len(rows))
	for _, row := range rows {
		s, err := row.toModel()
		if err != nil {
			return nil, err
		}
		sheets = append(sheets, s)
	}
	return sheets, nil
}

// MarkSheetDone flags a sheet as completed
func (r *SheetRepository) MarkSheetDone(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind("UPDATE sheets SET done = ? WHERE id = ?"), true, id.String())
	if err != nil {
		return fmt.Errorf("failed to update sheet: %v", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("sheet %s: %w", id, ErrNotFound)
	}
	return nil
}
