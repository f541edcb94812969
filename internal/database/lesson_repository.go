package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/hanzibot/pkg/models"
)

type lessonRow struct {
	ID         int64  `db:"id"`
	BookID     int64  `db:"book_id"`
	LessonNum  int    `db:"lesson_num"`
	IsLearned  bool   `db:"is_learned"`
	Characters string `db:"characters"`
}

func (r lessonRow) toModel() models.Lesson {
	return models.Lesson{
		ID:         r.ID,
		BookID:     r.BookID,
		LessonNum:  r.LessonNum,
		IsLearned:  r.IsLearned,
		Characters: models.NormalizeCharacters(r.Characters),
	}
}

// LessonRepository handles database operations for books and lessons
type LessonRepository struct {
	db *sqlx.DB
}

// NewLessonRepository creates a new repository instance
func NewLessonRepository(db *sqlx.DB) *LessonRepository {
	return &LessonRepository{db: db}
}

// ListBooks returns all books in display order
func (r *LessonRepository) ListBooks(ctx context.Context) ([]models.Book, error) {
	var books []models.Book
	err := r.db.SelectContext(ctx, &books, "SELECT id, title, description, sort_order, created_at FROM books ORDER BY sort_order, id")
	if err != nil {
		return nil, fmt.Errorf("failed to get books: %v", err)
	}
	return books, nil
}

// GetBookByTitle returns a book by its title
func (r *LessonRepository) GetBookByTitle(ctx context.Context, title string) (*models.Book, error) {
	var book models.Book
	query := r.db.Rebind("SELECT id, title, description, sort_order, created_at FROM books WHERE title = ?")
	if err := r.db.GetContext(ctx, &book, query, title); err != nil {
		return nil, fmt.Errorf("failed to get book %q: %w", title, notFound(err))
	}
	return &book, nil
}

// EnsureBook returns the book with the given title, creating it if needed
func (r *LessonRepository) EnsureBook(ctx context.Context, title string) (*models.Book, error) {
	book, err := r.GetBookByTitle(ctx, title)
	if err == nil {
		return book, nil
	}

	var order int
	if err := r.db.GetContext(ctx, &order, "SELECT COALESCE(MAX(sort_order), 0) + 1 FROM books"); err != nil {
		return nil, fmt.Errorf("failed to compute book order: %v", err)
	}

	id, err := insertReturningID(ctx, r.db, "INSERT INTO books (title, description, sort_order) VALUES (?, ?, ?)", title, "", order)
	if err != nil {
		return nil, fmt.Errorf("failed to create book: %v", err)
	}
	return &models.Book{ID: id, Title: title, Order: order}, nil
}

// ListLessons returns every lesson ordered by book and lesson number
func (r *LessonRepository) ListLessons(ctx context.Context) ([]models.Lesson, error) {
	var rows []lessonRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT l.id, l.book_id, l.lesson_num, l.is_learned, l.characters
		FROM lessons l
		JOIN books b ON b.id = l.book_id
		ORDER BY b.sort_order, b.id, l.lesson_num`)
	if err != nil {
		return nil, fmt.Errorf("failed to get lessons: %v", err)
	}

	lessons := make([]models.Lesson, len(rows))
	for i, row := range rows {
		lessons[i] = row.toModel()
	}
	return lessons, nil
}

// GetLesson returns a lesson by book and lesson number
func (r *LessonRepository) GetLesson(ctx context.Context, bookID int64, lessonNum int) (*models.Lesson, error) {
	var row lessonRow
	query := r.db.Rebind("SELECT id, book_id, lesson_num, is_learned, characters FROM lessons WHERE book_id = ? AND lesson_num = ?")
	if err := r.db.GetContext(ctx, &row, query, bookID, lessonNum); err != nil {
		return nil, fmt.Errorf("failed to get lesson %d: %w", lessonNum, notFound(err))
	}
	lesson := row.toModel()
	return &lesson, nil
}

// UpsertLesson creates the lesson or replaces its characters and learned flag
func (r *LessonRepository) UpsertLesson(ctx context.Context, lesson *models.Lesson) error {
	chars := models.JoinCharacters(lesson.Characters)

	existing, err := r.GetLesson(ctx, lesson.BookID, lesson.LessonNum)
	if err == nil {
		query := r.db.Rebind("UPDATE lessons SET characters = ?, is_learned = ? WHERE id = ?")
		if _, err := r.db.ExecContext(ctx, query, chars, lesson.IsLearned, existing.ID); err != nil {
			return fmt.Errorf("failed to update lesson: %v", err)
		}
		lesson.ID = existing.ID
		return nil
	}

	id, err := insertReturningID(ctx, r.db,
		"INSERT INTO lessons (book_id, lesson_num, is_learned, characters) VALUES (?, ?, ?, ?)",
		lesson.BookID, lesson.LessonNum, lesson.IsLearned, chars)
	if err != nil {
		return fmt.Errorf("failed to create lesson: %v", err)
	}
	lesson.ID = id
	return nil
}

// SetLearned marks a lesson as learned or not learned
func (r *LessonRepository) SetLearned(ctx context.Context, lessonID int64, learned bool) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind("UPDATE lessons SET is_learned = ? WHERE id = ?"), learned, lessonID)
	if err != nil {
		return fmt.Errorf("failed to update lesson: %v", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("lesson %d: %w", lessonID, ErrNotFound)
	}
	return nil
}
