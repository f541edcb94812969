package database

import (
	"github.com/jmoiron/sqlx"
)

// Store bundles the repositories over one connection
type Store struct {
	*ReviewEventRepository
	*LessonRepository
	*ExamSettingsRepository
	*SheetRepository

	db *sqlx.DB
}

// NewStore creates the repositories for db
func NewStore(db *sqlx.DB) *Store {
	return &Store{
		ReviewEventRepository:  NewReviewEventRepository(db),
		LessonRepository:       NewLessonRepository(db),
		ExamSettingsRepository: NewExamSettingsRepository(db),
		SheetRepository:        NewSheetRepository(db),
		db:                     db,
	}
}

// DB returns the underlying connection
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}
