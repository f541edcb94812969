package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Supported database drivers
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// DriverName maps a configured database type to its sql driver name
func DriverName(dbType string) (string, error) {
	switch strings.ToLower(dbType) {
	case "", "sqlite", "sqlite3":
		return DriverSQLite, nil
	case "postgres", "postgresql":
		return DriverPostgres, nil
	}
	return "", fmt.Errorf("unsupported database type %q", dbType)
}

// Connect opens the database and creates any missing tables
func Connect(dbType, dsn string) (*sqlx.DB, error) {
	driver, err := DriverName(dbType)
	if err != nil {
		return nil, err
	}

	if driver == DriverSQLite && dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %v", err)
			}
		}
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	if driver == DriverSQLite {
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %v", err)
		}
		// SQLite doesn't support multiple writers
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// InitSchema creates necessary tables if they don't exist
func InitSchema(ctx context.Context, db *sqlx.DB) error {
	pk := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if db.DriverName() == DriverPostgres {
		pk = "BIGSERIAL PRIMARY KEY"
	}

	tables := []struct {
		name string
		ddl  string
	}{
		{"books", `
			CREATE TABLE IF NOT EXISTS books (
				id ` + pk + `,
				title TEXT NOT NULL UNIQUE,
				description TEXT NOT NULL DEFAULT '',
				sort_order INTEGER NOT NULL DEFAULT 0,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			)`},
		{"lessons", `
			CREATE TABLE IF NOT EXISTS lessons (
				id ` + pk + `,
				book_id INTEGER NOT NULL REFERENCES books(id) ON DELETE CASCADE,
				lesson_num INTEGER NOT NULL,
				is_learned BOOLEAN NOT NULL DEFAULT FALSE,
				characters TEXT NOT NULL DEFAULT '',
				UNIQUE(book_id, lesson_num)
			)`},
		{"review_events", `
			CREATE TABLE IF NOT EXISTS review_events (
				id ` + pk + `,
				hanzi TEXT NOT NULL,
				type TEXT NOT NULL,
				score INTEGER NOT NULL CHECK (score BETWEEN 0 AND 10),
				study_date TEXT NOT NULL
			)`},
		{"review_events index", `
			CREATE INDEX IF NOT EXISTS idx_review_events_character ON review_events(hanzi, type)`},
		{"exam_settings", `
			CREATE TABLE IF NOT EXISTS exam_settings (
				exam_type TEXT PRIMARY KEY,
				num_chars INTEGER NOT NULL,
				score_filter INTEGER,
				days_filter INTEGER,
				title TEXT NOT NULL DEFAULT '',
				header_text TEXT NOT NULL DEFAULT '',
				include_hard_mode BOOLEAN NOT NULL DEFAULT FALSE
			)`},
		{"sheets", `
			CREATE TABLE IF NOT EXISTS sheets (
				id TEXT PRIMARY KEY,
				type TEXT NOT NULL,
				characters TEXT NOT NULL,
				title TEXT NOT NULL DEFAULT '',
				header_text TEXT NOT NULL DEFAULT '',
				done BOOLEAN NOT NULL DEFAULT FALSE,
				created_at TIMESTAMP NOT NULL
			)`},
	}

	for _, t := range tables {
		if _, err := db.ExecContext(ctx, t.ddl); err != nil {
			return fmt.Errorf("failed to create %s table: %v", t.name, err)
		}
	}
	return nil
}

// insertReturningID runs an INSERT and returns the new row id on both
// PostgreSQL (RETURNING) and SQLite (LastInsertId).
func insertReturningID(ctx context.Context, ext sqlx.ExtContext, query string, args ...interface{}) (int64, error) {
	query = ext.Rebind(query)
	if ext.DriverName() == DriverPostgres {
		var id int64
		if err := ext.QueryRowxContext(ctx, query+" RETURNING id", args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}

	result, err := ext.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}
