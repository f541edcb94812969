package excel

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/example/hanzibot/internal/database"
	"github.com/example/hanzibot/pkg/models"
)

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath  string // Path to the Excel or CSV file
	SheetName string // Name of the sheet to import; empty means the first sheet
	StartRow  int    // The row to start importing from (1-based index)

	BookColumn       string // Lesson import: book title
	LessonColumn     string // Lesson import: lesson number
	CharactersColumn string // Lesson import: characters of the lesson
	LearnedColumn    string // Lesson import: learned flag

	CharacterColumn string // Event import: character
	TypeColumn      string // Event import: task type
	ScoreColumn     string // Event import: score 0-10
	DateColumn      string // Event import: study date
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		StartRow:         2, // By default, start from the second row (skip header)
		BookColumn:       "A",
		LessonColumn:     "B",
		CharactersColumn: "C",
		LearnedColumn:    "D",
		CharacterColumn:  "A",
		TypeColumn:       "B",
		ScoreColumn:      "C",
		DateColumn:       "D",
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	BooksCreated   int
	Created        int
	Updated        int
	Skipped        int
	Errors         []string
}

// LessonStore persists imported books and lessons
type LessonStore interface {
	GetBookByTitle(ctx context.Context, title string) (*models.Book, error)
	EnsureBook(ctx context.Context, title string) (*models.Book, error)
	GetLesson(ctx context.Context, bookID int64, lessonNum int) (*models.Lesson, error)
	UpsertLesson(ctx context.Context, lesson *models.Lesson) error
}

// EventStore persists imported review events
type EventStore interface {
	AppendEvents(ctx context.Context, events []models.ReviewEvent) ([]models.ReviewEvent, error)
}

// ImportLessons imports books and lessons from an Excel or CSV file
func ImportLessons(ctx context.Context, store LessonStore, config ImportConfig) (*ImportResult, error) {
	rows, err := readRows(config)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Errors: make([]string, 0)}
	books := make(map[string]int64)

	for i, row := range rows {
		rowNum := i + 1
		if rowNum < config.StartRow || isBlank(row) {
			continue
		}
		result.TotalProcessed++

		if err := processLessonRow(ctx, store, config, row, books, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
			result.Skipped++
		}
	}

	return result, nil
}

// processLessonRow handles one lesson row
func processLessonRow(ctx context.Context, store LessonStore, config ImportConfig, row []string,
	books map[string]int64, result *ImportResult) error {
	title := cell(row, config.BookColumn)
	if title == "" {
		return fmt.Errorf("book title cannot be empty")
	}
	num, err := strconv.Atoi(cell(row, config.LessonColumn))
	if err != nil || num < 1 {
		return fmt.Errorf("invalid lesson number %q", cell(row, config.LessonColumn))
	}
	chars := models.NormalizeCharacters(cell(row, config.CharactersColumn))
	if len(chars) == 0 {
		return fmt.Errorf("lesson %d has no characters", num)
	}

	bookID, ok := books[title]
	if !ok {
		if _, err := store.GetBookByTitle(ctx, title); errors.Is(err, database.ErrNotFound) {
			result.BooksCreated++
		}
		book, err := store.EnsureBook(ctx, title)
		if err != nil {
			return fmt.Errorf("failed to process book: %w", err)
		}
		bookID = book.ID
		books[title] = bookID
	}

	lesson := &models.Lesson{
		BookID:     bookID,
		LessonNum:  num,
		IsLearned:  parseFlag(cell(row, config.LearnedColumn)),
		Characters: chars,
	}

	_, err = store.GetLesson(ctx, bookID, num)
	exists := err == nil
	if err := store.UpsertLesson(ctx, lesson); err != nil {
		return err
	}
	if exists {
		result.Updated++
	} else {
		result.Created++
	}
	return nil
}

// ImportEvents imports review events from an Excel or CSV file. Valid rows
// are appended in file order as one batch; invalid rows are reported and
// skipped.
func ImportEvents(ctx context.Context, store EventStore, config ImportConfig) (*ImportResult, error) {
	rows, err := readRows(config)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Errors: make([]string, 0)}
	var events []models.ReviewEvent

	for i, row := range rows {
		rowNum := i + 1
		if rowNum < config.StartRow || isBlank(row) {
			continue
		}
		result.TotalProcessed++

		e, err := parseEventRow(config, row)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
			result.Skipped++
			continue
		}
		events = append(events, e)
	}

	if len(events) == 0 {
		return result, nil
	}
	saved, err := store.AppendEvents(ctx, events)
	if err != nil {
		return nil, fmt.Errorf("failed to save review events: %w", err)
	}
	result.Created = len(saved)
	return result, nil
}

// parseEventRow converts one row into a validated review event
func parseEventRow(config ImportConfig, row []string) (models.ReviewEvent, error) {
	taskType, err := models.ParseTaskType(strings.ToLower(cell(row, config.TypeColumn)))
	if err != nil {
		return models.ReviewEvent{}, err
	}
	score, err := strconv.Atoi(cell(row, config.ScoreColumn))
	if err != nil {
		return models.ReviewEvent{}, fmt.Errorf("invalid score %q", cell(row, config.ScoreColumn))
	}
	date, err := parseDate(cell(row, config.DateColumn))
	if err != nil {
		return models.ReviewEvent{}, err
	}

	e := models.ReviewEvent{
		Character: cell(row, config.CharacterColumn),
		Type:      taskType,
		Score:     score,
		Date:      date,
	}
	return e, e.Validate()
}

// readRows returns every row of the configured sheet or CSV file
func readRows(config ImportConfig) ([][]string, error) {
	ext := strings.ToLower(filepath.Ext(config.FilePath))
	if ext == ".csv" {
		return readCSV(config.FilePath)
	}
	return readExcel(config)
}

func readExcel(config ImportConfig) ([][]string, error) {
	f, err := excelize.OpenFile(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %v", err)
	}
	defer f.Close()

	sheet := config.SheetName
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	// Raw values keep date cells as serial numbers regardless of display format
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %v", err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %v", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %v", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

var dateLayouts = []string{models.DateLayout, "2006/01/02", "2006.01.02", "1/2/2006", "01-02-06"}

// parseDate accepts ISO and common spreadsheet date forms, including Excel
// serial numbers.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return models.CivilDate(t), nil
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err == nil {
			return models.CivilDate(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: malformed date %q", models.ErrInvalidEvent, s)
}

// parseFlag reads a spreadsheet yes/no cell
func parseFlag(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "x":
		return true
	}
	return false
}

// cell returns the trimmed value of column in row, or "" when out of range
func cell(row []string, column string) string {
	if column == "" {
		return ""
	}
	if idx := columnToIndex(column); idx >= 0 && idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Helper function to convert Excel column letter to index
func columnToIndex(column string) int {
	column = strings.ToUpper(column)
	index := 0
	for i := 0; i < len(column); i++ {
		index = index*26 + int(column[i]-'A'+1)
	}
	return index - 1
}
