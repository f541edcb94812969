package models

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"
)

// ErrInvalidEvent is returned when a review event fails validation.
var ErrInvalidEvent = errors.New("invalid review event")

// DateLayout is the ISO-8601 calendar date format used for review events.
const DateLayout = "2006-01-02"

// TaskType is the kind of activity a review event records
type TaskType string

const (
	// TaskRead is a reading recognition exam
	TaskRead TaskType = "read"
	// TaskWrite is a writing production exam
	TaskWrite TaskType = "write"
	// TaskReadStudy is a reading-oriented study session
	TaskReadStudy TaskType = "readstudy"
	// TaskWriteStudy is a writing-oriented study session
	TaskWriteStudy TaskType = "writestudy"
)

// CardTypes are the task types that own a memory card.
var CardTypes = []TaskType{TaskRead, TaskWrite}

// ParseTaskType converts a string into a TaskType
func ParseTaskType(s string) (TaskType, error) {
	t := TaskType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("%w: unknown task type %q", ErrInvalidEvent, s)
	}
	return t, nil
}

// IsValid reports whether t is one of the four known task types.
func (t TaskType) IsValid() bool {
	switch t {
	case TaskRead, TaskWrite, TaskReadStudy, TaskWriteStudy:
		return true
	}
	return false
}

// IsExam reports whether t is a card type (read or write).
func (t TaskType) IsExam() bool {
	return t == TaskRead || t == TaskWrite
}

// ReviewEvent is an immutable record of one graded exam or study result
type ReviewEvent struct {
	ID        int64     `json:"id" db:"id"`
	Character string    `json:"character" db:"hanzi"`
	Type      TaskType  `json:"type" db:"type"`
	Score     int       `json:"score" db:"score"`
	Date      time.Time `json:"date" db:"study_date"`
}

// Validate checks the event against the data-integrity rules of the replay.
func (e ReviewEvent) Validate() error {
	if utf8.RuneCountInString(e.Character) != 1 {
		return fmt.Errorf("%w: character %q must be a single character", ErrInvalidEvent, e.Character)
	}
	if !e.Type.IsValid() {
		return fmt.Errorf("%w: unknown task type %q", ErrInvalidEvent, e.Type)
	}
	if e.Score < 0 || e.Score > 10 {
		return fmt.Errorf("%w: score %d for %q out of range [0, 10]", ErrInvalidEvent, e.Score, e.Character)
	}
	if e.Date.IsZero() {
		return fmt.Errorf("%w: missing date for %q", ErrInvalidEvent, e.Character)
	}
	return nil
}

// DateString returns the event date as YYYY-MM-DD.
func (e ReviewEvent) DateString() string {
	return e.Date.Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD string into a calendar date at midnight UTC.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: malformed date %q", ErrInvalidEvent, s)
	}
	return d, nil
}

// CivilDate returns the calendar date of t in its own location, as midnight UTC.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
