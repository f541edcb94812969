package models

import (
	"time"

	"github.com/google/uuid"
)

// SheetType identifies a generated study or exam activity
type SheetType string

const (
	SheetReadExam    SheetType = "read"
	SheetWriteExam   SheetType = "write"
	SheetReadReview  SheetType = "read_review"
	SheetWriteReview SheetType = "write_review"
	SheetChars       SheetType = "chars"
	SheetReview      SheetType = "review"
	SheetFailed      SheetType = "failed"
	SheetRecovery    SheetType = "recovery"
	SheetCloze       SheetType = "cloze"
	SheetFindWords   SheetType = "words"
	SheetMatching    SheetType = "ch_en_matching"
)

// LogType returns the task type recorded when a sheet of this type is completed.
func (t SheetType) LogType() (TaskType, bool) {
	switch t {
	case SheetReadExam, SheetReadReview:
		return TaskRead, true
	case SheetWriteExam, SheetWriteReview:
		return TaskWrite, true
	case SheetChars, SheetFailed, SheetRecovery:
		return TaskWriteStudy, true
	case SheetReview, SheetCloze, SheetFindWords, SheetMatching:
		return TaskReadStudy, true
	}
	return "", false
}

// Sheet is a generated activity: the characters chosen for one study or exam
type Sheet struct {
	ID         uuid.UUID `json:"id" db:"id"`
	Type       SheetType `json:"type" db:"type"`
	Characters []string  `json:"characters" db:"-"`
	Title      string    `json:"title" db:"title"`
	HeaderText string    `json:"header_text" db:"header_text"`
	Done       bool      `json:"done" db:"done"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// ExamSettings stores generation defaults for one exam type
type ExamSettings struct {
	ExamType        SheetType `json:"exam_type" db:"exam_type"`
	NumChars        int       `json:"num_chars" db:"num_chars"`
	ScoreFilter     *int      `json:"score_filter" db:"score_filter"`
	DaysFilter      *int      `json:"days_filter" db:"days_filter"`
	Title           string    `json:"title" db:"title"`
	HeaderText      string    `json:"header_text" db:"header_text"`
	IncludeHardMode bool      `json:"include_hard_mode" db:"include_hard_mode"`
}

// DefaultExamSettings returns the settings used when none are stored
func DefaultExamSettings(t SheetType) ExamSettings {
	s := ExamSettings{ExamType: t, NumChars: 10}
	switch t {
	case SheetReadExam:
		s.Title = "Reading Test"
		s.HeaderText = "Test date: ____. Circle the forgotten ones."
	case SheetWriteExam:
		s.Title = "Writing Test"
		s.HeaderText = "Test date: ____. Write down the characters."
	case SheetReadReview:
		s.Title = "Reading Review"
	case SheetWriteReview:
		s.Title = "Writing Review"
	}
	return s
}
