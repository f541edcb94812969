package models

import (
	"strings"
	"time"
)

// Book groups lessons of a curriculum
type Book struct {
	ID          int64     `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Order       int       `json:"order" db:"sort_order"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Lesson is a single lesson of a book and its learned status
type Lesson struct {
	ID         int64    `json:"id" db:"id"`
	BookID     int64    `json:"book_id" db:"book_id"`
	LessonNum  int      `json:"lesson_num" db:"lesson_num"`
	IsLearned  bool     `json:"is_learned" db:"is_learned"`
	Characters []string `json:"characters" db:"-"`
}

// NormalizeCharacters splits a raw character list into unique characters,
// dropping commas and whitespace and keeping first-seen order.
func NormalizeCharacters(raw string) []string {
	seen := make(map[string]bool)
	var chars []string
	for _, r := range raw {
		switch r {
		case ',', '，', ' ', '\t', '\n', '\r', '、':
			continue
		}
		c := string(r)
		if seen[c] {
			continue
		}
		seen[c] = true
		chars = append(chars, c)
	}
	return chars
}

// JoinCharacters is the storage form of a lesson's characters.
func JoinCharacters(chars []string) string {
	return strings.Join(chars, ",")
}
