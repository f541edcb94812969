package models

// CardStats is the per-card view of a character used by progress pages
type CardStats struct {
	Retrievability *float64 `json:"retrievability"`
	DueInDays      *int     `json:"due_in_days"`
	IsHardMode     bool     `json:"is_hard_mode"`
}

// CharacterStats holds the read and write card stats of one character
type CharacterStats struct {
	Read  CardStats `json:"read"`
	Write CardStats `json:"write"`
}

// ForType returns the stats of the given card type.
func (s CharacterStats) ForType(t TaskType) CardStats {
	if t == TaskWrite {
		return s.Write
	}
	return s.Read
}

// Buckets counts characters by retention band
type Buckets struct {
	Mastered int `json:"mastered"`
	Learning int `json:"learning"`
	Lapsing  int `json:"lapsing"`
	Hard     int `json:"hard"`
	Total    int `json:"total"`
}

// LessonAggregate is the bucket summary of a character list
type LessonAggregate struct {
	Read  Buckets `json:"read"`
	Write Buckets `json:"write"`
}

// LessonProgress pairs a lesson with its aggregate
type LessonProgress struct {
	Lesson    Lesson          `json:"lesson"`
	Aggregate LessonAggregate `json:"aggregate"`
}

// MonthlyStats is the retroactive progress snapshot at a month end
type MonthlyStats struct {
	Month                 string  `json:"month"` // YYYY-MM
	TotalReviews          int     `json:"total_reviews"`
	TotalStudies          int     `json:"total_studies"`
	CumulativeUniqueChars int     `json:"cumulative_unique_chars"`
	Read                  Buckets `json:"read"`
	Write                 Buckets `json:"write"`
}

// RecentRecord is one of the latest exam results of a character
type RecentRecord struct {
	DaysAgo int    `json:"days_ago"`
	Rating  string `json:"rating"`
}
