// Package selection picks characters for study activities.
//
// A Selection is built by choosing one source, applying any number of
// filters, optionally ordering, and finishing with a terminal:
//
//	chars, err := selection.New(in).
//		FromLearnedLessons(selection.Scope{}).
//		RemoveRecentRecords(3, models.TaskRead, models.TaskWrite).
//		RemoveScoreGreater(models.TaskWrite, 5).
//		Random(10)
//
// The first error encountered is kept and returned by the terminal.
package selection

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/example/hanzibot/internal/cards"
	"github.com/example/hanzibot/internal/triage"
	"github.com/example/hanzibot/pkg/models"
)

// Input is the data a selection works over
type Input struct {
	// Review events in insertion order
	Events []models.ReviewEvent
	// Curriculum lessons; only learned lessons contribute candidates
	Lessons []models.Lesson
	// Builder used when Store is nil; nil means the default schedulers
	Builder *cards.Builder
	// Prebuilt cards for Events, if already available
	Store *cards.Store
	// Query time; zero means time.Now()
	Now time.Time
}

// Scope restricts lesson-based candidates. Zero value means every learned lesson.
type Scope struct {
	BookID    *int64
	LessonIDs []int64
}

func (sc Scope) contains(l models.Lesson) bool {
	if sc.BookID != nil && l.BookID != *sc.BookID {
		return false
	}
	if len(sc.LessonIDs) == 0 {
		return true
	}
	for _, id := range sc.LessonIDs {
		if id == l.ID {
			return true
		}
	}
	return false
}

// Option configures a Selection
type Option func(*Selection)

// WithRand fixes the random source used by Random and PoolSample
func WithRand(r *rand.Rand) Option {
	return func(s *Selection) {
		s.rng = r
	}
}

// Selection is a chainable character query. It is not safe for concurrent use.
type Selection struct {
	in  Input
	rng *rand.Rand
	src source
	err error
}

// New creates a selection without a source
func New(in Input, opts ...Option) *Selection {
	if in.Now.IsZero() {
		in.Now = time.Now()
	}
	if in.Builder == nil {
		in.Builder = cards.NewBuilder()
	}
	s := &Selection{in: in}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return s
}

// Err returns the first error recorded on the chain
func (s *Selection) Err() error {
	return s.err
}

// FromLearnedLessons uses the unique characters of learned lessons in scope,
// in lesson order.
func (s *Selection) FromLearnedLessons(scope Scope) *Selection {
	if s.err != nil {
		return s
	}
	s.src = lessonSource{chars: s.learnedCharacters(scope)}
	return s
}

// FromFSRS uses the cards of cardType that have a retrievability at the
// query time. When lessons are supplied, only characters of learned lessons
// in scope are considered. With dueOnly, cards due after now are dropped.
func (s *Selection) FromFSRS(cardType models.TaskType, dueOnly bool, scope Scope) *Selection {
	if s.err != nil {
		return s
	}
	if !cardType.IsExam() {
		s.err = fmt.Errorf("%w: %q", ErrInvalidCardType, cardType)
		return s
	}

	store, err := s.store()
	if err != nil {
		s.err = err
		return s
	}

	var allowed map[string]bool
	if len(s.in.Lessons) > 0 {
		allowed = make(map[string]bool)
		for _, c := range s.learnedCharacters(scope) {
			allowed[c] = true
		}
	}

	var scored []Scored
	for _, char := range store.Characters() {
		if allowed != nil && !allowed[char] {
			continue
		}
		card, _ := store.Card(char, cardType)
		if dueOnly && !card.IsDue(s.in.Now) {
			continue
		}
		r, ok := store.Retrievability(char, cardType, s.in.Now)
		if !ok {
			continue
		}
		scored = append(scored, Scored{Character: char, Retrievability: r})
	}
	s.src = fsrsSource{cards: scored}
	return s
}

// FromFailedRecords uses characters whose latest taskType event on or after
// cutoff scored below threshold.
func (s *Selection) FromFailedRecords(taskType models.TaskType, cutoff time.Time, threshold int) *Selection {
	if s.err != nil {
		return s
	}
	cutoff = models.CivilDate(cutoff)
	var since []models.ReviewEvent
	for _, e := range s.in.Events {
		if e.Type == taskType && !models.CivilDate(e.Date).Before(cutoff) {
			since = append(since, e)
		}
	}

	var failed []string
	latest := LatestScores(since, taskType)
	for char, score := range latest {
		if score < threshold {
			failed = append(failed, char)
		}
	}
	sort.Strings(failed)
	s.src = lessonSource{chars: failed}
	return s
}

// FromHardMode uses the characters currently in hard mode for taskType.
func (s *Selection) FromHardMode(taskType models.TaskType) *Selection {
	if s.err != nil {
		return s
	}
	s.src = lessonSource{chars: triage.HardModeCharacters(s.in.Events, taskType).Sorted()}
	return s
}

// FromCharacters uses the given characters, de-duplicated in order.
func (s *Selection) FromCharacters(chars []string) *Selection {
	if s.err != nil {
		return s
	}
	seen := make(map[string]bool, len(chars))
	out := make([]string, 0, len(chars))
	for _, c := range chars {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	s.src = lessonSource{chars: out}
	return s
}

// RemoveRecentRecords drops characters with an event of one of the given
// types dated within the last days. No types means any type.
func (s *Selection) RemoveRecentRecords(days int, types ...models.TaskType) *Selection {
	if !s.ready() {
		return s
	}
	cutoff := models.CivilDate(s.in.Now).AddDate(0, 0, -days)
	recent := make(map[string]bool)
	for _, e := range s.in.Events {
		if len(types) > 0 && !hasType(types, e.Type) {
			continue
		}
		if !models.CivilDate(e.Date).Before(cutoff) {
			recent[e.Character] = true
		}
	}
	s.src = s.src.keep(func(c string) bool { return !recent[c] })
	return s
}

// RemoveScoreGreater drops characters whose most recently inserted score
// for taskType exceeds threshold. Characters without a score are kept.
func (s *Selection) RemoveScoreGreater(taskType models.TaskType, threshold int) *Selection {
	if !s.ready() {
		return s
	}
	latest := LatestScores(s.in.Events, taskType)
	s.src = s.src.keep(func(c string) bool { return latest[c] <= threshold })
	return s
}

// RemoveHardMode drops characters currently in hard mode for taskType.
func (s *Selection) RemoveHardMode(taskType models.TaskType) *Selection {
	if !s.ready() {
		return s
	}
	hard := triage.HardModeCharacters(s.in.Events, taskType)
	s.src = s.src.keep(func(c string) bool { return !hard.Has(c) })
	return s
}

// RetrievabilityRange keeps cards whose retrievability lies in [lo, hi].
func (s *Selection) RetrievabilityRange(lo, hi float64) *Selection {
	if !s.ready() {
		return s
	}
	switch src := s.src.(type) {
	case fsrsSource:
		out := make([]Scored, 0, len(src.cards))
		for _, c := range src.cards {
			if c.Retrievability >= lo && c.Retrievability <= hi {
				out = append(out, c)
			}
		}
		s.src = fsrsSource{cards: out}
	case lessonSource:
		s.err = fmt.Errorf("%w: RetrievabilityRange", ErrFSRSModeRequired)
	}
	return s
}

// SortByRetrievabilityAscending orders cards from least to most retained.
func (s *Selection) SortByRetrievabilityAscending() *Selection {
	if !s.ready() {
		return s
	}
	switch src := s.src.(type) {
	case fsrsSource:
		sorted := make([]Scored, len(src.cards))
		copy(sorted, src.cards)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Retrievability < sorted[j].Retrievability
		})
		s.src = fsrsSource{cards: sorted}
	case lessonSource:
		s.err = fmt.Errorf("%w: SortByRetrievabilityAscending", ErrFSRSModeRequired)
	}
	return s
}

// Random returns n characters sampled uniformly without replacement, or all
// of them when fewer than n are available.
func (s *Selection) Random(n int) ([]string, error) {
	chars, err := s.All()
	if err != nil {
		return nil, err
	}
	return sample(s.rng, chars, n), nil
}

// Take returns the first n characters in the current order.
func (s *Selection) Take(n int) ([]string, error) {
	chars, err := s.All()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		n = 0
	}
	if len(chars) > n {
		chars = chars[:n]
	}
	return chars, nil
}

// PoolSample takes the first min(len, 3n) characters in the current order
// and samples n of them uniformly.
func (s *Selection) PoolSample(n int) ([]string, error) {
	pool, err := s.Take(3 * n)
	if err != nil {
		return nil, err
	}
	return sample(s.rng, pool, n), nil
}

// All returns every character in the current order.
func (s *Selection) All() ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.src == nil {
		return nil, ErrNoSource
	}
	return s.src.characters(), nil
}

// Scored returns every card with its retrievability in the current order.
func (s *Selection) Scored() ([]Scored, error) {
	if s.err != nil {
		return nil, s.err
	}
	switch src := s.src.(type) {
	case fsrsSource:
		out := make([]Scored, len(src.cards))
		copy(out, src.cards)
		return out, nil
	case lessonSource:
		return nil, fmt.Errorf("%w: Scored", ErrFSRSModeRequired)
	}
	return nil, ErrNoSource
}

// ready records ErrNoSource when no source has been chosen.
func (s *Selection) ready() bool {
	if s.err != nil {
		return false
	}
	if s.src == nil {
		s.err = ErrNoSource
		return false
	}
	return true
}

func (s *Selection) store() (*cards.Store, error) {
	if s.in.Store != nil {
		return s.in.Store, nil
	}
	store, err := s.in.Builder.Build(s.in.Events)
	if err != nil {
		return nil, fmt.Errorf("failed to build cards: %w", err)
	}
	s.in.Store = store
	return store, nil
}

func (s *Selection) learnedCharacters(scope Scope) []string {
	seen := make(map[string]bool)
	var out []string
	for _, l := range s.in.Lessons {
		if !l.IsLearned || !scope.contains(l) {
			continue
		}
		for _, c := range l.Characters {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	return out
}

// LatestScores returns the most recently inserted score of taskType per
// character. Events with a higher ID win; equal IDs fall back to slice order.
func LatestScores(events []models.ReviewEvent, taskType models.TaskType) map[string]int {
	type latest struct {
		id    int64
		score int
	}
	byChar := make(map[string]latest)
	for _, e := range events {
		if e.Type != taskType {
			continue
		}
		if prev, ok := byChar[e.Character]; ok && e.ID < prev.id {
			continue
		}
		byChar[e.Character] = latest{id: e.ID, score: e.Score}
	}
	out := make(map[string]int, len(byChar))
	for c, l := range byChar {
		out[c] = l.score
	}
	return out
}

func sample(rng *rand.Rand, chars []string, n int) []string {
	if n < 0 {
		n = 0
	}
	if n > len(chars) {
		n = len(chars)
	}
	pool := make([]string, len(chars))
	copy(pool, chars)
	for i := 0; i < n; i++ {
		j := i + rng.Intn(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:n]
}

func hasType(types []models.TaskType, t models.TaskType) bool {
	for _, x := range types {
		if x == t {
			return true
		}
	}
	return false
}
