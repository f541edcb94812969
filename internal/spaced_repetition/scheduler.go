package spaced_repetition

import (
	"fmt"
	"time"
)

const (
	// ReadRetention is the desired retention of reading recognition
	ReadRetention = 0.9
	// WriteRetention is the desired retention of writing production
	WriteRetention = 0.6
	// DefaultMaxInterval caps scheduling intervals, in days
	DefaultMaxInterval = 36500
)

const day = 24 * time.Hour

// Config configures a Scheduler. Zero values take defaults.
type Config struct {
	// Weights of the memory model; zero array means DefaultWeights
	Weights [21]float64
	// Target probability of recall at the due date; zero means ReadRetention
	DesiredRetention float64
	// Steps of the initial learning phase; nil means 1m, 10m
	LearningSteps []time.Duration
	// Steps after a lapse; nil means 10m
	RelearningSteps []time.Duration
	// Longest interval in days; zero means DefaultMaxInterval
	MaxInterval int
}

// Scheduler implements the FSRS memory model. It is deterministic:
// identical cards, ratings and times always produce identical results.
type Scheduler struct {
	model            memoryModel
	desiredRetention float64
	learningSteps    []time.Duration
	relearningSteps  []time.Duration
	maxInterval      int
}

// NewScheduler creates a scheduler from the given configuration
func NewScheduler(cfg Config) (*Scheduler, error) {
	w := cfg.Weights
	if w == [21]float64{} {
		w = DefaultWeights
	}
	if err := ValidateWeights(w); err != nil {
		return nil, err
	}

	retention := cfg.DesiredRetention
	if retention == 0 {
		retention = ReadRetention
	}
	if retention <= 0 || retention > 1 {
		return nil, fmt.Errorf("%w: %f", ErrInvalidRetention, retention)
	}

	maxInterval := cfg.MaxInterval
	if maxInterval == 0 {
		maxInterval = DefaultMaxInterval
	}
	if maxInterval < 1 {
		return nil, fmt.Errorf("spaced_repetition: maximum interval %d must be positive", maxInterval)
	}

	learning := cfg.LearningSteps
	if learning == nil {
		learning = []time.Duration{time.Minute, 10 * time.Minute}
	}
	relearning := cfg.RelearningSteps
	if relearning == nil {
		relearning = []time.Duration{10 * time.Minute}
	}

	return &Scheduler{
		model:            newMemoryModel(w),
		desiredRetention: retention,
		learningSteps:    learning,
		relearningSteps:  relearning,
		maxInterval:      maxInterval,
	}, nil
}

// NewReadScheduler returns the scheduler for reading recognition cards
func NewReadScheduler() *Scheduler {
	s, _ := NewScheduler(Config{DesiredRetention: ReadRetention})
	return s
}

// NewWriteScheduler returns the scheduler for writing production cards
func NewWriteScheduler() *Scheduler {
	s, _ := NewScheduler(Config{DesiredRetention: WriteRetention})
	return s
}

// DesiredRetention returns the retention target of the scheduler
func (s *Scheduler) DesiredRetention() float64 {
	return s.desiredRetention
}

// ReviewCard applies a review with the given rating at the given time and
// returns the updated card. The input card is not modified.
func (s *Scheduler) ReviewCard(card Card, rating Rating, at time.Time) (Card, ReviewLog, error) {
	if !rating.IsValid() {
		return Card{}, ReviewLog{}, fmt.Errorf("%w: %d", ErrInvalidRating, int(rating))
	}
	if card.LastReview != nil && at.Before(*card.LastReview) {
		return Card{}, ReviewLog{}, fmt.Errorf("%w: %s before %s",
			ErrReviewBeforeLastReview, at.Format(time.RFC3339), card.LastReview.Format(time.RFC3339))
	}

	c := card.clone()
	log := ReviewLog{Rating: rating, ReviewedAt: at, StateBefore: c.State}

	if c.State == New {
		c.State = Learning
		c.setStep(0)
	}

	var elapsedDays float64
	if c.LastReview != nil {
		elapsedDays = at.Sub(*c.LastReview).Hours() / 24.0
	}
	log.ElapsedDays = elapsedDays

	s.updateMemory(&c, rating, elapsedDays)

	var interval time.Duration
	switch c.State {
	case Learning:
		interval = s.stepTransition(&c, rating, s.learningSteps)
	case Relearning:
		interval = s.stepTransition(&c, rating, s.relearningSteps)
	default:
		interval = s.reviewTransition(&c, rating)
	}

	c.Due = at.Add(interval)
	c.LastReview = &at
	return c, log, nil
}

// Retrievability returns the probability of recall at the given time.
// ok is false when the card has never been reviewed.
func (s *Scheduler) Retrievability(card Card, at time.Time) (r float64, ok bool) {
	if !card.IsReviewed() {
		return 0, false
	}
	elapsed := at.Sub(*card.LastReview).Hours() / 24.0
	return s.model.retrievability(elapsed, *card.Stability), true
}

// PreviewCard returns the card that would result from each possible rating
func (s *Scheduler) PreviewCard(card Card, at time.Time) (map[Rating]Card, error) {
	out := make(map[Rating]Card, len(Ratings))
	for _, r := range Ratings {
		c, _, err := s.ReviewCard(card, r, at)
		if err != nil {
			return nil, err
		}
		out[r] = c
	}
	return out, nil
}

// RescheduleCard replays review logs in order on top of the given card
func (s *Scheduler) RescheduleCard(card Card, logs []ReviewLog) (Card, error) {
	c := card
	for i, l := range logs {
		var err error
		c, _, err = s.ReviewCard(c, l.Rating, l.ReviewedAt)
		if err != nil {
			return Card{}, fmt.Errorf("failed to replay review %d: %w", i, err)
		}
	}
	return c, nil
}

func (s *Scheduler) updateMemory(c *Card, rating Rating, elapsedDays float64) {
	if c.Stability == nil {
		stability := s.model.initialStability(rating)
		difficulty := clampDifficulty(s.model.initialDifficulty(rating))
		c.Stability = &stability
		c.Difficulty = &difficulty
		return
	}

	stability, difficulty := *c.Stability, *c.Difficulty
	if elapsedDays < 1 {
		stability = s.model.sameDayStability(stability, rating)
	} else {
		retr := s.model.retrievability(elapsedDays, stability)
		stability = s.model.nextStability(difficulty, stability, retr, rating)
	}
	difficulty = s.model.nextDifficulty(difficulty, rating)
	c.Stability = &stability
	c.Difficulty = &difficulty
}

// stepTransition moves a Learning or Relearning card through its steps.
func (s *Scheduler) stepTransition(c *Card, rating Rating, steps []time.Duration) time.Duration {
	step := 0
	if c.Step != nil {
		step = *c.Step
	}

	if len(steps) == 0 || (step >= len(steps) && rating != Again) {
		return s.graduate(c)
	}

	switch rating {
	case Again:
		c.setStep(0)
		return steps[0]
	case Hard:
		if step == 0 && len(steps) == 1 {
			return steps[0] * 3 / 2
		}
		if step == 0 {
			return (steps[0] + steps[1]) / 2
		}
		return steps[step]
	case Good:
		if step+1 >= len(steps) {
			return s.graduate(c)
		}
		c.setStep(step + 1)
		return steps[step+1]
	default:
		return s.graduate(c)
	}
}

func (s *Scheduler) reviewTransition(c *Card, rating Rating) time.Duration {
	if rating == Again && len(s.relearningSteps) > 0 {
		c.State = Relearning
		c.setStep(0)
		return s.relearningSteps[0]
	}
	c.Step = nil
	return s.intervalFor(*c.Stability)
}

func (s *Scheduler) graduate(c *Card) time.Duration {
	c.State = Review
	c.Step = nil
	return s.intervalFor(*c.Stability)
}

func (s *Scheduler) intervalFor(stability float64) time.Duration {
	return time.Duration(s.model.interval(stability, s.desiredRetention, s.maxInterval)) * day
}
