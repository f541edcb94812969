package spaced_repetition

import (
	"fmt"
	"math"
)

// DefaultWeights are the FSRS-6 default model weights.
var DefaultWeights = [21]float64{
	0.212, 1.2931, 2.3065, 8.2956,
	6.4133, 0.8334, 3.0194, 0.001,
	1.8722, 0.1666, 0.796, 1.4835,
	0.0614, 0.2629, 1.6483, 0.6014,
	1.8729, 0.5425, 0.0912, 0.0658,
	0.1542,
}

var weightLowerBounds = [21]float64{
	0.001, 0.001, 0.001, 0.001,
	1.0, 0.001, 0.001, 0.001,
	0.0, 0.0, 0.001, 0.001,
	0.001, 0.001, 0.0, 0.0,
	1.0, 0.0, 0.0, 0.0,
	0.1,
}

var weightUpperBounds = [21]float64{
	100.0, 100.0, 100.0, 100.0,
	10.0, 4.0, 4.0, 0.75,
	4.5, 0.8, 3.5, 5.0,
	0.25, 0.9, 4.0, 1.0,
	6.0, 2.0, 2.0, 0.8,
	0.8,
}

const (
	minStability  = 0.001
	minDifficulty = 1.0
	maxDifficulty = 10.0
)

// ValidateWeights checks every weight against its allowed range.
func ValidateWeights(w [21]float64) error {
	for i := range w {
		if w[i] < weightLowerBounds[i] || w[i] > weightUpperBounds[i] {
			return fmt.Errorf("%w: w[%d] = %f not in [%f, %f]",
				ErrInvalidParameters, i, w[i], weightLowerBounds[i], weightUpperBounds[i])
		}
	}
	return nil
}

// memoryModel evaluates the stability/difficulty formulas for a weight set.
type memoryModel struct {
	w      [21]float64
	decay  float64
	factor float64
}

func newMemoryModel(w [21]float64) memoryModel {
	decay := -w[20]
	return memoryModel{
		w:      w,
		decay:  decay,
		factor: math.Pow(0.9, 1.0/decay) - 1.0,
	}
}

// retrievability is the power forgetting curve R(t, S) = (1 + factor*t/S)^decay.
func (m memoryModel) retrievability(elapsedDays, stability float64) float64 {
	if elapsedDays < 0 {
		elapsedDays = 0
	}
	return math.Pow(1+m.factor*elapsedDays/stability, m.decay)
}

// interval returns the whole number of days until retrievability falls to retention.
func (m memoryModel) interval(stability, retention float64, maxDays int) int {
	days := stability / m.factor * (math.Pow(retention, 1.0/m.decay) - 1)
	n := int(math.Round(days))
	if n < 1 {
		n = 1
	}
	if n > maxDays {
		n = maxDays
	}
	return n
}

func (m memoryModel) initialStability(r Rating) float64 {
	return math.Max(m.w[r-1], minStability)
}

func (m memoryModel) initialDifficulty(r Rating) float64 {
	return m.w[4] - math.Exp(m.w[5]*float64(r-1)) + 1
}

// nextDifficulty applies linear damping then mean reversion toward D0(Easy).
func (m memoryModel) nextDifficulty(d float64, r Rating) float64 {
	delta := -m.w[6] * (float64(r) - 3)
	damped := d + (10-d)*delta/9
	reverted := m.w[7]*m.initialDifficulty(Easy) + (1-m.w[7])*damped
	return clampDifficulty(reverted)
}

// sameDayStability is used when a card is reviewed again within a day.
func (m memoryModel) sameDayStability(s float64, r Rating) float64 {
	inc := math.Exp(m.w[17]*(float64(r)-3+m.w[18])) * math.Pow(s, -m.w[19])
	if r == Good || r == Easy {
		inc = math.Max(inc, 1.0)
	}
	return math.Max(s*inc, minStability)
}

func (m memoryModel) recallStability(d, s, retr float64, r Rating) float64 {
	hardPenalty, easyBonus := 1.0, 1.0
	switch r {
	case Hard:
		hardPenalty = m.w[15]
	case Easy:
		easyBonus = m.w[16]
	}
	return s * (1 + math.Exp(m.w[8])*
		(11-d)*
		math.Pow(s, -m.w[9])*
		(math.Exp((1-retr)*m.w[10])-1)*
		hardPenalty*easyBonus)
}

func (m memoryModel) forgetStability(d, s, retr float64) float64 {
	long := m.w[11] *
		math.Pow(d, -m.w[12]) *
		(math.Pow(s+1, m.w[13]) - 1) *
		math.Exp((1-retr)*m.w[14])
	short := s / math.Exp(m.w[17]*m.w[18])
	return math.Min(long, short)
}

func (m memoryModel) nextStability(d, s, retr float64, r Rating) float64 {
	if r == Again {
		return math.Max(m.forgetStability(d, s, retr), minStability)
	}
	return math.Max(m.recallStability(d, s, retr, r), minStability)
}

func clampDifficulty(d float64) float64 {
	return math.Min(math.Max(d, minDifficulty), maxDifficulty)
}
