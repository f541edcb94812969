package selection

// source is the candidate set of a selection. Exactly one of lessonSource
// or fsrsSource is active; operations switch on the concrete type.
type source interface {
	characters() []string
	keep(func(char string) bool) source
}

// lessonSource holds plain characters without scores.
type lessonSource struct {
	chars []string
}

func (s lessonSource) characters() []string {
	out := make([]string, len(s.chars))
	copy(out, s.chars)
	return out
}

func (s lessonSource) keep(pred func(string) bool) source {
	out := make([]string, 0, len(s.chars))
	for _, c := range s.chars {
		if pred(c) {
			out = append(out, c)
		}
	}
	return lessonSource{chars: out}
}

// Scored is a character with its retrievability at selection time
type Scored struct {
	Character      string  `json:"character"`
	Retrievability float64 `json:"retrievability"`
}

// fsrsSource holds characters paired with their card retrievability.
type fsrsSource struct {
	cards []Scored
}

func (s fsrsSource) characters() []string {
	out := make([]string, len(s.cards))
	for i, c := range s.cards {
		out[i] = c.Character
	}
	return out
}

func (s fsrsSource) keep(pred func(string) bool) source {
	out := make([]Scored, 0, len(s.cards))
	for _, c := range s.cards {
		if pred(c.Character) {
			out = append(out, c)
		}
	}
	return fsrsSource{cards: out}
}
