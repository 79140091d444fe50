package spaced_repetition

import "fmt"

// Quality is the learner's self-grade for a single recall
type Quality int

const (
	// QualityAgain is a complete failure to recall
	QualityAgain Quality = 1
	// QualityHard means the answer came back with real difficulty
	QualityHard Quality = 2
	// QualityGood is a correct answer that took some effort
	QualityGood Quality = 3
	// QualityEasy is a perfect, effortless recall
	QualityEasy Quality = 4
)

// Qualities lists every grade in ascending order
var Qualities = []Quality{QualityAgain, QualityHard, QualityGood, QualityEasy}

// Valid reports whether q is one of the four grades
func (q Quality) Valid() bool {
	return q >= QualityAgain && q <= QualityEasy
}

func (q Quality) String() string {
	switch q {
	case QualityAgain:
		return "Again"
	case QualityHard:
		return "Hard"
	case QualityGood:
		return "Good"
	case QualityEasy:
		return "Easy"
	default:
		return fmt.Sprintf("Quality(%d)", int(q))
	}
}

// ParseQuality converts a raw grade into a Quality, rejecting values outside 1..4
func ParseQuality(v int) (Quality, error) {
	q := Quality(v)
	if !q.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidQuality, v)
	}
	return q, nil
}
