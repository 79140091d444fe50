package spaced_repetition

import (
	"errors"
	"fmt"
	"math"
	"time"
)

const (
	// MinEasinessFactor is the floor applied after every review
	MinEasinessFactor = 1.3
	// DefaultEasinessFactor seeds an item that has never been reviewed
	DefaultEasinessFactor = 2.5
)

// ErrInvalidQuality is returned when a review grade is outside 1..4
var ErrInvalidQuality = errors.New("invalid review quality")

// SM2 implements the SuperMemo-2 algorithm for spaced repetition
type SM2 struct {
	// Grades at or above this value count as a successful recall
	PassThreshold Quality
	// Items due within this window are reported as due soon
	DueSoonWindow time.Duration
	// Items whose interval exceeds this many days are tagged mastered
	MasteredAfterDays int
}

// NewSM2 returns a scheduler with the default thresholds
func NewSM2() *SM2 {
	return &SM2{
		PassThreshold:     QualityGood,
		DueSoonWindow:     3 * 24 * time.Hour,
		MasteredAfterDays: 30,
	}
}

// State is the scheduling state of one (learner, word) pair.
// A nil *State means the word has never been reviewed.
type State struct {
	EasinessFactor float64   `json:"easiness_factor"`
	IntervalDays   int       `json:"interval_days"`
	Repetitions    int       `json:"repetitions"`
	NextReviewDate time.Time `json:"next_review_date"`
	LastReviewedAt time.Time `json:"last_reviewed_at"`
}

// NewState returns the seed state used for the first review of a word
func NewState() State {
	return State{EasinessFactor: DefaultEasinessFactor}
}

// Transition applies one review to state and returns the next state.
// The input is not modified.
func (sm *SM2) Transition(state State, quality Quality, now time.Time) (State, error) {
	if !quality.Valid() {
		return State{}, fmt.Errorf("%w: %d", ErrInvalidQuality, int(quality))
	}

	next := state
	if quality < sm.PassThreshold {
		// Failure is not path-dependent: always back to day one
		next.Repetitions = 0
		next.IntervalDays = 1
	} else {
		next.Repetitions = state.Repetitions + 1
		switch next.Repetitions {
		case 1:
			next.IntervalDays = 1
		case 2:
			next.IntervalDays = 6
		default:
			next.IntervalDays = int(math.Round(float64(state.IntervalDays) * state.EasinessFactor))
		}
	}

	next.EasinessFactor = nextEasiness(state.EasinessFactor, quality)
	next.LastReviewedAt = now
	next.NextReviewDate = now.AddDate(0, 0, next.IntervalDays)
	return next, nil
}

// TransitionFrom is Transition for a possibly absent state
func (sm *SM2) TransitionFrom(state *State, quality Quality, now time.Time) (State, error) {
	if state == nil {
		return sm.Transition(NewState(), quality, now)
	}
	return sm.Transition(*state, quality, now)
}

// nextEasiness computes EF' = EF + (0.1 - (4-q)*(0.08 + (4-q)*0.02)),
// clamped to the floor and rounded to two decimals.
func nextEasiness(ef float64, quality Quality) float64 {
	miss := float64(QualityEasy - quality)
	ef += 0.1 - miss*(0.08+miss*0.02)
	if ef < MinEasinessFactor {
		ef = MinEasinessFactor
	}
	return math.Round(ef*100) / 100
}
