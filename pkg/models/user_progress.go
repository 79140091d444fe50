package models

import "time"

// UserProgress is the persisted SM-2 scheduling row for a user and a word
type UserProgress struct {
	UserID         int64     `json:"user_id" db:"user_id"`
	WordID         int64     `json:"word_id" db:"word_id"`
	EasinessFactor float64   `json:"easiness_factor" db:"easiness_factor"`
	IntervalDays   int       `json:"interval_days" db:"interval_days"`
	Repetitions    int       `json:"repetitions" db:"repetitions"`
	LastQuality    int       `json:"last_quality" db:"last_quality"` // 1-4 grade of the last recall
	LastReviewedAt time.Time `json:"last_reviewed_at" db:"last_reviewed_at"`
	NextReviewDate time.Time `json:"next_review_date" db:"next_review_date"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}
