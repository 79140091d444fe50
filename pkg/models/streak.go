package models

import "time"

// UserStreak tracks consecutive days of review activity
type UserStreak struct {
	UserID         int64     `json:"user_id" db:"user_id"`
	CurrentStreak  int       `json:"current_streak" db:"current_streak"`
	LongestStreak  int       `json:"longest_streak" db:"longest_streak"`
	LastActiveDate time.Time `json:"last_active_date" db:"last_active_date"`
	TotalReviews   int       `json:"total_reviews" db:"total_reviews"`
}
