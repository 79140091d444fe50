package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/lingua/pkg/models"
)

// StreakRepository persists daily study streaks
type StreakRepository struct {
	db *sqlx.DB
}

// NewStreakRepository creates a new repository instance
func NewStreakRepository(db *sqlx.DB) *StreakRepository {
	return &StreakRepository{db: db}
}

type streakRow struct {
	UserID         int64        `db:"user_id"`
	CurrentStreak  int          `db:"current_streak"`
	LongestStreak  int          `db:"longest_streak"`
	LastActiveDate sql.NullTime `db:"last_active_date"`
	TotalReviews   int          `db:"total_reviews"`
}

// Get returns the user's streak. A user without activity gets a zero streak.
func (r *StreakRepository) Get(ctx context.Context, userID int64) (models.UserStreak, error) {
	var row streakRow
	query := r.db.Rebind(`
		SELECT user_id, current_streak, longest_streak, last_active_date, total_reviews
		FROM user_streaks WHERE user_id = ?
	`)
	err := r.db.GetContext(ctx, &row, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.UserStreak{UserID: userID}, nil
	}
	if err != nil {
		return models.UserStreak{}, fmt.Errorf("failed to get streak: %w", err)
	}

	s := models.UserStreak{
		UserID:        row.UserID,
		CurrentStreak: row.CurrentStreak,
		LongestStreak: row.LongestStreak,
		TotalReviews:  row.TotalReviews,
	}
	if row.LastActiveDate.Valid {
		s.LastActiveDate = row.LastActiveDate.Time
	}
	return s, nil
}

// Save writes the user's streak
func (r *StreakRepository) Save(ctx context.Context, s models.UserStreak) error {
	var last sql.NullTime
	if !s.LastActiveDate.IsZero() {
		last = sql.NullTime{Time: s.LastActiveDate, Valid: true}
	}

	query := r.db.Rebind(`
		INSERT INTO user_streaks (user_id, current_streak, longest_streak, last_active_date, total_reviews)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			current_streak = excluded.current_streak,
			longest_streak = excluded.longest_streak,
			last_active_date = excluded.last_active_date,
			total_reviews = excluded.total_reviews
	`)
	_, err := r.db.ExecContext(ctx, query, s.UserID, s.CurrentStreak, s.LongestStreak, last, s.TotalReviews)
	if err != nil {
		return fmt.Errorf("failed to save streak: %w", err)
	}
	return nil
}
