package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	sr "github.com/example/lingua/internal/spaced_repetition"
	"github.com/example/lingua/pkg/models"
)

// UserProgressRepository stores per-user scheduling state for linked words
type UserProgressRepository struct {
	db *sqlx.DB
}

// NewUserProgressRepository creates a new repository instance
func NewUserProgressRepository(db *sqlx.DB) *UserProgressRepository {
	return &UserProgressRepository{db: db}
}

// progressRow is a linked word joined with its optional progress row
type progressRow struct {
	models.Word
	EasinessFactor sql.NullFloat64 `db:"easiness_factor"`
	IntervalDays   sql.NullInt64   `db:"interval_days"`
	Repetitions    sql.NullInt64   `db:"repetitions"`
	LastReviewedAt sql.NullTime    `db:"last_reviewed_at"`
	NextReviewDate sql.NullTime    `db:"next_review_date"`
}

func (r progressRow) state() *sr.State {
	if !r.NextReviewDate.Valid {
		return nil
	}
	return &sr.State{
		EasinessFactor: r.EasinessFactor.Float64,
		IntervalDays:   int(r.IntervalDays.Int64),
		Repetitions:    int(r.Repetitions.Int64),
		LastReviewedAt: r.LastReviewedAt.Time.UTC(),
		NextReviewDate: r.NextReviewDate.Time.UTC(),
	}
}

// LinkWords adds words to a user's study list without any scheduling state.
// Already linked words are left untouched. Returns the number of new links.
func (r *UserProgressRepository) LinkWords(ctx context.Context, userID int64, wordIDs []int64, at time.Time) (int, error) {
	query := r.db.Rebind(`
		INSERT INTO user_words (user_id, word_id, added_at)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id, word_id) DO NOTHING
	`)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	linked := 0
	for _, wordID := range wordIDs {
		res, err := tx.ExecContext(ctx, query, userID, wordID, at.UTC())
		if err != nil {
			return 0, fmt.Errorf("failed to link word %d: %w", wordID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to get rows affected: %w", err)
		}
		linked += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit links: %w", err)
	}
	return linked, nil
}

// LinkTopic links every word of a topic to the user
func (r *UserProgressRepository) LinkTopic(ctx context.Context, userID, topicID int64, at time.Time) (int, error) {
	var wordIDs []int64
	err := r.db.SelectContext(ctx, &wordIDs, r.db.Rebind("SELECT id FROM words WHERE topic_id = ? ORDER BY id"), topicID)
	if err != nil {
		return 0, fmt.Errorf("failed to get topic words: %w", err)
	}
	return r.LinkWords(ctx, userID, wordIDs, at)
}

func isLinked(ctx context.Context, q sqlx.ExtContext, userID, wordID int64) (bool, error) {
	var n int
	err := sqlx.GetContext(ctx, q, &n,
		q.Rebind("SELECT COUNT(*) FROM user_words WHERE user_id = ? AND word_id = ?"),
		userID, wordID)
	if err != nil {
		return false, fmt.Errorf("failed to check word link: %w", err)
	}
	return n > 0, nil
}

// LoadState returns the scheduling state, or nil if the word was never reviewed
func (r *UserProgressRepository) LoadState(ctx context.Context, userID, wordID int64) (*sr.State, error) {
	return loadState(ctx, r.db, userID, wordID, false)
}

func loadState(ctx context.Context, q sqlx.ExtContext, userID, wordID int64, forUpdate bool) (*sr.State, error) {
	query := `
		SELECT easiness_factor, interval_days, repetitions, last_reviewed_at, next_review_date
		FROM user_progress
		WHERE user_id = ? AND word_id = ?
	`
	if forUpdate && isPostgres(q) {
		query += " FOR UPDATE"
	}

	var row models.UserProgress
	err := sqlx.GetContext(ctx, q, &row, q.Rebind(query), userID, wordID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user progress: %w", err)
	}

	return &sr.State{
		EasinessFactor: row.EasinessFactor,
		IntervalDays:   row.IntervalDays,
		Repetitions:    row.Repetitions,
		LastReviewedAt: row.LastReviewedAt.UTC(),
		NextReviewDate: row.NextReviewDate.UTC(),
	}, nil
}

// SaveState writes the state for a user and word in a single upsert
func (r *UserProgressRepository) SaveState(ctx context.Context, userID, wordID int64, state sr.State, quality sr.Quality) error {
	return saveState(ctx, r.db, userID, wordID, state, quality)
}

func saveState(ctx context.Context, e sqlx.ExtContext, userID, wordID int64, state sr.State, quality sr.Quality) error {
	query := e.Rebind(`
		INSERT INTO user_progress (
			user_id, word_id, easiness_factor, interval_days, repetitions,
			last_quality, last_reviewed_at, next_review_date, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, word_id) DO UPDATE SET
			easiness_factor = excluded.easiness_factor,
			interval_days = excluded.interval_days,
			repetitions = excluded.repetitions,
			last_quality = excluded.last_quality,
			last_reviewed_at = excluded.last_reviewed_at,
			next_review_date = excluded.next_review_date,
			updated_at = excluded.updated_at
	`)
	_, err := e.ExecContext(ctx, query,
		userID,
		wordID,
		state.EasinessFactor,
		state.IntervalDays,
		state.Repetitions,
		int(quality),
		state.LastReviewedAt.UTC(),
		state.NextReviewDate.UTC(),
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save user progress: %w", err)
	}
	return nil
}

// UpdateState loads the current state, applies fn and saves the result in one
// transaction, so concurrent reviews of the same word cannot interleave.
// Returns ErrNotFound if the word is not linked to the user.
func (r *UserProgressRepository) UpdateState(ctx context.Context, userID, wordID int64, quality sr.Quality, fn func(current *sr.State) (sr.State, error)) (sr.State, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return sr.State{}, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	linked, err := isLinked(ctx, tx, userID, wordID)
	if err != nil {
		return sr.State{}, err
	}
	if !linked {
		return sr.State{}, fmt.Errorf("word %d for user %d: %w", wordID, userID, ErrNotFound)
	}

	current, err := loadState(ctx, tx, userID, wordID, true)
	if err != nil {
		return sr.State{}, err
	}

	next, err := fn(current)
	if err != nil {
		return sr.State{}, err
	}

	if err := saveState(ctx, tx, userID, wordID, next, quality); err != nil {
		return sr.State{}, err
	}
	if err := tx.Commit(); err != nil {
		return sr.State{}, fmt.Errorf("failed to commit progress: %w", err)
	}
	return next, nil
}

// ListStatesForLearner returns every word linked to the user together with its
// scheduling state (nil for words never reviewed), in the order they were added.
func (r *UserProgressRepository) ListStatesForLearner(ctx context.Context, userID int64) ([]sr.Item[models.Word], error) {
	query := r.db.Rebind(`
		SELECT w.id, w.word, w.translation, w.description, w.topic_id, w.difficulty,
			w.pronunciation, w.created_at, w.updated_at,
			up.easiness_factor, up.interval_days, up.repetitions,
			up.last_reviewed_at, up.next_review_date
		FROM user_words uw
		JOIN words w ON w.id = uw.word_id
		LEFT JOIN user_progress up ON up.user_id = uw.user_id AND up.word_id = uw.word_id
		WHERE uw.user_id = ?
		ORDER BY uw.added_at, w.id
	`)

	var rows []progressRow
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list user progress: %w", err)
	}

	items := make([]sr.Item[models.Word], len(rows))
	for i, row := range rows {
		items[i] = sr.Item[models.Word]{Ref: row.Word, State: row.state()}
	}
	return items, nil
}
