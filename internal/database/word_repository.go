package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/lingua/pkg/models"
)

const wordColumns = `id, word, translation, description, topic_id, difficulty,
	pronunciation, created_at, updated_at`

// WordRepository handles database operations for words
type WordRepository struct {
	db *sqlx.DB
}

// NewWordRepository creates a new repository instance
func NewWordRepository(db *sqlx.DB) *WordRepository {
	return &WordRepository{db: db}
}

// GetByID returns a word by ID
func (r *WordRepository) GetByID(ctx context.Context, id int64) (*models.Word, error) {
	var word models.Word
	err := r.db.GetContext(ctx, &word, r.db.Rebind("SELECT "+wordColumns+" FROM words WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("word %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get word by ID: %w", err)
	}
	return &word, nil
}

// GetByTopic returns words for a specific topic
func (r *WordRepository) GetByTopic(ctx context.Context, topicID int64) ([]models.Word, error) {
	var words []models.Word
	query := r.db.Rebind("SELECT " + wordColumns + " FROM words WHERE topic_id = ? ORDER BY word")
	if err := r.db.SelectContext(ctx, &words, query, topicID); err != nil {
		return nil, fmt.Errorf("failed to get words by topic: %w", err)
	}
	return words, nil
}

// FindByWordAndTopic returns the word with the given spelling in a topic, or
// nil if there is none.
func (r *WordRepository) FindByWordAndTopic(ctx context.Context, word string, topicID int64) (*models.Word, error) {
	var w models.Word
	query := r.db.Rebind("SELECT " + wordColumns + " FROM words WHERE LOWER(word) = LOWER(?) AND topic_id = ?")
	err := r.db.GetContext(ctx, &w, query, strings.TrimSpace(word), topicID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find word: %w", err)
	}
	return &w, nil
}

// Create inserts a new word and fills in its ID and timestamps
func (r *WordRepository) Create(ctx context.Context, word *models.Word) error {
	now := time.Now().UTC()
	word.CreatedAt = now
	word.UpdatedAt = now

	query := r.db.Rebind(`
		INSERT INTO words (word, translation, description, topic_id, difficulty, pronunciation, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`)
	err := r.db.QueryRowxContext(ctx, query,
		word.Word,
		word.Translation,
		word.Description,
		word.TopicID,
		word.Difficulty,
		word.Pronunciation,
		word.CreatedAt,
		word.UpdatedAt,
	).Scan(&word.ID)
	if err != nil {
		return fmt.Errorf("failed to create word: %w", err)
	}
	return nil
}

// Update modifies an existing word
func (r *WordRepository) Update(ctx context.Context, word *models.Word) error {
	word.UpdatedAt = time.Now().UTC()

	query := r.db.Rebind(`
		UPDATE words SET
			word = ?,
			translation = ?,
			description = ?,
			topic_id = ?,
			difficulty = ?,
			pronunciation = ?,
			updated_at = ?
		WHERE id = ?
	`)
	res, err := r.db.ExecContext(ctx, query,
		word.Word,
		word.Translation,
		word.Description,
		word.TopicID,
		word.Difficulty,
		word.Pronunciation,
		word.UpdatedAt,
		word.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update word: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("word %d: %w", word.ID, ErrNotFound)
	}
	return nil
}
