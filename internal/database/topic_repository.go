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

// TopicRepository handles database operations for topics
type TopicRepository struct {
	db *sqlx.DB
}

// NewTopicRepository creates a new repository instance
func NewTopicRepository(db *sqlx.DB) *TopicRepository {
	return &TopicRepository{db: db}
}

// GetAll returns all topics ordered by name
func (r *TopicRepository) GetAll(ctx context.Context) ([]models.Topic, error) {
	var topics []models.Topic
	if err := r.db.SelectContext(ctx, &topics, "SELECT id, name, created_at FROM topics ORDER BY name"); err != nil {
		return nil, fmt.Errorf("failed to get topics: %w", err)
	}
	return topics, nil
}

// GetByID returns a topic by its ID
func (r *TopicRepository) GetByID(ctx context.Context, id int64) (*models.Topic, error) {
	var topic models.Topic
	err := r.db.GetContext(ctx, &topic, r.db.Rebind("SELECT id, name, created_at FROM topics WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("topic %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get topic: %w", err)
	}
	return &topic, nil
}

// GetByName looks a topic up case-insensitively
func (r *TopicRepository) GetByName(ctx context.Context, name string) (*models.Topic, error) {
	var topic models.Topic
	query := r.db.Rebind("SELECT id, name, created_at FROM topics WHERE LOWER(name) = LOWER(?)")
	err := r.db.GetContext(ctx, &topic, query, strings.TrimSpace(name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("topic %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get topic by name: %w", err)
	}
	return &topic, nil
}

// Create inserts a topic and fills in its ID
func (r *TopicRepository) Create(ctx context.Context, topic *models.Topic) error {
	topic.Name = strings.TrimSpace(topic.Name)
	if topic.CreatedAt.IsZero() {
		topic.CreatedAt = time.Now().UTC()
	}

	query := r.db.Rebind("INSERT INTO topics (name, created_at) VALUES (?, ?) RETURNING id")
	if err := r.db.QueryRowxContext(ctx, query, topic.Name, topic.CreatedAt).Scan(&topic.ID); err != nil {
		return fmt.Errorf("failed to create topic: %w", err)
	}
	return nil
}

// GetOrCreate returns the topic with the given name, creating it if needed.
// The flag reports whether a new topic was created.
func (r *TopicRepository) GetOrCreate(ctx context.Context, name string) (*models.Topic, bool, error) {
	topic, err := r.GetByName(ctx, name)
	if err == nil {
		return topic, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	topic = &models.Topic{Name: name}
	if err := r.Create(ctx, topic); err != nil {
		return nil, false, err
	}
	return topic, true, nil
}

// CountWords returns how many words belong to each topic
func (r *TopicRepository) CountWords(ctx context.Context) (map[int64]int, error) {
	var rows []struct {
		TopicID int64 `db:"topic_id"`
		Count   int   `db:"cnt"`
	}
	if err := r.db.SelectContext(ctx, &rows, "SELECT topic_id, COUNT(*) AS cnt FROM words GROUP BY topic_id"); err != nil {
		return nil, fmt.Errorf("failed to count topic words: %w", err)
	}

	counts := make(map[int64]int, len(rows))
	for _, row := range rows {
		counts[row.TopicID] = row.Count
	}
	return counts, nil
}
