// Package review runs study sessions: it links words to learners, applies
// graded recalls through the SM-2 scheduler and reports progress.
package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/lingua/internal/database"
	"github.com/example/lingua/internal/logger"
	sr "github.com/example/lingua/internal/spaced_repetition"
	"github.com/example/lingua/internal/streak"
	"github.com/example/lingua/pkg/models"
)

// ErrWordNotLinked is returned when a learner grades a word they never added
var ErrWordNotLinked = errors.New("word is not on the learner's study list")

// ProgressStore persists per-learner scheduling state
type ProgressStore interface {
	LinkTopic(ctx context.Context, userID, topicID int64, at time.Time) (int, error)
	UpdateState(ctx context.Context, userID, wordID int64, quality sr.Quality, fn func(*sr.State) (sr.State, error)) (sr.State, error)
	ListStatesForLearner(ctx context.Context, userID int64) ([]sr.Item[models.Word], error)
}

// TopicStore looks topics up
type TopicStore interface {
	GetByID(ctx context.Context, id int64) (*models.Topic, error)
}

// StreakStore persists daily streaks
type StreakStore interface {
	Get(ctx context.Context, userID int64) (models.UserStreak, error)
	Save(ctx context.Context, s models.UserStreak) error
}

// Dashboard is the progress overview shown to a learner
type Dashboard struct {
	sr.Summary
	CurrentStreak int `json:"current_streak"`
	LongestStreak int `json:"longest_streak"`
	TotalReviews  int `json:"total_reviews"`
}

// Service coordinates storage, the scheduler and streak bookkeeping
type Service struct {
	progress ProgressStore
	topics   TopicStore
	streaks  StreakStore
	sm       *sr.SM2
	now      func() time.Time
	log      *logger.Logger
}

// Option customises a Service
type Option func(*Service)

// WithClock replaces the wall clock
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithScheduler replaces the default SM-2 policy
func WithScheduler(sm *sr.SM2) Option {
	return func(s *Service) { s.sm = sm }
}

// NewService creates a review service
func NewService(progress ProgressStore, topics TopicStore, streaks StreakStore, log *logger.Logger, opts ...Option) *Service {
	s := &Service{
		progress: progress,
		topics:   topics,
		streaks:  streaks,
		sm:       sr.NewSM2(),
		now:      func() time.Time { return time.Now().UTC() },
		log:      log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddTopic puts every word of the topic on the learner's study list.
// Words already there keep their progress. Returns how many were added.
func (s *Service) AddTopic(ctx context.Context, userID, topicID int64) (int, error) {
	topic, err := s.topics.GetByID(ctx, topicID)
	if err != nil {
		return 0, err
	}

	n, err := s.progress.LinkTopic(ctx, userID, topic.ID, s.now())
	if err != nil {
		return 0, err
	}
	s.log.Info("Topic added to study list", "user_id", userID, "topic", topic.Name, "words", n)
	return n, nil
}

// Submit records a graded recall of a word and returns the new schedule
func (s *Service) Submit(ctx context.Context, userID, wordID int64, rawQuality int) (sr.State, error) {
	quality, err := sr.ParseQuality(rawQuality)
	if err != nil {
		return sr.State{}, err
	}

	now := s.now()
	state, err := s.progress.UpdateState(ctx, userID, wordID, quality, func(current *sr.State) (sr.State, error) {
		return s.sm.TransitionFrom(current, quality, now)
	})
	if errors.Is(err, database.ErrNotFound) {
		return sr.State{}, fmt.Errorf("word %d: %w", wordID, ErrWordNotLinked)
	}
	if err != nil {
		return sr.State{}, err
	}

	s.log.Debug("Review recorded",
		"user_id", userID,
		"word_id", wordID,
		"quality", quality.String(),
		"interval_days", state.IntervalDays,
		"easiness_factor", state.EasinessFactor,
	)

	// the review is already committed at this point
	if err := s.recordActivity(ctx, userID, now); err != nil {
		s.log.Warn("Failed to update streak", "user_id", userID, "error", err)
	}
	return state, nil
}

func (s *Service) recordActivity(ctx context.Context, userID int64, at time.Time) error {
	current, err := s.streaks.Get(ctx, userID)
	if err != nil {
		return err
	}
	next := streak.Record(current, at)
	next.UserID = userID
	return s.streaks.Save(ctx, next)
}

// Queue returns the learner's due words in study order, at most limit of
// them. A limit <= 0 returns all due words.
func (s *Service) Queue(ctx context.Context, userID int64, limit int) ([]models.Word, error) {
	items, err := s.progress.ListStatesForLearner(ctx, userID)
	if err != nil {
		return nil, err
	}
	return sr.DueQueue(s.sm, items, s.now(), limit), nil
}

// Dashboard summarises the learner's progress as of now
func (s *Service) Dashboard(ctx context.Context, userID int64) (Dashboard, error) {
	items, err := s.progress.ListStatesForLearner(ctx, userID)
	if err != nil {
		return Dashboard{}, err
	}
	st, err := s.streaks.Get(ctx, userID)
	if err != nil {
		return Dashboard{}, err
	}

	now := s.now()
	return Dashboard{
		Summary:       sr.Summarize(s.sm, items, now),
		CurrentStreak: streak.Active(st, now),
		LongestStreak: st.LongestStreak,
		TotalReviews:  st.TotalReviews,
	}, nil
}
