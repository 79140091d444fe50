package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/example/lingua/internal/logger"
	"github.com/example/lingua/internal/review"
	"github.com/example/lingua/pkg/models"
)

// Notifier delivers a "words are waiting" reminder to a user
type Notifier interface {
	SendReminder(userID int64, due int) error
}

// UserSource lists users subscribed to reminders at a given hour
type UserSource interface {
	GetUsersForNotification(ctx context.Context, hour int) ([]models.User, error)
}

// DashboardSource reports a user's progress
type DashboardSource interface {
	Dashboard(ctx context.Context, userID int64) (review.Dashboard, error)
}

// Options controls when reminders may be sent
type Options struct {
	StartHour int // first hour (inclusive) in which reminders are sent
	EndHour   int // last hour (inclusive)
	Location  *time.Location
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	cron     *gocron.Scheduler
	users    UserSource
	progress DashboardSource
	notifier Notifier
	opts     Options
	now      func() time.Time
	log      *logger.Logger
	ctx      context.Context
}

// New creates a new scheduler instance
func New(users UserSource, progress DashboardSource, notifier Notifier, opts Options, log *logger.Logger) *Scheduler {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	cron := gocron.NewScheduler(opts.Location)
	cron.SingletonModeAll()

	return &Scheduler{
		cron:     cron,
		users:    users,
		progress: progress,
		notifier: notifier,
		opts:     opts,
		now:      time.Now,
		log:      log,
		ctx:      context.Background(),
	}
}

// Start registers the hourly reminder job and runs the scheduler in the background
func (s *Scheduler) Start(ctx context.Context) error {
	s.ctx = ctx
	if _, err := s.cron.Cron("0 * * * *").Do(s.checkAndSendReminders); err != nil {
		return fmt.Errorf("failed to schedule reminders: %w", err)
	}
	s.cron.StartAsync()
	s.log.Info("Reminder scheduler started", "start_hour", s.opts.StartHour, "end_hour", s.opts.EndHour)
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

// inWindow reports whether hour falls in the notification window. A window
// whose start is after its end wraps around midnight.
func (s *Scheduler) inWindow(hour int) bool {
	if s.opts.StartHour <= s.opts.EndHour {
		return hour >= s.opts.StartHour && hour <= s.opts.EndHour
	}
	return hour >= s.opts.StartHour || hour <= s.opts.EndHour
}

func (s *Scheduler) checkAndSendReminders() {
	sent, err := s.SendDueReminders(s.ctx)
	if err != nil {
		s.log.Error("Reminder run failed", "error", err)
		return
	}
	s.log.Debug("Reminder run finished", "sent", sent)
}

// SendDueReminders notifies every user whose reminder hour is the current
// hour and who has words due. Returns the number of reminders sent.
func (s *Scheduler) SendDueReminders(ctx context.Context) (int, error) {
	hour := s.now().In(s.opts.Location).Hour()
	if !s.inWindow(hour) {
		s.log.Debug("Outside notification hours, skipping reminders",
			"hour", hour, "start_hour", s.opts.StartHour, "end_hour", s.opts.EndHour)
		return 0, nil
	}

	users, err := s.users.GetUsersForNotification(ctx, hour)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, user := range users {
		ok, err := s.remind(ctx, user.ID, user.WordsPerSession)
		if err != nil {
			s.log.Warn("Failed to send reminder", "user_id", user.ID, "error", err)
			continue
		}
		if ok {
			sent++
		}
	}
	return sent, nil
}

// RunManualCheck sends a reminder to one user right away if anything is due
func (s *Scheduler) RunManualCheck(ctx context.Context, userID int64) (bool, error) {
	return s.remind(ctx, userID, 0)
}

func (s *Scheduler) remind(ctx context.Context, userID int64, limit int) (bool, error) {
	d, err := s.progress.Dashboard(ctx, userID)
	if err != nil {
		return false, err
	}
	if d.DueToday == 0 {
		return false, nil
	}

	count := d.DueToday
	if limit > 0 && count > limit {
		count = limit
	}
	if err := s.notifier.SendReminder(userID, count); err != nil {
		return false, err
	}
	s.log.Info("Reminder sent", "user_id", userID, "due", count)
	return true, nil
}
