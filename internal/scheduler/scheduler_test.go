package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/lingua/internal/logger"
	"github.com/example/lingua/internal/review"
	sr "github.com/example/lingua/internal/spaced_repetition"
	"github.com/example/lingua/pkg/models"
)

type fakeUsers struct {
	byHour map[int][]models.User
	err    error
}

func (f *fakeUsers) GetUsersForNotification(_ context.Context, hour int) ([]models.User, error) {
	return f.byHour[hour], f.err
}

type fakeDashboards map[int64]int

func (f fakeDashboards) Dashboard(_ context.Context, userID int64) (review.Dashboard, error) {
	due, ok := f[userID]
	if !ok {
		return review.Dashboard{}, errors.New("no such user")
	}
	return review.Dashboard{Summary: sr.Summary{DueToday: due, Total: due}}, nil
}

type sentReminder struct {
	userID int64
	due    int
}

type fakeNotifier struct {
	sent []sentReminder
	fail map[int64]bool
}

func (f *fakeNotifier) SendReminder(userID int64, due int) error {
	if f.fail[userID] {
		return errors.New("blocked by user")
	}
	f.sent = append(f.sent, sentReminder{userID, due})
	return nil
}

func newTestScheduler(users UserSource, dash DashboardSource, n Notifier, at time.Time) *Scheduler {
	s := New(users, dash, n, Options{StartHour: 8, EndHour: 22}, logger.Nop())
	s.now = func() time.Time { return at }
	return s
}

func TestSendDueReminders(t *testing.T) {
	users := &fakeUsers{byHour: map[int][]models.User{
		10: {
			{ID: 1, WordsPerSession: 10},
			{ID: 2, WordsPerSession: 5},
			{ID: 3, WordsPerSession: 10},
			{ID: 4},
			{ID: 5, WordsPerSession: 10},
		},
	}}
	dash := fakeDashboards{1: 4, 2: 12, 3: 0, 4: 30}
	n := &fakeNotifier{}

	s := newTestScheduler(users, dash, n, time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC))
	sent, err := s.SendDueReminders(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, sent)
	assert.Equal(t, []sentReminder{{1, 4}, {2, 5}, {4, 30}}, n.sent)
}

func TestSendDueReminders_OutsideWindow(t *testing.T) {
	users := &fakeUsers{byHour: map[int][]models.User{23: {{ID: 1}}}}
	n := &fakeNotifier{}

	s := newTestScheduler(users, fakeDashboards{1: 3}, n, time.Date(2025, 5, 1, 23, 0, 0, 0, time.UTC))
	sent, err := s.SendDueReminders(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Empty(t, n.sent)
}

func TestSendDueReminders_NotifierFailureSkipsUser(t *testing.T) {
	users := &fakeUsers{byHour: map[int][]models.User{9: {{ID: 1}, {ID: 2}}}}
	n := &fakeNotifier{fail: map[int64]bool{1: true}}

	s := newTestScheduler(users, fakeDashboards{1: 2, 2: 2}, n, time.Date(2025, 5, 1, 9, 30, 0, 0, time.UTC))
	sent, err := s.SendDueReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, []sentReminder{{2, 2}}, n.sent)
}

func TestSendDueReminders_UserSourceError(t *testing.T) {
	users := &fakeUsers{err: errors.New("db down")}
	s := newTestScheduler(users, fakeDashboards{}, &fakeNotifier{}, time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC))

	_, err := s.SendDueReminders(context.Background())
	assert.Error(t, err)
}

func TestInWindow(t *testing.T) {
	s := New(nil, nil, nil, Options{StartHour: 8, EndHour: 22}, logger.Nop())
	assert.True(t, s.inWindow(8))
	assert.True(t, s.inWindow(22))
	assert.False(t, s.inWindow(7))
	assert.False(t, s.inWindow(23))

	overnight := New(nil, nil, nil, Options{StartHour: 20, EndHour: 2}, logger.Nop())
	assert.True(t, overnight.inWindow(23))
	assert.True(t, overnight.inWindow(1))
	assert.False(t, overnight.inWindow(12))
}

func TestRunManualCheck(t *testing.T) {
	n := &fakeNotifier{}
	s := newTestScheduler(&fakeUsers{}, fakeDashboards{7: 25, 8: 0}, n, time.Date(2025, 5, 1, 3, 0, 0, 0, time.UTC))

	ok, err := s.RunManualCheck(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.RunManualCheck(context.Background(), 8)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.RunManualCheck(context.Background(), 9)
	assert.Error(t, err)

	assert.Equal(t, []sentReminder{{7, 25}}, n.sent)
}
