// Package streak counts consecutive days of study activity.
package streak

import (
	"time"

	"github.com/example/lingua/pkg/models"
)

// Record registers activity at the given moment. Days are calendar days in
// at's location; several reviews on the same day count once.
func Record(s models.UserStreak, at time.Time) models.UserStreak {
	day := truncateDay(at)
	s.TotalReviews++

	switch {
	case s.LastActiveDate.IsZero():
		s.CurrentStreak = 1
	case day.Equal(truncateDay(s.LastActiveDate.In(at.Location()))):
		// already counted today
		if s.CurrentStreak == 0 {
			s.CurrentStreak = 1
		}
	case day.Equal(truncateDay(s.LastActiveDate.In(at.Location())).AddDate(0, 0, 1)):
		s.CurrentStreak++
	default:
		s.CurrentStreak = 1
	}

	if s.CurrentStreak > s.LongestStreak {
		s.LongestStreak = s.CurrentStreak
	}
	s.LastActiveDate = day
	return s
}

// Active returns the streak length as of now: it is still alive if the last
// activity happened today or yesterday, otherwise it has lapsed to zero.
func Active(s models.UserStreak, now time.Time) int {
	if s.LastActiveDate.IsZero() {
		return 0
	}
	today := truncateDay(now)
	last := truncateDay(s.LastActiveDate.In(now.Location()))
	if last.Equal(today) || last.AddDate(0, 0, 1).Equal(today) {
		return s.CurrentStreak
	}
	return 0
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
