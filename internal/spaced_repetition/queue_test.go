package spaced_repetition

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassify_NewItemIsDue(t *testing.T) {
	sm := NewSM2()
	for _, now := range []time.Time{{}, reviewTime, reviewTime.AddDate(5, 0, 0)} {
		c := sm.Classify(nil, now)
		assert.Equal(t, StatusDue, c.Status)
		assert.False(t, c.Mastered)
	}
}

func TestClassify_Boundaries(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		next time.Time
		want DueStatus
	}{
		{"overdue", now.Add(-48 * time.Hour), StatusDue},
		{"exactly now", now, StatusDue},
		{"one second ahead", now.Add(time.Second), StatusDueSoon},
		{"two days ahead", now.AddDate(0, 0, 2), StatusDueSoon},
		{"exactly three days ahead", now.Add(72 * time.Hour), StatusDueSoon},
		{"just past the window", now.Add(72*time.Hour + time.Second), StatusNotDue},
		{"next week", now.AddDate(0, 0, 7), StatusNotDue},
	}

	sm := NewSM2()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := sm.Classify(&State{EasinessFactor: 2.5, IntervalDays: 6, NextReviewDate: tt.next}, now)
			assert.Equal(t, tt.want, c.Status)
		})
	}
}

func TestClassify_MasteredIsIndependent(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	sm := NewSM2()

	overdue := sm.Classify(&State{IntervalDays: 45, NextReviewDate: now.AddDate(0, 0, -20)}, now)
	assert.Equal(t, StatusDue, overdue.Status)
	assert.True(t, overdue.Mastered)

	soon := sm.Classify(&State{IntervalDays: 31, NextReviewDate: now.AddDate(0, 0, 1)}, now)
	assert.Equal(t, StatusDueSoon, soon.Status)
	assert.True(t, soon.Mastered)

	edge := sm.Classify(&State{IntervalDays: 30, NextReviewDate: now.AddDate(0, 0, 10)}, now)
	assert.Equal(t, StatusNotDue, edge.Status)
	assert.False(t, edge.Mastered)
}

func TestClassify_Idempotent(t *testing.T) {
	sm := NewSM2()
	s := &State{EasinessFactor: 2.1, IntervalDays: 12, NextReviewDate: reviewTime.AddDate(0, 0, 2)}
	assert.Equal(t, sm.Classify(s, reviewTime), sm.Classify(s, reviewTime))
}

func TestPrioritize_Ordering(t *testing.T) {
	now := time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)

	items := []Item[string]{
		{Ref: "A"},
		{Ref: "B", State: &State{EasinessFactor: 2.0, NextReviewDate: yesterday}},
		{Ref: "C", State: &State{EasinessFactor: 1.5, NextReviewDate: yesterday}},
		{Ref: "D", State: &State{EasinessFactor: 2.5, NextReviewDate: now.AddDate(0, 0, 7)}},
	}

	assert.Equal(t, []string{"A", "C", "B", "D"}, Prioritize(items))
}

func TestPrioritize_NewItemsKeepInputOrder(t *testing.T) {
	now := time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)
	items := []Item[int]{
		{Ref: 1, State: &State{EasinessFactor: 2.5, NextReviewDate: now}},
		{Ref: 2},
		{Ref: 3, State: &State{EasinessFactor: 2.5, NextReviewDate: now.AddDate(0, 0, -3)}},
		{Ref: 4},
		{Ref: 5},
	}

	assert.Equal(t, []int{2, 4, 5, 3, 1}, Prioritize(items))
}

func TestPrioritize_FullTiesAreStable(t *testing.T) {
	now := time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)
	items := []Item[int]{
		{Ref: 10, State: &State{EasinessFactor: 2.0, NextReviewDate: now}},
		{Ref: 11, State: &State{EasinessFactor: 2.0, NextReviewDate: now}},
		{Ref: 12, State: &State{EasinessFactor: 2.0, NextReviewDate: now}},
	}
	assert.Equal(t, []int{10, 11, 12}, Prioritize(items))
}

func TestPrioritize_DoesNotReorderInput(t *testing.T) {
	now := time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)
	items := []Item[string]{
		{Ref: "late", State: &State{NextReviewDate: now}},
		{Ref: "new"},
	}
	_ = Prioritize(items)
	assert.Equal(t, "late", items[0].Ref)
}

func TestDueQueue_FiltersAndLimits(t *testing.T) {
	now := time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)
	sm := NewSM2()
	items := []Item[string]{
		{Ref: "future", State: &State{EasinessFactor: 2.5, NextReviewDate: now.AddDate(0, 0, 2)}},
		{Ref: "old", State: &State{EasinessFactor: 2.5, NextReviewDate: now.AddDate(0, 0, -5)}},
		{Ref: "fresh"},
		{Ref: "recent", State: &State{EasinessFactor: 2.5, NextReviewDate: now.AddDate(0, 0, -1)}},
	}

	assert.Equal(t, []string{"fresh", "old", "recent"}, DueQueue(sm, items, now, 0))
	assert.Equal(t, []string{"fresh", "old"}, DueQueue(sm, items, now, 2))
	assert.Empty(t, DueQueue(sm, []Item[string]{}, now, 5))
}

func TestSummarize_Empty(t *testing.T) {
	assert.Equal(t, Summary{}, Summarize[int](NewSM2(), nil, reviewTime))
}

func TestSummarize_Counts(t *testing.T) {
	now := time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)
	items := []Item[int]{
		{Ref: 1},
		{Ref: 2, State: &State{IntervalDays: 6, NextReviewDate: now.AddDate(0, 0, -1)}},
		{Ref: 3, State: &State{IntervalDays: 40, NextReviewDate: now.AddDate(0, 0, -2)}},
		{Ref: 4, State: &State{IntervalDays: 35, NextReviewDate: now.AddDate(0, 0, 2)}},
		{Ref: 5, State: &State{IntervalDays: 90, NextReviewDate: now.AddDate(0, 0, 60)}},
		{Ref: 6, State: &State{IntervalDays: 15, NextReviewDate: now.AddDate(0, 0, 10)}},
	}

	got := Summarize(NewSM2(), items, now)
	assert.Equal(t, Summary{DueToday: 3, DueSoon: 1, Mastered: 3, Total: 6}, got)
}
