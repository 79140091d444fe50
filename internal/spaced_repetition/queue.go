package spaced_repetition

import (
	"sort"
	"time"
)

// DueStatus describes when an item should next be studied
type DueStatus string

const (
	StatusDue     DueStatus = "due"
	StatusDueSoon DueStatus = "due_soon"
	StatusNotDue  DueStatus = "not_due"
)

// Classification is the due status of an item plus its mastery tag.
// Mastered is independent of Status: an overdue item can still be mastered.
type Classification struct {
	Status   DueStatus
	Mastered bool
}

// Item pairs a caller-defined reference with its scheduling state
type Item[T any] struct {
	Ref   T
	State *State
}

// Summary holds dashboard counters over a collection of items
type Summary struct {
	DueToday int `json:"due_today"`
	DueSoon  int `json:"due_soon"`
	Mastered int `json:"mastered"`
	Total    int `json:"total"`
}

// Classify determines whether state is due at now. New items are always due.
func (sm *SM2) Classify(state *State, now time.Time) Classification {
	if state == nil {
		return Classification{Status: StatusDue}
	}

	c := Classification{
		Status:   StatusNotDue,
		Mastered: state.IntervalDays > sm.MasteredAfterDays,
	}
	switch {
	case !state.NextReviewDate.After(now):
		c.Status = StatusDue
	case !state.NextReviewDate.After(now.Add(sm.DueSoonWindow)):
		c.Status = StatusDueSoon
	}
	return c
}

// IsDue reports whether the item should be in today's session
func (sm *SM2) IsDue(state *State, now time.Time) bool {
	return sm.Classify(state, now).Status == StatusDue
}

// Prioritize orders items for a study session:
//  1. never-reviewed items first, in input order
//  2. earlier next review date (most overdue) first
//  3. lower easiness factor first when dates are equal
//
// Remaining ties keep their input order.
func Prioritize[T any](items []Item[T]) []T {
	sorted := make([]Item[T], len(items))
	copy(sorted, items)

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].State, sorted[j].State
		if a == nil || b == nil {
			return a == nil && b != nil
		}
		if !a.NextReviewDate.Equal(b.NextReviewDate) {
			return a.NextReviewDate.Before(b.NextReviewDate)
		}
		return a.EasinessFactor < b.EasinessFactor
	})

	refs := make([]T, len(sorted))
	for i, it := range sorted {
		refs[i] = it.Ref
	}
	return refs
}

// DueQueue filters items that are due at now, prioritizes them and keeps at
// most limit entries. A limit <= 0 keeps all of them.
func DueQueue[T any](sm *SM2, items []Item[T], now time.Time, limit int) []T {
	due := make([]Item[T], 0, len(items))
	for _, it := range items {
		if sm.IsDue(it.State, now) {
			due = append(due, it)
		}
	}

	refs := Prioritize(due)
	if limit > 0 && len(refs) > limit {
		return refs[:limit]
	}
	return refs
}

// Summarize counts due, due-soon and mastered items relative to now
func Summarize[T any](sm *SM2, items []Item[T], now time.Time) Summary {
	s := Summary{Total: len(items)}
	for _, it := range items {
		c := sm.Classify(it.State, now)
		switch c.Status {
		case StatusDue:
			s.DueToday++
		case StatusDueSoon:
			s.DueSoon++
		}
		if c.Mastered {
			s.Mastered++
		}
	}
	return s
}
