package domain

import (
	"strings"
	"time"
)

type SprintState string

const (
	SprintCurrent SprintState = "current"
	SprintPast    SprintState = "past"
	SprintFuture  SprintState = "future"
	SprintUnknown SprintState = "unknown"
)

// DeriveSprintState classifies a sprint against the given clock. The state is
// derived, never authoritative: callers must recompute it on every read or
// write so it cannot drift from the calendar.
func DeriveSprintState(start, finish *time.Time, now time.Time) SprintState {
	if start == nil || finish == nil {
		return SprintUnknown
	}
	switch {
	case now.Before(*start):
		return SprintFuture
	case now.After(*finish):
		return SprintPast
	default:
		return SprintCurrent
	}
}

// WithDerivedState returns the sprint with State recomputed against now.
func (s Sprint) WithDerivedState(now time.Time) Sprint {
	s.State = DeriveSprintState(s.StartDate, s.FinishDate, now)
	return s
}

type StateCategory string

const (
	StateCompleted  StateCategory = "completed"
	StateInProgress StateCategory = "inProgress"
	StateBlocked    StateCategory = "blocked"
	StateOther      StateCategory = "other"
)

// stateBuckets maps free-text work item states onto completion buckets by
// substring. The remote platform allows arbitrary process-defined state names,
// so this is a deliberately loose match rather than a closed enum:
//
//	done, closed, resolved          -> completed
//	active, progress, committed     -> inProgress
//	blocked, removed                -> blocked
//
// First matching bucket wins; anything else is uncategorized.
var stateBuckets = []struct {
	category   StateCategory
	substrings []string
}{
	{StateCompleted, []string{"done", "closed", "resolved"}},
	{StateInProgress, []string{"active", "progress", "committed"}},
	{StateBlocked, []string{"blocked", "removed"}},
}

func ClassifyWorkItemState(state string) StateCategory {
	lower := strings.ToLower(state)
	for _, bucket := range stateBuckets {
		for _, sub := range bucket.substrings {
			if strings.Contains(lower, sub) {
				return bucket.category
			}
		}
	}
	return StateOther
}
