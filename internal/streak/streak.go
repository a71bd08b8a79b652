// Package streak derives consecutive-day streaks from a task's completion dates.
package streak

import (
	"slices"

	"daily-tracker/internal/date"
)

// State is the streak summary of one task.
type State struct {
	CurrentStreak      int
	LongestStreak      int
	LastCompletionDate *date.Date
	StreakStartDate    *date.Date
}

// Calculate rebuilds the streak state from the full completion history.
//
// The dates are walked most recent first as a single fold carrying the length
// of the run in progress, the longest run seen and the run anchored at the
// most recent date. Two neighbours continue a run only when they are exactly
// one calendar day apart; a repeated date or a longer gap starts a new run.
// The input order does not matter and the slice is not modified.
func Calculate(dates []date.Date) State {
	if len(dates) == 0 {
		return State{}
	}

	sorted := slices.Clone(dates)
	slices.SortFunc(sorted, func(a, b date.Date) int { return b.Compare(a) })

	run, longest := 1, 1
	current, start := 1, sorted[0]
	trailing := true
	for i := 1; i < len(sorted); i++ {
		if sorted[i-1].Sub(sorted[i]) == 1 {
			run++
		} else {
			run = 1
			trailing = false
		}
		if trailing {
			current, start = run, sorted[i]
		}
		longest = max(longest, run)
	}

	last := sorted[0]
	return State{
		CurrentStreak:      current,
		LongestStreak:      longest,
		LastCompletionDate: &last,
		StreakStartDate:    &start,
	}
}
