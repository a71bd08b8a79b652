// Package occurrence decides on which calendar dates a task is due.
//
// The per-date task list and the statistics aggregator both go through IsDue,
// so "what is due" never diverges between the two.
package occurrence

import (
	"daily-tracker/internal/date"
	"daily-tracker/internal/model"
)

// IsDue reports whether task applies on day.
//
// Inactive tasks are never due. Daily tasks are due on every date, including
// dates before the task was created; callers that need a lower bound apply it
// themselves. Date-specific tasks are due only on their due date.
func IsDue(task model.Task, day date.Date) bool {
	if !task.Active {
		return false
	}
	switch task.Recurrence {
	case model.RecurrenceDaily:
		return true
	case model.RecurrenceDateSpecific:
		return task.DueDate != nil && *task.DueDate == day
	default:
		return false
	}
}

// FilterDue keeps the tasks that are due on day, preserving order.
func FilterDue(tasks []model.Task, day date.Date) []model.Task {
	due := make([]model.Task, 0, len(tasks))
	for _, task := range tasks {
		if IsDue(task, day) {
			due = append(due, task)
		}
	}
	return due
}
