package services

import (
	"time"

	"github.com/ouyangvase/task-sync-pilot-sub000/models"
)

// Recurrence generation. Pure: nothing here touches storage; the task flow
// owns the idempotence check and the actual insert.

// NextOccurrence computes the due date of the occurrence after due. Monthly
// recurrence preserves the day of month and clamps to the last day when the
// target month is shorter (due on Jan 31 -> Feb 28/29). Once is the
// identity; callers must not ask for a next occurrence of a one-time task.
func NextOccurrence(due time.Time, recurrence string) time.Time {
	switch recurrence {
	case models.RecurrenceDaily:
		return due.AddDate(0, 0, 1)
	case models.RecurrenceWeekly:
		return due.AddDate(0, 0, 7)
	case models.RecurrenceMonthly:
		return addMonthClamped(due)
	default:
		return due
	}
}

// SpawnInstance builds the next dated instance of a recurring template. The
// instance always points at the root template, never at an intermediate
// instance, so a chain of completions keeps one parent id.
func SpawnInstance(template *models.Task) *models.Task {
	due := NextOccurrence(template.DueDate, template.Recurrence)
	next := NextOccurrence(due, template.Recurrence)
	parent := template.RootTemplateID()

	return &models.Task{
		Title:               template.Title,
		Description:         template.Description,
		AssigneeID:          template.AssigneeID,
		AssignedBy:          template.AssignedBy,
		Status:              models.TaskPending,
		Priority:            template.Priority,
		Category:            template.Category,
		Points:              template.Points,
		DueDate:             due,
		Recurrence:          template.Recurrence,
		IsRecurringInstance: true,
		ParentTaskID:        &parent,
		NextOccurrenceDate:  &next,
	}
}

// addMonthClamped adds one calendar month. time.AddDate normalizes overflow
// (Jan 31 + 1 month = Mar 3), so the clamp is done by hand.
func addMonthClamped(t time.Time) time.Time {
	year, month, day := t.Date()
	month++
	if month > time.December {
		month = time.January
		year++
	}
	if last := daysIn(year, month); day > last {
		day = last
	}
	h, m, s := t.Clock()
	return time.Date(year, month, day, h, m, s, t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
