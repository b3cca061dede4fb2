package services

import (
	"testing"
	"time"

	"github.com/ouyangvase/task-sync-pilot-sub000/models"
)

func TestNextOccurrenceDaily(t *testing.T) {
	due := time.Date(2024, 1, 8, 14, 0, 0, 0, time.UTC)
	got := NextOccurrence(due, models.RecurrenceDaily)
	want := time.Date(2024, 1, 9, 14, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("daily: got %v, want %v", got, want)
	}
}

func TestNextOccurrenceDailyRoundTrip(t *testing.T) {
	d := time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)
	got := NextOccurrence(NextOccurrence(d, models.RecurrenceDaily), models.RecurrenceDaily)
	if want := d.AddDate(0, 0, 2); !got.Equal(want) {
		t.Fatalf("double daily: got %v, want %v", got, want)
	}
}

func TestNextOccurrenceWeekly(t *testing.T) {
	due := time.Date(2024, 1, 8, 14, 0, 0, 0, time.UTC)
	got := NextOccurrence(due, models.RecurrenceWeekly)
	want := time.Date(2024, 1, 15, 14, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("weekly: got %v, want %v", got, want)
	}
}

func TestNextOccurrenceMonthlyPreservesDay(t *testing.T) {
	due := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	got := NextOccurrence(due, models.RecurrenceMonthly)
	want := time.Date(2024, 2, 15, 10, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("monthly: got %v, want %v", got, want)
	}
}

func TestNextOccurrenceMonthlyClampsToLastDay(t *testing.T) {
	// Jan 31 -> Feb 29 in a leap year, not Mar 2.
	due := time.Date(2024, 1, 31, 8, 0, 0, 0, time.UTC)
	got := NextOccurrence(due, models.RecurrenceMonthly)
	want := time.Date(2024, 2, 29, 8, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("monthly clamp: got %v, want %v", got, want)
	}

	// Non-leap year clamps to Feb 28.
	due = time.Date(2023, 1, 31, 8, 0, 0, 0, time.UTC)
	got = NextOccurrence(due, models.RecurrenceMonthly)
	want = time.Date(2023, 2, 28, 8, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("monthly clamp non-leap: got %v, want %v", got, want)
	}
}

func TestNextOccurrenceMonthlyDecemberWraps(t *testing.T) {
	due := time.Date(2024, 12, 31, 8, 0, 0, 0, time.UTC)
	got := NextOccurrence(due, models.RecurrenceMonthly)
	want := time.Date(2025, 1, 31, 8, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("december wrap: got %v, want %v", got, want)
	}
}

func TestSpawnInstance(t *testing.T) {
	category := "reports"
	template := &models.Task{
		ID:          7,
		Title:       "Weekly report",
		Description: "Summarize the week",
		AssigneeID:  2,
		AssignedBy:  1,
		Status:      models.TaskCompleted,
		Priority:    "high",
		Category:    &category,
		Points:      75,
		DueDate:     time.Date(2024, 1, 8, 14, 0, 0, 0, time.UTC),
		Recurrence:  models.RecurrenceWeekly,
	}

	inst := SpawnInstance(template)
	if inst.Status != models.TaskPending {
		t.Fatalf("instance status = %q, want pending", inst.Status)
	}
	if !inst.IsRecurringInstance {
		t.Fatal("instance must be flagged as recurring instance")
	}
	if inst.ParentTaskID == nil || *inst.ParentTaskID != 7 {
		t.Fatalf("instance parent = %v, want 7", inst.ParentTaskID)
	}
	if want := time.Date(2024, 1, 15, 14, 0, 0, 0, time.UTC); !inst.DueDate.Equal(want) {
		t.Fatalf("instance due = %v, want %v", inst.DueDate, want)
	}
	if inst.NextOccurrenceDate == nil || !inst.NextOccurrenceDate.Equal(time.Date(2024, 1, 22, 14, 0, 0, 0, time.UTC)) {
		t.Fatalf("instance next occurrence = %v", inst.NextOccurrenceDate)
	}
	if inst.Points != 75 || inst.AssigneeID != 2 || inst.AssignedBy != 1 || inst.Priority != "high" {
		t.Fatal("instance must copy points, assignee, assignedBy and priority")
	}
	if inst.StartedAt != nil || inst.CompletedAt != nil {
		t.Fatal("instance must not inherit transition timestamps")
	}
}

func TestSpawnInstanceKeepsRootParent(t *testing.T) {
	root := uint(3)
	instance := &models.Task{
		ID:                  9,
		Title:               "Daily standup notes",
		AssigneeID:          2,
		AssignedBy:          1,
		Points:              10,
		DueDate:             time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC),
		Recurrence:          models.RecurrenceDaily,
		IsRecurringInstance: true,
		ParentTaskID:        &root,
	}
	next := SpawnInstance(instance)
	if next.ParentTaskID == nil || *next.ParentTaskID != root {
		t.Fatalf("chained instance parent = %v, want root %d", next.ParentTaskID, root)
	}
}

func TestOnceInvariant(t *testing.T) {
	task := &models.Task{ID: 1, Recurrence: models.RecurrenceOnce}
	if task.IsTemplate() {
		t.Fatal("a once task is never a template")
	}
	if task.ParentTaskID != nil || task.NextOccurrenceDate != nil {
		t.Fatal("a once task carries no recurrence fields")
	}
}
