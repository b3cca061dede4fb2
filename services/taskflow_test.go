package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ouyangvase/task-sync-pilot-sub000/models"
)

type flowFixture struct {
	flow   *TaskFlow
	tasks  *fakeTaskRepo
	users  *fakeUserRepo
	ledger *fakePointsRepo
	events *capturePublisher
	now    time.Time
}

func newFlowFixture(t *testing.T) *flowFixture {
	t.Helper()
	fx := &flowFixture{
		tasks:  newFakeTaskRepo(),
		ledger: newFakePointsRepo(),
		events: &capturePublisher{},
		now:    time.Date(2024, 1, 8, 14, 0, 0, 0, time.UTC),
	}
	fx.users = newFakeUserRepo(
		&models.User{ID: 1, Name: "Ada", Role: models.RoleAdmin},
		&models.User{ID: 2, Name: "Uma", Role: models.RoleEmployee},
		&models.User{ID: 3, Name: "Lee", Role: models.RoleTeamLead},
		&models.User{ID: 4, Name: "Mia", Role: models.RoleManager},
	)
	points := NewPoints(fx.ledger, &fakeRewardRepo{}, &fakeSettingRepo{target: 500})
	fx.flow = NewTaskFlow(fx.tasks, fx.users, points, fx.events)
	fx.flow.lookahead = 15 * time.Minute
	fx.flow.retries = 2
	fx.flow.backoff = time.Millisecond
	fx.flow.now = func() time.Time { return fx.now }
	return fx
}

func (fx *flowFixture) mustCreate(t *testing.T, input CreateTaskInput, actorID uint) *models.Task {
	t.Helper()
	task, err := fx.flow.Create(context.Background(), input, actorID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return task
}

func weeklyReport() CreateTaskInput {
	return CreateTaskInput{
		Title:      "Weekly report",
		AssigneeID: 2,
		Points:     75,
		DueDate:    time.Date(2024, 1, 8, 14, 0, 0, 0, time.UTC),
		Recurrence: models.RecurrenceWeekly,
	}
}

func TestCreateValidation(t *testing.T) {
	fx := newFlowFixture(t)
	ctx := context.Background()

	cases := []CreateTaskInput{
		{Title: "ab", AssigneeID: 2, Points: 10, DueDate: fx.now, Recurrence: "once"},
		{Title: "Valid title", AssigneeID: 0, Points: 10, DueDate: fx.now, Recurrence: "once"},
		{Title: "Valid title", AssigneeID: 2, Points: 0, DueDate: fx.now, Recurrence: "once"},
		{Title: "Valid title", AssigneeID: 2, Points: 10, Recurrence: "once"},
		{Title: "Valid title", AssigneeID: 2, Points: 10, DueDate: fx.now, Recurrence: "fortnightly"},
	}
	for i, input := range cases {
		_, err := fx.flow.Create(ctx, input, 1)
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("case %d: got %v, want ValidationError", i, err)
		}
	}
}

func TestCreateAuthorization(t *testing.T) {
	fx := newFlowFixture(t)
	ctx := context.Background()

	// Employees lack the create capability.
	_, err := fx.flow.Create(ctx, weeklyReport(), 2)
	var aErr *AuthorizationError
	if !errors.As(err, &aErr) {
		t.Fatalf("employee create: got %v, want AuthorizationError", err)
	}

	// Team lead cannot assign upward to a manager.
	input := weeklyReport()
	input.AssigneeID = 4
	_, err = fx.flow.Create(ctx, input, 3)
	if !errors.As(err, &aErr) {
		t.Fatalf("lead assigning to manager: got %v, want AuthorizationError", err)
	}

	// Team lead can assign to an employee.
	input = weeklyReport()
	if _, err := fx.flow.Create(ctx, input, 3); err != nil {
		t.Fatalf("lead assigning to employee: %v", err)
	}
}

func TestCreateSetsRecurrenceFields(t *testing.T) {
	fx := newFlowFixture(t)
	task := fx.mustCreate(t, weeklyReport(), 1)

	if task.Status != models.TaskPending {
		t.Fatalf("status = %q, want pending", task.Status)
	}
	if task.StartedAt != nil || task.CompletedAt != nil {
		t.Fatal("fresh task must not carry transition timestamps")
	}
	if task.NextOccurrenceDate == nil || !task.NextOccurrenceDate.Equal(time.Date(2024, 1, 15, 14, 0, 0, 0, time.UTC)) {
		t.Fatalf("next occurrence = %v", task.NextOccurrenceDate)
	}

	once := fx.mustCreate(t, CreateTaskInput{
		Title: "One-off fix", AssigneeID: 2, Points: 5,
		DueDate: fx.now, Recurrence: models.RecurrenceOnce,
	}, 1)
	if once.NextOccurrenceDate != nil || once.ParentTaskID != nil {
		t.Fatal("once task must not carry recurrence fields")
	}
}

func TestScenarioAAvailabilityWindow(t *testing.T) {
	fx := newFlowFixture(t)
	ctx := context.Background()
	task := fx.mustCreate(t, weeklyReport(), 1)

	// 13:00, an hour before due and outside the 15 minute lookahead.
	fx.now = time.Date(2024, 1, 8, 13, 0, 0, 0, time.UTC)
	_, err := fx.flow.Start(ctx, task.ID, 2)
	var naErr *NotActionableError
	if !errors.As(err, &naErr) {
		t.Fatalf("early start: got %v, want NotActionableError", err)
	}

	// At the due date the window is open.
	fx.now = time.Date(2024, 1, 8, 14, 0, 0, 0, time.UTC)
	started, err := fx.flow.Start(ctx, task.ID, 2)
	if err != nil {
		t.Fatalf("start at due date: %v", err)
	}
	if started.Status != models.TaskInProgress {
		t.Fatalf("status = %q, want in_progress", started.Status)
	}
	if started.StartedAt == nil || !started.StartedAt.Equal(fx.now) {
		t.Fatalf("started_at = %v, want %v", started.StartedAt, fx.now)
	}
}

func TestStartOnlyAssignee(t *testing.T) {
	fx := newFlowFixture(t)
	task := fx.mustCreate(t, weeklyReport(), 1)

	_, err := fx.flow.Start(context.Background(), task.ID, 3)
	var aErr *AuthorizationError
	if !errors.As(err, &aErr) {
		t.Fatalf("non-assignee start: got %v, want AuthorizationError", err)
	}
}

func TestCompleteFromPendingRejected(t *testing.T) {
	fx := newFlowFixture(t)
	ctx := context.Background()
	task := fx.mustCreate(t, weeklyReport(), 1)

	_, err := fx.flow.Complete(ctx, task.ID, 2)
	var naErr *NotActionableError
	if !errors.As(err, &naErr) {
		t.Fatalf("complete pending: got %v, want NotActionableError", err)
	}
	stored, _ := fx.tasks.FindByID(ctx, task.ID)
	if stored.Status != models.TaskPending {
		t.Fatalf("status mutated to %q on rejected transition", stored.Status)
	}
	if total, _ := fx.ledger.Total(ctx, 2, 1, 2024); total != 0 {
		t.Fatalf("ledger credited %d on rejected transition", total)
	}
}

func TestScenarioBCompleteCreditsAndSpawns(t *testing.T) {
	fx := newFlowFixture(t)
	ctx := context.Background()
	task := fx.mustCreate(t, weeklyReport(), 1)

	if _, err := fx.flow.Start(ctx, task.ID, 2); err != nil {
		t.Fatalf("start: %v", err)
	}
	completed, err := fx.flow.Complete(ctx, task.ID, 2)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if completed.Status != models.TaskCompleted || completed.CompletedAt == nil {
		t.Fatalf("completed = %+v", completed)
	}

	if total, _ := fx.ledger.Total(ctx, 2, 1, 2024); total != 75 {
		t.Fatalf("january ledger = %d, want 75", total)
	}

	// The next weekly instance exists with the original as parent.
	instances, _ := fx.tasks.ListByAssignee(ctx, 2)
	var spawned *models.Task
	for i := range instances {
		if instances[i].IsRecurringInstance {
			spawned = &instances[i]
		}
	}
	if spawned == nil {
		t.Fatal("no instance spawned on completion")
	}
	if spawned.ParentTaskID == nil || *spawned.ParentTaskID != task.ID {
		t.Fatalf("instance parent = %v, want %d", spawned.ParentTaskID, task.ID)
	}
	if want := time.Date(2024, 1, 15, 14, 0, 0, 0, time.UTC); !spawned.DueDate.Equal(want) {
		t.Fatalf("instance due = %v, want %v", spawned.DueDate, want)
	}
	if spawned.Status != models.TaskPending {
		t.Fatalf("instance status = %q, want pending", spawned.Status)
	}
}

func TestSpawnIdempotence(t *testing.T) {
	fx := newFlowFixture(t)
	ctx := context.Background()
	task := fx.mustCreate(t, weeklyReport(), 1)
	stored, _ := fx.tasks.FindByID(ctx, task.ID)

	if err := fx.flow.spawnNext(ctx, stored); err != nil {
		t.Fatalf("first spawn: %v", err)
	}
	if err := fx.flow.spawnNext(ctx, stored); err != nil {
		t.Fatalf("second spawn: %v", err)
	}

	all, _ := fx.tasks.ListByAssignee(ctx, 2)
	instances := 0
	for _, task := range all {
		if task.IsRecurringInstance {
			instances++
		}
	}
	if instances != 1 {
		t.Fatalf("spawned %d instances for one occurrence window, want 1", instances)
	}
}

func TestScenarioCDeleteRequiresAdmin(t *testing.T) {
	fx := newFlowFixture(t)
	ctx := context.Background()
	input := weeklyReport()
	input.AssigneeID = 4
	task := fx.mustCreate(t, input, 1)

	err := fx.flow.Delete(ctx, task.ID, 3)
	var aErr *AuthorizationError
	if !errors.As(err, &aErr) {
		t.Fatalf("team lead delete: got %v, want AuthorizationError", err)
	}
	if _, err := fx.tasks.FindByID(ctx, task.ID); err != nil {
		t.Fatal("task must survive an unauthorized delete")
	}
}

func TestDeleteTemplateCascades(t *testing.T) {
	fx := newFlowFixture(t)
	ctx := context.Background()
	task := fx.mustCreate(t, weeklyReport(), 1)
	stored, _ := fx.tasks.FindByID(ctx, task.ID)
	if err := fx.flow.spawnNext(ctx, stored); err != nil {
		t.Fatalf("spawn: %v", err)
	}

	if err := fx.flow.Delete(ctx, task.ID, 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	remaining, _ := fx.tasks.ListByAssignee(ctx, 2)
	if len(remaining) != 0 {
		t.Fatalf("%d tasks survive template deletion, want 0", len(remaining))
	}
}

func TestUpdateMergesAndKeepsOnceInvariant(t *testing.T) {
	fx := newFlowFixture(t)
	ctx := context.Background()
	task := fx.mustCreate(t, weeklyReport(), 1)

	newTitle := "Weekly report v2"
	once := models.RecurrenceOnce
	updated, err := fx.flow.Update(ctx, task.ID, TaskPatch{Title: &newTitle, Recurrence: &once}, 1)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != newTitle {
		t.Fatalf("title = %q", updated.Title)
	}
	if updated.NextOccurrenceDate != nil || updated.ParentTaskID != nil {
		t.Fatal("switching to once must clear recurrence fields")
	}
	if updated.Status != models.TaskPending {
		t.Fatalf("update must not touch status, got %q", updated.Status)
	}
}

func TestUpdateUnknownTask(t *testing.T) {
	fx := newFlowFixture(t)
	title := "Renamed"
	_, err := fx.flow.Update(context.Background(), 9999, TaskPatch{Title: &title}, 1)
	var nfErr *NotFoundError
	if !errors.As(err, &nfErr) {
		t.Fatalf("got %v, want NotFoundError", err)
	}
}

func TestStartConflictOnConcurrentTransition(t *testing.T) {
	fx := newFlowFixture(t)
	ctx := context.Background()
	task := fx.mustCreate(t, weeklyReport(), 1)

	// A concurrent winner flips the persisted status between our read and
	// our conditioned write.
	fired := false
	fx.tasks.afterFind = func() {
		if fired {
			return
		}
		fired = true
		fx.tasks.mu.Lock()
		fx.tasks.tasks[task.ID].Status = models.TaskInProgress
		fx.tasks.mu.Unlock()
	}

	_, err := fx.flow.Start(ctx, task.ID, 2)
	var cErr *ConflictError
	if !errors.As(err, &cErr) {
		t.Fatalf("got %v, want ConflictError", err)
	}
}

func TestCompleteRollbackOnPersistenceFailure(t *testing.T) {
	fx := newFlowFixture(t)
	ctx := context.Background()
	task := fx.mustCreate(t, weeklyReport(), 1)
	if _, err := fx.flow.Start(ctx, task.ID, 2); err != nil {
		t.Fatalf("start: %v", err)
	}

	// Exhaust the retry budget (retries=2 means 3 attempts).
	fx.tasks.failWrites = 10
	_, err := fx.flow.Complete(ctx, task.ID, 2)
	var pErr *PersistenceError
	if !errors.As(err, &pErr) {
		t.Fatalf("got %v, want PersistenceError", err)
	}
	fx.tasks.failWrites = 0

	// Status untouched, points credit reverted: the rollback is atomic
	// across both.
	stored, _ := fx.tasks.FindByID(ctx, task.ID)
	if stored.Status != models.TaskInProgress || stored.CompletedAt != nil {
		t.Fatalf("stored after rollback = %+v", stored)
	}
	if total, _ := fx.ledger.Total(ctx, 2, 1, 2024); total != 0 {
		t.Fatalf("ledger after rollback = %d, want 0", total)
	}
}

func TestConcurrentCompletionsCreditExactly(t *testing.T) {
	fx := newFlowFixture(t)
	ctx := context.Background()

	ids := make([]uint, 0, 100)
	for i := 0; i < 100; i++ {
		task := fx.mustCreate(t, CreateTaskInput{
			Title: "Unit of work", AssigneeID: 2, Points: 10,
			DueDate: fx.now, Recurrence: models.RecurrenceOnce,
		}, 1)
		if _, err := fx.flow.Start(ctx, task.ID, 2); err != nil {
			t.Fatalf("start %d: %v", task.ID, err)
		}
		ids = append(ids, task.ID)
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id uint) {
			defer wg.Done()
			if _, err := fx.flow.Complete(ctx, id, 2); err != nil {
				t.Errorf("complete %d: %v", id, err)
			}
		}(id)
	}
	wg.Wait()

	if total, _ := fx.ledger.Total(ctx, 2, 1, 2024); total != 1000 {
		t.Fatalf("ledger = %d, want 1000", total)
	}
}

func TestSweepSpawnsMissedOccurrence(t *testing.T) {
	fx := newFlowFixture(t)
	ctx := context.Background()
	task := fx.mustCreate(t, weeklyReport(), 1)

	// Nobody touched the template; a week later the sweep covers the gap.
	fx.now = time.Date(2024, 1, 16, 9, 0, 0, 0, time.UTC)
	if err := fx.flow.Sweep(ctx); err != nil {
		t.Fatalf("sweep: %v", err)
	}

	all, _ := fx.tasks.ListByAssignee(ctx, 2)
	instances := 0
	for _, candidate := range all {
		if candidate.IsRecurringInstance && candidate.ParentTaskID != nil && *candidate.ParentTaskID == task.ID {
			instances++
		}
	}
	if instances != 1 {
		t.Fatalf("sweep spawned %d instances, want 1", instances)
	}

	// Running again inside the same window adds nothing.
	if err := fx.flow.Sweep(ctx); err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	all, _ = fx.tasks.ListByAssignee(ctx, 2)
	instances = 0
	for _, candidate := range all {
		if candidate.IsRecurringInstance {
			instances++
		}
	}
	if instances != 1 {
		t.Fatalf("second sweep duplicated instances: %d", instances)
	}
}

func TestSweepDoesNotPreSpawnAfterCompletion(t *testing.T) {
	fx := newFlowFixture(t)
	ctx := context.Background()
	task := fx.mustCreate(t, weeklyReport(), 1)

	// Completing the task spawns the 01-15 instance and moves the template
	// pointer to the following occurrence.
	if _, err := fx.flow.Start(ctx, task.ID, 2); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := fx.flow.Complete(ctx, task.ID, 2); err != nil {
		t.Fatalf("complete: %v", err)
	}
	root, _ := fx.tasks.FindByID(ctx, task.ID)
	if want := time.Date(2024, 1, 22, 14, 0, 0, 0, time.UTC); root.NextOccurrenceDate == nil || !root.NextOccurrenceDate.Equal(want) {
		t.Fatalf("template pointer = %v, want %v", root.NextOccurrenceDate, want)
	}

	// A sweep while the 01-15 instance is still pending must not materialize
	// the 01-22 occurrence ahead of its window.
	if err := fx.flow.Sweep(ctx); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	all, _ := fx.tasks.ListByAssignee(ctx, 2)
	instances := 0
	for _, candidate := range all {
		if candidate.IsRecurringInstance {
			instances++
			if want := time.Date(2024, 1, 15, 14, 0, 0, 0, time.UTC); !candidate.DueDate.Equal(want) {
				t.Fatalf("instance due = %v, want %v", candidate.DueDate, want)
			}
		}
	}
	if instances != 1 {
		t.Fatalf("%d instances after sweep, want 1", instances)
	}

	// Once the 01-15 window has passed uncompleted, the sweep covers it.
	fx.now = time.Date(2024, 1, 23, 9, 0, 0, 0, time.UTC)
	if err := fx.flow.Sweep(ctx); err != nil {
		t.Fatalf("catch-up sweep: %v", err)
	}
	all, _ = fx.tasks.ListByAssignee(ctx, 2)
	instances = 0
	for _, candidate := range all {
		if candidate.IsRecurringInstance {
			instances++
		}
	}
	if instances != 2 {
		t.Fatalf("%d instances after catch-up sweep, want 2", instances)
	}
}

func TestVisibleTasksFollowsAuthorization(t *testing.T) {
	fx := newFlowFixture(t)
	ctx := context.Background()

	fx.mustCreate(t, weeklyReport(), 1) // assigned to employee 2
	managerTask := weeklyReport()
	managerTask.AssigneeID = 4
	fx.mustCreate(t, managerTask, 1)

	// Team lead sees the employee's task, not the manager's.
	visible, err := fx.flow.VisibleTasks(ctx, 3)
	if err != nil {
		t.Fatalf("visible tasks: %v", err)
	}
	if len(visible) != 1 || visible[0].AssigneeID != 2 {
		t.Fatalf("team lead sees %+v", visible)
	}

	// Admin sees both.
	visible, err = fx.flow.VisibleTasks(ctx, 1)
	if err != nil {
		t.Fatalf("visible tasks: %v", err)
	}
	if len(visible) != 2 {
		t.Fatalf("admin sees %d tasks, want 2", len(visible))
	}
}

func TestCompletedEventPublished(t *testing.T) {
	fx := newFlowFixture(t)
	ctx := context.Background()
	task := fx.mustCreate(t, weeklyReport(), 1)
	if _, err := fx.flow.Start(ctx, task.ID, 2); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := fx.flow.Complete(ctx, task.ID, 2); err != nil {
		t.Fatalf("complete: %v", err)
	}

	completed := fx.events.byType(EventTaskCompleted)
	if len(completed) != 1 {
		t.Fatalf("%d completed events, want 1", len(completed))
	}
	if completed[0].TaskID != task.ID || completed[0].Points != 75 {
		t.Fatalf("event = %+v", completed[0])
	}
}
