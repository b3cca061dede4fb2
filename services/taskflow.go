package services

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/ouyangvase/task-sync-pilot-sub000/models"
)

// Default policy knobs. Lookahead bounds how far before its due date a task
// becomes actionable; persistence writes get a small bounded retry budget
// before the rollback path runs.
const (
	DefaultLookahead      = 15 * time.Minute
	DefaultPersistRetries = 3
	DefaultPersistBackoff = 100 * time.Millisecond
)

// TaskFlow owns the task lifecycle state machine. Every mutation checks the
// authorization model, transitions are conditioned on the persisted status at
// write time, and completion drives the points engine and the recurrence
// spawner. The controller holds no global state.
type TaskFlow struct {
	tasks  TaskRepository
	users  UserRepository
	points *Points
	events EventPublisher

	lookahead time.Duration
	retries   int
	backoff   time.Duration
	now       func() time.Time
}

func NewTaskFlow(tasks TaskRepository, users UserRepository, points *Points, events EventPublisher) *TaskFlow {
	if events == nil {
		events = NopPublisher{}
	}
	return &TaskFlow{
		tasks:     tasks,
		users:     users,
		points:    points,
		events:    events,
		lookahead: lookaheadFromEnv(),
		retries:   DefaultPersistRetries,
		backoff:   DefaultPersistBackoff,
		now:       time.Now,
	}
}

func lookaheadFromEnv() time.Duration {
	if v := os.Getenv("TASK_LOOKAHEAD_MIN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return time.Duration(n) * time.Minute
		}
	}
	return DefaultLookahead
}

// CreateTaskInput carries the caller-supplied fields for a new task.
type CreateTaskInput struct {
	Title       string
	Description string
	AssigneeID  uint
	Priority    string
	Category    *string
	Points      int
	DueDate     time.Time
	Recurrence  string
}

// TaskPatch carries a partial update. Nil fields are left untouched. Status
// is deliberately absent: status only moves through Start/Complete.
type TaskPatch struct {
	Title       *string
	Description *string
	AssigneeID  *uint
	Priority    *string
	Category    *string
	Points      *int
	DueDate     *time.Time
	Recurrence  *string
}

// Create validates the input, checks that the actor may create tasks and
// edit the assignee, and persists a pending task. Recurring tasks get their
// first next-occurrence date computed up front.
func (f *TaskFlow) Create(ctx context.Context, input CreateTaskInput, actorID uint) (*models.Task, error) {
	actor, err := f.loadUser(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}
	assignee, err := f.loadUser(ctx, input.AssigneeID)
	if err != nil {
		return nil, err
	}
	if !HasCapability(actor.Role, CapCreateTasks) || !CanEdit(actor, assignee) {
		return nil, &AuthorizationError{Reason: "not allowed to assign tasks to this user"}
	}

	task := &models.Task{
		Title:       input.Title,
		Description: input.Description,
		AssigneeID:  input.AssigneeID,
		AssignedBy:  actor.ID,
		Status:      models.TaskPending,
		Priority:    priorityOrDefault(input.Priority),
		Category:    input.Category,
		Points:      input.Points,
		DueDate:     input.DueDate,
		Recurrence:  input.Recurrence,
	}
	if task.Recurrence != models.RecurrenceOnce {
		next := NextOccurrence(task.DueDate, task.Recurrence)
		task.NextOccurrenceDate = &next
	}

	if err := f.persistWithRetry(ctx, "create task", func(ctx context.Context) error {
		return f.tasks.Create(ctx, task)
	}); err != nil {
		return nil, err
	}
	f.publish(ctx, Event{Type: EventTaskCreated, TaskID: task.ID, UserID: task.AssigneeID, At: f.now()})
	return task, nil
}

// Update merges a patch into an existing task. The actor needs edit
// authorization over the task's assignee (and over a new assignee when the
// patch moves the task).
func (f *TaskFlow) Update(ctx context.Context, taskID uint, patch TaskPatch, actorID uint) (*models.Task, error) {
	actor, err := f.loadUser(ctx, actorID)
	if err != nil {
		return nil, err
	}
	task, err := f.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	assignee, err := f.loadUser(ctx, task.AssigneeID)
	if err != nil {
		return nil, err
	}
	if !HasCapability(actor.Role, CapEditTasks) || !CanEdit(actor, assignee) {
		return nil, &AuthorizationError{Reason: "not allowed to edit this task"}
	}
	if patch.AssigneeID != nil && *patch.AssigneeID != task.AssigneeID {
		next, err := f.loadUser(ctx, *patch.AssigneeID)
		if err != nil {
			return nil, err
		}
		if !CanEdit(actor, next) {
			return nil, &AuthorizationError{Reason: "not allowed to assign tasks to this user"}
		}
		task.AssigneeID = next.ID
	}

	applyPatch(task, patch)
	if err := validateTask(task); err != nil {
		return nil, err
	}
	// Keep the once-recurrence invariant and the template's computed next
	// occurrence in sync with the merged due date.
	if task.Recurrence == models.RecurrenceOnce {
		task.NextOccurrenceDate = nil
		if !task.IsRecurringInstance {
			task.ParentTaskID = nil
		}
	} else if !task.IsRecurringInstance {
		next := NextOccurrence(task.DueDate, task.Recurrence)
		task.NextOccurrenceDate = &next
	}

	if err := f.persistWithRetry(ctx, "update task", func(ctx context.Context) error {
		return f.tasks.Save(ctx, task)
	}); err != nil {
		return nil, err
	}
	f.publish(ctx, Event{Type: EventTaskUpdated, TaskID: task.ID, UserID: task.AssigneeID, At: f.now()})
	return task, nil
}

// Delete removes a task. Admin only, regardless of hierarchy. Deleting a
// recurring template cascades to every spawned instance. Points already
// credited for completed instances stay credited.
func (f *TaskFlow) Delete(ctx context.Context, taskID uint, actorID uint) error {
	actor, err := f.loadUser(ctx, actorID)
	if err != nil {
		return err
	}
	if actor.Role != models.RoleAdmin {
		return &AuthorizationError{Reason: "task deletion requires admin role"}
	}
	task, err := f.loadTask(ctx, taskID)
	if err != nil {
		return err
	}

	if err := f.persistWithRetry(ctx, "delete task", func(ctx context.Context) error {
		if task.IsTemplate() {
			if err := f.tasks.DeleteByParent(ctx, task.ID); err != nil {
				return err
			}
		}
		return f.tasks.Delete(ctx, task.ID)
	}); err != nil {
		return err
	}
	f.publish(ctx, Event{Type: EventTaskDeleted, TaskID: task.ID, UserID: task.AssigneeID, At: f.now()})
	return nil
}

// Start moves a pending task to in_progress. Only the assignee may start it,
// and only inside the availability window. The write is conditioned on the
// persisted status still being pending; a concurrent winner leaves the loser
// with a ConflictError.
func (f *TaskFlow) Start(ctx context.Context, taskID uint, actorID uint) (*models.Task, error) {
	task, err := f.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.AssigneeID != actorID {
		return nil, &AuthorizationError{Reason: "only the assignee can start a task"}
	}
	now := f.now()
	if !f.Actionable(task, now) {
		return nil, &NotActionableError{Reason: "task is not yet available"}
	}
	if task.Status != models.TaskPending {
		return nil, &NotActionableError{Reason: "task can only be started from pending"}
	}

	prevStatus, prevStarted := task.Status, task.StartedAt
	err = f.withCompensation(ctx, "start task",
		func() {
			task.Status = models.TaskInProgress
			task.StartedAt = &now
		},
		func() {
			task.Status = prevStatus
			task.StartedAt = prevStarted
		},
		func(ctx context.Context) error {
			return f.transition(ctx, task.ID, models.TaskPending, map[string]interface{}{
				"status":     models.TaskInProgress,
				"started_at": now,
			})
		},
	)
	if err != nil {
		return nil, err
	}
	f.publish(ctx, Event{Type: EventTaskStarted, TaskID: task.ID, UserID: task.AssigneeID, At: now})
	return task, nil
}

// Complete moves an in_progress task to completed, credits the task's points
// to the assignee for the current month, and spawns the next recurrence
// instance when applicable. Status change and points credit roll back
// together when the persistence write fails.
func (f *TaskFlow) Complete(ctx context.Context, taskID uint, actorID uint) (*models.Task, error) {
	task, err := f.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.AssigneeID != actorID {
		return nil, &AuthorizationError{Reason: "only the assignee can complete a task"}
	}
	now := f.now()
	if !f.Actionable(task, now) {
		return nil, &NotActionableError{Reason: "task is not yet available"}
	}
	if task.Status != models.TaskInProgress {
		return nil, &NotActionableError{Reason: "task can only be completed from in_progress"}
	}

	prevStatus, prevCompleted := task.Status, task.CompletedAt
	credited := false
	err = f.withCompensation(ctx, "complete task",
		func() {
			task.Status = models.TaskCompleted
			task.CompletedAt = &now
		},
		func() {
			task.Status = prevStatus
			task.CompletedAt = prevCompleted
			if credited {
				if _, err := f.points.Revoke(ctx, task.AssigneeID, task.Points, now); err != nil {
					log.Printf("[taskflow] failed to revoke %d points for user %d: %v", task.Points, task.AssigneeID, err)
				}
			}
		},
		func(ctx context.Context) error {
			if !credited {
				if _, err := f.points.Credit(ctx, task.AssigneeID, task.Points, now); err != nil {
					return err
				}
				credited = true
			}
			return f.transition(ctx, task.ID, models.TaskInProgress, map[string]interface{}{
				"status":       models.TaskCompleted,
				"completed_at": now,
			})
		},
	)
	if err != nil {
		return nil, err
	}

	f.publish(ctx, Event{Type: EventTaskCompleted, TaskID: task.ID, UserID: task.AssigneeID, Points: task.Points, At: now})

	if task.Recurrence != models.RecurrenceOnce {
		if err := f.spawnNext(ctx, task); err != nil {
			// Completion already persisted; a failed spawn is picked up by
			// the catch-up sweep.
			log.Printf("[taskflow] failed to spawn next instance of task %d: %v", task.ID, err)
		}
	}
	return task, nil
}

// Actionable reports whether the task sits inside its availability window:
// now must be at or past dueDate minus the lookahead.
func (f *TaskFlow) Actionable(task *models.Task, now time.Time) bool {
	return !now.Before(task.DueDate.Add(-f.lookahead))
}

// VisibleTasks returns the tasks of every user the actor may view, actor's
// own included.
func (f *TaskFlow) VisibleTasks(ctx context.Context, actorID uint) ([]models.Task, error) {
	actor, err := f.loadUser(ctx, actorID)
	if err != nil {
		return nil, err
	}
	all, err := f.users.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.Task
	for _, u := range AccessibleUsers(actor, all) {
		tasks, err := f.tasks.ListByAssignee(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, tasks...)
	}
	return out, nil
}

// Sweep spawns overdue recurrence instances for templates whose next
// occurrence has passed without a completion. The template's pointer marks
// the next unspawned occurrence, so a chain whose current instance was
// already spawned by a completion is not due and never gets an instance
// ahead of its own window. Safe to run repeatedly and concurrently with
// completions thanks to the instance-per-day guard.
func (f *TaskFlow) Sweep(ctx context.Context) error {
	templates, err := f.tasks.ListDueTemplates(ctx, f.now())
	if err != nil {
		return err
	}
	for i := range templates {
		root := &templates[i]
		latest, err := f.tasks.FindLatestInChain(ctx, root.ID)
		if err != nil {
			log.Printf("[taskflow] sweep: template %d: %v", root.ID, err)
			continue
		}
		if err := f.spawnNext(ctx, latest); err != nil {
			log.Printf("[taskflow] sweep: template %d: %v", root.ID, err)
		}
	}
	return nil
}

// spawnNext creates the next instance after latest, unless an instance for
// the same calendar day already exists, then advances the template's
// next-occurrence pointer past the spawned instance. The existence guard is
// the de facto mutual exclusion for concurrent completions of the same
// occurrence window.
func (f *TaskFlow) spawnNext(ctx context.Context, latest *models.Task) error {
	instance := SpawnInstance(latest)
	dayStart := time.Date(instance.DueDate.Year(), instance.DueDate.Month(), instance.DueDate.Day(), 0, 0, 0, 0, instance.DueDate.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	exists, err := f.tasks.HasInstanceOn(ctx, *instance.ParentTaskID, dayStart, dayEnd)
	if err != nil {
		return err
	}
	if !exists {
		if err := f.tasks.Create(ctx, instance); err != nil {
			return err
		}
		f.publish(ctx, Event{Type: EventTaskCreated, TaskID: instance.ID, UserID: instance.AssigneeID, At: f.now()})
	}
	return f.advanceTemplate(ctx, *instance.ParentTaskID, instance.DueDate)
}

// advanceTemplate moves the template's next-occurrence pointer to the
// occurrence after instanceDue. The pointer only moves forward; a lagging
// pointer from a failed save heals on the next spawn.
func (f *TaskFlow) advanceTemplate(ctx context.Context, rootID uint, instanceDue time.Time) error {
	root, err := f.tasks.FindByID(ctx, rootID)
	if err != nil {
		return err
	}
	next := NextOccurrence(instanceDue, root.Recurrence)
	if root.NextOccurrenceDate != nil && !root.NextOccurrenceDate.Before(next) {
		return nil
	}
	root.NextOccurrenceDate = &next
	return f.tasks.Save(ctx, root)
}

// transition performs the status-preconditioned write and converts a missed
// precondition into NotFound or Conflict depending on whether the row still
// exists.
func (f *TaskFlow) transition(ctx context.Context, id uint, fromStatus string, fields map[string]interface{}) error {
	rows, err := f.tasks.UpdateIfStatus(ctx, id, fromStatus, fields)
	if err != nil {
		return err
	}
	if rows == 0 {
		if _, err := f.tasks.FindByID(ctx, id); err != nil {
			return &NotFoundError{Entity: "task", ID: id}
		}
		return &ConflictError{Reason: "task status changed concurrently"}
	}
	return nil
}

// withCompensation applies an optimistic local mutation, attempts the
// persistence write, and runs the exact inverse of the mutation when the
// write ultimately fails. The persist step gets the bounded retry budget;
// terminal errors (conflict, not-found) skip retries but still compensate.
func (f *TaskFlow) withCompensation(ctx context.Context, op string, apply func(), compensate func(), persist func(ctx context.Context) error) error {
	apply()
	if err := f.persistWithRetry(ctx, op, persist); err != nil {
		compensate()
		return err
	}
	return nil
}

// persistWithRetry retries the write with exponential backoff. Conflict and
// not-found are terminal and returned as-is; anything that survives the
// budget surfaces as a PersistenceError.
func (f *TaskFlow) persistWithRetry(ctx context.Context, op string, persist func(ctx context.Context) error) error {
	var err error
	backoff := f.backoff
	for attempt := 0; attempt <= f.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return &PersistenceError{Op: op, Err: ctx.Err()}
			}
			backoff *= 2
		}
		err = persist(ctx)
		if err == nil {
			return nil
		}
		if isTerminal(err) {
			return err
		}
	}
	return &PersistenceError{Op: op, Err: err}
}

func isTerminal(err error) bool {
	switch err.(type) {
	case *ConflictError, *NotFoundError, *ValidationError, *AuthorizationError, *NotActionableError:
		return true
	}
	return false
}

func (f *TaskFlow) publish(ctx context.Context, event Event) {
	f.events.Publish(ctx, event)
}

func (f *TaskFlow) loadUser(ctx context.Context, id uint) (*models.User, error) {
	u, err := f.users.FindByID(ctx, id)
	if err != nil {
		return nil, &NotFoundError{Entity: "user", ID: id}
	}
	return u, nil
}

func (f *TaskFlow) loadTask(ctx context.Context, id uint) (*models.Task, error) {
	t, err := f.tasks.FindByID(ctx, id)
	if err != nil {
		return nil, &NotFoundError{Entity: "task", ID: id}
	}
	return t, nil
}

func validateInput(input CreateTaskInput) error {
	if len(input.Title) < 3 {
		return &ValidationError{Field: "title", Reason: "must be at least 3 characters"}
	}
	if input.AssigneeID == 0 {
		return &ValidationError{Field: "assignee_id", Reason: "is required"}
	}
	if input.DueDate.IsZero() {
		return &ValidationError{Field: "due_date", Reason: "is required"}
	}
	if input.Points < 1 {
		return &ValidationError{Field: "points", Reason: "must be at least 1"}
	}
	if !validRecurrence(input.Recurrence) {
		return &ValidationError{Field: "recurrence", Reason: "must be one of once, daily, weekly, monthly"}
	}
	return nil
}

func validateTask(task *models.Task) error {
	if len(task.Title) < 3 {
		return &ValidationError{Field: "title", Reason: "must be at least 3 characters"}
	}
	if task.Points < 1 {
		return &ValidationError{Field: "points", Reason: "must be at least 1"}
	}
	if task.DueDate.IsZero() {
		return &ValidationError{Field: "due_date", Reason: "is required"}
	}
	if !validRecurrence(task.Recurrence) {
		return &ValidationError{Field: "recurrence", Reason: "must be one of once, daily, weekly, monthly"}
	}
	return nil
}

func validRecurrence(r string) bool {
	switch r {
	case models.RecurrenceOnce, models.RecurrenceDaily, models.RecurrenceWeekly, models.RecurrenceMonthly:
		return true
	}
	return false
}

func priorityOrDefault(p string) string {
	if p == "" {
		return "normal"
	}
	return p
}

func applyPatch(task *models.Task, patch TaskPatch) {
	if patch.Title != nil {
		task.Title = *patch.Title
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.Priority != nil {
		task.Priority = *patch.Priority
	}
	if patch.Category != nil {
		task.Category = patch.Category
	}
	if patch.Points != nil {
		task.Points = *patch.Points
	}
	if patch.DueDate != nil {
		task.DueDate = *patch.DueDate
	}
	if patch.Recurrence != nil {
		task.Recurrence = *patch.Recurrence
	}
}
