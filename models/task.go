package models

import "time"

// Task status values. Transitions are forward-only:
// pending -> in_progress -> completed.
const (
	TaskPending    = "pending"
	TaskInProgress = "in_progress"
	TaskCompleted  = "completed"
)

// Recurrence values.
const (
	RecurrenceOnce    = "once"
	RecurrenceDaily   = "daily"
	RecurrenceWeekly  = "weekly"
	RecurrenceMonthly = "monthly"
)

type Task struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	Title       string  `gorm:"size:200;not null" json:"title"`
	Description string  `gorm:"type:text" json:"description"`
	AssigneeID  uint    `gorm:"not null;index" json:"assignee_id"`
	AssignedBy  uint    `gorm:"not null" json:"assigned_by"`
	Status      string  `gorm:"type:enum('pending','in_progress','completed');default:'pending'" json:"status"`
	Priority    string  `gorm:"size:20;default:'normal'" json:"priority"`
	Category    *string `gorm:"size:100" json:"category,omitempty"`
	Points      int     `gorm:"not null" json:"points"`

	DueDate     time.Time  `gorm:"not null;index" json:"due_date"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	Recurrence          string     `gorm:"type:enum('once','daily','weekly','monthly');default:'once'" json:"recurrence"`
	IsRecurringInstance bool       `gorm:"not null;default:false" json:"is_recurring_instance"`
	ParentTaskID        *uint      `gorm:"index" json:"parent_task_id,omitempty"`
	NextOccurrenceDate  *time.Time `json:"next_occurrence_date,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`
}

func (Task) TableName() string {
	return "tasks"
}

// IsTemplate reports whether the task is a recurring template, i.e. a
// recurring task that is not itself a spawned instance.
func (t *Task) IsTemplate() bool {
	return t.Recurrence != RecurrenceOnce && !t.IsRecurringInstance
}

// RootTemplateID returns the id instances of this task must point at: the
// task's own parent when it is already an instance, otherwise the task itself.
func (t *Task) RootTemplateID() uint {
	if t.ParentTaskID != nil {
		return *t.ParentTaskID
	}
	return t.ID
}
