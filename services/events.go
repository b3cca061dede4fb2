package services

import (
	"context"
	"time"
)

// Domain event types emitted by the core. Subscribers (push, polling, or a
// plain log) are external collaborators; the core only publishes.
const (
	EventTaskCreated   = "task.created"
	EventTaskUpdated   = "task.updated"
	EventTaskDeleted   = "task.deleted"
	EventTaskStarted   = "task.started"
	EventTaskCompleted = "task.completed"
	EventRoleChanged   = "user.role_changed"
)

type Event struct {
	Type   string    `json:"type"`
	TaskID uint      `json:"task_id,omitempty"`
	UserID uint      `json:"user_id,omitempty"`
	Points int       `json:"points,omitempty"`
	At     time.Time `json:"at"`
}

// NopPublisher drops every event. Used when no notification collaborator is
// configured and in tests.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) {}
