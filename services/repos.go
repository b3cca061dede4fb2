package services

import (
	"context"
	"time"

	"github.com/ouyangvase/task-sync-pilot-sub000/models"
)

// Repository interfaces consumed by the services. GORM implementations live
// in the repository package; tests substitute in-memory fakes. The services
// hold no global state, only what is injected here.

type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	FindByID(ctx context.Context, id uint) (*models.Task, error)
	ListByAssignee(ctx context.Context, assigneeID uint) ([]models.Task, error)
	Save(ctx context.Context, task *models.Task) error
	// UpdateIfStatus applies fields to the task only when its persisted
	// status still equals fromStatus, and reports how many rows matched.
	// Zero rows means the caller lost an optimistic-concurrency race or the
	// task is gone.
	UpdateIfStatus(ctx context.Context, id uint, fromStatus string, fields map[string]interface{}) (int64, error)
	Delete(ctx context.Context, id uint) error
	DeleteByParent(ctx context.Context, parentID uint) error
	// HasInstanceOn reports whether a spawned instance of the template
	// already has a due date within [dayStart, dayEnd).
	HasInstanceOn(ctx context.Context, parentID uint, dayStart, dayEnd time.Time) (bool, error)
	// ListDueTemplates returns recurring templates whose next occurrence
	// date is at or before now.
	ListDueTemplates(ctx context.Context, now time.Time) ([]models.Task, error)
	// FindLatestInChain returns the task with the greatest due date among
	// the root template and its spawned instances.
	FindLatestInChain(ctx context.Context, rootID uint) (*models.Task, error)
}

type UserRepository interface {
	// FindByID loads the user with permission overrides preloaded.
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	ListAll(ctx context.Context) ([]models.User, error)
	Save(ctx context.Context, user *models.User) error
	UpsertPermission(ctx context.Context, perm *models.UserPermission) error
}

type PointsRepository interface {
	// Increment atomically adds delta to the (userID, month, year) ledger
	// row, creating it when absent, and returns the new total. Delta may be
	// negative on the rollback path.
	Increment(ctx context.Context, userID uint, month, year, delta int) (int, error)
	Total(ctx context.Context, userID uint, month, year int) (int, error)
}

type RewardRepository interface {
	ListTiers(ctx context.Context) ([]models.RewardTier, error)
	// ReplaceTiers swaps the full tier set; prior tiers do not survive.
	ReplaceTiers(ctx context.Context, tiers []models.RewardTier) error
}

type SettingRepository interface {
	Get(ctx context.Context) (*models.AppSetting, error)
	SetMonthlyTarget(ctx context.Context, target int) error
}

// EventPublisher receives domain events after successful mutations.
// Publishing is fire-and-forget: implementations must never block the
// mutation path or surface errors into it.
type EventPublisher interface {
	Publish(ctx context.Context, event Event)
}
