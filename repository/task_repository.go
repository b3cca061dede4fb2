package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/ouyangvase/task-sync-pilot-sub000/models"
)

// TaskRepository is the GORM-backed implementation of services.TaskRepository.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (r *TaskRepository) FindByID(ctx context.Context, id uint) (*models.Task, error) {
	var task models.Task
	if err := r.db.WithContext(ctx).First(&task, id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *TaskRepository) ListByAssignee(ctx context.Context, assigneeID uint) ([]models.Task, error) {
	var tasks []models.Task
	if err := r.db.WithContext(ctx).Where("assignee_id = ?", assigneeID).
		Order("due_date ASC").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *TaskRepository) Save(ctx context.Context, task *models.Task) error {
	if err := r.db.WithContext(ctx).Save(task).Error; err != nil {
		return fmt.Errorf("save task: %w", err)
	}
	return nil
}

// UpdateIfStatus is the optimistic-concurrency write: the fields land only
// when the persisted status still matches, and the caller learns from the
// row count whether it won the race.
func (r *TaskRepository) UpdateIfStatus(ctx context.Context, id uint, fromStatus string, fields map[string]interface{}) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Task{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Updates(fields)
	if res.Error != nil {
		return 0, fmt.Errorf("update task %d: %w", id, res.Error)
	}
	return res.RowsAffected, nil
}

func (r *TaskRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Task{}, id).Error; err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	return nil
}

func (r *TaskRepository) DeleteByParent(ctx context.Context, parentID uint) error {
	if err := r.db.WithContext(ctx).Where("parent_task_id = ?", parentID).
		Delete(&models.Task{}).Error; err != nil {
		return fmt.Errorf("delete instances of task %d: %w", parentID, err)
	}
	return nil
}

func (r *TaskRepository) HasInstanceOn(ctx context.Context, parentID uint, dayStart, dayEnd time.Time) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Task{}).
		Where("parent_task_id = ? AND is_recurring_instance = ? AND due_date >= ? AND due_date < ?",
			parentID, true, dayStart, dayEnd).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *TaskRepository) ListDueTemplates(ctx context.Context, now time.Time) ([]models.Task, error) {
	var tasks []models.Task
	if err := r.db.WithContext(ctx).
		Where("recurrence <> ? AND is_recurring_instance = ? AND next_occurrence_date <= ?",
			models.RecurrenceOnce, false, now).
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *TaskRepository) FindLatestInChain(ctx context.Context, rootID uint) (*models.Task, error) {
	var task models.Task
	if err := r.db.WithContext(ctx).
		Where("id = ? OR parent_task_id = ?", rootID, rootID).
		Order("due_date DESC").
		First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}
