package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/ouyangvase/task-sync-pilot-sub000/models"
)

type SettingRepository struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

// Get returns the single settings row, creating it with defaults on first
// read.
func (r *SettingRepository) Get(ctx context.Context) (*models.AppSetting, error) {
	var setting models.AppSetting
	err := r.db.WithContext(ctx).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		setting = models.AppSetting{MonthlyTarget: 500}
		if err := r.db.WithContext(ctx).Create(&setting).Error; err != nil {
			return nil, fmt.Errorf("create default settings: %w", err)
		}
		return &setting, nil
	}
	if err != nil {
		return nil, err
	}
	return &setting, nil
}

func (r *SettingRepository) SetMonthlyTarget(ctx context.Context, target int) error {
	setting, err := r.Get(ctx)
	if err != nil {
		return err
	}
	setting.MonthlyTarget = target
	if err := r.db.WithContext(ctx).Save(setting).Error; err != nil {
		return fmt.Errorf("set monthly target: %w", err)
	}
	return nil
}
