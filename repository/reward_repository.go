package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/ouyangvase/task-sync-pilot-sub000/models"
)

type RewardRepository struct {
	db *gorm.DB
}

func NewRewardRepository(db *gorm.DB) *RewardRepository {
	return &RewardRepository{db: db}
}

func (r *RewardRepository) ListTiers(ctx context.Context) ([]models.RewardTier, error) {
	var tiers []models.RewardTier
	if err := r.db.WithContext(ctx).Order("points ASC").Find(&tiers).Error; err != nil {
		return nil, err
	}
	return tiers, nil
}

// ReplaceTiers swaps the full tier set in one transaction so readers never
// observe a half-replaced table.
func (r *RewardRepository) ReplaceTiers(ctx context.Context, tiers []models.RewardTier) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.RewardTier{}).Error; err != nil {
			return err
		}
		if len(tiers) == 0 {
			return nil
		}
		return tx.Create(&tiers).Error
	})
	if err != nil {
		return fmt.Errorf("replace reward tiers: %w", err)
	}
	return nil
}
