package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ouyangvase/task-sync-pilot-sub000/models"
)

type PointsRepository struct {
	db *gorm.DB
}

func NewPointsRepository(db *gorm.DB) *PointsRepository {
	return &PointsRepository{db: db}
}

// Increment applies the delta with a single atomic upsert keyed on
// (user, month, year): INSERT ... ON DUPLICATE KEY UPDATE points = points + ?.
// Concurrent credits for the same user serialize at the row, so no
// read-modify-write and no lost updates.
func (r *PointsRepository) Increment(ctx context.Context, userID uint, month, year, delta int) (int, error) {
	entry := models.MonthlyPoints{
		UserID: userID,
		Month:  month,
		Year:   year,
		Points: delta,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "month"}, {Name: "year"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"points": gorm.Expr("points + ?", delta),
		}),
	}).Create(&entry).Error
	if err != nil {
		return 0, fmt.Errorf("increment points for user %d: %w", userID, err)
	}
	return r.Total(ctx, userID, month, year)
}

func (r *PointsRepository) Total(ctx context.Context, userID uint, month, year int) (int, error) {
	var entry models.MonthlyPoints
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND month = ? AND year = ?", userID, month, year).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return entry.Points, nil
}
