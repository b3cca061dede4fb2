package database

import (
	"gorm.io/gorm"

	"github.com/ouyangvase/task-sync-pilot-sub000/models"
)

// Migrate auto-migrates the core schema. Called only in development; in
// production the schema is managed out of band.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.UserPermission{},
		&models.Task{},
		&models.MonthlyPoints{},
		&models.RewardTier{},
		&models.AppSetting{},
	)
}
