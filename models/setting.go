package models

// AppSetting is the single-row application settings record. MonthlyTarget is
// the per-user monthly points goal used for threshold-crossing progress.
type AppSetting struct {
	ID            uint `gorm:"primaryKey" json:"id"`
	MonthlyTarget int  `gorm:"not null;default:500" json:"monthly_target"`
}

func (AppSetting) TableName() string {
	return "app_settings"
}
