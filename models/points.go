package models

// MonthlyPoints is the per-user, per-calendar-month ledger of completed-task
// points. One row per (user, month, year); totals never span months.
type MonthlyPoints struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	UserID uint `gorm:"not null;uniqueIndex:idx_user_month_year" json:"user_id"`
	Month  int  `gorm:"not null;uniqueIndex:idx_user_month_year" json:"month"`
	Year   int  `gorm:"not null;uniqueIndex:idx_user_month_year" json:"year"`
	Points int  `gorm:"not null;default:0" json:"points"`
}

func (MonthlyPoints) TableName() string {
	return "monthly_points"
}
