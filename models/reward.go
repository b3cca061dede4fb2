package models

// RewardTier pairs a monthly points threshold with a reward description.
// Tiers are ordered ascending by Points and replaced only wholesale through
// the admin bulk-replace operation.
type RewardTier struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	Points int    `gorm:"not null;index" json:"points"`
	Reward string `gorm:"size:255;not null" json:"reward"`
}

func (RewardTier) TableName() string {
	return "reward_tiers"
}
