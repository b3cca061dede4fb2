package models

import "time"

// Role values, totally ordered: admin > manager > team_lead > employee.
const (
	RoleEmployee = "employee"
	RoleTeamLead = "team_lead"
	RoleManager  = "manager"
	RoleAdmin    = "admin"
)

// RoleRank maps a role to its position in the hierarchy. Unknown roles rank
// below employee so a bad claim never gains access.
func RoleRank(role string) int {
	switch role {
	case RoleAdmin:
		return 4
	case RoleManager:
		return 3
	case RoleTeamLead:
		return 2
	case RoleEmployee:
		return 1
	default:
		return 0
	}
}

type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	Role      string    `gorm:"type:enum('employee','team_lead','manager','admin');default:'employee'" json:"role"`
	Title     *string   `gorm:"size:100" json:"title,omitempty"`
	Avatar    *string   `gorm:"type:varchar(255);null" json:"avatar,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`

	Permissions []UserPermission `gorm:"foreignKey:ActorID" json:"permissions,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// UserPermission is an explicit per-pair override supplementing the implicit
// role hierarchy. CanEdit implies CanView; the authorization service
// normalizes every write so the pair never violates that.
type UserPermission struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	ActorID  uint `gorm:"not null;uniqueIndex:idx_actor_target" json:"actor_id"`
	TargetID uint `gorm:"not null;uniqueIndex:idx_actor_target" json:"target_id"`
	CanView  bool `gorm:"not null;default:false" json:"can_view"`
	CanEdit  bool `gorm:"not null;default:false" json:"can_edit"`
}

func (UserPermission) TableName() string {
	return "user_permissions"
}
