package services

import (
	"github.com/ouyangvase/task-sync-pilot-sub000/models"
)

// Authz implements the role-and-override authorization model. Every mutation
// path in the task flow calls through here; no call site re-derives the
// hierarchy on its own.
//
// All predicates are pure functions over the users handed in. Overrides are
// read from actor.Permissions.

// Capability names granted per role.
const (
	CapViewTasks   = "view_tasks"
	CapCreateTasks = "create_tasks"
	CapEditTasks   = "edit_tasks"
	CapAssignTasks = "assign_tasks"
	CapViewReports = "view_reports"
	CapManageUsers = "manage_users"
)

// rolePermissions is the static role-to-default-capability table.
var rolePermissions = map[string][]string{
	models.RoleEmployee: {CapViewTasks},
	models.RoleTeamLead: {CapViewTasks, CapCreateTasks, CapEditTasks, CapAssignTasks},
	models.RoleManager:  {CapViewTasks, CapCreateTasks, CapEditTasks, CapAssignTasks, CapViewReports},
	models.RoleAdmin:    {CapViewTasks, CapCreateTasks, CapEditTasks, CapAssignTasks, CapViewReports, CapManageUsers},
}

// HasCapability reports whether the role's default permission set contains
// the named capability.
func HasCapability(role, capability string) bool {
	for _, c := range rolePermissions[role] {
		if c == capability {
			return true
		}
	}
	return false
}

// CanView reports whether actor may see target: self, admin, a strictly
// higher rank, or an explicit view override.
func CanView(actor, target *models.User) bool {
	if actor.ID == target.ID {
		return true
	}
	if actor.Role == models.RoleAdmin {
		return true
	}
	if models.RoleRank(actor.Role) > models.RoleRank(target.Role) {
		return true
	}
	if p := overrideFor(actor, target.ID); p != nil {
		return p.CanView
	}
	return false
}

// CanEdit reports whether actor may mutate target. Admins edit everyone but
// other admins; otherwise a strictly higher rank or an explicit edit
// override.
func CanEdit(actor, target *models.User) bool {
	if actor.ID == target.ID {
		return true
	}
	if actor.Role == models.RoleAdmin {
		return target.Role != models.RoleAdmin
	}
	if models.RoleRank(actor.Role) > models.RoleRank(target.Role) {
		return true
	}
	if p := overrideFor(actor, target.ID); p != nil {
		return p.CanEdit
	}
	return false
}

// AccessibleUsers filters all down to the users actor may see, actor
// included. Admin sees everyone.
func AccessibleUsers(actor *models.User, all []models.User) []models.User {
	if actor.Role == models.RoleAdmin {
		return all
	}
	out := make([]models.User, 0, len(all))
	for i := range all {
		if CanView(actor, &all[i]) {
			out = append(out, all[i])
		}
	}
	return out
}

// NormalizeOverride applies the write-time invariant to a requested override:
// granting edit forces view on, and revoking view forces edit off. The
// returned pair always satisfies CanEdit => CanView.
func NormalizeOverride(canView, canEdit bool) (bool, bool) {
	if canEdit {
		canView = true
	}
	if !canView {
		canEdit = false
	}
	return canView, canEdit
}

func overrideFor(actor *models.User, targetID uint) *models.UserPermission {
	for i := range actor.Permissions {
		if actor.Permissions[i].TargetID == targetID {
			return &actor.Permissions[i]
		}
	}
	return nil
}
