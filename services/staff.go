package services

import (
	"context"

	"github.com/ouyangvase/task-sync-pilot-sub000/models"
)

// Staff manages user role, title and permission-override mutations. The
// core never deletes users; that stays with the surrounding identity system.
type Staff struct {
	users  UserRepository
	events EventPublisher
}

func NewStaff(users UserRepository, events EventPublisher) *Staff {
	if events == nil {
		events = NopPublisher{}
	}
	return &Staff{users: users, events: events}
}

// UpdateRole changes target's role. Only admins manage users, and an admin
// cannot change another admin's role.
func (s *Staff) UpdateRole(ctx context.Context, actorID, targetID uint, role string) (*models.User, error) {
	actor, target, err := s.loadPair(ctx, actorID, targetID)
	if err != nil {
		return nil, err
	}
	if !HasCapability(actor.Role, CapManageUsers) || !CanEdit(actor, target) {
		return nil, &AuthorizationError{Reason: "not allowed to change this user's role"}
	}
	if models.RoleRank(role) == 0 {
		return nil, &ValidationError{Field: "role", Reason: "must be one of employee, team_lead, manager, admin"}
	}
	target.Role = role
	if err := s.users.Save(ctx, target); err != nil {
		return nil, &PersistenceError{Op: "update role", Err: err}
	}
	s.events.Publish(ctx, Event{Type: EventRoleChanged, UserID: target.ID})
	return target, nil
}

// UpdateTitle sets target's cosmetic title. Edit authorization suffices.
func (s *Staff) UpdateTitle(ctx context.Context, actorID, targetID uint, title string) (*models.User, error) {
	actor, target, err := s.loadPair(ctx, actorID, targetID)
	if err != nil {
		return nil, err
	}
	if !CanEdit(actor, target) {
		return nil, &AuthorizationError{Reason: "not allowed to edit this user"}
	}
	if title == "" {
		target.Title = nil
	} else {
		target.Title = &title
	}
	if err := s.users.Save(ctx, target); err != nil {
		return nil, &PersistenceError{Op: "update title", Err: err}
	}
	return target, nil
}

// SetOverride records a per-pair view/edit override granted by actor over
// target. The canEdit-implies-canView invariant is normalized before the
// write, never trusted from the request.
func (s *Staff) SetOverride(ctx context.Context, actorID, targetID uint, canView, canEdit bool) (*models.UserPermission, error) {
	if actorID == targetID {
		return nil, &ValidationError{Field: "target_id", Reason: "cannot override own access"}
	}
	if _, _, err := s.loadPair(ctx, actorID, targetID); err != nil {
		return nil, err
	}
	canView, canEdit = NormalizeOverride(canView, canEdit)
	perm := &models.UserPermission{
		ActorID:  actorID,
		TargetID: targetID,
		CanView:  canView,
		CanEdit:  canEdit,
	}
	if err := s.users.UpsertPermission(ctx, perm); err != nil {
		return nil, &PersistenceError{Op: "set override", Err: err}
	}
	return perm, nil
}

// Accessible returns the users the actor may view, actor included.
func (s *Staff) Accessible(ctx context.Context, actorID uint) ([]models.User, error) {
	actor, err := s.users.FindByID(ctx, actorID)
	if err != nil {
		return nil, &NotFoundError{Entity: "user", ID: actorID}
	}
	all, err := s.users.ListAll(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: "list users", Err: err}
	}
	return AccessibleUsers(actor, all), nil
}

func (s *Staff) loadPair(ctx context.Context, actorID, targetID uint) (*models.User, *models.User, error) {
	actor, err := s.users.FindByID(ctx, actorID)
	if err != nil {
		return nil, nil, &NotFoundError{Entity: "user", ID: actorID}
	}
	target, err := s.users.FindByID(ctx, targetID)
	if err != nil {
		return nil, nil, &NotFoundError{Entity: "user", ID: targetID}
	}
	return actor, target, nil
}
