package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ouyangvase/task-sync-pilot-sub000/models"
)

// In-memory repository fakes. They mirror the row-level semantics the GORM
// implementations rely on (status precondition, atomic ledger increment) so
// the services can be exercised without a database.

type fakeTaskRepo struct {
	mu    sync.Mutex
	seq   uint
	tasks map[uint]*models.Task

	failWrites int    // fail this many writes before succeeding
	afterFind  func() // invoked after FindByID, for race simulation
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: make(map[uint]*models.Task)}
}

func (r *fakeTaskRepo) failWrite() error {
	if r.failWrites > 0 {
		r.failWrites--
		return errors.New("storage unavailable")
	}
	return nil
}

func cloneTask(t *models.Task) *models.Task {
	c := *t
	return &c
}

func (r *fakeTaskRepo) Create(ctx context.Context, task *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failWrite(); err != nil {
		return err
	}
	r.seq++
	task.ID = r.seq
	task.CreatedAt = time.Now()
	r.tasks[task.ID] = cloneTask(task)
	return nil
}

func (r *fakeTaskRepo) FindByID(ctx context.Context, id uint) (*models.Task, error) {
	r.mu.Lock()
	t, ok := r.tasks[id]
	var snapshot *models.Task
	if ok {
		// Snapshot before the hook runs so a hook-simulated concurrent
		// write lands after this read, not inside it.
		snapshot = cloneTask(t)
	}
	r.mu.Unlock()
	if !ok {
		return nil, errors.New("record not found")
	}
	if r.afterFind != nil {
		r.afterFind()
	}
	return snapshot, nil
}

func (r *fakeTaskRepo) ListByAssignee(ctx context.Context, assigneeID uint) ([]models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Task
	for _, t := range r.tasks {
		if t.AssigneeID == assigneeID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *fakeTaskRepo) Save(ctx context.Context, task *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failWrite(); err != nil {
		return err
	}
	if _, ok := r.tasks[task.ID]; !ok {
		return errors.New("record not found")
	}
	r.tasks[task.ID] = cloneTask(task)
	return nil
}

func (r *fakeTaskRepo) UpdateIfStatus(ctx context.Context, id uint, fromStatus string, fields map[string]interface{}) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failWrite(); err != nil {
		return 0, err
	}
	t, ok := r.tasks[id]
	if !ok || t.Status != fromStatus {
		return 0, nil
	}
	if s, ok := fields["status"].(string); ok {
		t.Status = s
	}
	if at, ok := fields["started_at"].(time.Time); ok {
		t.StartedAt = &at
	}
	if at, ok := fields["completed_at"].(time.Time); ok {
		t.CompletedAt = &at
	}
	return 1, nil
}

func (r *fakeTaskRepo) Delete(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failWrite(); err != nil {
		return err
	}
	delete(r.tasks, id)
	return nil
}

func (r *fakeTaskRepo) DeleteByParent(ctx context.Context, parentID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failWrite(); err != nil {
		return err
	}
	for id, t := range r.tasks {
		if t.ParentTaskID != nil && *t.ParentTaskID == parentID {
			delete(r.tasks, id)
		}
	}
	return nil
}

func (r *fakeTaskRepo) HasInstanceOn(ctx context.Context, parentID uint, dayStart, dayEnd time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tasks {
		if t.IsRecurringInstance && t.ParentTaskID != nil && *t.ParentTaskID == parentID &&
			!t.DueDate.Before(dayStart) && t.DueDate.Before(dayEnd) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeTaskRepo) ListDueTemplates(ctx context.Context, now time.Time) ([]models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Task
	for _, t := range r.tasks {
		if t.IsTemplate() && t.NextOccurrenceDate != nil && !t.NextOccurrenceDate.After(now) {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *fakeTaskRepo) FindLatestInChain(ctx context.Context, rootID uint) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *models.Task
	for _, t := range r.tasks {
		if t.ID != rootID && (t.ParentTaskID == nil || *t.ParentTaskID != rootID) {
			continue
		}
		if latest == nil || t.DueDate.After(latest.DueDate) {
			latest = t
		}
	}
	if latest == nil {
		return nil, errors.New("record not found")
	}
	return cloneTask(latest), nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uint]*models.User
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[uint]*models.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.Permissions = append([]models.UserPermission(nil), u.Permissions...)
	return &c
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id uint) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	return cloneUser(u), nil
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, errors.New("record not found")
}

func (r *fakeUserRepo) ListAll(ctx context.Context) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.User
	for _, u := range r.users {
		out = append(out, *cloneUser(u))
	}
	return out, nil
}

func (r *fakeUserRepo) Save(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return errors.New("record not found")
	}
	r.users[user.ID] = cloneUser(user)
	return nil
}

func (r *fakeUserRepo) UpsertPermission(ctx context.Context, perm *models.UserPermission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[perm.ActorID]
	if !ok {
		return errors.New("record not found")
	}
	for i := range u.Permissions {
		if u.Permissions[i].TargetID == perm.TargetID {
			u.Permissions[i].CanView = perm.CanView
			u.Permissions[i].CanEdit = perm.CanEdit
			return nil
		}
	}
	u.Permissions = append(u.Permissions, *perm)
	return nil
}

type ledgerKey struct {
	userID      uint
	month, year int
}

type fakePointsRepo struct {
	mu     sync.Mutex
	totals map[ledgerKey]int
}

func newFakePointsRepo() *fakePointsRepo {
	return &fakePointsRepo{totals: make(map[ledgerKey]int)}
}

func (r *fakePointsRepo) Increment(ctx context.Context, userID uint, month, year, delta int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := ledgerKey{userID, month, year}
	r.totals[key] += delta
	return r.totals[key], nil
}

func (r *fakePointsRepo) Total(ctx context.Context, userID uint, month, year int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.totals[ledgerKey{userID, month, year}], nil
}

type fakeRewardRepo struct {
	mu    sync.Mutex
	tiers []models.RewardTier
}

func (r *fakeRewardRepo) ListTiers(ctx context.Context) ([]models.RewardTier, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.RewardTier(nil), r.tiers...), nil
}

func (r *fakeRewardRepo) ReplaceTiers(ctx context.Context, tiers []models.RewardTier) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tiers = append([]models.RewardTier(nil), tiers...)
	return nil
}

type fakeSettingRepo struct {
	target int
}

func (r *fakeSettingRepo) Get(ctx context.Context) (*models.AppSetting, error) {
	return &models.AppSetting{ID: 1, MonthlyTarget: r.target}, nil
}

func (r *fakeSettingRepo) SetMonthlyTarget(ctx context.Context, target int) error {
	r.target = target
	return nil
}

type capturePublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *capturePublisher) Publish(ctx context.Context, event Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *capturePublisher) byType(eventType string) []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []Event
	for _, e := range p.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}
