package services

import (
	"context"
	"sort"
	"time"

	"github.com/ouyangvase/task-sync-pilot-sub000/models"
)

// Points accrues completed-task points per user per calendar month and
// evaluates reward tiers against the running total. All writes go through
// the repository's atomic increment; the engine never does read-modify-write
// on the ledger, so concurrent credits for the same user cannot lose
// updates.
type Points struct {
	ledger   PointsRepository
	rewards  RewardRepository
	settings SettingRepository
}

func NewPoints(ledger PointsRepository, rewards RewardRepository, settings SettingRepository) *Points {
	return &Points{ledger: ledger, rewards: rewards, settings: settings}
}

// Credit adds points to the actor's ledger for the month containing at and
// returns the new monthly total.
func (p *Points) Credit(ctx context.Context, userID uint, points int, at time.Time) (int, error) {
	return p.ledger.Increment(ctx, userID, int(at.Month()), at.Year(), points)
}

// Revoke removes a prior credit from the same month. Used only by the
// completion rollback path.
func (p *Points) Revoke(ctx context.Context, userID uint, points int, at time.Time) (int, error) {
	return p.ledger.Increment(ctx, userID, int(at.Month()), at.Year(), -points)
}

// MonthlyTotal returns the accumulated points for (userID, month, year),
// defaulting to zero when no ledger row exists.
func (p *Points) MonthlyTotal(ctx context.Context, userID uint, month, year int) (int, error) {
	return p.ledger.Total(ctx, userID, month, year)
}

// ReachedTiers returns every reward tier whose threshold the user's total
// for the month containing now meets, ascending by threshold.
func (p *Points) ReachedTiers(ctx context.Context, userID uint, now time.Time) ([]models.RewardTier, error) {
	total, err := p.MonthlyTotal(ctx, userID, int(now.Month()), now.Year())
	if err != nil {
		return nil, err
	}
	tiers, err := p.rewards.ListTiers(ctx)
	if err != nil {
		return nil, err
	}
	reached := make([]models.RewardTier, 0, len(tiers))
	for _, t := range tiers {
		if t.Points <= total {
			reached = append(reached, t)
		}
	}
	sort.Slice(reached, func(i, j int) bool { return reached[i].Points < reached[j].Points })
	return reached, nil
}

// MonthlyTarget reads the configured monthly points goal.
func (p *Points) MonthlyTarget(ctx context.Context) (int, error) {
	s, err := p.settings.Get(ctx)
	if err != nil {
		return 0, err
	}
	return s.MonthlyTarget, nil
}

// Progress is the derived view of a total against the monthly target. The
// core computes it; messaging around crossed milestones belongs to the
// presentation layer.
type Progress struct {
	Total      int   `json:"total"`
	Target     int   `json:"target"`
	Percent    int   `json:"percent"`
	Milestones []int `json:"milestones"` // crossed milestones out of 50, 80, 100
}

// TargetProgress computes milestone crossings for (total, target). Pure and
// side-effect free. A non-positive target yields no milestones.
func TargetProgress(total, target int) Progress {
	pr := Progress{Total: total, Target: target, Milestones: []int{}}
	if target <= 0 {
		return pr
	}
	pr.Percent = total * 100 / target
	for _, m := range []int{50, 80, 100} {
		if pr.Percent >= m {
			pr.Milestones = append(pr.Milestones, m)
		}
	}
	return pr
}
