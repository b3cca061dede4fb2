package users

import (
	"net/http"
	"time"

	"github.com/ouyangvase/task-sync-pilot-sub000/services"
	"github.com/ouyangvase/task-sync-pilot-sub000/utils"
)

type RewardController struct {
	points *services.Points
}

func NewRewardController(points *services.Points) *RewardController {
	return &RewardController{points: points}
}

// GET /users/rewards
//
// Returns the caller's points for the current month, the tiers already
// reached, and the progress toward the monthly target. Messaging around
// crossed milestones is the frontend's call.
func (c *RewardController) Summary(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}
	now := time.Now()
	total, err := c.points.MonthlyTotal(r.Context(), uid, int(now.Month()), now.Year())
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}
	tiers, err := c.points.ReachedTiers(r.Context(), uid, now)
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}
	target, err := c.points.MonthlyTarget(r.Context())
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Successfully",
		Data: map[string]interface{}{
			"monthly_points": total,
			"reached_tiers":  tiers,
			"progress":       services.TargetProgress(total, target),
		},
	})
}
