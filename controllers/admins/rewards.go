package admins

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/ouyangvase/task-sync-pilot-sub000/models"
	"github.com/ouyangvase/task-sync-pilot-sub000/services"
	"github.com/ouyangvase/task-sync-pilot-sub000/utils"
)

type RewardController struct {
	rewards  services.RewardRepository
	settings services.SettingRepository
}

func NewRewardController(rewards services.RewardRepository, settings services.SettingRepository) *RewardController {
	return &RewardController{rewards: rewards, settings: settings}
}

// GET /admin/rewards
func (c *RewardController) List(w http.ResponseWriter, r *http.Request) {
	tiers, err := c.rewards.ListTiers(r.Context())
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}
	setting, err := c.settings.Get(r.Context())
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Successfully",
		Data: map[string]interface{}{
			"tiers":          tiers,
			"monthly_target": setting.MonthlyTarget,
		},
	})
}

type tierRequest struct {
	Points int    `json:"points"`
	Reward string `json:"reward"`
}

// PUT /admin/rewards/tiers — full replacement, never a merge.
func (c *RewardController) ReplaceTiers(w http.ResponseWriter, r *http.Request) {
	var req []tierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid request body"})
		return
	}
	tiers := make([]models.RewardTier, 0, len(req))
	for _, t := range req {
		if t.Points < 1 || t.Reward == "" {
			utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Each tier needs a positive threshold and a reward"})
			return
		}
		tiers = append(tiers, models.RewardTier{Points: t.Points, Reward: t.Reward})
	}
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].Points < tiers[j].Points })
	if err := c.rewards.ReplaceTiers(r.Context(), tiers); err != nil {
		utils.WriteServiceError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Reward tiers replaced", Data: tiers})
}

// PUT /admin/rewards/target
func (c *RewardController) SetMonthlyTarget(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MonthlyTarget int `json:"monthly_target"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.MonthlyTarget < 1 {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "monthly_target must be at least 1"})
		return
	}
	if err := c.settings.SetMonthlyTarget(r.Context(), req.MonthlyTarget); err != nil {
		utils.WriteServiceError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Monthly target updated"})
}
