package users

import (
	"net/http"

	"github.com/ouyangvase/task-sync-pilot-sub000/services"
	"github.com/ouyangvase/task-sync-pilot-sub000/utils"
)

type TeamController struct {
	staff *services.Staff
}

func NewTeamController(staff *services.Staff) *TeamController {
	return &TeamController{staff: staff}
}

// GET /users/team — everyone the caller may view, per hierarchy and
// overrides.
func (c *TeamController) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}
	members, err := c.staff.Accessible(r.Context(), uid)
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: members})
}
