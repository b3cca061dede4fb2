package users

import (
	"net/http"

	"github.com/ouyangvase/task-sync-pilot-sub000/services"
	"github.com/ouyangvase/task-sync-pilot-sub000/utils"
)

type ProfileController struct {
	users services.UserRepository
}

func NewProfileController(users services.UserRepository) *ProfileController {
	return &ProfileController{users: users}
}

// GET /users/me
func (c *ProfileController) Me(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}
	user, err := c.users.FindByID(r.Context(), uid)
	if err != nil {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "User not found"})
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: user})
}
