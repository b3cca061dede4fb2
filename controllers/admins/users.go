package admins

import (
	"encoding/json"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/ouyangvase/task-sync-pilot-sub000/services"
	"github.com/ouyangvase/task-sync-pilot-sub000/utils"
)

type UserController struct {
	staff *services.Staff
	users services.UserRepository
}

func NewUserController(staff *services.Staff, users services.UserRepository) *UserController {
	return &UserController{staff: staff, users: users}
}

// PUT /admin/users/{id}/role
func (c *UserController) UpdateRole(w http.ResponseWriter, r *http.Request) {
	uid, _ := utils.GetUserID(r)
	id, err := pathID(r)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid user id"})
		return
	}
	var req struct {
		Role string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid request body"})
		return
	}
	user, err := c.staff.UpdateRole(r.Context(), uid, id, req.Role)
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Role updated", Data: user})
}

// PUT /admin/users/{id}/title
func (c *UserController) UpdateTitle(w http.ResponseWriter, r *http.Request) {
	uid, _ := utils.GetUserID(r)
	id, err := pathID(r)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid user id"})
		return
	}
	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid request body"})
		return
	}
	user, err := c.staff.UpdateTitle(r.Context(), uid, id, req.Title)
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Title updated", Data: user})
}

// PUT /admin/users/{id}/permissions
//
// Grants or adjusts the caller-specified actor's override on user {id}.
// The canEdit-implies-canView invariant is enforced server-side.
func (c *UserController) SetPermission(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid user id"})
		return
	}
	var req struct {
		ActorID uint `json:"actor_id"`
		CanView bool `json:"can_view"`
		CanEdit bool `json:"can_edit"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ActorID == 0 {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid request body"})
		return
	}
	perm, err := c.staff.SetOverride(r.Context(), req.ActorID, id, req.CanView, req.CanEdit)
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Permission updated", Data: perm})
}

// PUT /admin/users/{id}/password
func (c *UserController) ResetPassword(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid user id"})
		return
	}
	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Password) < 6 {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Password must be at least 6 characters"})
		return
	}
	user, err := c.users.FindByID(r.Context(), id)
	if err != nil {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "User not found"})
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Internal server error"})
		return
	}
	user.Password = string(hash)
	if err := c.users.Save(r.Context(), user); err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Failed to update password"})
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Password updated"})
}
