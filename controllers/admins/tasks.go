package admins

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/ouyangvase/task-sync-pilot-sub000/services"
	"github.com/ouyangvase/task-sync-pilot-sub000/utils"
)

type TaskController struct {
	flow *services.TaskFlow
}

func NewTaskController(flow *services.TaskFlow) *TaskController {
	return &TaskController{flow: flow}
}

type taskRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	AssigneeID  uint      `json:"assignee_id"`
	Priority    string    `json:"priority"`
	Category    *string   `json:"category"`
	Points      int       `json:"points"`
	DueDate     time.Time `json:"due_date"`
	Recurrence  string    `json:"recurrence"`
}

type taskPatchRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	AssigneeID  *uint      `json:"assignee_id"`
	Priority    *string    `json:"priority"`
	Category    *string    `json:"category"`
	Points      *int       `json:"points"`
	DueDate     *time.Time `json:"due_date"`
	Recurrence  *string    `json:"recurrence"`
}

// POST /admin/tasks
func (c *TaskController) Create(w http.ResponseWriter, r *http.Request) {
	uid, _ := utils.GetUserID(r)
	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid request body"})
		return
	}
	if req.Recurrence == "" {
		req.Recurrence = "once"
	}
	task, err := c.flow.Create(r.Context(), services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		AssigneeID:  req.AssigneeID,
		Priority:    req.Priority,
		Category:    req.Category,
		Points:      req.Points,
		DueDate:     req.DueDate,
		Recurrence:  req.Recurrence,
	}, uid)
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{Success: true, Message: "Task created", Data: task})
}

// PUT /admin/tasks/{id}
func (c *TaskController) Update(w http.ResponseWriter, r *http.Request) {
	uid, _ := utils.GetUserID(r)
	id, err := pathID(r)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid task id"})
		return
	}
	var req taskPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid request body"})
		return
	}
	task, err := c.flow.Update(r.Context(), id, services.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		AssigneeID:  req.AssigneeID,
		Priority:    req.Priority,
		Category:    req.Category,
		Points:      req.Points,
		DueDate:     req.DueDate,
		Recurrence:  req.Recurrence,
	}, uid)
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Task updated", Data: task})
}

// DELETE /admin/tasks/{id}
func (c *TaskController) Delete(w http.ResponseWriter, r *http.Request) {
	uid, _ := utils.GetUserID(r)
	id, err := pathID(r)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid task id"})
		return
	}
	if err := c.flow.Delete(r.Context(), id, uid); err != nil {
		utils.WriteServiceError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Task deleted"})
}

func pathID(r *http.Request) (uint, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseUint(raw, 10, 32)
	return uint(id), err
}
