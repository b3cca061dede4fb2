package utils

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/ouyangvase/task-sync-pilot-sub000/services"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// WriteServiceError maps the core error taxonomy onto HTTP statuses with a
// single human-readable message. Persistence failures get a generic message;
// the detail stays in the logs.
func WriteServiceError(w http.ResponseWriter, err error) {
	var (
		validationErr    *services.ValidationError
		authorizationErr *services.AuthorizationError
		notFoundErr      *services.NotFoundError
		notActionableErr *services.NotActionableError
		conflictErr      *services.ConflictError
		persistenceErr   *services.PersistenceError
	)
	switch {
	case errors.As(err, &validationErr):
		WriteJSON(w, http.StatusBadRequest, APIResponse{Success: false, Message: validationErr.Error()})
	case errors.As(err, &authorizationErr):
		WriteJSON(w, http.StatusForbidden, APIResponse{Success: false, Message: authorizationErr.Error()})
	case errors.As(err, &notFoundErr):
		WriteJSON(w, http.StatusNotFound, APIResponse{Success: false, Message: notFoundErr.Error()})
	case errors.As(err, &notActionableErr):
		WriteJSON(w, http.StatusUnprocessableEntity, APIResponse{Success: false, Message: notActionableErr.Error()})
	case errors.As(err, &conflictErr):
		WriteJSON(w, http.StatusConflict, APIResponse{Success: false, Message: conflictErr.Error()})
	case errors.As(err, &persistenceErr):
		log.Printf("[http] %v", persistenceErr)
		WriteJSON(w, http.StatusServiceUnavailable, APIResponse{Success: false, Message: "Temporary storage failure, please try again"})
	default:
		log.Printf("[http] unexpected error: %v", err)
		WriteJSON(w, http.StatusInternalServerError, APIResponse{Success: false, Message: "Internal server error"})
	}
}
