package middleware

import (
	"net/http"

	"github.com/ouyangvase/task-sync-pilot-sub000/models"
	"github.com/ouyangvase/task-sync-pilot-sub000/utils"
)

// AdminOnly gates a route on the admin role claim. Runs after AuthMiddleware.
// Fine-grained checks (who may edit whom) belong to the authorization
// service; this is only the blunt route-level gate for administrative
// surfaces.
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, ok := utils.GetUserRole(r)
		if !ok || role != models.RoleAdmin {
			utils.WriteJSON(w, http.StatusForbidden, utils.APIResponse{
				Success: false,
				Message: "Forbidden: Admin access required",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
