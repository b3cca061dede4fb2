package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ouyangvase/task-sync-pilot-sub000/controllers/admins"
	"github.com/ouyangvase/task-sync-pilot-sub000/middleware"
)

func AdminRoutes(api *mux.Router, deps Deps) {
	taskController := admins.NewTaskController(deps.Flow)
	userController := admins.NewUserController(deps.Staff, deps.Users)
	rewardController := admins.NewRewardController(deps.Rewards, deps.Settings)

	adminRouter := api.PathPrefix("/admin").Subrouter()
	adminRouter.Use(middleware.AuthMiddleware, middleware.AdminOnly)

	adminRouter.Handle("/tasks", http.HandlerFunc(taskController.Create)).Methods(http.MethodPost)
	adminRouter.Handle("/tasks/{id:[0-9]+}", http.HandlerFunc(taskController.Update)).Methods(http.MethodPut)
	adminRouter.Handle("/tasks/{id:[0-9]+}", http.HandlerFunc(taskController.Delete)).Methods(http.MethodDelete)

	adminRouter.Handle("/users/{id:[0-9]+}/role", http.HandlerFunc(userController.UpdateRole)).Methods(http.MethodPut)
	adminRouter.Handle("/users/{id:[0-9]+}/title", http.HandlerFunc(userController.UpdateTitle)).Methods(http.MethodPut)
	adminRouter.Handle("/users/{id:[0-9]+}/permissions", http.HandlerFunc(userController.SetPermission)).Methods(http.MethodPut)
	adminRouter.Handle("/users/{id:[0-9]+}/password", http.HandlerFunc(userController.ResetPassword)).Methods(http.MethodPut)

	adminRouter.Handle("/rewards", http.HandlerFunc(rewardController.List)).Methods(http.MethodGet)
	adminRouter.Handle("/rewards/tiers", http.HandlerFunc(rewardController.ReplaceTiers)).Methods(http.MethodPut)
	adminRouter.Handle("/rewards/target", http.HandlerFunc(rewardController.SetMonthlyTarget)).Methods(http.MethodPut)
}
