package routes

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/ouyangvase/task-sync-pilot-sub000/controllers/auth"
	"github.com/ouyangvase/task-sync-pilot-sub000/controllers/users"
	"github.com/ouyangvase/task-sync-pilot-sub000/middleware"
)

func AuthRoutes(api *mux.Router, deps Deps) {
	// 5 attempts per IP per minute on login.
	loginLimiter := middleware.NewIPRateLimiter(5, time.Minute)
	authController := auth.NewController(deps.Users)
	api.Handle("/auth/login", loginLimiter.Middleware(http.HandlerFunc(authController.Login))).Methods(http.MethodPost)
}

func UsersRoutes(api *mux.Router, deps Deps) {
	taskController := users.NewTaskController(deps.Flow)
	rewardController := users.NewRewardController(deps.Points)
	teamController := users.NewTeamController(deps.Staff)
	profileController := users.NewProfileController(deps.Users)

	userRouter := api.PathPrefix("/users").Subrouter()
	userRouter.Use(middleware.AuthMiddleware)

	userRouter.Handle("/me", http.HandlerFunc(profileController.Me)).Methods(http.MethodGet)
	userRouter.Handle("/tasks", http.HandlerFunc(taskController.List)).Methods(http.MethodGet)
	userRouter.Handle("/tasks/{id:[0-9]+}/start", http.HandlerFunc(taskController.Start)).Methods(http.MethodPut)
	userRouter.Handle("/tasks/{id:[0-9]+}/complete", http.HandlerFunc(taskController.Complete)).Methods(http.MethodPut)
	userRouter.Handle("/rewards", http.HandlerFunc(rewardController.Summary)).Methods(http.MethodGet)
	userRouter.Handle("/team", http.HandlerFunc(teamController.List)).Methods(http.MethodGet)
}
