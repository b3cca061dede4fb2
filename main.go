package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ouyangvase/task-sync-pilot-sub000/database"
	"github.com/ouyangvase/task-sync-pilot-sub000/middleware"
	"github.com/ouyangvase/task-sync-pilot-sub000/repository"
	"github.com/ouyangvase/task-sync-pilot-sub000/routes"
	"github.com/ouyangvase/task-sync-pilot-sub000/services"
	"github.com/ouyangvase/task-sync-pilot-sub000/utils"
)

func main() {
	// Load .env if present without overwriting already-set variables.
	if envMap, err := godotenv.Read(); err == nil {
		for k, v := range envMap {
			if os.Getenv(k) == "" {
				os.Setenv(k, v)
			}
		}
	}

	for _, envVar := range []string{"DB_HOST", "DB_USER", "DB_NAME", "JWT_SECRET"} {
		if os.Getenv(envVar) == "" {
			log.Fatalf("Required environment variable %s is not set", envVar)
		}
	}

	db, err := database.Connect()
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	if strings.ToLower(os.Getenv("ENV")) == "development" {
		log.Println("Running in development mode - performing auto-migration")
		if err := database.Migrate(db); err != nil {
			log.Fatalf("failed to migrate database: %v", err)
		}
	}

	// Repositories and services.
	taskRepo := repository.NewTaskRepository(db)
	userRepo := repository.NewUserRepository(db)
	pointsRepo := repository.NewPointsRepository(db)
	rewardRepo := repository.NewRewardRepository(db)
	settingRepo := repository.NewSettingRepository(db)

	var events services.EventPublisher = services.NopPublisher{}
	if client := utils.NewRedisClient(); client != nil {
		events = repository.NewRedisPublisher(client)
	}

	points := services.NewPoints(pointsRepo, rewardRepo, settingRepo)
	flow := services.NewTaskFlow(taskRepo, userRepo, points, events)
	staff := services.NewStaff(userRepo, events)

	// Recurrence catch-up sweep.
	scheduler := services.NewScheduler(time.UTC)
	sweepMin := 15
	if v, err := strconv.Atoi(os.Getenv("SWEEP_INTERVAL_MIN")); err == nil && v > 0 {
		sweepMin = v
	}
	if _, err := scheduler.ScheduleSweep(flow, time.Duration(sweepMin)*time.Minute); err != nil {
		log.Fatalf("failed to schedule recurrence sweep: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	router := routes.InitRouter(routes.Deps{
		Flow:     flow,
		Points:   points,
		Staff:    staff,
		Users:    userRepo,
		Rewards:  rewardRepo,
		Settings: settingRepo,
	})

	handler := middleware.RequestLogMiddleware(
		middleware.SecurityHeadersMiddleware(
			middleware.RequestIDMiddleware(
				middleware.TimeoutMiddleware(
					middleware.RecoveryMiddleware(router),
				),
			),
		),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited")
}
