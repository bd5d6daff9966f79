package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Mohi32415/TaskMate/internal/config"
	"github.com/Mohi32415/TaskMate/internal/database"
	"github.com/Mohi32415/TaskMate/internal/handler"
	"github.com/Mohi32415/TaskMate/internal/middleware"
	"github.com/Mohi32415/TaskMate/internal/repository"
	"github.com/Mohi32415/TaskMate/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := config.Load()

	// Database
	db, err := database.NewPool(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.RunMigrations(context.Background(), db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Migrations applied successfully")

	// Repositories
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	challengeRepo := repository.NewChallengeRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	// Services
	authSvc := service.NewAuthService(userRepo, sessionRepo, cfg.JWTSecret)
	hub := service.NewHub(cfg.SweepInterval)
	relay := service.NewRelay(hub, challengeRepo, messageRepo)

	// Fiber app
	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
		BodyLimit:    1 * 1024 * 1024, // 1MB
	})

	app.Use(recover.New())
	app.Use(middleware.Logger())
	app.Use(middleware.CORS(cfg.CORSOrigins))

	// Health + metrics
	healthH := handler.NewHealthHandler(db)
	app.Get("/health", healthH.Health)
	app.Get("/ready", healthH.Ready)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")

	// Auth (public)
	authH := handler.NewAuthHandler(authSvc)
	auth := api.Group("/auth")
	auth.Post("/register", middleware.RateLimit(5, time.Minute), authH.Register)
	auth.Post("/login", middleware.RateLimit(10, time.Minute), authH.Login)
	auth.Post("/refresh", middleware.RateLimit(20, time.Minute), authH.Refresh)
	auth.Post("/logout", authH.Logout)

	// Categories (public lookup table)
	categoryH := handler.NewCategoryHandler(categoryRepo)
	api.Get("/categories", categoryH.List)

	// JWT-protected routes
	protected := api.Group("", middleware.Auth(cfg.JWTSecret))

	userH := handler.NewUserHandler(userRepo)
	protected.Get("/user", userH.Me)
	protected.Patch("/user", userH.UpdateSettings)
	protected.Post("/user/synced", userH.MarkSynced)

	taskH := handler.NewTaskHandler(taskRepo)
	protected.Post("/tasks", taskH.Create)
	protected.Get("/tasks", taskH.List)
	protected.Delete("/tasks/:id", taskH.Delete)
	protected.Post("/tasks/:id/progress", taskH.PostProgress)
	protected.Get("/tasks/:id/progress", taskH.GetProgress)

	challengeH := handler.NewChallengeHandler(challengeRepo, userRepo, relay)
	protected.Post("/challenges", challengeH.Create)
	protected.Get("/challenges", challengeH.List)
	protected.Get("/challenges/:id", challengeH.Get)
	protected.Patch("/challenges/:id", challengeH.Update)
	protected.Post("/challenges/join/:code", challengeH.Join)
	protected.Post("/challenges/:id/progress", challengeH.PostProgress)
	protected.Get("/challenges/:id/progress", challengeH.GetProgress)

	chatH := handler.NewChatHandler(messageRepo, challengeRepo, relay)
	protected.Get("/challenges/:id/messages", chatH.GetHistory)
	protected.Post("/challenges/:id/messages", chatH.PostMessage)

	// WebSocket
	wsH := handler.NewWSHandler(hub, relay, authSvc)
	app.Get("/ws", wsH.Upgrade)

	// Liveness sweep
	go hub.Run()

	// Daily maintenance: expired sessions, old chat history
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if err := sessionRepo.CleanupExpired(ctx); err != nil {
				log.Printf("Session cleanup failed: %v", err)
			}
			if n, err := messageRepo.DeleteOlderThan(ctx, cfg.RetentionDays); err != nil {
				log.Printf("Chat retention failed: %v", err)
			} else if n > 0 {
				log.Printf("Chat retention removed %d message(s)", n)
			}
			cancel()
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}()

	log.Printf("TasksMate backend running on :%s (%s)", cfg.Port, cfg.Env)

	<-quit
	log.Println("Shutting down...")
	_ = app.ShutdownWithTimeout(5 * time.Second)
	hub.Shutdown()
	log.Println("Server stopped")
}
