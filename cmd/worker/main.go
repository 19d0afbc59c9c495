package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/kwhite/taskboard/internal/database"
	"github.com/kwhite/taskboard/internal/reminders"
	"github.com/kwhite/taskboard/pkg/config"
	"github.com/kwhite/taskboard/pkg/queue"
	"github.com/kwhite/taskboard/pkg/util"
)

func main() {
	// Load .env file
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := util.NewLogger(cfg.Server.Env)
	slog.SetDefault(logger)

	logger.Info("starting TaskBoard worker")

	// Connect to database
	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	// Asynq server and enqueue client
	srv := queue.NewServer(&cfg.Redis, 10)
	client := queue.NewClient(&cfg.Redis)
	defer client.Close()

	// Register handlers
	handler := reminders.NewHandler(db, logger, client)
	mux := asynq.NewServeMux()
	handler.RegisterHandlers(mux)

	// Periodic due-date sweep
	scheduler := queue.NewScheduler(&cfg.Redis)
	sweep, err := reminders.NewDueSweepTask(reminders.DueSweepPayload{WindowHours: 24})
	if err != nil {
		logger.Error("failed to build sweep task", "error", err)
		os.Exit(1)
	}
	if _, err := scheduler.Register("@every 1h", sweep); err != nil {
		logger.Error("failed to register sweep schedule", "error", err)
		os.Exit(1)
	}

	go func() {
		if err := scheduler.Run(); err != nil {
			logger.Error("scheduler error", "error", err)
		}
	}()

	// Handle shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("shutting down worker...")
		scheduler.Shutdown()
		srv.Shutdown()
	}()

	if err := srv.Run(mux); err != nil {
		logger.Error("worker error", "error", err)
		os.Exit(1)
	}

	logger.Info("worker stopped")
}
