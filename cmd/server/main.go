package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"github.com/joho/godotenv"

	"github.com/civicworks/civicd/api"
	dbfs "github.com/civicworks/civicd/db"
	"github.com/civicworks/civicd/internal/assign"
	"github.com/civicworks/civicd/internal/config"
	"github.com/civicworks/civicd/internal/db"
	"github.com/civicworks/civicd/internal/notify"
	"github.com/civicworks/civicd/internal/repository/sqlite"
	"github.com/civicworks/civicd/internal/scheduler"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	var configPath = flag.String("config", "", "Path to config YAML file")
	flag.Parse()

	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)
	api.SetLogger(logger)

	logger.Info("starting civicd",
		slog.String("version", version),
		slog.String("build_time", buildTime),
	)

	ctx := context.Background()

	// Open database connection and apply migrations plus seed data
	d, err := db.New(ctx, cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	if err := db.Migrate(ctx, d, dbfs.Migrations, dbfs.SeedFiles); err != nil {
		log.Fatalf("Failed to migrate DB: %v", err)
	}

	repo := sqlite.New(d)

	dispatcher := notify.NewDispatcher(notify.NewLogNotifier(logger), logger, 0)
	dispatcher.Start()

	engine := assign.NewEngine(repo, repo, repo, dispatcher,
		cfg.Assignment.MaxDailyTasksPerWorker, cfg.Assignment.BatchSize, logger)

	sched := scheduler.New(logger)
	sched.Every("assign-pending-reports", cfg.Assignment.RunInterval, engine.RunOnce)
	sched.DailyAt("reset-daily-counts", cfg.Assignment.ResetHour, cfg.Assignment.ResetMinute,
		func(ctx context.Context) error {
			return assign.ResetDailyCounts(ctx, repo, logger)
		})
	sched.Start(ctx)

	handler := api.SetupRoutes(cfg, version, buildTime, d, engine)

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.APITimeout,
		WriteTimeout: cfg.APITimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", slog.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	sched.Stop()
	dispatcher.Stop()

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	if err := d.Close(); err != nil {
		logger.Error("error closing DB", slog.Any("err", err))
	}

	logger.Info("server exited")
}
