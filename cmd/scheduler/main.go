package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/segyhp/lending-engine/internal/app"
	"github.com/segyhp/lending-engine/internal/config"
	"github.com/segyhp/lending-engine/internal/scheduler"
	"github.com/segyhp/lending-engine/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		logger.Fatal("Failed to initialize logger", err)
	}
	defer logger.Sync()

	application, err := app.New(context.Background(), cfg)
	if err != nil {
		logger.Fatal("Failed to initialize application", err)
	}
	defer application.Close()

	s := scheduler.New(application.Service, cfg.Scheduler, cfg.Location())
	if err := s.Register(); err != nil {
		logger.Fatal("Failed to register jobs", err)
	}

	s.Start()
	logger.Info("Scheduler started",
		zap.String("overdue_spec", cfg.Scheduler.OverdueSpec),
		zap.String("reminder_spec", cfg.Scheduler.ReminderSpec),
		zap.String("timezone", cfg.Scheduler.Timezone),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Stopping scheduler")

	// Wait for running jobs to finish.
	<-s.Stop().Done()
	logger.Info("Scheduler exited")
}
