package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/segyhp/lending-engine/internal/app"
	"github.com/segyhp/lending-engine/internal/config"
	"github.com/segyhp/lending-engine/internal/handler"
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

	ctx := context.Background()
	application, err := app.New(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize application", err)
	}
	defer application.Close()

	// A nil *redis.Client reports redis as disabled in readiness checks.
	loanHandler := handler.NewLoanHandler(application.Service)
	healthHandler := handler.NewHealthHandler(application.DB, application.Redis, cfg.Health.Timeout)

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      handler.NewRouter(loanHandler, healthHandler),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("Server starting", zap.String("addr", server.Addr), zap.String("env", cfg.Server.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed to start", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", err)
		return
	}

	logger.Info("Server exited")
}
