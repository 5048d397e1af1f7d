package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/MKWcorp/berkomunitas-sub005/internal/config"
	"github.com/MKWcorp/berkomunitas-sub005/internal/database"
	"github.com/MKWcorp/berkomunitas-sub005/internal/handler"
	"github.com/MKWcorp/berkomunitas-sub005/internal/repository"
	"github.com/MKWcorp/berkomunitas-sub005/internal/scheduler"
	"github.com/MKWcorp/berkomunitas-sub005/internal/service"
	"github.com/MKWcorp/berkomunitas-sub005/pkg/logger"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output); err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}

	db, err := database.Connect(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database: ", err)
	}
	defer func() {
		if err := database.Close(db); err != nil {
			logger.Error("Failed to close database: ", err)
		}
	}()

	memberRepo := repository.NewMemberRepository(db)
	historyRepo := repository.NewHistoryRepository(db)
	logRepo := repository.NewTransactionLogRepository(db)
	eventRepo := repository.NewEventRepository(db)

	awardSvc := service.NewAwardService(db, memberRepo, historyRepo, logRepo, eventRepo, &cfg.Points)
	reconcileSvc := service.NewReconcileService(db, memberRepo, historyRepo, logRepo, cfg.Points.ReconcilePageSize)

	reconcileScheduler := scheduler.NewReconcileScheduler(reconcileSvc, cfg.Points.ReconcileCron)
	if err := reconcileScheduler.Start(); err != nil {
		logger.Fatal("Failed to start scheduler: ", err)
	}
	defer reconcileScheduler.Stop()

	router := handler.New(awardSvc, reconcileSvc, reconcileScheduler).Router()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("Server starting on port ", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed: ", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error: ", err)
	}

	logger.Info("Server stopped")
}
