package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"companies-backend/config"
	"companies-backend/database"
	"companies-backend/logger"
	"companies-backend/routes"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error loading config:", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.LogLevel, cfg.App.LogPath)
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	// ---- Database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("database migration failed", zap.Error(err))
	}
	if err := database.SeedAdmin(db, cfg.Admin); err != nil {
		log.Fatal("admin seeding failed", zap.Error(err))
	}

	app := routes.NewApp(db, cfg, log)

	// ---- Graceful shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error("shutdown failed", zap.Error(err))
		}
	}()

	// ---- Start
	addr := fmt.Sprintf(":%d", cfg.App.Port)
	log.Info("API server starting", zap.String("addr", addr), zap.String("env", cfg.App.Env))
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
