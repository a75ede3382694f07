package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bizpilot/config"
	"bizpilot/db"
	infraredis "bizpilot/infrastructure/redis"
	"bizpilot/pkg/logger"
	"bizpilot/server"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application failed: %v", err)
	}
}

func run() error {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logCfg := logger.DefaultConfig(cfg.Log.File)
	logCfg.Level = logger.ParseLevel(cfg.Log.Level)
	appLog, err := logger.NewWithConfig(logCfg)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer appLog.Close()
	logger.SetDefault(appLog)

	appLog.Info("configuration loaded\n%s", cfg.Summary())
	if cfg.Auth.UsingDevSecrets {
		appLog.Warn("JWT_SECRET or ADMIN_KEY not set; using built-in development values")
	}

	udb := db.OpenUsersDB(cfg.Storage.UsersFile, appLog)
	rdb := db.OpenRequestsDB(cfg.Storage.RequestsFile, appLog)
	appLog.WithFields(map[string]any{
		"users":    cfg.Storage.UsersFile,
		"requests": cfg.Storage.RequestsFile,
	}).Info("stores opened")

	var rc *redis.Client
	if cfg.Redis.Enabled() {
		rc, err = infraredis.NewClient(context.Background(), cfg.Redis)
		if err != nil {
			appLog.WithError(err).Warn("redis unavailable, rate limiting stays in memory")
			rc = nil
		} else {
			defer rc.Close()
			appLog.Info("connected to Redis at %s", cfg.Redis.Address)
		}
	}

	srv, err := server.NewServer(cfg, appLog, udb, rdb, rc)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	for {
		select {
		case err := <-errChan:
			return fmt.Errorf("server error: %w", err)
		case sig := <-quit:
			if sig == syscall.SIGHUP {
				if err := appLog.Rotate(); err != nil {
					appLog.WithError(err).Warn("log rotation failed")
				}
				continue
			}

			appLog.Info("received %v, shutting down", sig)

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("server shutdown failed: %w", err)
			}

			appLog.Info("server shutdown complete")
			return nil
		}
	}
}
