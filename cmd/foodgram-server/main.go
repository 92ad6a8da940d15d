package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/impactys/foodgram/pkg/foodgram/auth"
	"github.com/impactys/foodgram/pkg/foodgram/config"
	"github.com/impactys/foodgram/pkg/foodgram/database"
	"github.com/impactys/foodgram/pkg/foodgram/logging"
	"github.com/impactys/foodgram/pkg/foodgram/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	if cfg.Auth.JWTSecret == "" {
		logger.Warn("auth.jwt_secret is not set, falling back to JWT_SECRET or the development secret")
	}
	auth.Configure(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	if err := database.Connect(cfg.Database); err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()
	logger.Info("Database migrations completed", zap.String("driver", cfg.Database.Driver))

	srv, err := server.New(cfg, database.GetDB(), logger)
	if err != nil {
		logger.Fatal("Failed to build server", zap.Error(err))
	}

	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server encountered an error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	<-sigCh

	if err := srv.Stop(); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
}
