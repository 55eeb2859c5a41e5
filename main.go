package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"legal-router/internal/app"
	"legal-router/internal/common/logging"
	"legal-router/internal/config"
	"legal-router/internal/data"
)

func main() {
	godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logging.InitGlobalLogger()
	defer logging.MustSync()

	application, err := app.New(cfg, data.NewMemoryProvider())
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	errCh := application.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logging.Error("server failed", err)
	case sig := <-quit:
		logging.Info("shutting down", logging.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := application.Shutdown(ctx); err != nil {
		logging.Error("shutdown failed", err)
	}
}
