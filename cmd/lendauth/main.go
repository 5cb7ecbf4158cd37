package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/you/lendauth/internal/app"
	"github.com/you/lendauth/internal/config"
	"github.com/you/lendauth/internal/logging"
)

func main() {
	if err := config.LoadDotenv(".env"); err != nil {
		log.Fatalf("dotenv: %v", err)
	}

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = config.DefaultPath
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.IsProduction())
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for _, name := range cfg.GeneratedSecrets {
		logger.Warn(ctx, "token secret not configured, using a random per-process value", "variable", name)
	}

	if err := app.Run(ctx, cfg, logger); err != nil {
		logger.Error(ctx, "app stopped", "error", err)
		os.Exit(1)
	}
}
