package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ixtj-dev/daily-product-news/internal/app"
	"github.com/ixtj-dev/daily-product-news/internal/config"
	"github.com/ixtj-dev/daily-product-news/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, config.Load)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "dailynews run failed: %v\n", err)
	}
	os.Exit(app.ExitCode(err))
}

func run(ctx context.Context, loadConfig func() (*config.Config, error)) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.InfoObj("dailynews starting", "config", cfg.Redacted())

	pipeline, err := app.New(ctx, cfg, log)
	if err != nil {
		logger.ErrorObj("failed to initialize pipeline", "error", err.Error())
		return err
	}

	if err := pipeline.Run(ctx); err != nil {
		logger.ErrorObj("run failed", "error", err.Error())
		return err
	}

	return nil
}
