// Command cleanup runs the install/update maintenance: it writes default
// settings when none are stored and removes records older than the
// configured install threshold. It is meant to run once after the
// service is installed or upgraded, or from an external cron job.
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/heartmarshall/study-helper/internal/app"
	"github.com/heartmarshall/study-helper/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	store, closeStore, err := app.OpenStore(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Error("open storage", slog.String("error", err.Error()))
		os.Exit(1)
	}

	gw := app.NewGateway(cfg, store, logger)
	err = app.Prepare(ctx, gw, cfg.Cleanup.InstallDays, logger)
	closeStore()
	if err != nil {
		logger.Error("cleanup failed",
			slog.String("error", err.Error()),
			slog.Int("days", cfg.Cleanup.InstallDays),
		)
		os.Exit(1)
	}

	logger.Info("cleanup completed", slog.Int("days", cfg.Cleanup.InstallDays))
}
