// Package main содержит точку входа планового обхода подписок.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"shaveden/internal/app/sweep"
	"shaveden/internal/config"
)

func main() {
	cfg := config.MustLoad()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	logger.Info("starting expiry-sweep", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := sweep.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize sweep app", slog.Any("err", err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error("sweep app stopped with error", slog.Any("err", err))
		os.Exit(1)
	}

	logger.Info("expiry-sweep stopped gracefully")
}
