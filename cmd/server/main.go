// Package main starts the greeting preview server: configuration,
// logging, storage, and the HTTP API on localhost.
package main

import (
	"cmp"
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/atinyakov/valentine/internal/app"
	"github.com/atinyakov/valentine/internal/config"
	"github.com/atinyakov/valentine/internal/logger"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line, config file and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	// Open storage and wire repository, service and handlers.
	a, err := app.New(options, zapLogger)
	if err != nil {
		zapLogger.Fatal("cannot init storage", zap.Error(err))
	}
	defer func() { _ = a.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.Serve(ctx); err != nil {
		zapLogger.Error("server stopped", zap.Error(err))
	}
}
