// Package main provides the entry point for the launcher backend. Requests
// arrive as JSON lines on stdin and responses leave on stdout; logs go to
// stderr and the optional log file.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"

	"github.com/colin969/exodos-launcher/internal/backend"
	"github.com/colin969/exodos-launcher/internal/di"
	"github.com/colin969/exodos-launcher/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Create DI container
	injector := di.NewContainer()

	if err := di.Bootstrap(ctx, injector); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap backend: %v\n", err)
		os.Exit(1)
	}

	log := do.MustInvoke[*logger.Logger](injector)
	dispatcher := do.MustInvoke[*backend.Dispatcher](injector)

	log.Info("Backend ready", "request_kinds", len(dispatcher.Kinds()))

	// A blocked stdin read does not observe ctx, so a signal stops waiting
	// on the loop instead of the loop itself.
	served := make(chan error, 1)
	go func() { served <- dispatcher.Serve(ctx, os.Stdin, os.Stdout) }()

	select {
	case err := <-served:
		if err != nil {
			log.Error("Request loop stopped", "error", err)
		}
	case <-ctx.Done():
		log.Info("Received shutdown signal")
	}

	log.Info("Shutting down backend gracefully...")

	// The container shuts services down in reverse dependency order; the
	// library service drains queued writes before returning.
	if err := injector.Shutdown(); err != nil {
		log.Error("Shutdown error", "error", err)
	}

	log.Info("Goodbye")
	_ = log.Close()
}
