package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"reddit-listener/bootstrap"
	"reddit-listener/config"
	"reddit-listener/utils/logger"

	"github.com/joho/godotenv"
)

func main() {
	// Missing .env is fine; the environment may be set by the runtime.
	_ = godotenv.Load()

	log := logger.Init()

	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, cleanup, err := bootstrap.BuildDependencies(ctx, cfg, log)
	if err != nil {
		log.Error("failed to build dependencies", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	e := bootstrap.NewHTTPServer(deps)
	bootstrap.StartHTTPServer(e, cfg.Server.Port, log)

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", "error", err)
	}

	log.Info("server stopped")
}
