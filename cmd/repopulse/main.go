// Command repopulse serves the GitHub webhook ingestion endpoint and the
// stored-event read API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/repopulse/repopulse/internal/config"
	"github.com/repopulse/repopulse/internal/log"
	"github.com/repopulse/repopulse/internal/server"
	"github.com/repopulse/repopulse/internal/storage"
)

const version = "0.1.0"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("repopulse", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to YAML config file (optional; env vars override)")
	listen := fs.String("listen", "", "listen address override")
	showVersion := fs.Bool("version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *showVersion {
		fmt.Println("repopulse " + version)
		return 0
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "repopulse: %v\n", err)
		return 1
	}
	if *listen != "" {
		cfg.Listen = *listen
	}

	log.Setup(cfg.LogLevel)
	logger := log.WithComponent("main")
	logger.Info("starting", "version", version)

	if *configPath != "" {
		if fp, err := config.Fingerprint(*configPath); err == nil {
			logger.Info("config loaded", "path", *configPath, "fingerprint", fp)
		}
	}
	if cfg.UsingDevSecret() {
		logger.Warn("using the development webhook secret; set GITHUB_WEBHOOK_SECRET for production")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := storage.New(cfg.DatabasePath)
	defer store.Close()

	// Store failure is not fatal: the HTTP surface keeps serving and the
	// store re-attempts initialization on first use.
	if err := store.Init(ctx); err != nil {
		logger.Warn("event store unavailable, serving degraded", "path", cfg.DatabasePath, "error", err)
	} else if n, err := store.Count(ctx); err == nil {
		logger.Info("event store ready", "path", cfg.DatabasePath, "events", n)
	}

	srv := server.New(server.Config{
		Listen:        cfg.Listen,
		WebhookSecret: cfg.WebhookSecret,
	}, store, log.WithComponent("server"))

	if err := srv.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server exited", "error", err)
		return 1
	}

	logger.Info("shutdown complete")
	return 0
}
