// Command expenses-api serves the reference expenses REST backend.
package main

import (
	"fmt"
	"os"

	"expenses/internal/api"
	"expenses/internal/backend"
	"expenses/internal/cli"
	"expenses/internal/config"
	"expenses/internal/log"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentAPI, nil)
	if err := run(cfg, logger); err != nil {
		logger.Error("Expenses API failed", log.FieldError, err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *log.Logger) error {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return fmt.Errorf("initialize %s backend: %w", backendCfg.Type, err)
	}
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Warn("Backend cleanup failed", log.FieldError, err)
		}
	}()

	srv := api.NewServer(":"+cfg.APIPort, result.Service, api.Options{
		Logger:          logger,
		CacheTTL:        cfg.CacheTTL,
		WritesPerMinute: cfg.RateLimit,
		TrustedProxies:  cfg.TrustedProxies,
	})

	logger.Info("Starting expenses API",
		"port", cfg.APIPort,
		"backend", backendCfg.Type,
		"events", result.Events)

	return cli.Serve(ctx, srv, "api", logger)
}
