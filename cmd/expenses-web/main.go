// Command expenses-web serves the expenses tracker page, backed by the REST
// API at API_BASE_URL.
package main

import (
	"context"
	"fmt"
	"os"

	"expenses/internal/cli"
	"expenses/internal/client"
	"expenses/internal/config"
	apphttp "expenses/internal/http"
	"expenses/internal/log"
	"expenses/internal/tracker"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentHTTP, nil)
	if err := run(cfg, logger); err != nil {
		logger.Error("Expenses web UI failed", log.FieldError, err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *log.Logger) error {
	api, err := client.New(cfg.APIBaseURL, client.WithTimeout(cfg.RequestTimeout))
	if err != nil {
		return err
	}
	budget, err := cfg.BudgetAmount()
	if err != nil {
		return fmt.Errorf("budget: %w", err)
	}

	t := tracker.New(api, tracker.WithLogger(logger), tracker.WithBudget(budget))

	srv, err := apphttp.NewServer(":"+cfg.Port, t, apphttp.Options{
		Logger:         logger,
		PostsPerMinute: cfg.RateLimit,
		TrustedProxies: cfg.TrustedProxies,
	})
	if err != nil {
		return err
	}

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	// The page retries the load, so a backend that is still starting is
	// not fatal here.
	loadCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	if err := srv.Load(loadCtx); err != nil {
		logger.Warn("Initial expense load failed", log.FieldError, err, "api", api.BaseURL())
	}
	cancel()

	logger.Info("Starting expenses web UI",
		"port", cfg.Port,
		"api", api.BaseURL(),
		"budget", budget.Units)

	return cli.Serve(ctx, srv, "web", logger)
}
