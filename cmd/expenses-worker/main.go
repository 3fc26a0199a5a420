// Command expenses-worker mirrors the expense list into a Google Sheet,
// on every change event and on a fixed interval.
package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"expenses/internal/amqp"
	"expenses/internal/cli"
	"expenses/internal/client"
	"expenses/internal/config"
	"expenses/internal/log"
	gsheet "expenses/internal/sheets/google"
	"expenses/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentWorker, (*config.Config).ValidateWorker)
	if err := run(cfg, logger); err != nil {
		logger.Error("Expenses worker failed", log.FieldError, err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx, stop := cli.SignalContext(logger)
	defer stop()

	api, err := client.New(cfg.APIBaseURL, client.WithTimeout(cfg.RequestTimeout))
	if err != nil {
		return err
	}

	mirror, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.ServiceAccountFile(),
	}, logger)
	if err != nil {
		return err
	}

	w := worker.NewMirrorWorker(api, mirror, cfg.SyncInterval, logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.Run(ctx) })

	if cfg.AMQPURL != "" {
		events, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			return err
		}
		defer events.Close()
		g.Go(func() error {
			err := events.Consume(ctx, w.HandleEvent)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	} else {
		logger.Info("AMQP disabled, mirroring on the interval only", "interval", cfg.SyncInterval)
	}

	logger.Info("Starting expenses worker",
		"api", api.BaseURL(),
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"sheet", cfg.GoogleSheetName,
		"interval", cfg.SyncInterval)

	err = g.Wait()
	stats := w.Stats()
	logger.Info("Worker stopped", "syncs", stats.Syncs, "failures", stats.Failures)
	return err
}
