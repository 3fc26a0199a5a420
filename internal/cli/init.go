// Package cli holds the start-up and shutdown steps shared by the binaries
// under cmd/.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"expenses/internal/config"
	"expenses/internal/log"
)

// ShutdownTimeout bounds how long servers get to drain on exit.
const ShutdownTimeout = 10 * time.Second

// SetupLogger builds the process logger from cfg and makes it the slog
// default.
func SetupLogger(cfg *config.Config, component string, out io.Writer) *log.Logger {
	lc := log.DefaultConfig()
	lc.Level = log.ParseLevel(cfg.LogLevel)
	lc.Format = cfg.LogFormat
	lc.Component = component
	if out != nil {
		lc.Output = out
	}
	logger := log.New(lc)
	log.SetDefault(logger)
	return logger
}

// Bootstrap loads the configuration, sets up logging and runs validate
// (cfg.Validate when nil). Any failure is fatal: it is reported on stderr
// and the process exits with status 1.
func Bootstrap(component string, validate func(*config.Config) error) (*config.Config, *log.Logger) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := SetupLogger(cfg, component, os.Stdout)

	if validate == nil {
		validate = (*config.Config).Validate
	}
	if err := validate(cfg); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg, logger
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown)
	}()
	return ctx, stop
}

// Server is what Serve runs; *http.Server and *api.Server both fit.
type Server interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// Serve runs srv until ctx is done, then shuts it down within
// ShutdownTimeout. A clean shutdown returns nil.
func Serve(ctx context.Context, srv Server, name string, logger *log.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "server", name, log.FieldOperation, log.OpStartup)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("%s: %w", name, err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Server shutdown incomplete", "server", name, log.FieldError, err)
		return fmt.Errorf("shutdown %s: %w", name, err)
	}
	logger.Info("Server stopped", "server", name)
	return nil
}
