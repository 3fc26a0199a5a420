package backend

import (
	"context"
	"errors"
	"fmt"

	"expenses/internal/amqp"
	"expenses/internal/log"
	"expenses/internal/services"
	"expenses/internal/storage"
	"expenses/internal/storage/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// CreateBackend opens the repository named by config.Type and, when AMQP is
// configured and reachable, attaches an event publisher. A broker that
// cannot be reached is logged and skipped; the API still serves.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	repo, err := f.openRepository(config)
	if err != nil {
		return nil, err
	}

	var (
		publisher services.Publisher
		amqpC     *amqp.Client
	)
	if config.AMQPURL != "" {
		amqpC, err = amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without events", log.FieldError, err)
			amqpC = nil
		} else {
			// assigned only when non-nil so the interface stays nil otherwise
			publisher = amqpC
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	svc := services.NewExpenseService(repo, publisher, f.logger)

	f.logger.InfoContext(ctx, "Initialized backend",
		"type", config.Type,
		"events_enabled", publisher != nil)

	return &BackendResult{
		Service: svc,
		Events:  publisher != nil,
		Cleanup: func() error {
			var errs []error
			if amqpC != nil {
				errs = append(errs, amqpC.Close())
			}
			errs = append(errs, svc.Close())
			return errors.Join(errs...)
		},
	}, nil
}

func (f *DefaultFactory) openRepository(config Config) (storage.Repository, error) {
	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.OpenSQLite(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Opened SQLite repository", "db_path", config.SQLiteDBPath)
		return repo, nil
	case PostgresBackend:
		repo, err := storage.OpenPostgres(config.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres repository: %w", err)
		}
		f.logger.Info("Opened Postgres repository")
		return repo, nil
	case MemoryBackend:
		if config.SeedDemo {
			f.logger.Info("Using in-memory repository with demo expenses")
			return memory.NewDemo(), nil
		}
		f.logger.Info("Using empty in-memory repository")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}
