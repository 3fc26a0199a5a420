// Package backend assembles the storage and event publishing behind the
// REST API from configuration.
package backend

import (
	"context"

	"expenses/internal/services"
)

// CleanupFunc releases the resources a backend holds.
type CleanupFunc func() error

// BackendResult contains the expense service and its cleanup function.
type BackendResult struct {
	Service *services.ExpenseService
	// Events reports whether change events are being published.
	Events  bool
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	SQLiteDBPath string
	PostgresURL  string
	// SeedDemo preloads the memory store with the two demo expenses.
	SeedDemo bool

	// Events are published when AMQPURL is set.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
)

func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, PostgresBackend:
		return true
	default:
		return false
	}
}
