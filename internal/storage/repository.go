package storage

import (
	"context"
	"errors"

	"expenses/internal/core"
)

// ErrNotFound is returned when no expense has the requested id.
var ErrNotFound = errors.New("expense not found")

// Dialect selects the SQL flavour and driver of a SQLRepository.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// DriverName is the database/sql driver registered for the dialect.
func (d Dialect) DriverName() string {
	return string(d)
}

// Repository stores expenses for the REST backend. List returns expenses in
// insertion order; Create assigns the id.
type Repository interface {
	List(ctx context.Context) ([]core.Expense, error)
	Get(ctx context.Context, id string) (core.Expense, error)
	Create(ctx context.Context, e core.Expense) (core.Expense, error)
	Update(ctx context.Context, id string, e core.Expense) (core.Expense, error)
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
	Close() error
}
