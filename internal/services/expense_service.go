// Package services holds the backend's write path: store first, then
// announce the change.
package services

import (
	"context"
	"fmt"

	"expenses/internal/amqp"
	"expenses/internal/core"
	"expenses/internal/log"
	"expenses/internal/storage"
)

// Publisher announces committed changes. *amqp.Client implements it.
type Publisher interface {
	PublishExpenseEvent(ctx context.Context, ev *amqp.ExpenseEvent) error
}

// ExpenseService orchestrates expense writes across storage and the event
// publisher. Reads go straight to the repository.
type ExpenseService struct {
	repo      storage.Repository
	publisher Publisher
	logger    *log.Logger
	onChange  []func()
}

// NewExpenseService wires repo and an optional publisher (nil disables events).
func NewExpenseService(repo storage.Repository, publisher Publisher, logger *log.Logger) *ExpenseService {
	if logger == nil {
		logger = log.Discard()
	}
	return &ExpenseService{
		repo:      repo,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentStorage),
	}
}

// OnChange registers fn to run after every committed write and before its
// event is published. Register hooks before the service is shared.
func (s *ExpenseService) OnChange(fn func()) {
	s.onChange = append(s.onChange, fn)
}

func (s *ExpenseService) List(ctx context.Context) ([]core.Expense, error) {
	return s.repo.List(ctx)
}

func (s *ExpenseService) Get(ctx context.Context, id string) (core.Expense, error) {
	return s.repo.Get(ctx, id)
}

func (s *ExpenseService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// CreateExpense saves e and publishes expense.created.
func (s *ExpenseService) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	created, err := s.repo.Create(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}
	s.committed(ctx, amqp.ExpenseCreated, created.ID)
	return created, nil
}

// UpdateExpense overwrites the expense with id and publishes expense.updated.
func (s *ExpenseService) UpdateExpense(ctx context.Context, id string, e core.Expense) (core.Expense, error) {
	updated, err := s.repo.Update(ctx, id, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	s.committed(ctx, amqp.ExpenseUpdated, id)
	return updated, nil
}

// DeleteExpense removes the expense with id and publishes expense.deleted.
func (s *ExpenseService) DeleteExpense(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	s.committed(ctx, amqp.ExpenseDeleted, id)
	return nil
}

// committed runs the change hooks, so readers reacting to the event see the
// new state, and then publishes.
func (s *ExpenseService) committed(ctx context.Context, t amqp.EventType, id string) {
	for _, fn := range s.onChange {
		fn()
	}
	s.publish(ctx, t, id)
}

// publish never fails the request: the write is already committed.
func (s *ExpenseService) publish(ctx context.Context, t amqp.EventType, id string) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "No event publisher, skipping event", "type", t, log.FieldExpenseID, id)
		return
	}
	if err := s.publisher.PublishExpenseEvent(ctx, amqp.NewExpenseEvent(t, id)); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish expense event",
			"type", t,
			log.FieldExpenseID, id,
			log.FieldError, err)
	}
}

// Close closes the repository.
func (s *ExpenseService) Close() error {
	if s.repo == nil {
		return nil
	}
	if err := s.repo.Close(); err != nil {
		return fmt.Errorf("close expense service: %w", err)
	}
	return nil
}
