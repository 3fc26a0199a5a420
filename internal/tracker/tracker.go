// Package tracker keeps the user's expense list in step with the backend.
//
// Every mutating call performs exactly one request and touches local state
// only once that request has succeeded. A failed call leaves the list, the
// total and the budget as they were.
package tracker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"expenses/internal/client"
	"expenses/internal/core"
	"expenses/internal/ledger"
	"expenses/internal/log"
)

type Tracker struct {
	mu     sync.Mutex
	api    client.API
	items  *ledger.Ledger
	budget core.Money
	logger *log.Logger
	now    func() time.Time
}

type Option func(*Tracker)

// WithLogger sets the logger used to report failed operations.
func WithLogger(l *log.Logger) Option {
	return func(t *Tracker) {
		if l != nil {
			t.logger = l.WithComponent(log.ComponentTracker)
		}
	}
}

// WithClock overrides time.Now, which supplies the default expense date.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithBudget sets the starting budget.
func WithBudget(b core.Money) Option {
	return func(t *Tracker) { t.budget = b }
}

// New returns an empty tracker backed by api. Call Load to fetch the list.
func New(api client.API, opts ...Option) *Tracker {
	t := &Tracker{
		api:    api,
		items:  ledger.New(nil),
		logger: log.New(log.DefaultConfig()).WithComponent(log.ComponentTracker),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Load replaces the local list with the backend's.
func (t *Tracker) Load(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	items, err := t.api.List(ctx)
	if err != nil {
		t.fail(ctx, "Failed to load expenses", log.OpList, err, nil)
		return err
	}
	t.items.Reset(items)
	t.logger.DebugContext(ctx, "Expenses loaded", log.FieldCount, len(items))
	return nil
}

// Add validates d, creates it on the backend and appends the stored record.
func (t *Tracker) Add(ctx context.Context, d core.Draft) (core.Expense, error) {
	e, err := d.Expense(t.now())
	if err != nil {
		t.reject(ctx, "Rejected expense input", log.OpValidate, err, nil)
		return core.Expense{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	created, err := t.api.Create(ctx, e)
	if err != nil {
		t.fail(ctx, "Failed to add expense", log.OpCreate, err, nil)
		return core.Expense{}, err
	}
	t.items.Append(created)
	t.logChange(ctx, log.OpCreate, created)
	return created, nil
}

// Edit replaces the expense at index i with d, keeping its backend id.
func (t *Tracker) Edit(ctx context.Context, i int, d core.Draft) (core.Expense, error) {
	e, err := d.Expense(t.now())
	if err != nil {
		t.reject(ctx, "Rejected expense input", log.OpValidate, err, log.NewFields().WithIndex(i))
		return core.Expense{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	current, err := t.items.At(i)
	if err != nil {
		t.reject(ctx, "Ignoring stale row index", log.OpUpdate, err, log.NewFields().WithIndex(i))
		return core.Expense{}, fmt.Errorf("edit expense: %w", err)
	}

	updated, err := t.api.Update(ctx, current.ID, e)
	if err != nil {
		t.fail(ctx, "Failed to edit expense", log.OpUpdate, err, log.NewFields().WithIndex(i))
		return core.Expense{}, err
	}
	if err := t.items.Replace(i, updated); err != nil {
		return core.Expense{}, fmt.Errorf("edit expense: %w", err)
	}
	t.logChange(ctx, log.OpUpdate, updated)
	return updated, nil
}

// Delete removes the expense at index i from the backend and the list.
func (t *Tracker) Delete(ctx context.Context, i int) (core.Expense, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	current, err := t.items.At(i)
	if err != nil {
		t.reject(ctx, "Ignoring stale row index", log.OpDelete, err, log.NewFields().WithIndex(i))
		return core.Expense{}, fmt.Errorf("delete expense: %w", err)
	}

	if err := t.api.Delete(ctx, current.ID); err != nil {
		t.fail(ctx, "Failed to delete expense", log.OpDelete, err, log.NewFields().WithIndex(i))
		return core.Expense{}, err
	}
	removed, err := t.items.Remove(i)
	if err != nil {
		return core.Expense{}, fmt.Errorf("delete expense: %w", err)
	}
	t.logChange(ctx, log.OpDelete, removed)
	return removed, nil
}

// Items returns the current list in display order.
func (t *Tracker) Items() []core.Expense {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.items.Items()
}

// At returns the expense shown at index i.
func (t *Tracker) At(i int) (core.Expense, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.items.At(i)
}

func (t *Tracker) Total() core.Money {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.items.Total()
}

func (t *Tracker) Budget() core.Money {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.budget
}

// SetBudget parses and stores a new budget. Negative budgets are rejected.
func (t *Tracker) SetBudget(raw string) (core.Money, error) {
	b, err := core.ParseBudget(raw)
	if err != nil {
		t.reject(context.Background(), "Rejected budget input", log.OpValidate, err, nil)
		return core.Money{}, err
	}
	t.mu.Lock()
	t.budget = b
	t.mu.Unlock()
	return b, nil
}

func (t *Tracker) Summary() core.Summary {
	t.mu.Lock()
	defer t.mu.Unlock()
	return core.Summarize(t.items.Items(), t.budget)
}

func (t *Tracker) fail(ctx context.Context, msg, op string, err error, fields log.LogFields) {
	if fields == nil {
		fields = log.NewFields()
	}
	fields = fields.WithOperation(op).WithError(err)
	t.logger.ErrorContext(ctx, msg, fields.ToSlice()...)
}

// reject reports input the tracker refused before any request was made.
func (t *Tracker) reject(ctx context.Context, msg, op string, err error, fields log.LogFields) {
	if fields == nil {
		fields = log.NewFields()
	}
	fields = fields.WithOperation(op).WithError(err)
	t.logger.WarnContext(ctx, msg, fields.ToSlice()...)
}

func (t *Tracker) logChange(ctx context.Context, op string, e core.Expense) {
	fields := log.NewFields().
		WithOperation(op).
		WithExpense(e.ID, e.Description, e.Amount.Units, e.Category.String()).
		ToSlice()
	fields = append(fields, log.FieldTotal, t.items.Total().Units)
	t.logger.InfoContext(ctx, "Expense list changed", fields...)
}
