package services

import (
	"context"
	"errors"
	"testing"

	"expenses/internal/amqp"
	"expenses/internal/core"
	"expenses/internal/storage"
	"expenses/internal/storage/memory"
)

type recordingPublisher struct {
	events []amqp.ExpenseEvent
	err    error
}

func (p *recordingPublisher) PublishExpenseEvent(ctx context.Context, ev *amqp.ExpenseEvent) error {
	p.events = append(p.events, *ev)
	return p.err
}

func TestExpenseService_PublishesAfterEachWrite(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewExpenseService(memory.New(), pub, nil)
	ctx := context.Background()

	created, err := svc.CreateExpense(ctx, core.DemoExpenses()[0])
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	created.Amount = core.Money{Units: 1000}
	if _, err := svc.UpdateExpense(ctx, created.ID, created); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := svc.DeleteExpense(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	want := []amqp.EventType{amqp.ExpenseCreated, amqp.ExpenseUpdated, amqp.ExpenseDeleted}
	if len(pub.events) != len(want) {
		t.Fatalf("events = %+v", pub.events)
	}
	for i, ev := range pub.events {
		if ev.Type != want[i] || ev.ID != created.ID {
			t.Errorf("event %d = %+v, want %s for %s", i, ev, want[i], created.ID)
		}
	}
}

type hookOrderPublisher struct {
	hooked *int
	seen   []int
}

func (p *hookOrderPublisher) PublishExpenseEvent(ctx context.Context, ev *amqp.ExpenseEvent) error {
	p.seen = append(p.seen, *p.hooked)
	return nil
}

func TestExpenseService_ChangeHooksRunBeforePublish(t *testing.T) {
	hooked := 0
	pub := &hookOrderPublisher{hooked: &hooked}
	svc := NewExpenseService(memory.New(), pub, nil)
	svc.OnChange(func() { hooked++ })
	ctx := context.Background()

	created, err := svc.CreateExpense(ctx, core.DemoExpenses()[0])
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.UpdateExpense(ctx, created.ID, created); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := svc.DeleteExpense(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.DeleteExpense(ctx, created.ID); err == nil {
		t.Fatal("second delete should fail")
	}

	if hooked != 3 {
		t.Errorf("hooks ran %d times, want 3", hooked)
	}
	want := []int{1, 2, 3}
	for i := range want {
		if i >= len(pub.seen) || pub.seen[i] != want[i] {
			t.Fatalf("hook count seen at publish = %v, want %v", pub.seen, want)
		}
	}
}

func TestExpenseService_FailedWriteDoesNotPublish(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewExpenseService(memory.New(), pub, nil)

	err := svc.DeleteExpense(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.CreateExpense(context.Background(), core.Expense{}); err == nil {
		t.Fatal("expected validation error")
	}
	if len(pub.events) != 0 {
		t.Fatalf("no events expected, got %+v", pub.events)
	}
}

func TestExpenseService_PublishErrorIsNotReturned(t *testing.T) {
	pub := &recordingPublisher{err: amqp.ErrCircuitOpen}
	svc := NewExpenseService(memory.New(), pub, nil)

	if _, err := svc.CreateExpense(context.Background(), core.DemoExpenses()[1]); err != nil {
		t.Fatalf("publish failure must not fail the write: %v", err)
	}
	items, _ := svc.List(context.Background())
	if len(items) != 1 {
		t.Fatalf("expense not stored: %+v", items)
	}
}

func TestExpenseService_NilPublisherAndClose(t *testing.T) {
	svc := NewExpenseService(memory.NewDemo(), nil, nil)
	if _, err := svc.CreateExpense(context.Background(), core.DemoExpenses()[0]); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := (&ExpenseService{}).Close(); err != nil {
		t.Fatalf("close with nil repo: %v", err)
	}
}
