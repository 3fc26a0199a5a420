package memory

import (
	"context"
	"errors"
	"testing"

	"expenses/internal/core"
	"expenses/internal/storage"
)

func TestDemoSeed(t *testing.T) {
	s := NewDemo()
	items, err := s.List(context.Background())
	if err != nil || len(items) != 2 {
		t.Fatalf("unexpected list: %v, %v", items, err)
	}
	if items[0].ID == "" || items[0].ID == items[1].ID {
		t.Fatalf("seed entries need distinct ids: %+v", items)
	}
}

func TestStoreCRUD(t *testing.T) {
	s := New()
	ctx := context.Background()

	a, err := s.Create(ctx, core.DemoExpenses()[0])
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	b, err := s.Create(ctx, core.DemoExpenses()[1])
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	b.Description = "Taxi home"
	if _, err := s.Update(ctx, b.ID, b); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got, _ := s.Get(ctx, b.ID); got.Description != "Taxi home" {
		t.Fatalf("update not applied: %+v", got)
	}

	if err := s.Delete(ctx, a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	items, _ := s.List(ctx)
	if len(items) != 1 || items[0].ID != b.ID {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestStoreErrors(t *testing.T) {
	s := NewDemo()
	ctx := context.Background()

	if _, err := s.Get(ctx, "nope"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("get: %v", err)
	}
	if err := s.Delete(ctx, "nope"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("delete: %v", err)
	}
	if _, err := s.Update(ctx, "nope", core.DemoExpenses()[0]); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("update: %v", err)
	}
	if _, err := s.Create(ctx, core.Expense{Description: "x"}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("create invalid: %v", err)
	}
}

func TestListIsACopy(t *testing.T) {
	s := NewDemo()
	items, _ := s.List(context.Background())
	items[0].Description = "mutated"
	again, _ := s.List(context.Background())
	if again[0].Description == "mutated" {
		t.Fatal("List must not expose internal storage")
	}
}
