package storage

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"expenses/internal/core"
	"expenses/internal/log"
)

func newSQLiteRepo(t *testing.T) *SQLRepository {
	t.Helper()
	repo, err := OpenSQLite(filepath.Join(t.TempDir(), "nested", "expenses.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteCRUD(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()

	if err := repo.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}

	empty, err := repo.List(ctx)
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil list, got %v, %v", empty, err)
	}

	var ids []string
	for _, e := range core.DemoExpenses() {
		created, err := repo.Create(ctx, e)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if created.ID == "" {
			t.Fatal("create must assign an id")
		}
		ids = append(ids, created.ID)
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Description != "Book" || list[1].Description != "Taxi" {
		t.Fatalf("list must keep insertion order: %+v", list)
	}
	if list[0].Date.String() != "20/5/2023" || list[0].Category != core.Education || list[0].Amount.Units != 35000 {
		t.Fatalf("unexpected first row: %+v", list[0])
	}

	upd := list[1]
	upd.Amount = core.Money{Units: 12000}
	if _, err := repo.Update(ctx, ids[1], upd); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := repo.Get(ctx, ids[1])
	if err != nil || got.Amount.Units != 12000 {
		t.Fatalf("get after update: %+v, %v", got, err)
	}

	if err := repo.Delete(ctx, ids[0]); err != nil {
		t.Fatalf("delete: %v", err)
	}
	list, _ = repo.List(ctx)
	if len(list) != 1 || list[0].ID != ids[1] {
		t.Fatalf("unexpected list after delete: %+v", list)
	}
}

func TestCreateLogsThroughContextLogger(t *testing.T) {
	repo := newSQLiteRepo(t)
	var buf bytes.Buffer
	logger := log.New(log.Config{Format: "json", Level: slog.LevelDebug, Output: &buf})
	ctx := log.WithLogger(context.Background(), logger)

	created, err := repo.Create(ctx, core.DemoExpenses()[0])
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `"msg":"Expense saved"`) || !strings.Contains(out, `"expense_id":"`+created.ID+`"`) {
		t.Fatalf("save not logged through the context logger: %s", out)
	}
}

func TestSQLiteNotFound(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()

	if _, err := repo.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("get: expected ErrNotFound, got %v", err)
	}
	e := core.DemoExpenses()[0]
	if _, err := repo.Update(ctx, "missing", e); !errors.Is(err, ErrNotFound) {
		t.Errorf("update: expected ErrNotFound, got %v", err)
	}
	if err := repo.Delete(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("delete: expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteRejectsInvalidExpense(t *testing.T) {
	repo := newSQLiteRepo(t)
	_, err := repo.Create(context.Background(), core.Expense{Description: "x", Category: core.Food, Date: core.NewDate(2023, 1, 1)})
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "expenses.db")
	for i := 0; i < 2; i++ {
		repo, err := OpenSQLite(path)
		if err != nil {
			t.Fatalf("open #%d: %v", i+1, err)
		}
		repo.Close()
	}
}

func TestRebind(t *testing.T) {
	pg := &SQLRepository{dialect: Postgres}
	lite := &SQLRepository{dialect: SQLite}
	q := `UPDATE expenses SET a = ?, b = ? WHERE id = ?`

	if got := pg.rebind(q); got != `UPDATE expenses SET a = $1, b = $2 WHERE id = $3` {
		t.Errorf("postgres rebind = %q", got)
	}
	if got := lite.rebind(q); got != q {
		t.Errorf("sqlite rebind changed query: %q", got)
	}
}
