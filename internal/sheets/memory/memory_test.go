package memory

import (
	"context"
	"errors"
	"testing"

	"expenses/internal/core"
)

func TestReplace(t *testing.T) {
	m := New()
	items := core.DemoExpenses()
	items[0].ID, items[1].ID = "a", "b"

	if err := m.Replace(context.Background(), items); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	rows := m.Rows()
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0][0] != "Date" || rows[2][1] != "Taxi" || rows[2][3] != int64(10000) || rows[2][4] != "b" {
		t.Errorf("unexpected rows: %v", rows)
	}

	// a second replace drops rows that are gone
	if err := m.Replace(context.Background(), items[:1]); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	if len(m.Rows()) != 2 || m.Replaces() != 2 {
		t.Errorf("rows=%d replaces=%d", len(m.Rows()), m.Replaces())
	}
}

func TestReplaceFailureKeepsRows(t *testing.T) {
	m := New()
	if err := m.Replace(context.Background(), core.DemoExpenses()); err != nil {
		t.Fatal(err)
	}

	boom := errors.New("quota exceeded")
	m.SetErr(boom)
	if err := m.Replace(context.Background(), nil); !errors.Is(err, boom) {
		t.Fatalf("expected %v, got %v", boom, err)
	}
	if len(m.Rows()) != 3 || m.Replaces() != 1 {
		t.Errorf("failed replace changed state: rows=%d replaces=%d", len(m.Rows()), m.Replaces())
	}
}
