package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" WARN ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: "json", Output: &buf, Component: ComponentAPI}).
		WithComponent(ComponentTracker).
		With(FieldRequestID, "req_1")

	logger.Info("Expense list changed", FieldCount, 2)
	logger.Debug("dropped below info")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected exactly one JSON record, got %q: %v", buf.String(), err)
	}
	if rec[FieldComponent] != ComponentTracker || rec[FieldRequestID] != "req_1" || rec[FieldCount] != float64(2) {
		t.Errorf("unexpected record: %v", rec)
	}
}

func TestFromContext(t *testing.T) {
	if got := FromContext(context.Background()).Component(); got != "unknown" {
		t.Errorf("fallback component = %q, want unknown", got)
	}

	l := Discard().WithComponent(ComponentHTTP)
	ctx := WithLogger(context.Background(), l)
	if FromContext(ctx) != l {
		t.Error("FromContext should return the stored logger")
	}
}

func TestLogFields(t *testing.T) {
	f := NewFields().
		WithOperation(OpDelete).
		WithIndex(3).
		WithError(errors.New("boom")).
		WithExpense("", "Taxi", 10000, "Transportation")

	if _, ok := f[FieldExpenseID]; ok {
		t.Error("empty id should be omitted")
	}
	if f[FieldOperation] != OpDelete || f[FieldIndex] != 3 || f[FieldError] != "boom" || f[FieldAmount] != int64(10000) {
		t.Errorf("unexpected fields: %v", f)
	}
	if got := len(f.ToSlice()); got != 2*len(f) {
		t.Errorf("ToSlice length = %d, want %d", got, 2*len(f))
	}

	if _, ok := NewFields().WithError(nil)[FieldError]; ok {
		t.Error("nil error should not add a field")
	}
}
