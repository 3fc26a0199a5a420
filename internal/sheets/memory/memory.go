// Package memory is an in-process sheets.Mirror.
package memory

import (
	"context"
	"sync"

	"expenses/internal/core"
	"expenses/internal/sheets"
)

var _ sheets.Mirror = (*Mirror)(nil)

// Mirror keeps the rows of the last Replace, header included.
type Mirror struct {
	mu       sync.Mutex
	rows     [][]any
	replaces int
	// Err, when set, is returned by Replace and the rows are left as they were.
	Err error
}

func New() *Mirror {
	return &Mirror{}
}

func (m *Mirror) Replace(_ context.Context, items []core.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}

	header := make([]any, len(sheets.Header))
	for i, h := range sheets.Header {
		header[i] = h
	}
	rows := [][]any{header}
	for _, e := range items {
		rows = append(rows, sheets.Row(e))
	}
	m.rows = rows
	m.replaces++
	return nil
}

// Rows returns a copy of the mirrored rows.
func (m *Mirror) Rows() [][]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]any(nil), m.rows...)
}

// Replaces counts successful Replace calls.
func (m *Mirror) Replaces() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.replaces
}

// SetErr makes subsequent Replace calls fail with err (nil clears it).
func (m *Mirror) SetErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Err = err
}
