// Package sheets defines the spreadsheet mirror the worker keeps in step
// with the backend.
package sheets

import (
	"context"

	"expenses/internal/core"
)

// Header is the first row of a mirrored sheet.
var Header = []string{"Date", "Description", "Category", "Amount", "ID"}

// Mirror receives the full expense list and replaces whatever it held.
type Mirror interface {
	Replace(ctx context.Context, items []core.Expense) error
}

// Row renders e in Header order.
func Row(e core.Expense) []any {
	return []any{e.Date.String(), e.Description, e.Category.String(), e.Amount.Units, e.ID}
}
