// Package ledger holds the client-side expense list.
//
// Entries are addressed by position, the way the list is shown to the user.
// A Ledger is not safe for concurrent use; callers serialise access.
package ledger

import (
	"errors"
	"fmt"

	"expenses/internal/core"
)

var ErrIndexOutOfRange = errors.New("index out of range")

type Ledger struct {
	items []core.Expense
}

// New returns a ledger holding a copy of items.
func New(items []core.Expense) *Ledger {
	l := &Ledger{}
	l.Reset(items)
	return l
}

// Reset replaces the whole list, e.g. after loading it from the backend.
func (l *Ledger) Reset(items []core.Expense) {
	l.items = append([]core.Expense(nil), items...)
}

func (l *Ledger) Len() int {
	return len(l.items)
}

// Items returns a copy of the list in display order.
func (l *Ledger) Items() []core.Expense {
	return append([]core.Expense(nil), l.items...)
}

func (l *Ledger) At(i int) (core.Expense, error) {
	if err := l.check(i); err != nil {
		return core.Expense{}, err
	}
	return l.items[i], nil
}

// Append adds e at the end of the list.
func (l *Ledger) Append(e core.Expense) {
	l.items = append(l.items, e)
}

// Replace swaps the entry at i for e; every other entry keeps its position.
func (l *Ledger) Replace(i int, e core.Expense) error {
	if err := l.check(i); err != nil {
		return err
	}
	l.items[i] = e
	return nil
}

// Remove deletes the entry at i and shifts the following entries down by one.
func (l *Ledger) Remove(i int) (core.Expense, error) {
	if err := l.check(i); err != nil {
		return core.Expense{}, err
	}
	removed := l.items[i]
	next := make([]core.Expense, 0, len(l.items)-1)
	next = append(next, l.items[:i]...)
	next = append(next, l.items[i+1:]...)
	l.items = next
	return removed, nil
}

// Total is the sum of the amounts currently in the list.
func (l *Ledger) Total() core.Money {
	return core.Total(l.items)
}

func (l *Ledger) check(i int) error {
	if i < 0 || i >= len(l.items) {
		return fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, i, len(l.items))
	}
	return nil
}
