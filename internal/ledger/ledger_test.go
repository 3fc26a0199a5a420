package ledger

import (
	"errors"
	"fmt"
	"testing"

	"expenses/internal/core"
)

func expense(desc string, amount int64) core.Expense {
	return core.Expense{
		ID:          "id-" + desc,
		Description: desc,
		Amount:      core.Money{Units: amount},
		Category:    core.Miscellaneous,
		Date:        core.NewDate(2023, 5, 20),
	}
}

func descriptions(items []core.Expense) []string {
	out := make([]string, len(items))
	for i, e := range items {
		out[i] = e.Description
	}
	return out
}

func sum(items []core.Expense) int64 {
	var total int64
	for _, e := range items {
		total += e.Amount.Units
	}
	return total
}

func TestDeleteFirstOfDemoList(t *testing.T) {
	l := New([]core.Expense{expense("Book", 35000), expense("Taxi", 10000)})

	removed, err := l.Remove(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if removed.Description != "Book" {
		t.Errorf("removed %q, want Book", removed.Description)
	}
	if l.Len() != 1 || l.Items()[0].Amount.Units != 10000 {
		t.Fatalf("unexpected list: %+v", l.Items())
	}
	if l.Total().Units != 10000 {
		t.Fatalf("total = %d, want 10000", l.Total().Units)
	}
}

func TestRemoveShiftsLaterEntries(t *testing.T) {
	for i := 0; i < 4; i++ {
		t.Run(fmt.Sprintf("index_%d", i), func(t *testing.T) {
			orig := []core.Expense{expense("a", 1), expense("b", 2), expense("c", 3), expense("d", 4)}
			l := New(orig)

			removed, err := l.Remove(i)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if removed.Description != orig[i].Description {
				t.Fatalf("removed %q, want %q", removed.Description, orig[i].Description)
			}

			got := l.Items()
			if len(got) != len(orig)-1 {
				t.Fatalf("len = %d, want %d", len(got), len(orig)-1)
			}
			for j := range got {
				want := orig[j]
				if j >= i {
					want = orig[j+1]
				}
				if got[j].Description != want.Description {
					t.Fatalf("position %d = %q, want %q (%v)", j, got[j].Description, want.Description, descriptions(got))
				}
			}
			if l.Total().Units != sum(got) {
				t.Fatalf("total %d != sum %d", l.Total().Units, sum(got))
			}
		})
	}
}

func TestReplaceKeepsOrderAndLength(t *testing.T) {
	orig := []core.Expense{expense("a", 1), expense("b", 2), expense("c", 3)}
	for i := range orig {
		t.Run(fmt.Sprintf("index_%d", i), func(t *testing.T) {
			l := New(orig)
			if err := l.Replace(i, expense("z", 100)); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got := l.Items()
			if len(got) != len(orig) {
				t.Fatalf("len = %d, want %d", len(got), len(orig))
			}
			for j := range got {
				want := orig[j].Description
				if j == i {
					want = "z"
				}
				if got[j].Description != want {
					t.Fatalf("position %d = %q, want %q", j, got[j].Description, want)
				}
			}
			if l.Total().Units != sum(got) {
				t.Fatalf("total %d != sum %d", l.Total().Units, sum(got))
			}
		})
	}
}

func TestAppendUpdatesTotal(t *testing.T) {
	l := New(nil)
	l.Append(expense("a", 35000))
	l.Append(expense("b", 10000))
	if l.Len() != 2 || l.Total().Units != 45000 {
		t.Fatalf("unexpected ledger: len=%d total=%d", l.Len(), l.Total().Units)
	}
	if got := descriptions(l.Items()); got[0] != "a" || got[1] != "b" {
		t.Fatalf("append must keep insertion order: %v", got)
	}
}

func TestOutOfRange(t *testing.T) {
	l := New([]core.Expense{expense("a", 1)})

	for _, i := range []int{-1, 1, 5} {
		if _, err := l.At(i); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("At(%d): expected ErrIndexOutOfRange, got %v", i, err)
		}
		if err := l.Replace(i, expense("z", 9)); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("Replace(%d): expected ErrIndexOutOfRange, got %v", i, err)
		}
		if _, err := l.Remove(i); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("Remove(%d): expected ErrIndexOutOfRange, got %v", i, err)
		}
	}
	if l.Len() != 1 || l.Total().Units != 1 {
		t.Fatalf("failed operations must not change the list: %+v", l.Items())
	}
}

func TestItemsIsACopy(t *testing.T) {
	src := []core.Expense{expense("a", 1)}
	l := New(src)
	src[0].Description = "mutated"

	items := l.Items()
	items[0].Description = "mutated"

	if got, _ := l.At(0); got.Description != "a" {
		t.Fatalf("ledger shares memory with callers: %q", got.Description)
	}
}
