// Package memory is an in-process expense store for development and tests.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"expenses/internal/core"
	"expenses/internal/storage"
)

type Store struct {
	mu    sync.RWMutex
	items []core.Expense
}

var _ storage.Repository = (*Store)(nil)

// New returns a store holding seed, each entry given a fresh id.
func New(seed ...core.Expense) *Store {
	s := &Store{}
	for _, e := range seed {
		e.ID = uuid.NewString()
		s.items = append(s.items, e)
	}
	return s
}

// NewDemo returns a store seeded with the demo expenses.
func NewDemo() *Store {
	return New(core.DemoExpenses()...)
}

func (s *Store) List(_ context.Context) ([]core.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Expense{}, s.items...), nil
}

func (s *Store) Get(_ context.Context, id string) (core.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(id)
	if i < 0 {
		return core.Expense{}, storage.ErrNotFound
	}
	return s.items[i], nil
}

func (s *Store) Create(_ context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	e.ID = uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, e)
	return e, nil
}

func (s *Store) Update(_ context.Context, id string, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return core.Expense{}, storage.ErrNotFound
	}
	e.ID = id
	s.items[i] = e
	return e, nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return storage.ErrNotFound
	}
	s.items = append(s.items[:i:i], s.items[i+1:]...)
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}
