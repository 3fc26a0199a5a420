package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// EventType names the change an ExpenseEvent reports.
type EventType string

const (
	ExpenseCreated EventType = "expense.created"
	ExpenseUpdated EventType = "expense.updated"
	ExpenseDeleted EventType = "expense.deleted"
)

var ErrMalformedEvent = errors.New("malformed expense event")

// ExpenseEvent is published after every successful write. It carries only
// the id; consumers read the current state from the backend.
type ExpenseEvent struct {
	Type      EventType `json:"type"`
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExpenseEvent(t EventType, id string) *ExpenseEvent {
	return &ExpenseEvent{
		Type:      t,
		ID:        id,
		Timestamp: time.Now().UTC(),
	}
}

func (e *ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ExpenseEventFromJSON decodes and checks an event body.
func ExpenseEventFromJSON(data []byte) (*ExpenseEvent, error) {
	var ev ExpenseEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	switch ev.Type {
	case ExpenseCreated, ExpenseUpdated, ExpenseDeleted:
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrMalformedEvent, ev.Type)
	}
	if ev.ID == "" {
		return nil, fmt.Errorf("%w: missing id", ErrMalformedEvent)
	}
	return &ev, nil
}
