package core

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

type (
	Date struct {
		time.Time
	}

	Money struct {
		Units int64
	}

	Expense struct {
		ID          string   `json:"id,omitempty"`
		Description string   `json:"description"`
		Amount      Money    `json:"amount"`
		Category    Category `json:"category"`
		Date        Date     `json:"date"`
	}

	// Draft holds the raw values of the expense form before defaults and
	// parsing are applied.
	Draft struct {
		Description string
		Amount      string
		Category    string
		Date        string
	}
)

const maxDescriptionLen = 200

var (
	ErrInvalidAmount                = errors.New("invalid amount")
	ErrEmptyDescription             = errors.New("empty description")
	ErrDescriptionTooLong           = errors.New("description too long (max 200 characters)")
	ErrInvalidDate                  = errors.New("invalid date")
	ErrDescriptionAndAmountRequired = errors.New("description and amount are required")
	ErrInvalidBudget                = errors.New("budget must be a non-negative whole amount")
)

func (m Money) Validate() error {
	if m.Units <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (e Expense) Validate() error {
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if utf8.RuneCountInString(e.Description) > maxDescriptionLen {
		return ErrDescriptionTooLong
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if err := e.Category.Validate(); err != nil {
		return err
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	return nil
}

// WithID returns a copy of e carrying the given backend identifier.
func (e Expense) WithID(id string) Expense {
	e.ID = id
	return e
}

// Expense applies the form defaults (category Miscellaneous, date today) and
// returns a validated expense without an id.
func (d Draft) Expense(now time.Time) (Expense, error) {
	desc := strings.TrimSpace(d.Description)
	amountStr := strings.TrimSpace(d.Amount)
	if desc == "" || amountStr == "" {
		return Expense{}, ErrDescriptionAndAmountRequired
	}

	units, err := ParseAmount(amountStr)
	if err != nil {
		return Expense{}, err
	}

	cat, err := ParseCategory(d.Category)
	if err != nil {
		return Expense{}, err
	}

	date := Today(now)
	if v := strings.TrimSpace(d.Date); v != "" {
		date, err = ParseDate(v)
		if err != nil {
			return Expense{}, err
		}
	}

	e := Expense{
		Description: desc,
		Amount:      Money{Units: units},
		Category:    cat,
		Date:        date,
	}
	if err := e.Validate(); err != nil {
		return Expense{}, err
	}
	return e, nil
}

// DraftFrom returns the form values that would reproduce e, used to prefill
// the edit row.
func DraftFrom(e Expense) Draft {
	return Draft{
		Description: e.Description,
		Amount:      e.Amount.String(),
		Category:    string(e.Category),
		Date:        e.Date.String(),
	}
}
