// Package core provides the expense domain: money, dates, categories and the
// totals derived from a list of expenses.
//
// Amounts are whole currency units. The seed data of the tracker is in
// Colombian pesos, where fractional units are never used, so every amount
// entered with decimals is rounded half-up to a whole unit.
package core

import (
	"bytes"
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// MaxUnits is the largest amount or budget accepted, fifteen digits.
const MaxUnits int64 = 999_999_999_999_999

var maxUnits = decimal.NewFromInt(MaxUnits)

// ParseAmount converts a user supplied amount into whole currency units.
//
// It accepts integers and dot-decimal values; the fractional part is rounded
// half-up. Zero, negative and malformed values return ErrInvalidAmount.
//
// Examples:
//
//	ParseAmount("35000")   -> 35000, nil
//	ParseAmount("12.5")    -> 13, nil
//	ParseAmount("12.49")   -> 12, nil
//	ParseAmount("0.4")     -> 0, ErrInvalidAmount
func ParseAmount(s string) (int64, error) {
	units, err := parseUnits(s)
	if err != nil {
		return 0, err
	}
	if units <= 0 {
		return 0, ErrInvalidAmount
	}
	return units, nil
}

// ParseBudget converts a budget entry into whole units. An empty entry is a
// zero budget; negative values return ErrInvalidBudget.
func ParseBudget(s string) (Money, error) {
	if strings.TrimSpace(s) == "" {
		return Money{}, nil
	}
	units, err := parseUnits(s)
	if err != nil || units < 0 {
		return Money{}, ErrInvalidBudget
	}
	return Money{Units: units}, nil
}

func parseUnits(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	d = d.Round(0)
	if d.GreaterThan(maxUnits) || d.LessThan(maxUnits.Neg()) {
		return 0, ErrInvalidAmount
	}
	return d.IntPart(), nil
}

// Add returns the sum of m and o, saturating at the int64 bounds.
func (m Money) Add(o Money) Money {
	switch {
	case o.Units > 0 && m.Units > math.MaxInt64-o.Units:
		return Money{Units: math.MaxInt64}
	case o.Units < 0 && m.Units < math.MinInt64-o.Units:
		return Money{Units: math.MinInt64}
	}
	return Money{Units: m.Units + o.Units}
}

// Sub returns m minus o, saturating at the int64 bounds.
func (m Money) Sub(o Money) Money {
	if o.Units == math.MinInt64 {
		return m.Add(Money{Units: math.MaxInt64}).Add(Money{Units: 1})
	}
	return m.Add(Money{Units: -o.Units})
}

// String renders the plain integer value, suitable for form inputs.
func (m Money) String() string {
	return strconv.FormatInt(m.Units, 10)
}

// Format renders the amount with thousands separators for display.
func (m Money) Format() string {
	return humanize.Comma(m.Units)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return strconv.AppendInt(nil, m.Units, 10), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string. Fractional values
// are rounded to whole units.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		m.Units = 0
		return nil
	}
	s := string(data)
	if unq, err := strconv.Unquote(s); err == nil {
		s = unq
	}
	units, err := parseUnits(s)
	if err != nil {
		return err
	}
	m.Units = units
	return nil
}
