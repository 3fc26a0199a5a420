package core

import (
	"errors"
	"strings"
)

type Category string

const (
	Education      Category = "Education"
	Food           Category = "Food"
	Health         Category = "Health"
	Housing        Category = "Housing"
	Entertainment  Category = "Entertainment"
	Shopping       Category = "Shopping"
	Transportation Category = "Transportation"
	Utilities      Category = "Utilities"
	Miscellaneous  Category = "Miscellaneous"

	// DefaultCategory is used when the form leaves the category empty.
	DefaultCategory = Miscellaneous
)

var ErrUnknownCategory = errors.New("unknown category")

var categories = []Category{
	Education,
	Food,
	Health,
	Housing,
	Entertainment,
	Shopping,
	Transportation,
	Utilities,
	Miscellaneous,
}

// Categories returns the fixed category list in display order.
func Categories() []Category {
	return append([]Category(nil), categories...)
}

// ParseCategory maps user input to a canonical category. Matching ignores
// case and surrounding spaces; empty input yields DefaultCategory.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultCategory, nil
	}
	for _, c := range categories {
		if strings.EqualFold(s, string(c)) {
			return c, nil
		}
	}
	return "", ErrUnknownCategory
}

func (c Category) Validate() error {
	for _, known := range categories {
		if c == known {
			return nil
		}
	}
	return ErrUnknownCategory
}

func (c Category) String() string {
	return string(c)
}
