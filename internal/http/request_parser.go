// This file implements utilities for parsing and validating HTTP request data.
// It reduces code duplication by providing reusable functions for form
// parsing, path index extraction and input sanitization.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"expenses/internal/core"
)

// maxBodyBytes bounds form and JSON bodies; the expense form is tiny.
const maxBodyBytes = 64 << 10

var ErrInvalidIndex = errors.New("invalid expense index")

// ParseIndex reads the zero-based {index} path value.
func ParseIndex(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.PathValue("index"))
	i, err := strconv.Atoi(raw)
	if err != nil || i < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidIndex, raw)
	}
	return i, nil
}

// ParseEditQuery reads the optional ?edit= row index. ok is false when the
// parameter is absent or not a non-negative number.
func ParseEditQuery(q url.Values) (int, bool) {
	v := strings.TrimSpace(q.Get("edit"))
	if v == "" {
		return 0, false
	}
	i, err := strconv.Atoi(v)
	if err != nil || i < 0 {
		return 0, false
	}
	return i, true
}

// ParseDraft reads the expense form fields from r.
func ParseDraft(r *http.Request) (core.Draft, error) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		return core.Draft{}, err
	}
	return core.Draft{
		Description: p.Get("description"),
		Amount:      p.Get("amount"),
		Category:    p.Get("category"),
		Date:        p.Get("date"),
	}, nil
}

// ParseBudgetInput reads the raw budget field from r.
func ParseBudgetInput(r *http.Request) (string, error) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		return "", err
	}
	return p.Get("budget"), nil
}

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data, commonly used with HTMX.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	if r.Body == nil {
		return p
	}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	// Try JSON first if content looks like JSON
	if p.body[0] == '{' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a trimmed, sanitized value from the parsed data.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return strings.TrimSpace(sanitizeInput(stringValue(val)))
		}
		return ""
	}
	if p.formData != nil {
		return strings.TrimSpace(sanitizeInput(p.formData.Get(key)))
	}
	return ""
}

func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// sanitizeInput drops control characters except tab, newline and carriage return.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		if r == 127 {
			return -1
		}
		return r
	}, s)
}
