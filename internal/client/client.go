// Package client talks to the expenses REST backend.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"expenses/internal/core"
)

// DefaultTimeout bounds each round-trip when no http.Client is supplied.
const DefaultTimeout = 10 * time.Second

var (
	// ErrNotFound is returned when the backend answers 404 for an id.
	ErrNotFound = errors.New("expense not found")
	// ErrNoID is returned when an update or delete targets an expense the
	// backend never assigned an id to.
	ErrNoID = errors.New("expense has no id")
	// ErrEmptyResponse is returned when a call that expects a record gets a
	// 2xx answer without one.
	ErrEmptyResponse = errors.New("empty response body")
)

// API is the set of remote operations the tracker depends on.
type API interface {
	List(ctx context.Context) ([]core.Expense, error)
	Create(ctx context.Context, e core.Expense) (core.Expense, error)
	Update(ctx context.Context, id string, e core.Expense) (core.Expense, error)
	Delete(ctx context.Context, id string) error
}

// StatusError reports a non-2xx answer from the backend.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.Code)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.Code == http.StatusNotFound
}

// Client implements API over HTTP+JSON.
type Client struct {
	base *url.URL
	http *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout on the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http = &http.Client{Timeout: d}
		}
	}
}

// New builds a client for the backend rooted at baseURL,
// e.g. "http://localhost:3001".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("parse base url: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse base url: missing host in %q", baseURL)
	}
	c := &Client{base: u, http: &http.Client{Timeout: DefaultTimeout}}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the backend root this client was built for.
func (c *Client) BaseURL() string {
	return c.base.String()
}

func (c *Client) List(ctx context.Context) ([]core.Expense, error) {
	var out []core.Expense
	if err := c.do(ctx, http.MethodGet, "/expenses", nil, &out); err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	if out == nil {
		out = []core.Expense{}
	}
	return out, nil
}

func (c *Client) Create(ctx context.Context, e core.Expense) (core.Expense, error) {
	e.ID = ""
	var out core.Expense
	if err := c.do(ctx, http.MethodPost, "/expenses", e, &out); err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	if out.ID == "" {
		return core.Expense{}, fmt.Errorf("create expense: backend answered without an id: %w", ErrNoID)
	}
	return out, nil
}

func (c *Client) Update(ctx context.Context, id string, e core.Expense) (core.Expense, error) {
	if id == "" {
		return core.Expense{}, fmt.Errorf("update expense: %w", ErrNoID)
	}
	e.ID = id
	var out core.Expense
	if err := c.do(ctx, http.MethodPut, "/expenses/"+url.PathEscape(id), e, &out); err != nil {
		return core.Expense{}, fmt.Errorf("update expense %s: %w", id, err)
	}
	if out.ID == "" {
		out.ID = id
	}
	return out, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("delete expense: %w", ErrNoID)
	}
	if err := c.do(ctx, http.MethodDelete, "/expenses/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("delete expense %s: %w", id, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	target := c.base.String() + path

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{
			Method: method,
			URL:    target,
			Code:   resp.StatusCode,
			Body:   strings.TrimSpace(string(snippet)),
		}
	}

	if out == nil {
		return nil
	}
	if resp.StatusCode == http.StatusNoContent {
		return fmt.Errorf("decode response: %w", ErrEmptyResponse)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			err = ErrEmptyResponse
		}
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
