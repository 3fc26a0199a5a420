package trace

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"expenses/internal/log"
)

func TestMiddlewareAssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Output: &buf, Format: "json"})
	m := NewMiddleware(func(*http.Request) string { return "10.0.0.1" }, logger)

	var seen string
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		if log.FromContext(r.Context()).Component() != log.ComponentHTTP {
			t.Errorf("request logger missing from context")
		}
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/expenses", nil))

	if !strings.HasPrefix(seen, "req_") || rec.Header().Get(HeaderRequestID) != seen {
		t.Fatalf("request id %q, header %q", seen, rec.Header().Get(HeaderRequestID))
	}
	out := buf.String()
	for _, want := range []string{`"status_code":418`, `"client_ip":"10.0.0.1"`, `"request_id":"` + seen + `"`, `"level":"WARN"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log line missing %s: %s", want, out)
		}
	}
	if got := m.GetMetrics().TotalRequests; got != 1 {
		t.Errorf("total requests = %d", got)
	}
}

func TestMiddlewareHonoursIncomingID(t *testing.T) {
	m := NewMiddleware(nil, nil)
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	tests := []struct {
		in   string
		keep bool
	}{
		{"abc-123", true},
		{"bad id with spaces", false},
		{strings.Repeat("x", 65), false},
	}
	for _, tc := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderRequestID, tc.in)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if got := rec.Header().Get(HeaderRequestID); (got == tc.in) != tc.keep {
			t.Errorf("incoming %q -> %q, keep=%v", tc.in, got, tc.keep)
		}
	}
}
