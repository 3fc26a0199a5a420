package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"expenses/internal/core"
	"expenses/internal/log"
)

// pageData is the view model of index.html.
type pageData struct {
	Alert       string
	Form        core.Draft
	Categories  []core.Category
	Rows        []row
	Total       string
	Budget      string
	Balance     string
	OverBudget  bool
	ByCategory  []categoryRow
	BudgetInput string
}

type row struct {
	Index   int
	Expense core.Expense
	Amount  string
	Editing bool
	Draft   core.Draft
}

type categoryRow struct {
	Category core.Category
	Amount   string
}

// pageOptions carries what a re-render after a failed submission needs.
type pageOptions struct {
	alert   string
	form    *core.Draft
	editing int
	budget  *string
}

func (s *Server) buildPage(opts pageOptions) pageData {
	items := s.tracker.Items()
	summary := s.tracker.Summary()

	data := pageData{
		Alert:      opts.alert,
		Categories: core.Categories(),
		Total:      summary.Total.Format(),
		Budget:     summary.Budget.Format(),
		Balance:    summary.Balance.Format(),
		OverBudget: summary.OverBudget,
		Form: core.Draft{
			Category: string(core.Miscellaneous),
			Date:     core.Today(s.now()).ISO(),
		},
		BudgetInput: summary.Budget.String(),
	}
	if opts.form != nil && opts.editing < 0 {
		data.Form = *opts.form
	}
	if opts.budget != nil {
		data.BudgetInput = *opts.budget
	}

	for i, e := range items {
		r := row{Index: i, Expense: e, Amount: e.Amount.Format()}
		if i == opts.editing {
			r.Editing = true
			if opts.form != nil {
				r.Draft = *opts.form
			} else {
				r.Draft = core.DraftFrom(e)
				r.Draft.Date = e.Date.ISO()
			}
		}
		data.Rows = append(data.Rows, r)
	}
	for _, c := range summary.ByCategory {
		data.ByCategory = append(data.ByCategory, categoryRow{Category: c.Category, Amount: c.Amount.Format()})
	}
	return data
}

func (s *Server) renderPage(ctx context.Context, data pageData) (string, error) {
	// Render into a buffer so a template error never leaves half a page.
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "index.html", data); err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Index template execution failed",
			log.FieldOperation, log.OpRender,
			log.FieldError, err,
			"template", "index.html")
		return "", err
	}
	return buf.String(), nil
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	html, err := s.renderPage(r.Context(), data)
	if err != nil {
		InternalServerError("Something went wrong rendering the page.").Write(w)
		return
	}
	NewHTMXResponse().Status(status).BodyHTML(html).Write(w)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.ensureLoaded(r.Context())

	opts := pageOptions{editing: -1}
	if i, ok := ParseEditQuery(r.URL.Query()); ok {
		if _, err := s.tracker.At(i); err == nil {
			opts.editing = i
		}
	}
	s.render(w, r, http.StatusOK, s.buildPage(opts))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady reports whether the expense list has been loaded from the
// backend at least once.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	s.ensureLoaded(ctx)

	status := "ready"
	code := http.StatusOK
	checks := map[string]string{"templates": "ok", "backend": "ok"}
	if !s.loaded.Load() {
		status = "not_ready"
		code = http.StatusServiceUnavailable
		checks["backend"] = "failed: expense list not loaded"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    status,
		"timestamp": s.now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics provides request and security metrics in a Prometheus-like
// plain text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	traceMetrics := s.tracer.GetMetrics()
	limitMetrics := s.limiter.GetMetrics()
	summary := s.tracker.Summary()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	metric := func(name, kind, help string, value any) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %v\n\n", name, help, name, kind, name, value)
	}
	metric("http_requests_total", "counter", "Total number of HTTP requests", traceMetrics.TotalRequests)
	metric("http_response_time_ms", "gauge", "Average response time", traceMetrics.AverageResponseTime.Milliseconds())
	metric("rate_limit_hits_total", "counter", "Requests rejected by the rate limiter", limitMetrics.LimitedRequests)
	metric("rate_limit_clients", "gauge", "Client addresses tracked by the rate limiter", limitMetrics.ClientCount)
	metric("suspicious_requests_total", "counter", "Requests flagged by the security detector", s.detector.SuspiciousRequests())
	metric("expenses_count", "gauge", "Expenses in the list", summary.Count)
	metric("expenses_total", "gauge", "Sum of expense amounts", summary.Total.Units)
	metric("uptime_seconds", "gauge", "Seconds since the server started", int64(s.now().Sub(s.started).Seconds()))
}

// alertFor maps a validation error to the message shown above the form.
func alertFor(err error) string {
	switch {
	case errors.Is(err, core.ErrDescriptionAndAmountRequired):
		return "Description and amount are required."
	case errors.Is(err, core.ErrInvalidAmount):
		return "Amount must be a positive number."
	case errors.Is(err, core.ErrDescriptionTooLong):
		return "Description is too long (max 200 characters)."
	case errors.Is(err, core.ErrEmptyDescription):
		return "Description and amount are required."
	case errors.Is(err, core.ErrUnknownCategory):
		return "Please pick a category from the list."
	case errors.Is(err, core.ErrInvalidDate):
		return "Date must look like 20/5/2023 or 2023-05-20."
	case errors.Is(err, core.ErrInvalidBudget):
		return "Budget must be a whole amount of zero or more."
	default:
		return ""
	}
}
