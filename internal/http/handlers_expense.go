package http

import (
	"net/http"

	"expenses/internal/core"
	"expenses/internal/log"
)

// finish answers a successful or ignored mutation. Plain form posts get a
// 303 back to the list. htmx follows redirects inside XHR and would never
// see the triggers, so boosted requests get the fresh page directly.
func (s *Server) finish(w http.ResponseWriter, r *http.Request, b *HTMXResponseBuilder) {
	if r.Header.Get("HX-Request") != "true" {
		b.SeeOther("/").Write(w)
		return
	}
	html, err := s.renderPage(r.Context(), s.buildPage(pageOptions{editing: -1}))
	if err != nil {
		b.SeeOther("/").Write(w)
		return
	}
	b.Header("HX-Push-Url", "/").BodyHTML(html).Write(w)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	d, err := ParseDraft(r)
	if err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Parse form error", log.FieldError, err)
		BadRequestError("Invalid request format.").Write(w)
		return
	}

	if !s.ensureLoaded(ctx) {
		// Writing before a load would leave the list short of the backend's rows.
		s.finish(w, r, NewHTMXResponse())
		return
	}

	created, err := s.tracker.Add(ctx, d)
	if err != nil {
		if alert := alertFor(err); alert != "" {
			s.render(w, r, http.StatusUnprocessableEntity, s.buildPage(pageOptions{alert: alert, form: &d, editing: -1}))
			return
		}
		// The tracker already logged the failure; the list is unchanged.
		s.finish(w, r, NewHTMXResponse())
		return
	}

	items := s.tracker.Items()
	s.finish(w, r, NewHTMXResponse().
		TriggerExpenseCreated(len(items)-1, core.Total(items)).
		TriggerFormReset().
		TriggerSuccessNotification("Added "+created.Description+"."))
}

func (s *Server) handleEditExpense(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	i, err := ParseIndex(r)
	if err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Ignoring edit", log.FieldError, err)
		s.finish(w, r, NewHTMXResponse())
		return
	}
	d, err := ParseDraft(r)
	if err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Parse form error", log.FieldError, err)
		BadRequestError("Invalid request format.").Write(w)
		return
	}

	if !s.ensureLoaded(ctx) {
		s.finish(w, r, NewHTMXResponse())
		return
	}

	if _, err := s.tracker.Edit(ctx, i, d); err != nil {
		if alert := alertFor(err); alert != "" {
			s.render(w, r, http.StatusUnprocessableEntity, s.buildPage(pageOptions{alert: alert, form: &d, editing: i}))
			return
		}
		s.finish(w, r, NewHTMXResponse())
		return
	}

	s.finish(w, r, NewHTMXResponse().TriggerExpenseUpdated(i, s.tracker.Total()))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	i, err := ParseIndex(r)
	if err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Ignoring delete", log.FieldError, err)
		s.finish(w, r, NewHTMXResponse())
		return
	}

	if !s.ensureLoaded(ctx) {
		s.finish(w, r, NewHTMXResponse())
		return
	}

	if _, err := s.tracker.Delete(ctx, i); err != nil {
		s.finish(w, r, NewHTMXResponse())
		return
	}

	s.finish(w, r, NewHTMXResponse().TriggerExpenseDeleted(i, s.tracker.Total()))
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	raw, err := ParseBudgetInput(r)
	if err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Parse form error", log.FieldError, err)
		BadRequestError("Invalid request format.").Write(w)
		return
	}

	if _, err := s.tracker.SetBudget(raw); err != nil {
		s.render(w, r, http.StatusUnprocessableEntity, s.buildPage(pageOptions{alert: alertFor(err), budget: &raw, editing: -1}))
		return
	}

	s.finish(w, r, NewHTMXResponse().TriggerBudgetUpdated(s.tracker.Summary()))
}
