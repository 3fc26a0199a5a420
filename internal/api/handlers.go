package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"expenses/internal/core"
	"expenses/internal/log"
	"expenses/internal/storage"
)

const maxBodyBytes = 64 << 10

// expenseRequest is the body of POST and PUT. Fields are kept raw so each
// one can be parsed with the same rules as the web form.
type expenseRequest struct {
	Description string          `json:"description"`
	Amount      json.RawMessage `json:"amount"`
	Category    string          `json:"category"`
	Date        string          `json:"date"`
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	if items, ok := s.listCache.Get(listCacheKey); ok {
		writeJSON(w, http.StatusOK, items)
		return
	}

	s.listMu.Lock()
	gen := s.listGen
	s.listMu.Unlock()

	items, err := s.svc.List(r.Context())
	if err != nil {
		s.internalError(w, r, "Failed to list expenses", log.OpList, err)
		return
	}

	s.listMu.Lock()
	if s.listGen == gen {
		s.listCache.Set(listCacheKey, items)
	}
	s.listMu.Unlock()
	writeJSON(w, http.StatusOK, items)
}

// invalidateList drops the cached list; the service calls it after every
// committed write.
func (s *Server) invalidateList() {
	s.listMu.Lock()
	s.listGen++
	s.listCache.Purge()
	s.listMu.Unlock()
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	e, err := s.svc.Get(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "expense not found")
		return
	}
	if err != nil {
		s.internalError(w, r, "Failed to get expense", log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	e, err := s.decodeExpense(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.svc.CreateExpense(r.Context(), e)
	if err != nil {
		s.writeStoreError(w, r, log.OpCreate, err)
		return
	}
	s.logChange(r, log.OpCreate, created)
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	e, err := s.decodeExpense(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := s.svc.UpdateExpense(r.Context(), id, e)
	if err != nil {
		s.writeStoreError(w, r, log.OpUpdate, err)
		return
	}
	s.logChange(r, log.OpUpdate, updated)
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.svc.DeleteExpense(r.Context(), id); err != nil {
		s.writeStoreError(w, r, log.OpDelete, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Expense deleted",
		log.FieldOperation, log.OpDelete, log.FieldExpenseID, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, core.Categories())
}

func (s *Server) decodeExpense(r *http.Request) (core.Expense, error) {
	var req expenseRequest
	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return core.Expense{}, errors.New("request body is empty")
		}
		return core.Expense{}, fmt.Errorf("invalid JSON body: %w", err)
	}

	// JSON numbers and quoted numbers are both accepted for amount
	amount := strings.Trim(strings.TrimSpace(string(req.Amount)), `"`)
	if amount == "null" {
		amount = ""
	}

	return core.Draft{
		Description: req.Description,
		Amount:      amount,
		Category:    req.Category,
		Date:        req.Date,
	}.Expense(s.now())
}

func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "expense not found")
	case isValidationError(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.internalError(w, r, "Failed to "+op+" expense", op, err)
	}
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, msg, op string, err error) {
	log.NewStructuredLogger(log.FromContext(r.Context())).LogError(r.Context(), msg, err, op, nil)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func (s *Server) logChange(r *http.Request, op string, e core.Expense) {
	log.NewStructuredLogger(log.FromContext(r.Context())).
		LogExpenseChange(r.Context(), op, e.ID, e.Description, e.Amount.Units, e.Category.String())
}

func isValidationError(err error) bool {
	for _, target := range []error{
		core.ErrInvalidAmount,
		core.ErrEmptyDescription,
		core.ErrDescriptionTooLong,
		core.ErrInvalidDate,
		core.ErrUnknownCategory,
		core.ErrDescriptionAndAmountRequired,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
