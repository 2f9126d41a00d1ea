package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"financas/internal/core"
	"financas/internal/ledger"
	applog "financas/internal/log"
	"financas/internal/report"
)

// handleDashboard returns the user's ledger overview: transactions
// (optionally filtered by kind/category), overall balance and totals, and
// the report for the requested month (default: current).
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, userID int64) {
	f := ledger.Filter{
		Kind:     strings.TrimSpace(r.URL.Query().Get("kind")),
		Category: strings.TrimSpace(r.URL.Query().Get("category")),
	}

	list, err := s.ledger.Filter(r.Context(), userID, f)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "dashboard load failed",
			applog.FieldUserID, userID,
			applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "could not load transactions")
		return
	}

	now := time.Now()
	month, year := queryInt(r, "month", int(now.Month())), queryInt(r, "year", now.Year())
	if month < 1 || month > 12 {
		month = int(now.Month())
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"transactions": list,
		"count":        len(list),
		"balance":      report.Balance(list),
		"totals":       report.TotalsByKind(list),
		"byCategory":   report.TotalsByCategory(list),
		"monthly":      report.Monthly(list, month, year, s.logger),
		"month":        month,
		"year":         year,
	})
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request, userID int64) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request format")
		return
	}

	in := ledger.AddInput{
		Description: sanitizeInput(r.Form.Get("description")),
		Amount:      strings.TrimSpace(r.Form.Get("amount")),
		Kind:        strings.TrimSpace(r.Form.Get("kind")),
		Category:    sanitizeInput(r.Form.Get("category")),
		Date:        strings.TrimSpace(r.Form.Get("date")),
	}

	tx, err := s.ledger.Add(r.Context(), userID, in)
	if err != nil {
		if errors.Is(err, core.ErrInvalidAmount) ||
			errors.Is(err, core.ErrEmptyDescription) ||
			errors.Is(err, core.ErrInvalidKind) ||
			errors.Is(err, core.ErrInvalidDate) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.logger.ErrorContext(r.Context(), "add transaction failed",
			applog.FieldUserID, userID,
			applog.FieldOperation, applog.OpAdd,
			applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "could not save transaction")
		return
	}

	s.bumpGeneration(userID)
	writeJSON(w, http.StatusCreated, tx)
}

// handleUpdate edits an existing transaction. Empty form fields keep the
// stored values.
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request, userID int64) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request format")
		return
	}

	in := ledger.UpdateInput{
		Description: sanitizeInput(r.Form.Get("description")),
		Amount:      strings.TrimSpace(r.Form.Get("amount")),
		Kind:        strings.TrimSpace(r.Form.Get("kind")),
		Category:    sanitizeInput(r.Form.Get("category")),
		Date:        strings.TrimSpace(r.Form.Get("date")),
	}

	tx, err := s.ledger.Update(r.Context(), userID, id, in)
	if err != nil {
		if errors.Is(err, core.ErrInvalidAmount) ||
			errors.Is(err, core.ErrEmptyDescription) ||
			errors.Is(err, core.ErrInvalidKind) ||
			errors.Is(err, core.ErrInvalidDate) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.logger.ErrorContext(r.Context(), "update transaction failed",
			applog.FieldUserID, userID,
			applog.FieldTxID, id,
			applog.FieldOperation, applog.OpUpdate,
			applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "could not update transaction")
		return
	}
	if tx == nil {
		writeError(w, http.StatusNotFound, "transaction not found")
		return
	}

	s.bumpGeneration(userID)
	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request, userID int64) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	removed, err := s.ledger.Delete(r.Context(), userID, id)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "delete transaction failed",
			applog.FieldUserID, userID,
			applog.FieldTxID, id,
			applog.FieldOperation, applog.OpDelete,
			applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "could not delete transaction")
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "transaction not found")
		return
	}

	s.bumpGeneration(userID)
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": id})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request, userID int64) {
	if err := s.ledger.Clear(r.Context(), userID); err != nil {
		s.logger.ErrorContext(r.Context(), "clear ledger failed",
			applog.FieldUserID, userID,
			applog.FieldOperation, applog.OpClear,
			applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "could not clear transactions")
		return
	}

	s.bumpGeneration(userID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// queryInt reads an integer query parameter, falling back to def when
// absent or malformed.
func queryInt(r *http.Request, name string, def int) int {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
