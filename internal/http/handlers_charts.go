package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"financas/internal/core"
	applog "financas/internal/log"
	"financas/internal/report"
)

const (
	defaultChartWindow = 6
	maxChartWindow     = 120
)

// handleCharts serves the chart data series. Two kinds exist:
//
//	balance    — monthly income/expense/balance bins, last `window` months
//	categories — per-category totals for one transaction kind
//
// Payloads are cached per user; any ledger mutation invalidates them via
// the generation counter.
func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request, userID int64) {
	chart := r.PathValue("kind")

	var params string
	switch chart {
	case "balance":
		params = strconv.Itoa(s.chartWindow(r))
	case "categories":
		params = s.chartTxKind(r)
	default:
		writeError(w, http.StatusNotFound, "unknown chart kind")
		return
	}

	key := s.chartKey(userID, chart, params)
	if payload, found := s.chartCache.Get(key); found {
		s.logger.DebugContext(r.Context(), "chart cache hit",
			applog.FieldUserID, userID,
			applog.FieldKind, chart)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write(payload)
		return
	}

	list, err := s.ledger.List(r.Context(), userID)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "chart data load failed",
			applog.FieldUserID, userID,
			applog.FieldKind, chart,
			applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "could not load chart data")
		return
	}

	var body any
	switch chart {
	case "balance":
		window := s.chartWindow(r)
		body = map[string]any{
			"window": window,
			"series": report.Series(list, window),
		}
	case "categories":
		kind := core.Kind(s.chartTxKind(r))
		body = map[string]any{
			"kind":       kind,
			"categories": report.CategoryOptions(list, kind),
		}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not encode chart data")
		return
	}

	s.chartCache.Set(key, payload)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_, _ = w.Write(payload)
}

// chartWindow reads the month window, clamped to a sane range.
func (s *Server) chartWindow(r *http.Request) int {
	window := queryInt(r, "window", defaultChartWindow)
	if window < 1 {
		window = defaultChartWindow
	}
	if window > maxChartWindow {
		window = maxChartWindow
	}
	return window
}

// chartTxKind reads the transaction kind parameter for category charts,
// defaulting to expense.
func (s *Server) chartTxKind(r *http.Request) string {
	kind, err := core.ParseKind(r.URL.Query().Get("kind"))
	if err != nil {
		return string(core.Expense)
	}
	return string(kind)
}
