package api

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/erazemk/odpad/internal/model"
	"github.com/erazemk/odpad/internal/pricing"
	"github.com/erazemk/odpad/internal/report"
	"github.com/erazemk/odpad/internal/store"
)

// ReportsHandler serves the compliance summary, analytics and price
// prediction.
type ReportsHandler struct {
	DB *sql.DB
}

// analytics maps each /api/analytics/{kind} to its aggregation.
var analytics = map[string]func([]model.Item) any{
	"volume-trends":            func(items []model.Item) any { return report.VolumeTrends(items) },
	"items-by-date":            func(items []model.Item) any { return report.ItemsByDate(items) },
	"category-distribution":    func(items []model.Item) any { return report.CategoryDistribution(items) },
	"status-distribution":      func(items []model.Item) any { return report.StatusDistribution(items) },
	"disposition-distribution": func(items []model.Item) any { return report.DispositionDistribution(items) },
	"recovery-rate":            func(items []model.Item) any { return report.RecoveryRate(items) },
}

// Health handles GET /api/health.
func (h *ReportsHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.DB.PingContext(r.Context()); err != nil {
		jsonError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// PredictPrice handles POST /api/predict-price. Missing fields take the
// estimator defaults and the category defaults to Laptop.
func (h *ReportsHandler) PredictPrice(w http.ResponseWriter, r *http.Request) {
	var in pricing.Input
	if err := decodeJSON(r, &in); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if in.Category == "" {
		in.Category = "Laptop"
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"predicted_price": pricing.Estimate(in),
		"status":          "success",
		"note":            "depreciation heuristic",
	})
}

// Summary handles GET /api/reports/summary?from=&to=.
func (h *ReportsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	from, to, ok := dateRange(w, r)
	if !ok {
		return
	}

	s, err := report.BuildSummary(r.Context(), h.DB, from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, s)
}

// Analytics handles GET /api/analytics/{kind}.
func (h *ReportsHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	aggregate, ok := analytics[r.PathValue("kind")]
	if !ok {
		jsonError(w, http.StatusNotFound, "unknown analytics view")
		return
	}

	items, err := store.ListItems(r.Context(), h.DB, store.ItemFilter{})
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, aggregate(items))
}

// dateRange reads the optional from and to query parameters. It writes the
// error response itself and reports false when either is malformed.
func dateRange(w http.ResponseWriter, r *http.Request) (from, to *time.Time, ok bool) {
	q := r.URL.Query()
	if s := q.Get("from"); s != "" {
		t, err := parseDate(s, false)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid from date")
			return nil, nil, false
		}
		from = &t
	}
	if s := q.Get("to"); s != "" {
		t, err := parseDate(s, true)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid to date")
			return nil, nil, false
		}
		to = &t
	}
	if from != nil && to != nil && to.Before(*from) {
		jsonError(w, http.StatusBadRequest, "to must not be before from")
		return nil, nil, false
	}
	return from, to, true
}
