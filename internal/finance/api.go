package finance

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/alnoor-clinic/platform/internal/shared/errors"
	"github.com/alnoor-clinic/platform/internal/shared/metrics"
	"github.com/alnoor-clinic/platform/internal/shared/types"
)

// Handler provides HTTP handlers for the financial reports
type Handler struct {
	agg *Aggregator
}

// NewHandler creates a new finance handler
func NewHandler(agg *Aggregator) *Handler {
	return &Handler{agg: agg}
}

// Routes registers the report routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/summary", h.Summary)
	r.Get("/daily", h.DailySnapshot)
	r.Get("/doctors", h.DoctorPerformance)
	r.Get("/patients", h.PatientReport)
	r.Get("/treatments", h.TreatmentReport)
	r.Get("/monthly", h.MonthlyReport)
	r.Get("/yearly", h.YearlyComparison)
	r.Get("/expenses", h.ExpenseAnalysis)
	r.Get("/inventory", h.InventoryValue)

	return r
}

// parseRange extracts the inclusive from/to query dates
func parseRange(r *http.Request) (types.Date, types.Date, error) {
	from, err := types.ParseDate(r.URL.Query().Get("from"))
	if err != nil {
		return types.Date{}, types.Date{}, errors.BadRequest("invalid or missing from date")
	}
	to, err := types.ParseDate(r.URL.Query().Get("to"))
	if err != nil {
		return types.Date{}, types.Date{}, errors.BadRequest("invalid or missing to date")
	}
	return from, to, nil
}

// Summary returns the financial summary for a date range
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r)
	if err != nil {
		writeError(w, err)
		return
	}

	summary, err := h.agg.Summary(r.Context(), from, to)
	if err != nil {
		writeError(w, err)
		return
	}

	metrics.RecordReport("summary")
	writeJSON(w, http.StatusOK, summary)
}

// DailySnapshot returns the summary for a single day, defaulting to today
func (h *Handler) DailySnapshot(w http.ResponseWriter, r *http.Request) {
	date := types.Today()
	if d := r.URL.Query().Get("date"); d != "" {
		parsed, err := types.ParseDate(d)
		if err != nil {
			writeError(w, errors.BadRequest("invalid date"))
			return
		}
		date = parsed
	}

	snapshot, err := h.agg.DailySnapshot(r.Context(), date)
	if err != nil {
		writeError(w, err)
		return
	}

	metrics.RecordReport("daily")
	writeJSON(w, http.StatusOK, snapshot)
}

// DoctorPerformance returns per-doctor revenue and commission rows
func (h *Handler) DoctorPerformance(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r)
	if err != nil {
		writeError(w, err)
		return
	}

	rows, err := h.agg.DoctorPerformance(r.Context(), from, to)
	if err != nil {
		writeError(w, err)
		return
	}

	metrics.RecordReport("doctors")
	writeJSON(w, http.StatusOK, map[string]any{"data": rows, "total": len(rows)})
}

// PatientReport returns per-patient spending rows
func (h *Handler) PatientReport(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r)
	if err != nil {
		writeError(w, err)
		return
	}

	rows, err := h.agg.PatientReport(r.Context(), from, to)
	if err != nil {
		writeError(w, err)
		return
	}

	metrics.RecordReport("patients")
	writeJSON(w, http.StatusOK, map[string]any{"data": rows, "total": len(rows)})
}

// TreatmentReport returns per-treatment revenue rows
func (h *Handler) TreatmentReport(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r)
	if err != nil {
		writeError(w, err)
		return
	}

	rows, err := h.agg.TreatmentReport(r.Context(), from, to)
	if err != nil {
		writeError(w, err)
		return
	}

	metrics.RecordReport("treatments")
	writeJSON(w, http.StatusOK, map[string]any{"data": rows, "total": len(rows)})
}

// MonthlyReport returns the 12-month breakdown for a year
func (h *Handler) MonthlyReport(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid or missing year"))
		return
	}

	rows, err := h.agg.MonthlyReport(r.Context(), year)
	if err != nil {
		writeError(w, err)
		return
	}

	metrics.RecordReport("monthly")
	writeJSON(w, http.StatusOK, map[string]any{"year": year, "data": rows})
}

// YearlyComparison returns one row per requested year.
// Years come as a comma separated list: ?years=2022,2023,2024
func (h *Handler) YearlyComparison(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("years")
	if raw == "" {
		writeError(w, errors.BadRequest("missing years"))
		return
	}

	var years []int
	for _, part := range strings.Split(raw, ",") {
		year, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			writeError(w, errors.BadRequest("invalid year: "+part))
			return
		}
		years = append(years, year)
	}

	rows, err := h.agg.YearlyComparison(r.Context(), years)
	if err != nil {
		writeError(w, err)
		return
	}

	metrics.RecordReport("yearly")
	writeJSON(w, http.StatusOK, map[string]any{"data": rows})
}

// ExpenseAnalysis returns the per-category expense breakdown
func (h *Handler) ExpenseAnalysis(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r)
	if err != nil {
		writeError(w, err)
		return
	}

	rows, err := h.agg.ExpenseAnalysis(r.Context(), from, to)
	if err != nil {
		writeError(w, err)
		return
	}

	metrics.RecordReport("expenses")
	writeJSON(w, http.StatusOK, map[string]any{"data": rows, "total": len(rows)})
}

// InventoryValue returns the per-category stock valuation
func (h *Handler) InventoryValue(w http.ResponseWriter, r *http.Request) {
	rows, err := h.agg.InventoryValueReport(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	metrics.RecordReport("inventory")
	writeJSON(w, http.StatusOK, map[string]any{"data": rows, "total": len(rows)})
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")

	if appErr, ok := err.(*errors.AppError); ok {
		w.WriteHeader(appErr.HTTPStatus)
		json.NewEncoder(w).Encode(map[string]any{
			"error":   appErr.Message,
			"code":    appErr.Code,
			"details": appErr.Details,
		})
		return
	}

	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"error": "internal server error"})
}
