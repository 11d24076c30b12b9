package treatment

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/alnoor-clinic/platform/internal/shared/errors"
	"github.com/alnoor-clinic/platform/internal/shared/events"
)

// Handler provides HTTP handlers for the treatment module
type Handler struct {
	repo *Repository
	bus  events.EventBus
}

// NewHandler creates a new treatment handler
func NewHandler(repo *Repository, bus events.EventBus) *Handler {
	return &Handler{repo: repo, bus: bus}
}

// Routes registers the treatment routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/", h.Create)

	r.Route("/{treatmentID}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Put("/", h.Update)
		r.Delete("/", h.Delete)
	})

	return r
}

// List lists treatments
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter := ListTreatmentsFilter{
		Search: r.URL.Query().Get("search"),
	}
	if a := r.URL.Query().Get("active"); a != "" {
		active := a == "true"
		filter.Active = &active
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		filter.Limit, _ = strconv.Atoi(l)
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		filter.Offset, _ = strconv.Atoi(o)
	}

	treatments, total, err := h.repo.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  treatments,
		"total": total,
	})
}

// Get gets a treatment by ID
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "treatmentID"), 10, 64)
	if err != nil {
		writeError(w, errors.BadRequest("invalid treatment ID"))
		return
	}

	t, err := h.repo.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, t)
}

// Create adds a new treatment
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateTreatmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	if req.Name == "" {
		writeError(w, errors.Validation("validation failed", map[string]string{
			"name": "name is required",
		}))
		return
	}
	if req.BasePrice.IsNegative() {
		writeError(w, errors.Validation("validation failed", map[string]string{
			"base_price": "base_price must not be negative",
		}))
		return
	}

	duration := req.DurationMinutes
	if duration <= 0 {
		duration = 30
	}

	t := &Treatment{
		Name:            req.Name,
		Description:     req.Description,
		BasePrice:       req.BasePrice,
		CommissionRate:  req.CommissionRate,
		DurationMinutes: duration,
		Active:          true,
	}

	if err := h.repo.Create(r.Context(), t); err != nil {
		writeError(w, err)
		return
	}

	if h.bus != nil {
		event := events.NewEvent("treatment.added", "treatment", map[string]any{
			"treatment_id": t.ID,
			"name":         t.Name,
		})
		h.bus.Publish(r.Context(), event)
	}

	writeJSON(w, http.StatusCreated, t)
}

// Update updates a treatment
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "treatmentID"), 10, 64)
	if err != nil {
		writeError(w, errors.BadRequest("invalid treatment ID"))
		return
	}

	t, err := h.repo.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	var req UpdateTreatmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	// Apply updates
	if req.Name != nil {
		t.Name = *req.Name
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.BasePrice != nil {
		t.BasePrice = *req.BasePrice
	}
	if req.CommissionRate != nil {
		t.CommissionRate = *req.CommissionRate
	}
	if req.DurationMinutes != nil {
		t.DurationMinutes = *req.DurationMinutes
	}
	if req.Active != nil {
		t.Active = *req.Active
	}

	if err := h.repo.Update(r.Context(), t); err != nil {
		writeError(w, err)
		return
	}

	if h.bus != nil && req.Active != nil && !*req.Active {
		event := events.NewEvent("treatment.deactivated", "treatment", map[string]any{
			"treatment_id": t.ID,
			"name":         t.Name,
		})
		h.bus.Publish(r.Context(), event)
	}

	writeJSON(w, http.StatusOK, t)
}

// Delete deletes a treatment
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "treatmentID"), 10, 64)
	if err != nil {
		writeError(w, errors.BadRequest("invalid treatment ID"))
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
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
