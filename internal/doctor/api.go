package doctor

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/alnoor-clinic/platform/internal/shared/errors"
	"github.com/alnoor-clinic/platform/internal/shared/events"
)

// Handler provides HTTP handlers for the doctor module
type Handler struct {
	repo *Repository
	bus  events.EventBus
}

// NewHandler creates a new doctor handler
func NewHandler(repo *Repository, bus events.EventBus) *Handler {
	return &Handler{repo: repo, bus: bus}
}

// Routes registers the doctor routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/", h.Create)

	r.Route("/{doctorID}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Put("/", h.Update)
		r.Delete("/", h.Delete)
	})

	return r
}

// List lists doctors
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter := ListDoctorsFilter{
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

	doctors, total, err := h.repo.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  doctors,
		"total": total,
	})
}

// Get gets a doctor by ID
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "doctorID"), 10, 64)
	if err != nil {
		writeError(w, errors.BadRequest("invalid doctor ID"))
		return
	}

	d, err := h.repo.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, d)
}

// Create adds a new doctor
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateDoctorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	if req.FullName == "" {
		writeError(w, errors.Validation("validation failed", map[string]string{
			"full_name": "full_name is required",
		}))
		return
	}
	if !ValidCommissionRate(req.CommissionRate) {
		writeError(w, errors.Validation("validation failed", map[string]string{
			"commission_rate": "commission_rate must be between 0 and 100",
		}))
		return
	}

	d := &Doctor{
		FullName:       req.FullName,
		Specialization: req.Specialization,
		Phone:          req.Phone,
		Email:          req.Email,
		Salary:         req.Salary,
		CommissionRate: req.CommissionRate,
		Active:         true,
	}

	if err := h.repo.Create(r.Context(), d); err != nil {
		writeError(w, err)
		return
	}

	if h.bus != nil {
		event := events.NewEvent("doctor.added", "doctor", map[string]any{
			"doctor_id": d.ID,
			"full_name": d.FullName,
		})
		h.bus.Publish(r.Context(), event)
	}

	writeJSON(w, http.StatusCreated, d)
}

// Update updates a doctor
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "doctorID"), 10, 64)
	if err != nil {
		writeError(w, errors.BadRequest("invalid doctor ID"))
		return
	}

	d, err := h.repo.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	var req UpdateDoctorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	// Apply updates
	if req.FullName != nil {
		d.FullName = *req.FullName
	}
	if req.Specialization != nil {
		d.Specialization = *req.Specialization
	}
	if req.Phone != nil {
		d.Phone = *req.Phone
	}
	if req.Email != nil {
		d.Email = *req.Email
	}
	if req.Salary != nil {
		d.Salary = *req.Salary
	}
	if req.CommissionRate != nil {
		if !ValidCommissionRate(*req.CommissionRate) {
			writeError(w, errors.Validation("validation failed", map[string]string{
				"commission_rate": "commission_rate must be between 0 and 100",
			}))
			return
		}
		d.CommissionRate = *req.CommissionRate
	}
	if req.Active != nil {
		d.Active = *req.Active
	}

	if err := h.repo.Update(r.Context(), d); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, d)
}

// Delete deletes a doctor
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "doctorID"), 10, 64)
	if err != nil {
		writeError(w, errors.BadRequest("invalid doctor ID"))
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
