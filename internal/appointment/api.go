package appointment

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/alnoor-clinic/platform/internal/shared/errors"
	"github.com/alnoor-clinic/platform/internal/shared/events"
	"github.com/alnoor-clinic/platform/internal/shared/metrics"
	"github.com/alnoor-clinic/platform/internal/shared/types"
)

// Handler provides HTTP handlers for the appointment module
type Handler struct {
	repo   *Repository
	engine *Engine
	bus    events.EventBus
}

// NewHandler creates a new appointment handler
func NewHandler(repo *Repository, engine *Engine, bus events.EventBus) *Handler {
	return &Handler{repo: repo, engine: engine, bus: bus}
}

// Routes registers the appointment routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/", h.Book)
	r.Get("/slots", h.Slots)
	r.Get("/schedule", h.Schedule)

	r.Route("/{appointmentID}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Put("/", h.Update)
		r.Post("/cancel", h.Cancel)
	})

	return r
}

// Slots returns the open slot times for a doctor on a day
func (h *Handler) Slots(w http.ResponseWriter, r *http.Request) {
	doctorID, err := strconv.ParseInt(r.URL.Query().Get("doctor_id"), 10, 64)
	if err != nil {
		writeError(w, errors.BadRequest("invalid or missing doctor_id"))
		return
	}

	date, err := types.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid or missing date"))
		return
	}

	slots, err := h.engine.AvailableSlots(r.Context(), doctorID, date)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"doctor_id": doctorID,
		"date":      date,
		"slots":     slots,
	})
}

// Schedule returns the full day grid with per-slot availability
func (h *Handler) Schedule(w http.ResponseWriter, r *http.Request) {
	doctorID, err := strconv.ParseInt(r.URL.Query().Get("doctor_id"), 10, 64)
	if err != nil {
		writeError(w, errors.BadRequest("invalid or missing doctor_id"))
		return
	}

	date, err := types.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid or missing date"))
		return
	}

	grid, err := h.engine.ScheduleGrid(r.Context(), doctorID, date)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"doctor_id": doctorID,
		"date":      date,
		"slots":     grid,
	})
}

// List lists appointments
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter := ListAppointmentsFilter{}

	if p := r.URL.Query().Get("patient_id"); p != "" {
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			writeError(w, errors.BadRequest("invalid patient_id"))
			return
		}
		filter.PatientID = &id
	}
	if d := r.URL.Query().Get("doctor_id"); d != "" {
		id, err := strconv.ParseInt(d, 10, 64)
		if err != nil {
			writeError(w, errors.BadRequest("invalid doctor_id"))
			return
		}
		filter.DoctorID = &id
	}
	if d := r.URL.Query().Get("date"); d != "" {
		date, err := types.ParseDate(d)
		if err != nil {
			writeError(w, errors.BadRequest("invalid date"))
			return
		}
		filter.Date = &date
	}
	if s := r.URL.Query().Get("status"); s != "" {
		status := Status(s)
		filter.Status = &status
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		filter.Limit, _ = strconv.Atoi(l)
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		filter.Offset, _ = strconv.Atoi(o)
	}

	appointments, total, err := h.repo.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  appointments,
		"total": total,
	})
}

// Get gets an appointment by ID
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "appointmentID"), 10, 64)
	if err != nil {
		writeError(w, errors.BadRequest("invalid appointment ID"))
		return
	}

	a, err := h.repo.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, a)
}

// Book books a new appointment
func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	var req BookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	a, err := h.engine.Book(r.Context(), req)
	if err != nil {
		if errors.IsConflict(err) {
			metrics.RecordBookingConflict()
		}
		writeError(w, err)
		return
	}

	metrics.RecordAppointmentBooked(fmt.Sprintf("%d", a.DoctorID))

	if h.bus != nil {
		event := events.NewEvent("appointment.booked", "appointment", map[string]any{
			"appointment_id": a.ID,
			"patient_id":     a.PatientID,
			"doctor_id":      a.DoctorID,
			"treatment_id":   a.TreatmentID,
			"date":           a.Date,
			"time":           a.Time,
			"cost":           a.Cost,
		})
		h.bus.Publish(r.Context(), event)
	}

	writeJSON(w, http.StatusCreated, a)
}

// Update updates an appointment's status or notes
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "appointmentID"), 10, 64)
	if err != nil {
		writeError(w, errors.BadRequest("invalid appointment ID"))
		return
	}

	a, err := h.repo.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	var req UpdateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	fromStatus := a.Status

	if req.Status != nil {
		if !req.Status.Valid() {
			writeError(w, errors.Validation("validation failed", map[string]string{
				"status": "unknown status",
			}))
			return
		}
		a.Status = *req.Status
	}
	if req.Notes != nil {
		a.Notes = *req.Notes
	}

	if err := h.repo.Update(r.Context(), a); err != nil {
		writeError(w, err)
		return
	}

	if req.Status != nil && *req.Status != fromStatus {
		metrics.RecordAppointmentStatusChange(string(fromStatus), string(a.Status))

		if h.bus != nil {
			event := events.NewEvent("appointment.status_changed", "appointment", map[string]any{
				"appointment_id": a.ID,
				"from_status":    fromStatus,
				"to_status":      a.Status,
			})
			h.bus.Publish(r.Context(), event)
		}
	}

	writeJSON(w, http.StatusOK, a)
}

// Cancel cancels an appointment, freeing its slot for rebooking
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "appointmentID"), 10, 64)
	if err != nil {
		writeError(w, errors.BadRequest("invalid appointment ID"))
		return
	}

	a, err := h.repo.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	if a.Status == StatusCancelled {
		writeJSON(w, http.StatusOK, a)
		return
	}

	fromStatus := a.Status
	a.Status = StatusCancelled

	if err := h.repo.Update(r.Context(), a); err != nil {
		writeError(w, err)
		return
	}

	metrics.RecordAppointmentStatusChange(string(fromStatus), string(StatusCancelled))

	if h.bus != nil {
		event := events.NewEvent("appointment.cancelled", "appointment", map[string]any{
			"appointment_id": a.ID,
			"doctor_id":      a.DoctorID,
			"date":           a.Date,
			"time":           a.Time,
		})
		h.bus.Publish(r.Context(), event)
	}

	writeJSON(w, http.StatusOK, a)
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
