package audit

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/alnoor-clinic/platform/internal/shared/errors"
	"github.com/alnoor-clinic/platform/internal/shared/types"
)

// Handler provides HTTP handlers for the audit trail
type Handler struct {
	store Store
}

// NewHandler creates a new audit handler
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// Routes registers the audit routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Get("/verify", h.Verify)
	r.Get("/resource/{resourceType}/{resourceID}", h.ListForResource)
	r.Get("/{entryID}", h.Get)

	return r
}

// Get retrieves a single audit entry by ID
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "entryID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid entry ID"))
		return
	}

	entries, err := h.store.All(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	for i := range entries {
		if entries[i].ID == id {
			writeJSON(w, http.StatusOK, entries[i])
			return
		}
	}

	writeError(w, errors.NotFound("audit entry", id.String()))
}

// ListForResource lists the audit history of one resource, newest first
func (h *Handler) ListForResource(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
		ResourceType: chi.URLParam(r, "resourceType"),
		ResourceID:   chi.URLParam(r, "resourceID"),
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		filter.Limit, _ = strconv.Atoi(l)
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		filter.Offset, _ = strconv.Atoi(o)
	}

	entries, total, err := h.store.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  entries,
		"total": total,
	})
}

// List lists audit entries, newest first
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
		Action:       r.URL.Query().Get("action"),
		ResourceType: r.URL.Query().Get("resource_type"),
		ResourceID:   r.URL.Query().Get("resource_id"),
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		filter.Limit, _ = strconv.Atoi(l)
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		filter.Offset, _ = strconv.Atoi(o)
	}

	entries, total, err := h.store.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  entries,
		"total": total,
	})
}

// Verify walks the full chain and reports whether it is intact
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	entries, err := h.store.All(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	result := VerifyResult{Valid: true, Entries: len(entries)}
	if err := VerifyChain(entries); err != nil {
		result.Valid = false
		result.Error = err.Error()
	}

	writeJSON(w, http.StatusOK, result)
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
