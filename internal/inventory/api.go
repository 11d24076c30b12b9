package inventory

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/alnoor-clinic/platform/internal/shared/config"
	"github.com/alnoor-clinic/platform/internal/shared/errors"
	"github.com/alnoor-clinic/platform/internal/shared/events"
	"github.com/alnoor-clinic/platform/internal/shared/types"
)

// Handler provides HTTP handlers for the inventory module
type Handler struct {
	repo *Repository
	cfg  config.InventoryConfig
	bus  events.EventBus
}

// NewHandler creates a new inventory handler
func NewHandler(repo *Repository, cfg config.InventoryConfig, bus events.EventBus) *Handler {
	return &Handler{repo: repo, cfg: cfg, bus: bus}
}

// ItemRoutes registers the inventory item routes
func (h *Handler) ItemRoutes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListItems)
	r.Post("/", h.CreateItem)
	r.Get("/alerts", h.Alerts)

	r.Route("/{itemID}", func(r chi.Router) {
		r.Get("/", h.GetItem)
		r.Put("/", h.UpdateItem)
		r.Delete("/", h.DeleteItem)
		r.Post("/adjust", h.AdjustStock)
	})

	return r
}

// SupplierRoutes registers the supplier routes
func (h *Handler) SupplierRoutes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListSuppliers)
	r.Post("/", h.CreateSupplier)

	r.Route("/{supplierID}", func(r chi.Router) {
		r.Get("/", h.GetSupplier)
		r.Put("/", h.UpdateSupplier)
		r.Delete("/", h.DeleteSupplier)
	})

	return r
}

// ListItems lists inventory items
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	filter := ListItemsFilter{
		Category: r.URL.Query().Get("category"),
		Search:   r.URL.Query().Get("search"),
	}
	if s := r.URL.Query().Get("supplier_id"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			writeError(w, errors.BadRequest("invalid supplier_id"))
			return
		}
		filter.SupplierID = &id
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		filter.Limit, _ = strconv.Atoi(l)
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		filter.Offset, _ = strconv.Atoi(o)
	}

	items, total, err := h.repo.ListItems(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  items,
		"total": total,
	})
}

// GetItem gets an inventory item by ID
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
	if err != nil {
		writeError(w, errors.BadRequest("invalid item ID"))
		return
	}

	item, err := h.repo.GetItem(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, item)
}

// CreateItem adds a new inventory item
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req CreateItemRequest
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
	if req.Quantity < 0 {
		writeError(w, errors.Validation("validation failed", map[string]string{
			"quantity": "quantity must not be negative",
		}))
		return
	}
	if req.UnitPrice.IsNegative() {
		writeError(w, errors.Validation("validation failed", map[string]string{
			"unit_price": "unit_price must not be negative",
		}))
		return
	}

	item := &Item{
		Name:          req.Name,
		Category:      req.Category,
		SupplierID:    req.SupplierID,
		Quantity:      req.Quantity,
		Unit:          req.Unit,
		UnitPrice:     req.UnitPrice,
		MinStockLevel: req.MinStockLevel,
		ExpiryDate:    req.ExpiryDate,
		Notes:         req.Notes,
	}

	if err := h.repo.CreateItem(r.Context(), item); err != nil {
		writeError(w, err)
		return
	}

	if h.bus != nil {
		event := events.NewEvent("inventory.item_added", "inventory", map[string]any{
			"item_id":  item.ID,
			"name":     item.Name,
			"quantity": item.Quantity,
		})
		h.bus.Publish(r.Context(), event)
	}

	writeJSON(w, http.StatusCreated, item)
}

// UpdateItem updates an inventory item
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
	if err != nil {
		writeError(w, errors.BadRequest("invalid item ID"))
		return
	}

	item, err := h.repo.GetItem(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	var req UpdateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	// Apply updates
	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Category != nil {
		item.Category = *req.Category
	}
	if req.SupplierID != nil {
		item.SupplierID = req.SupplierID
	}
	if req.Quantity != nil {
		item.Quantity = *req.Quantity
	}
	if req.Unit != nil {
		item.Unit = *req.Unit
	}
	if req.UnitPrice != nil {
		item.UnitPrice = *req.UnitPrice
	}
	if req.MinStockLevel != nil {
		item.MinStockLevel = *req.MinStockLevel
	}
	if req.ExpiryDate != nil {
		item.ExpiryDate = req.ExpiryDate
	}
	if req.Notes != nil {
		item.Notes = *req.Notes
	}

	if item.Quantity < 0 {
		writeError(w, errors.Validation("validation failed", map[string]string{
			"quantity": "quantity must not be negative",
		}))
		return
	}

	if err := h.repo.UpdateItem(r.Context(), item); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, item)
}

// AdjustStock applies a signed quantity delta to an item
func (h *Handler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
	if err != nil {
		writeError(w, errors.BadRequest("invalid item ID"))
		return
	}

	var req AdjustStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}
	if req.Delta == 0 {
		writeError(w, errors.Validation("validation failed", map[string]string{
			"delta": "delta must not be zero",
		}))
		return
	}

	item, err := h.repo.AdjustStock(r.Context(), id, req.Delta)
	if err != nil {
		writeError(w, err)
		return
	}

	if h.bus != nil {
		event := events.NewEvent("inventory.stock_adjusted", "inventory", map[string]any{
			"item_id":  item.ID,
			"delta":    req.Delta,
			"quantity": item.Quantity,
			"reason":   req.Reason,
		})
		h.bus.Publish(r.Context(), event)
	}

	writeJSON(w, http.StatusOK, item)
}

// DeleteItem deletes an inventory item
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
	if err != nil {
		writeError(w, errors.BadRequest("invalid item ID"))
		return
	}

	if err := h.repo.DeleteItem(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Alerts returns items that are low on stock, expired, or expiring soon
func (h *Handler) Alerts(w http.ResponseWriter, r *http.Request) {
	items, err := h.repo.AllItems(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	today := types.Today()
	alerts := BuildAlerts(items, today, h.cfg.ExpiryHorizonDays)

	writeJSON(w, http.StatusOK, alerts)
}

// BuildAlerts classifies items into the alert buckets. An item can
// appear in both low stock and one of the expiry buckets.
func BuildAlerts(items []Item, today types.Date, horizonDays int) Alerts {
	var alerts Alerts
	for _, item := range items {
		if item.LowStock() {
			alerts.LowStock = append(alerts.LowStock, item)
		}
		if item.Expired(today) {
			alerts.Expired = append(alerts.Expired, item)
		} else if item.ExpiringSoon(today, horizonDays) {
			alerts.ExpiringSoon = append(alerts.ExpiringSoon, item)
		}
	}
	return alerts
}

// ListSuppliers lists all suppliers
func (h *Handler) ListSuppliers(w http.ResponseWriter, r *http.Request) {
	suppliers, err := h.repo.ListSuppliers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  suppliers,
		"total": len(suppliers),
	})
}

// GetSupplier gets a supplier by ID
func (h *Handler) GetSupplier(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "supplierID"), 10, 64)
	if err != nil {
		writeError(w, errors.BadRequest("invalid supplier ID"))
		return
	}

	s, err := h.repo.GetSupplier(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, s)
}

// CreateSupplier adds a new supplier
func (h *Handler) CreateSupplier(w http.ResponseWriter, r *http.Request) {
	var req CreateSupplierRequest
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

	s := &Supplier{
		Name:    req.Name,
		Phone:   req.Phone,
		Email:   req.Email,
		Address: req.Address,
		Notes:   req.Notes,
	}

	if err := h.repo.CreateSupplier(r.Context(), s); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, s)
}

// UpdateSupplier updates a supplier
func (h *Handler) UpdateSupplier(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "supplierID"), 10, 64)
	if err != nil {
		writeError(w, errors.BadRequest("invalid supplier ID"))
		return
	}

	s, err := h.repo.GetSupplier(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	var req UpdateSupplierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	if req.Name != nil {
		s.Name = *req.Name
	}
	if req.Phone != nil {
		s.Phone = *req.Phone
	}
	if req.Email != nil {
		s.Email = *req.Email
	}
	if req.Address != nil {
		s.Address = *req.Address
	}
	if req.Notes != nil {
		s.Notes = *req.Notes
	}

	if err := h.repo.UpdateSupplier(r.Context(), s); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, s)
}

// DeleteSupplier deletes a supplier
func (h *Handler) DeleteSupplier(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "supplierID"), 10, 64)
	if err != nil {
		writeError(w, errors.BadRequest("invalid supplier ID"))
		return
	}

	if err := h.repo.DeleteSupplier(r.Context(), id); err != nil {
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
