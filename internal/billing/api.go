package billing

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/alnoor-clinic/platform/internal/shared/errors"
	"github.com/alnoor-clinic/platform/internal/shared/events"
	"github.com/alnoor-clinic/platform/internal/shared/metrics"
	"github.com/alnoor-clinic/platform/internal/shared/types"
)

// Handler provides HTTP handlers for the billing module
type Handler struct {
	repo      *Repository
	generator *Generator
	bus       events.EventBus
}

// NewHandler creates a new billing handler
func NewHandler(repo *Repository, generator *Generator, bus events.EventBus) *Handler {
	return &Handler{repo: repo, generator: generator, bus: bus}
}

// PaymentRoutes registers the payment routes
func (h *Handler) PaymentRoutes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListPayments)
	r.Post("/", h.CreatePayment)
	r.Post("/installments", h.GenerateInstallments)

	r.Route("/{paymentID}", func(r chi.Router) {
		r.Get("/", h.GetPayment)
		r.Put("/", h.UpdatePayment)
		r.Delete("/", h.DeletePayment)
	})

	return r
}

// ExpenseRoutes registers the expense routes
func (h *Handler) ExpenseRoutes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListExpenses)
	r.Post("/", h.CreateExpense)
	r.Post("/recurring", h.GenerateRecurring)

	r.Route("/{expenseID}", func(r chi.Router) {
		r.Get("/", h.GetExpense)
		r.Put("/", h.UpdateExpense)
		r.Delete("/", h.DeleteExpense)
	})

	return r
}

// --- Payment Handlers ---

// ListPayments lists payments
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	filter := ListPaymentsFilter{}

	if p := r.URL.Query().Get("patient_id"); p != "" {
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			writeError(w, errors.BadRequest("invalid patient_id"))
			return
		}
		filter.PatientID = &id
	}
	if s := r.URL.Query().Get("status"); s != "" {
		status := PaymentStatus(s)
		filter.Status = &status
	}
	if f := r.URL.Query().Get("from"); f != "" {
		date, err := types.ParseDate(f)
		if err != nil {
			writeError(w, errors.BadRequest("invalid from date"))
			return
		}
		filter.From = &date
	}
	if t := r.URL.Query().Get("to"); t != "" {
		date, err := types.ParseDate(t)
		if err != nil {
			writeError(w, errors.BadRequest("invalid to date"))
			return
		}
		filter.To = &date
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		filter.Limit, _ = strconv.Atoi(l)
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		filter.Offset, _ = strconv.Atoi(o)
	}

	payments, total, err := h.repo.ListPayments(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  payments,
		"total": total,
	})
}

// GetPayment gets a payment by ID
func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "paymentID"), 10, 64)
	if err != nil {
		writeError(w, errors.BadRequest("invalid payment ID"))
		return
	}

	p, err := h.repo.GetPayment(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, p)
}

// CreatePayment records a new payment
func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req CreatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	details := map[string]string{}
	if req.PatientID == 0 {
		details["patient_id"] = "patient_id is required"
	}
	if req.Amount.IsNegative() {
		details["amount"] = "amount must not be negative"
	}
	if req.PaymentDate.IsZero() {
		details["payment_date"] = "payment_date is required"
	}
	if len(details) > 0 {
		writeError(w, errors.Validation("validation failed", details))
		return
	}

	status := req.Status
	if status == "" {
		status = PaymentCompleted
	}
	if !status.Valid() {
		writeError(w, errors.Validation("validation failed", map[string]string{
			"status": "unknown status",
		}))
		return
	}

	method := req.PaymentMethod
	if method == "" {
		method = "cash"
	}

	p := &Payment{
		PatientID:     req.PatientID,
		AppointmentID: req.AppointmentID,
		Amount:        req.Amount,
		PaymentDate:   req.PaymentDate,
		PaymentMethod: method,
		Status:        status,
		Notes:         req.Notes,
	}

	if err := h.repo.CreatePayment(r.Context(), p); err != nil {
		writeError(w, err)
		return
	}

	metrics.RecordPayment(p.PaymentMethod, string(p.Status))

	if h.bus != nil {
		event := events.NewEvent("payment.recorded", "billing", map[string]any{
			"payment_id": p.ID,
			"patient_id": p.PatientID,
			"amount":     p.Amount,
			"status":     p.Status,
		})
		h.bus.Publish(r.Context(), event)
	}

	writeJSON(w, http.StatusCreated, p)
}

// UpdatePayment updates a payment
func (h *Handler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "paymentID"), 10, 64)
	if err != nil {
		writeError(w, errors.BadRequest("invalid payment ID"))
		return
	}

	p, err := h.repo.GetPayment(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	var req UpdatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	// Apply updates
	if req.Amount != nil {
		if req.Amount.IsNegative() {
			writeError(w, errors.Validation("validation failed", map[string]string{
				"amount": "amount must not be negative",
			}))
			return
		}
		p.Amount = *req.Amount
	}
	if req.PaymentDate != nil {
		p.PaymentDate = *req.PaymentDate
	}
	if req.PaymentMethod != nil {
		p.PaymentMethod = *req.PaymentMethod
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			writeError(w, errors.Validation("validation failed", map[string]string{
				"status": "unknown status",
			}))
			return
		}
		p.Status = *req.Status
	}
	if req.Notes != nil {
		p.Notes = *req.Notes
	}

	if err := h.repo.UpdatePayment(r.Context(), p); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, p)
}

// DeletePayment deletes a payment
func (h *Handler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "paymentID"), 10, 64)
	if err != nil {
		writeError(w, errors.BadRequest("invalid payment ID"))
		return
	}

	if err := h.repo.DeletePayment(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GenerateInstallments creates an installment plan
func (h *Handler) GenerateInstallments(w http.ResponseWriter, r *http.Request) {
	var req GenerateInstallmentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	payments, err := h.generator.GenerateInstallments(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	metrics.RecordInstallments(len(payments))

	if h.bus != nil {
		event := events.NewEvent("payment.installments_generated", "billing", map[string]any{
			"patient_id": req.PatientID,
			"count":      len(payments),
			"total":      req.TotalAmount,
		})
		h.bus.Publish(r.Context(), event)
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"data":  payments,
		"total": len(payments),
	})
}

// --- Expense Handlers ---

// ListExpenses lists expenses
func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	filter := ListExpensesFilter{
		Category: r.URL.Query().Get("category"),
	}

	if rec := r.URL.Query().Get("recurring"); rec != "" {
		recurring := rec == "true"
		filter.Recurring = &recurring
	}
	if f := r.URL.Query().Get("from"); f != "" {
		date, err := types.ParseDate(f)
		if err != nil {
			writeError(w, errors.BadRequest("invalid from date"))
			return
		}
		filter.From = &date
	}
	if t := r.URL.Query().Get("to"); t != "" {
		date, err := types.ParseDate(t)
		if err != nil {
			writeError(w, errors.BadRequest("invalid to date"))
			return
		}
		filter.To = &date
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		filter.Limit, _ = strconv.Atoi(l)
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		filter.Offset, _ = strconv.Atoi(o)
	}

	expenses, total, err := h.repo.ListExpenses(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  expenses,
		"total": total,
	})
}

// GetExpense gets an expense by ID
func (h *Handler) GetExpense(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "expenseID"), 10, 64)
	if err != nil {
		writeError(w, errors.BadRequest("invalid expense ID"))
		return
	}

	e, err := h.repo.GetExpense(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, e)
}

// CreateExpense records a new expense
func (h *Handler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	var req CreateExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	details := map[string]string{}
	if req.Description == "" {
		details["description"] = "description is required"
	}
	if req.Amount.IsNegative() {
		details["amount"] = "amount must not be negative"
	}
	if req.ExpenseDate.IsZero() {
		details["expense_date"] = "expense_date is required"
	}
	if len(details) > 0 {
		writeError(w, errors.Validation("validation failed", details))
		return
	}

	method := req.PaymentMethod
	if method == "" {
		method = "cash"
	}

	e := &Expense{
		Description:   req.Description,
		Amount:        req.Amount,
		ExpenseDate:   req.ExpenseDate,
		Category:      req.Category,
		PaymentMethod: method,
		ReceiptNumber: req.ReceiptNumber,
		Recurring:     req.Recurring,
		Notes:         req.Notes,
	}

	if err := h.repo.CreateExpense(r.Context(), e); err != nil {
		writeError(w, err)
		return
	}

	if h.bus != nil {
		event := events.NewEvent("expense.recorded", "billing", map[string]any{
			"expense_id": e.ID,
			"category":   e.Category,
			"amount":     e.Amount,
		})
		h.bus.Publish(r.Context(), event)
	}

	writeJSON(w, http.StatusCreated, e)
}

// UpdateExpense updates an expense
func (h *Handler) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "expenseID"), 10, 64)
	if err != nil {
		writeError(w, errors.BadRequest("invalid expense ID"))
		return
	}

	e, err := h.repo.GetExpense(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	var req UpdateExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	// Apply updates
	if req.Description != nil {
		e.Description = *req.Description
	}
	if req.Amount != nil {
		if req.Amount.IsNegative() {
			writeError(w, errors.Validation("validation failed", map[string]string{
				"amount": "amount must not be negative",
			}))
			return
		}
		e.Amount = *req.Amount
	}
	if req.ExpenseDate != nil {
		e.ExpenseDate = *req.ExpenseDate
	}
	if req.Category != nil {
		e.Category = *req.Category
	}
	if req.PaymentMethod != nil {
		e.PaymentMethod = *req.PaymentMethod
	}
	if req.ReceiptNumber != nil {
		e.ReceiptNumber = *req.ReceiptNumber
	}
	if req.Recurring != nil {
		e.Recurring = *req.Recurring
	}
	if req.Notes != nil {
		e.Notes = *req.Notes
	}

	if err := h.repo.UpdateExpense(r.Context(), e); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, e)
}

// DeleteExpense deletes an expense
func (h *Handler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "expenseID"), 10, 64)
	if err != nil {
		writeError(w, errors.BadRequest("invalid expense ID"))
		return
	}

	if err := h.repo.DeleteExpense(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GenerateRecurring creates the monthly follow-ups of an expense
func (h *Handler) GenerateRecurring(w http.ResponseWriter, r *http.Request) {
	var req GenerateRecurringRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	expenses, err := h.generator.GenerateRecurringExpenses(r.Context(), req.ExpenseID, req.Months)
	if err != nil {
		writeError(w, err)
		return
	}

	metrics.RecordRecurringExpenses(len(expenses))

	if h.bus != nil {
		event := events.NewEvent("expense.recurring_generated", "billing", map[string]any{
			"expense_id": req.ExpenseID,
			"months":     req.Months,
			"count":      len(expenses),
		})
		h.bus.Publish(r.Context(), event)
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"data":  expenses,
		"total": len(expenses),
	})
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
