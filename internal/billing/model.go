package billing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/alnoor-clinic/platform/internal/shared/types"
)

// PaymentStatus represents the state of a payment
type PaymentStatus string

const (
	PaymentCompleted   PaymentStatus = "completed"
	PaymentPending     PaymentStatus = "pending"
	PaymentRejected    PaymentStatus = "rejected"
	PaymentUnderReview PaymentStatus = "under_review"
)

// Valid reports whether the status is one of the known states
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentCompleted, PaymentPending, PaymentRejected, PaymentUnderReview:
		return true
	}
	return false
}

// Payment represents money received from a patient, optionally tied to
// an appointment
type Payment struct {
	ID            int64           `json:"id"`
	PatientID     int64           `json:"patient_id"`
	AppointmentID *int64          `json:"appointment_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentDate   types.Date      `json:"payment_date"`
	PaymentMethod string          `json:"payment_method"`
	Status        PaymentStatus   `json:"status"`
	Notes         string          `json:"notes"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Expense represents money the clinic spent
type Expense struct {
	ID            int64           `json:"id"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
	ExpenseDate   types.Date      `json:"expense_date"`
	Category      string          `json:"category"`
	PaymentMethod string          `json:"payment_method"`
	ReceiptNumber string          `json:"receipt_number"`
	Recurring     bool            `json:"recurring"`
	Notes         string          `json:"notes"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// CreatePaymentRequest is the payload for recording a payment
type CreatePaymentRequest struct {
	PatientID     int64           `json:"patient_id"`
	AppointmentID *int64          `json:"appointment_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentDate   types.Date      `json:"payment_date"`
	PaymentMethod string          `json:"payment_method"`
	Status        PaymentStatus   `json:"status"`
	Notes         string          `json:"notes"`
}

// UpdatePaymentRequest is the payload for updating a payment.
// Nil fields are left unchanged.
type UpdatePaymentRequest struct {
	Amount        *decimal.Decimal `json:"amount"`
	PaymentDate   *types.Date      `json:"payment_date"`
	PaymentMethod *string          `json:"payment_method"`
	Status        *PaymentStatus   `json:"status"`
	Notes         *string          `json:"notes"`
}

// CreateExpenseRequest is the payload for recording an expense
type CreateExpenseRequest struct {
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
	ExpenseDate   types.Date      `json:"expense_date"`
	Category      string          `json:"category"`
	PaymentMethod string          `json:"payment_method"`
	ReceiptNumber string          `json:"receipt_number"`
	Recurring     bool            `json:"recurring"`
	Notes         string          `json:"notes"`
}

// UpdateExpenseRequest is the payload for updating an expense.
// Nil fields are left unchanged.
type UpdateExpenseRequest struct {
	Description   *string          `json:"description"`
	Amount        *decimal.Decimal `json:"amount"`
	ExpenseDate   *types.Date      `json:"expense_date"`
	Category      *string          `json:"category"`
	PaymentMethod *string          `json:"payment_method"`
	ReceiptNumber *string          `json:"receipt_number"`
	Recurring     *bool            `json:"recurring"`
	Notes         *string          `json:"notes"`
}

// ListPaymentsFilter filters payment listings
type ListPaymentsFilter struct {
	PatientID *int64
	Status    *PaymentStatus
	From      *types.Date
	To        *types.Date
	Limit     int
	Offset    int
}

// ListExpensesFilter filters expense listings
type ListExpensesFilter struct {
	Category  string
	Recurring *bool
	From      *types.Date
	To        *types.Date
	Limit     int
	Offset    int
}

// GenerateRecurringRequest asks for monthly copies of an expense
type GenerateRecurringRequest struct {
	ExpenseID int64 `json:"expense_id"`
	Months    int   `json:"months"`
}

// GenerateInstallmentsRequest asks for an installment plan
type GenerateInstallmentsRequest struct {
	PatientID     int64           `json:"patient_id"`
	AppointmentID *int64          `json:"appointment_id"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Installments  int             `json:"installments"`
	StartDate     types.Date      `json:"start_date"`
	PaymentMethod string          `json:"payment_method"`
}
