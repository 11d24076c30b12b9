package treatment

import (
	"time"

	"github.com/shopspring/decimal"
)

// Treatment represents a service the clinic offers. Deactivated
// treatments stay on file for reporting but cannot be booked.
type Treatment struct {
	ID              int64           `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	BasePrice       decimal.Decimal `json:"base_price"`
	CommissionRate  decimal.Decimal `json:"commission_rate"`
	DurationMinutes int             `json:"duration_minutes"`
	Active          bool            `json:"active"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// CreateTreatmentRequest is the payload for adding a treatment
type CreateTreatmentRequest struct {
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	BasePrice       decimal.Decimal `json:"base_price"`
	CommissionRate  decimal.Decimal `json:"commission_rate"`
	DurationMinutes int             `json:"duration_minutes"`
}

// UpdateTreatmentRequest is the payload for updating a treatment.
// Nil fields are left unchanged.
type UpdateTreatmentRequest struct {
	Name            *string          `json:"name"`
	Description     *string          `json:"description"`
	BasePrice       *decimal.Decimal `json:"base_price"`
	CommissionRate  *decimal.Decimal `json:"commission_rate"`
	DurationMinutes *int             `json:"duration_minutes"`
	Active          *bool            `json:"active"`
}

// ListTreatmentsFilter filters treatment listings
type ListTreatmentsFilter struct {
	Active *bool
	Search string
	Limit  int
	Offset int
}
