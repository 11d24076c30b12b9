package doctor

import (
	"time"

	"github.com/shopspring/decimal"
)

// Doctor represents a practitioner employed by the clinic. CommissionRate
// is a percentage of treatment revenue, 0 to 100.
type Doctor struct {
	ID             int64           `json:"id"`
	FullName       string          `json:"full_name"`
	Specialization string          `json:"specialization"`
	Phone          string          `json:"phone"`
	Email          string          `json:"email"`
	Salary         decimal.Decimal `json:"salary"`
	CommissionRate decimal.Decimal `json:"commission_rate"`
	Active         bool            `json:"active"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// CreateDoctorRequest is the payload for adding a doctor
type CreateDoctorRequest struct {
	FullName       string          `json:"full_name"`
	Specialization string          `json:"specialization"`
	Phone          string          `json:"phone"`
	Email          string          `json:"email"`
	Salary         decimal.Decimal `json:"salary"`
	CommissionRate decimal.Decimal `json:"commission_rate"`
}

// UpdateDoctorRequest is the payload for updating a doctor.
// Nil fields are left unchanged.
type UpdateDoctorRequest struct {
	FullName       *string          `json:"full_name"`
	Specialization *string          `json:"specialization"`
	Phone          *string          `json:"phone"`
	Email          *string          `json:"email"`
	Salary         *decimal.Decimal `json:"salary"`
	CommissionRate *decimal.Decimal `json:"commission_rate"`
	Active         *bool            `json:"active"`
}

// ListDoctorsFilter filters doctor listings
type ListDoctorsFilter struct {
	Active *bool
	Search string
	Limit  int
	Offset int
}

// ValidCommissionRate reports whether a commission rate is within 0..100
func ValidCommissionRate(rate decimal.Decimal) bool {
	return rate.GreaterThanOrEqual(decimal.Zero) && rate.LessThanOrEqual(decimal.NewFromInt(100))
}
