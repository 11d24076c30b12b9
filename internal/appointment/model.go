package appointment

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/alnoor-clinic/platform/internal/shared/types"
)

// Status represents the lifecycle state of an appointment
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether the status is one of the known states
func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Appointment represents a booked slot with a doctor. Cost is a snapshot
// of the treatment price at booking time; later price changes do not
// reprice past appointments.
type Appointment struct {
	ID          int64           `json:"id"`
	PatientID   int64           `json:"patient_id"`
	DoctorID    int64           `json:"doctor_id"`
	TreatmentID int64           `json:"treatment_id"`
	Date        types.Date      `json:"appointment_date"`
	Time        types.TimeOfDay `json:"appointment_time"`
	Status      Status          `json:"status"`
	Cost        decimal.Decimal `json:"cost"`
	Notes       string          `json:"notes"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Slot is one bookable position in a doctor's day
type Slot struct {
	Time      types.TimeOfDay `json:"time"`
	Available bool            `json:"available"`
}

// BookRequest is the payload for booking an appointment
type BookRequest struct {
	PatientID   int64           `json:"patient_id"`
	DoctorID    int64           `json:"doctor_id"`
	TreatmentID int64           `json:"treatment_id"`
	Date        types.Date      `json:"appointment_date"`
	Time        types.TimeOfDay `json:"appointment_time"`
	Notes       string          `json:"notes"`
}

// UpdateAppointmentRequest is the payload for updating an appointment.
// Nil fields are left unchanged.
type UpdateAppointmentRequest struct {
	Status *Status `json:"status"`
	Notes  *string `json:"notes"`
}

// ListAppointmentsFilter filters appointment listings
type ListAppointmentsFilter struct {
	PatientID *int64
	DoctorID  *int64
	Date      *types.Date
	Status    *Status
	Limit     int
	Offset    int
}
