package patient

import (
	"time"

	"github.com/alnoor-clinic/platform/internal/shared/types"
)

// Patient represents a person registered at the clinic
type Patient struct {
	ID             int64       `json:"id"`
	FullName       string      `json:"full_name"`
	Phone          string      `json:"phone"`
	Email          string      `json:"email"`
	DateOfBirth    *types.Date `json:"date_of_birth,omitempty"`
	Gender         string      `json:"gender"`
	Address        string      `json:"address"`
	MedicalHistory string      `json:"medical_history"`
	Allergies      string      `json:"allergies"`
	Notes          string      `json:"notes"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// CreatePatientRequest is the payload for registering a patient
type CreatePatientRequest struct {
	FullName       string      `json:"full_name"`
	Phone          string      `json:"phone"`
	Email          string      `json:"email"`
	DateOfBirth    *types.Date `json:"date_of_birth"`
	Gender         string      `json:"gender"`
	Address        string      `json:"address"`
	MedicalHistory string      `json:"medical_history"`
	Allergies      string      `json:"allergies"`
	Notes          string      `json:"notes"`
}

// UpdatePatientRequest is the payload for updating a patient.
// Nil fields are left unchanged.
type UpdatePatientRequest struct {
	FullName       *string     `json:"full_name"`
	Phone          *string     `json:"phone"`
	Email          *string     `json:"email"`
	DateOfBirth    *types.Date `json:"date_of_birth"`
	Gender         *string     `json:"gender"`
	Address        *string     `json:"address"`
	MedicalHistory *string     `json:"medical_history"`
	Allergies      *string     `json:"allergies"`
	Notes          *string     `json:"notes"`
}

// ListPatientsFilter filters patient listings
type ListPatientsFilter struct {
	Search string
	Limit  int
	Offset int
}
