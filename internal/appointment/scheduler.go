package appointment

import (
	"context"

	"github.com/alnoor-clinic/platform/internal/shared/config"
	"github.com/alnoor-clinic/platform/internal/shared/errors"
	"github.com/alnoor-clinic/platform/internal/shared/types"
)

// Store is the persistence surface the scheduling engine needs
type Store interface {
	BookedTimes(ctx context.Context, doctorID int64, date types.Date) ([]types.TimeOfDay, error)
	Insert(ctx context.Context, a *Appointment) error
	TreatmentSnapshot(ctx context.Context, id int64) (*TreatmentSnapshot, error)
	DoctorActive(ctx context.Context, id int64) (bool, error)
	PatientExists(ctx context.Context, id int64) (bool, error)
}

// Engine implements slot generation and booking on top of a Store.
// The store's unique index is the final arbiter for concurrent bookings;
// the engine's own conflict check only provides a friendlier error for
// the common case.
type Engine struct {
	store Store
	cfg   config.SchedulingConfig
}

// NewEngine creates a scheduling engine
func NewEngine(store Store, cfg config.SchedulingConfig) *Engine {
	return &Engine{store: store, cfg: cfg}
}

// workdaySlots returns every slot time of a working day in order
func (e *Engine) workdaySlots() []types.TimeOfDay {
	slots := []types.TimeOfDay{}
	if e.cfg.SlotMinutes <= 0 {
		return slots
	}
	start := types.NewTimeOfDay(e.cfg.WorkdayStartHour, 0)
	end := types.NewTimeOfDay(e.cfg.WorkdayEndHour, 0)
	for t := start; t.Before(end); t = t.AddMinutes(e.cfg.SlotMinutes) {
		slots = append(slots, t)
	}
	return slots
}

// AvailableSlots returns the open slot times of the doctor's working day
// in ascending order. A fully booked or inactive doctor yields an empty
// slice, never nil and never an error.
func (e *Engine) AvailableSlots(ctx context.Context, doctorID int64, date types.Date) ([]types.TimeOfDay, error) {
	active, err := e.store.DoctorActive(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	open := []types.TimeOfDay{}
	if !active {
		return open, nil
	}

	taken, err := e.bookedSet(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}

	for _, t := range e.workdaySlots() {
		if !taken[t.Minutes()] {
			open = append(open, t)
		}
	}

	return open, nil
}

// ScheduleGrid returns every slot of the working day with its
// availability, for rendering a full day schedule. An inactive doctor's
// grid is rendered fully unavailable.
func (e *Engine) ScheduleGrid(ctx context.Context, doctorID int64, date types.Date) ([]Slot, error) {
	active, err := e.store.DoctorActive(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	taken, err := e.bookedSet(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}

	slots := []Slot{}
	for _, t := range e.workdaySlots() {
		slots = append(slots, Slot{Time: t, Available: active && !taken[t.Minutes()]})
	}

	return slots, nil
}

func (e *Engine) bookedSet(ctx context.Context, doctorID int64, date types.Date) (map[int]bool, error) {
	booked, err := e.store.BookedTimes(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}

	taken := make(map[int]bool, len(booked))
	for _, t := range booked {
		taken[t.Minutes()] = true
	}
	return taken, nil
}

// HasConflict reports whether the doctor already has a non-cancelled
// appointment at the given date and time
func (e *Engine) HasConflict(ctx context.Context, doctorID int64, date types.Date, t types.TimeOfDay) (bool, error) {
	booked, err := e.store.BookedTimes(ctx, doctorID, date)
	if err != nil {
		return false, err
	}

	for _, b := range booked {
		if b.Minutes() == t.Minutes() {
			return true, nil
		}
	}

	return false, nil
}

// onGrid reports whether a time is a valid slot start
func (e *Engine) onGrid(t types.TimeOfDay) bool {
	start := types.NewTimeOfDay(e.cfg.WorkdayStartHour, 0)
	end := types.NewTimeOfDay(e.cfg.WorkdayEndHour, 0)
	if t.Before(start) || !t.Before(end) {
		return false
	}
	if e.cfg.SlotMinutes <= 0 {
		return false
	}
	return (t.Minutes()-start.Minutes())%e.cfg.SlotMinutes == 0
}

// Book validates and stores a new appointment. The cost is snapshotted
// from the treatment's current base price.
func (e *Engine) Book(ctx context.Context, req BookRequest) (*Appointment, error) {
	if req.PatientID == 0 || req.DoctorID == 0 || req.TreatmentID == 0 {
		return nil, errors.Validation("validation failed", map[string]string{
			"patient_id":   "patient_id is required",
			"doctor_id":    "doctor_id is required",
			"treatment_id": "treatment_id is required",
		})
	}
	if req.Date.IsZero() {
		return nil, errors.Validation("validation failed", map[string]string{
			"appointment_date": "appointment_date is required",
		})
	}
	if !e.onGrid(req.Time) {
		return nil, errors.Validation("validation failed", map[string]string{
			"appointment_time": "appointment_time is outside working hours or not on the slot grid",
		})
	}

	exists, err := e.store.PatientExists(ctx, req.PatientID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errors.NotFound("patient", "")
	}

	active, err := e.store.DoctorActive(ctx, req.DoctorID)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, errors.Conflict("doctor is not active")
	}

	treatment, err := e.store.TreatmentSnapshot(ctx, req.TreatmentID)
	if err != nil {
		return nil, err
	}
	if !treatment.Active {
		return nil, errors.InactiveTreatment(req.TreatmentID)
	}

	conflict, err := e.HasConflict(ctx, req.DoctorID, req.Date, req.Time)
	if err != nil {
		return nil, err
	}
	if conflict {
		return nil, errors.Conflict("slot is already booked")
	}

	a := &Appointment{
		PatientID:   req.PatientID,
		DoctorID:    req.DoctorID,
		TreatmentID: req.TreatmentID,
		Date:        req.Date,
		Time:        req.Time,
		Status:      StatusScheduled,
		Cost:        treatment.BasePrice,
		Notes:       req.Notes,
	}

	// A concurrent booking can still slip between the check above and
	// this insert; the unique index reports it as a conflict.
	if err := e.store.Insert(ctx, a); err != nil {
		return nil, err
	}

	return a, nil
}

// Ensure Repository satisfies Store
var _ Store = (*Repository)(nil)
