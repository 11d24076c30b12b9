package appointment

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/alnoor-clinic/platform/internal/shared/errors"
	"github.com/alnoor-clinic/platform/internal/shared/types"
)

// Repository provides database operations for appointments
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new appointment repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const appointmentColumns = `
	id, patient_id, doctor_id, treatment_id,
	appointment_date, appointment_time::text,
	status, cost, notes, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	a := &Appointment{}
	var date time.Time
	var timeOfDay string
	err := row.Scan(
		&a.ID, &a.PatientID, &a.DoctorID, &a.TreatmentID,
		&date, &timeOfDay,
		&a.Status, &a.Cost, &a.Notes, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Date = types.DateOf(date)
	a.Time, err = types.ParseTimeOfDay(timeOfDay)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Insert stores a new appointment. The partial unique index on
// (doctor_id, appointment_date, appointment_time) turns concurrent
// bookings of the same slot into a conflict error here.
func (r *Repository) Insert(ctx context.Context, a *Appointment) error {
	query := `
		INSERT INTO appointments (
			patient_id, doctor_id, treatment_id,
			appointment_date, appointment_time, status, cost, notes
		) VALUES ($1, $2, $3, $4, $5::time, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		a.PatientID, a.DoctorID, a.TreatmentID,
		a.Date.Time(), a.Time.String()+":00", a.Status, a.Cost, a.Notes,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if stderrors.As(err, &pgErr) && pgErr.Code == "23505" {
			return errors.Conflict("slot is already booked")
		}
		return errors.Wrap(err, "failed to create appointment")
	}

	return nil
}

// Get retrieves an appointment by ID
func (r *Repository) Get(ctx context.Context, id int64) (*Appointment, error) {
	query := fmt.Sprintf(`SELECT %s FROM appointments WHERE id = $1`, appointmentColumns)

	a, err := scanAppointment(r.pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("appointment", fmt.Sprintf("%d", id))
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get appointment")
	}

	return a, nil
}

// Update updates an appointment's status and notes
func (r *Repository) Update(ctx context.Context, a *Appointment) error {
	query := `
		UPDATE appointments SET
			status = $2, notes = $3, updated_at = NOW()
		WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, a.ID, a.Status, a.Notes)
	if err != nil {
		return errors.Wrap(err, "failed to update appointment")
	}

	if result.RowsAffected() == 0 {
		return errors.NotFound("appointment", fmt.Sprintf("%d", a.ID))
	}

	return nil
}

// List lists appointments with optional filters
func (r *Repository) List(ctx context.Context, filter ListAppointmentsFilter) ([]Appointment, int, error) {
	var conditions []string
	var args []interface{}
	argNum := 1

	if filter.PatientID != nil {
		conditions = append(conditions, fmt.Sprintf("patient_id = $%d", argNum))
		args = append(args, *filter.PatientID)
		argNum++
	}

	if filter.DoctorID != nil {
		conditions = append(conditions, fmt.Sprintf("doctor_id = $%d", argNum))
		args = append(args, *filter.DoctorID)
		argNum++
	}

	if filter.Date != nil {
		conditions = append(conditions, fmt.Sprintf("appointment_date = $%d", argNum))
		args = append(args, filter.Date.Time())
		argNum++
	}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argNum))
		args = append(args, *filter.Status)
		argNum++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	// Get total count
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM appointments %s", whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "failed to count appointments")
	}

	limit := 50
	if filter.Limit > 0 && filter.Limit <= 100 {
		limit = filter.Limit
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM appointments
		%s
		ORDER BY appointment_date, appointment_time
		LIMIT $%d OFFSET $%d`, appointmentColumns, whereClause, argNum, argNum+1)

	args = append(args, limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list appointments")
	}
	defer rows.Close()

	var appointments []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, errors.Wrap(err, "failed to scan appointment")
		}
		appointments = append(appointments, *a)
	}

	return appointments, total, nil
}

// BookedTimes returns the occupied slot times for a doctor on a day.
// Cancelled appointments do not occupy their slot.
func (r *Repository) BookedTimes(ctx context.Context, doctorID int64, date types.Date) ([]types.TimeOfDay, error) {
	query := `
		SELECT appointment_time::text
		FROM appointments
		WHERE doctor_id = $1 AND appointment_date = $2 AND status <> 'cancelled'
		ORDER BY appointment_time`

	rows, err := r.pool.Query(ctx, query, doctorID, date.Time())
	if err != nil {
		return nil, errors.Wrap(err, "failed to query booked times")
	}
	defer rows.Close()

	var times []types.TimeOfDay
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, errors.Wrap(err, "failed to scan booked time")
		}
		t, err := types.ParseTimeOfDay(s)
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse booked time")
		}
		times = append(times, t)
	}

	return times, nil
}

// TreatmentSnapshot carries the treatment fields booking needs
type TreatmentSnapshot struct {
	ID        int64
	Name      string
	BasePrice decimal.Decimal
	Active    bool
}

// TreatmentSnapshot loads the booking-relevant view of a treatment
func (r *Repository) TreatmentSnapshot(ctx context.Context, id int64) (*TreatmentSnapshot, error) {
	query := `SELECT id, name, base_price, active FROM treatments WHERE id = $1`

	t := &TreatmentSnapshot{}
	err := r.pool.QueryRow(ctx, query, id).Scan(&t.ID, &t.Name, &t.BasePrice, &t.Active)
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("treatment", fmt.Sprintf("%d", id))
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get treatment")
	}

	return t, nil
}

// DoctorActive reports whether a doctor on file is active
func (r *Repository) DoctorActive(ctx context.Context, id int64) (bool, error) {
	var active bool
	err := r.pool.QueryRow(ctx, `SELECT active FROM doctors WHERE id = $1`, id).Scan(&active)
	if err == pgx.ErrNoRows {
		return false, errors.NotFound("doctor", fmt.Sprintf("%d", id))
	}
	if err != nil {
		return false, errors.Wrap(err, "failed to get doctor")
	}
	return active, nil
}

// PatientExists reports whether a patient is on file
func (r *Repository) PatientExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM patients WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, "failed to check patient")
	}
	return exists, nil
}
