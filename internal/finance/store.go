package finance

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alnoor-clinic/platform/internal/shared/errors"
	"github.com/alnoor-clinic/platform/internal/shared/types"
)

// Ledger is the read surface the aggregator needs. All reports are pure
// functions of these snapshots; nothing is cached between calls.
type Ledger interface {
	PaymentsBetween(ctx context.Context, from, to types.Date) ([]PaymentRow, error)
	ExpensesBetween(ctx context.Context, from, to types.Date) ([]ExpenseRow, error)
	AppointmentsBetween(ctx context.Context, from, to types.Date) ([]AppointmentRow, error)
	Doctors(ctx context.Context) ([]DoctorRow, error)
	Patients(ctx context.Context) ([]PatientRow, error)
	Treatments(ctx context.Context) ([]TreatmentRow, error)
	InventoryItems(ctx context.Context) ([]InventoryRow, error)
}

// Store implements Ledger against PostgreSQL
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new finance store
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// PaymentsBetween returns payments with an inclusive date range filter
func (s *Store) PaymentsBetween(ctx context.Context, from, to types.Date) ([]PaymentRow, error) {
	query := `
		SELECT amount, payment_date
		FROM payments
		WHERE payment_date BETWEEN $1 AND $2
		ORDER BY id`

	rows, err := s.pool.Query(ctx, query, from.Time(), to.Time())
	if err != nil {
		return nil, errors.Wrap(err, "failed to query payments")
	}
	defer rows.Close()

	var result []PaymentRow
	for rows.Next() {
		var r PaymentRow
		var date time.Time
		if err := rows.Scan(&r.Amount, &date); err != nil {
			return nil, errors.Wrap(err, "failed to scan payment row")
		}
		r.Date = types.DateOf(date)
		result = append(result, r)
	}

	return result, nil
}

// ExpensesBetween returns expenses with an inclusive date range filter
func (s *Store) ExpensesBetween(ctx context.Context, from, to types.Date) ([]ExpenseRow, error) {
	query := `
		SELECT amount, expense_date, category
		FROM expenses
		WHERE expense_date BETWEEN $1 AND $2
		ORDER BY id`

	rows, err := s.pool.Query(ctx, query, from.Time(), to.Time())
	if err != nil {
		return nil, errors.Wrap(err, "failed to query expenses")
	}
	defer rows.Close()

	var result []ExpenseRow
	for rows.Next() {
		var r ExpenseRow
		var date time.Time
		if err := rows.Scan(&r.Amount, &date, &r.Category); err != nil {
			return nil, errors.Wrap(err, "failed to scan expense row")
		}
		r.Date = types.DateOf(date)
		result = append(result, r)
	}

	return result, nil
}

// AppointmentsBetween returns appointments with an inclusive date range
// filter, in id order
func (s *Store) AppointmentsBetween(ctx context.Context, from, to types.Date) ([]AppointmentRow, error) {
	query := `
		SELECT id, patient_id, doctor_id, treatment_id, cost, appointment_date
		FROM appointments
		WHERE appointment_date BETWEEN $1 AND $2
		ORDER BY id`

	rows, err := s.pool.Query(ctx, query, from.Time(), to.Time())
	if err != nil {
		return nil, errors.Wrap(err, "failed to query appointments")
	}
	defer rows.Close()

	var result []AppointmentRow
	for rows.Next() {
		var r AppointmentRow
		var date time.Time
		if err := rows.Scan(&r.ID, &r.PatientID, &r.DoctorID, &r.TreatmentID, &r.Cost, &date); err != nil {
			return nil, errors.Wrap(err, "failed to scan appointment row")
		}
		r.Date = types.DateOf(date)
		result = append(result, r)
	}

	return result, nil
}

// Doctors returns all doctors in id order
func (s *Store) Doctors(ctx context.Context) ([]DoctorRow, error) {
	query := `SELECT id, full_name, specialization, commission_rate FROM doctors ORDER BY id`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query doctors")
	}
	defer rows.Close()

	var result []DoctorRow
	for rows.Next() {
		var r DoctorRow
		if err := rows.Scan(&r.ID, &r.Name, &r.Specialization, &r.CommissionRate); err != nil {
			return nil, errors.Wrap(err, "failed to scan doctor row")
		}
		result = append(result, r)
	}

	return result, nil
}

// Patients returns all patients in id order
func (s *Store) Patients(ctx context.Context) ([]PatientRow, error) {
	query := `SELECT id, full_name FROM patients ORDER BY id`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query patients")
	}
	defer rows.Close()

	var result []PatientRow
	for rows.Next() {
		var r PatientRow
		if err := rows.Scan(&r.ID, &r.Name); err != nil {
			return nil, errors.Wrap(err, "failed to scan patient row")
		}
		result = append(result, r)
	}

	return result, nil
}

// Treatments returns all treatments in id order
func (s *Store) Treatments(ctx context.Context) ([]TreatmentRow, error) {
	query := `SELECT id, name FROM treatments ORDER BY id`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query treatments")
	}
	defer rows.Close()

	var result []TreatmentRow
	for rows.Next() {
		var r TreatmentRow
		if err := rows.Scan(&r.ID, &r.Name); err != nil {
			return nil, errors.Wrap(err, "failed to scan treatment row")
		}
		result = append(result, r)
	}

	return result, nil
}

// InventoryItems returns all inventory items in id order
func (s *Store) InventoryItems(ctx context.Context) ([]InventoryRow, error) {
	query := `SELECT category, quantity, unit_price FROM inventory_items ORDER BY id`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query inventory items")
	}
	defer rows.Close()

	var result []InventoryRow
	for rows.Next() {
		var r InventoryRow
		if err := rows.Scan(&r.Category, &r.Quantity, &r.UnitPrice); err != nil {
			return nil, errors.Wrap(err, "failed to scan inventory row")
		}
		result = append(result, r)
	}

	return result, nil
}

// Ensure Store satisfies Ledger
var _ Ledger = (*Store)(nil)
