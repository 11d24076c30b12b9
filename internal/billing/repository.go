package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alnoor-clinic/platform/internal/shared/errors"
	"github.com/alnoor-clinic/platform/internal/shared/types"
)

// Repository provides database operations for payments and expenses
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new billing repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// --- Payment Operations ---

// CreatePayment creates a new payment and fills in its generated ID
func (r *Repository) CreatePayment(ctx context.Context, p *Payment) error {
	query := `
		INSERT INTO payments (
			patient_id, appointment_id, amount, payment_date,
			payment_method, status, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		p.PatientID, p.AppointmentID, p.Amount, p.PaymentDate.Time(),
		p.PaymentMethod, p.Status, p.Notes,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		return errors.Wrap(err, "failed to create payment")
	}

	return nil
}

// GetPayment retrieves a payment by ID
func (r *Repository) GetPayment(ctx context.Context, id int64) (*Payment, error) {
	query := `
		SELECT id, patient_id, appointment_id, amount, payment_date,
			payment_method, status, notes, created_at, updated_at
		FROM payments
		WHERE id = $1`

	p := &Payment{}
	var date time.Time
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.PatientID, &p.AppointmentID, &p.Amount, &date,
		&p.PaymentMethod, &p.Status, &p.Notes, &p.CreatedAt, &p.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("payment", fmt.Sprintf("%d", id))
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get payment")
	}
	p.PaymentDate = types.DateOf(date)

	return p, nil
}

// UpdatePayment updates a payment
func (r *Repository) UpdatePayment(ctx context.Context, p *Payment) error {
	query := `
		UPDATE payments SET
			amount = $2, payment_date = $3, payment_method = $4,
			status = $5, notes = $6, updated_at = NOW()
		WHERE id = $1`

	result, err := r.pool.Exec(ctx, query,
		p.ID, p.Amount, p.PaymentDate.Time(), p.PaymentMethod, p.Status, p.Notes,
	)

	if err != nil {
		return errors.Wrap(err, "failed to update payment")
	}

	if result.RowsAffected() == 0 {
		return errors.NotFound("payment", fmt.Sprintf("%d", p.ID))
	}

	return nil
}

// DeletePayment deletes a payment
func (r *Repository) DeletePayment(ctx context.Context, id int64) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM payments WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "failed to delete payment")
	}

	if result.RowsAffected() == 0 {
		return errors.NotFound("payment", fmt.Sprintf("%d", id))
	}

	return nil
}

// ListPayments lists payments with optional filters
func (r *Repository) ListPayments(ctx context.Context, filter ListPaymentsFilter) ([]Payment, int, error) {
	var conditions []string
	var args []interface{}
	argNum := 1

	if filter.PatientID != nil {
		conditions = append(conditions, fmt.Sprintf("patient_id = $%d", argNum))
		args = append(args, *filter.PatientID)
		argNum++
	}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argNum))
		args = append(args, *filter.Status)
		argNum++
	}

	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("payment_date >= $%d", argNum))
		args = append(args, filter.From.Time())
		argNum++
	}

	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("payment_date <= $%d", argNum))
		args = append(args, filter.To.Time())
		argNum++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	// Get total count
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM payments %s", whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "failed to count payments")
	}

	limit := 50
	if filter.Limit > 0 && filter.Limit <= 100 {
		limit = filter.Limit
	}

	query := fmt.Sprintf(`
		SELECT id, patient_id, appointment_id, amount, payment_date,
			payment_method, status, notes, created_at, updated_at
		FROM payments
		%s
		ORDER BY payment_date DESC, id DESC
		LIMIT $%d OFFSET $%d`, whereClause, argNum, argNum+1)

	args = append(args, limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list payments")
	}
	defer rows.Close()

	var payments []Payment
	for rows.Next() {
		var p Payment
		var date time.Time
		err := rows.Scan(
			&p.ID, &p.PatientID, &p.AppointmentID, &p.Amount, &date,
			&p.PaymentMethod, &p.Status, &p.Notes, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, 0, errors.Wrap(err, "failed to scan payment")
		}
		p.PaymentDate = types.DateOf(date)
		payments = append(payments, p)
	}

	return payments, total, nil
}

// --- Expense Operations ---

// CreateExpense creates a new expense and fills in its generated ID
func (r *Repository) CreateExpense(ctx context.Context, e *Expense) error {
	query := `
		INSERT INTO expenses (
			description, amount, expense_date, category,
			payment_method, receipt_number, recurring, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		e.Description, e.Amount, e.ExpenseDate.Time(), e.Category,
		e.PaymentMethod, e.ReceiptNumber, e.Recurring, e.Notes,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)

	if err != nil {
		return errors.Wrap(err, "failed to create expense")
	}

	return nil
}

// GetExpense retrieves an expense by ID
func (r *Repository) GetExpense(ctx context.Context, id int64) (*Expense, error) {
	query := `
		SELECT id, description, amount, expense_date, category,
			payment_method, receipt_number, recurring, notes, created_at, updated_at
		FROM expenses
		WHERE id = $1`

	e := &Expense{}
	var date time.Time
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&e.ID, &e.Description, &e.Amount, &date, &e.Category,
		&e.PaymentMethod, &e.ReceiptNumber, &e.Recurring, &e.Notes, &e.CreatedAt, &e.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("expense", fmt.Sprintf("%d", id))
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get expense")
	}
	e.ExpenseDate = types.DateOf(date)

	return e, nil
}

// UpdateExpense updates an expense
func (r *Repository) UpdateExpense(ctx context.Context, e *Expense) error {
	query := `
		UPDATE expenses SET
			description = $2, amount = $3, expense_date = $4, category = $5,
			payment_method = $6, receipt_number = $7, recurring = $8,
			notes = $9, updated_at = NOW()
		WHERE id = $1`

	result, err := r.pool.Exec(ctx, query,
		e.ID, e.Description, e.Amount, e.ExpenseDate.Time(), e.Category,
		e.PaymentMethod, e.ReceiptNumber, e.Recurring, e.Notes,
	)

	if err != nil {
		return errors.Wrap(err, "failed to update expense")
	}

	if result.RowsAffected() == 0 {
		return errors.NotFound("expense", fmt.Sprintf("%d", e.ID))
	}

	return nil
}

// DeleteExpense deletes an expense
func (r *Repository) DeleteExpense(ctx context.Context, id int64) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "failed to delete expense")
	}

	if result.RowsAffected() == 0 {
		return errors.NotFound("expense", fmt.Sprintf("%d", id))
	}

	return nil
}

// ListExpenses lists expenses with optional filters
func (r *Repository) ListExpenses(ctx context.Context, filter ListExpensesFilter) ([]Expense, int, error) {
	var conditions []string
	var args []interface{}
	argNum := 1

	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argNum))
		args = append(args, filter.Category)
		argNum++
	}

	if filter.Recurring != nil {
		conditions = append(conditions, fmt.Sprintf("recurring = $%d", argNum))
		args = append(args, *filter.Recurring)
		argNum++
	}

	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("expense_date >= $%d", argNum))
		args = append(args, filter.From.Time())
		argNum++
	}

	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("expense_date <= $%d", argNum))
		args = append(args, filter.To.Time())
		argNum++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	// Get total count
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM expenses %s", whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "failed to count expenses")
	}

	limit := 50
	if filter.Limit > 0 && filter.Limit <= 100 {
		limit = filter.Limit
	}

	query := fmt.Sprintf(`
		SELECT id, description, amount, expense_date, category,
			payment_method, receipt_number, recurring, notes, created_at, updated_at
		FROM expenses
		%s
		ORDER BY expense_date DESC, id DESC
		LIMIT $%d OFFSET $%d`, whereClause, argNum, argNum+1)

	args = append(args, limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list expenses")
	}
	defer rows.Close()

	var expenses []Expense
	for rows.Next() {
		var e Expense
		var date time.Time
		err := rows.Scan(
			&e.ID, &e.Description, &e.Amount, &date, &e.Category,
			&e.PaymentMethod, &e.ReceiptNumber, &e.Recurring, &e.Notes, &e.CreatedAt, &e.UpdatedAt,
		)
		if err != nil {
			return nil, 0, errors.Wrap(err, "failed to scan expense")
		}
		e.ExpenseDate = types.DateOf(date)
		expenses = append(expenses, e)
	}

	return expenses, total, nil
}

// Ensure Repository satisfies the generator interfaces
var (
	_ PaymentWriter = (*Repository)(nil)
	_ ExpenseWriter = (*Repository)(nil)
)
