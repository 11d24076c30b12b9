package doctor

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alnoor-clinic/platform/internal/shared/errors"
)

// Repository provides database operations for doctors
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new doctor repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create creates a new doctor and fills in its generated ID
func (r *Repository) Create(ctx context.Context, d *Doctor) error {
	query := `
		INSERT INTO doctors (
			full_name, specialization, phone, email,
			salary, commission_rate, active
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		d.FullName, d.Specialization, d.Phone, d.Email,
		d.Salary, d.CommissionRate, d.Active,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)

	if err != nil {
		return errors.Wrap(err, "failed to create doctor")
	}

	return nil
}

// Get retrieves a doctor by ID
func (r *Repository) Get(ctx context.Context, id int64) (*Doctor, error) {
	query := `
		SELECT id, full_name, specialization, phone, email,
			salary, commission_rate, active, created_at, updated_at
		FROM doctors
		WHERE id = $1`

	d := &Doctor{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&d.ID, &d.FullName, &d.Specialization, &d.Phone, &d.Email,
		&d.Salary, &d.CommissionRate, &d.Active, &d.CreatedAt, &d.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("doctor", fmt.Sprintf("%d", id))
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get doctor")
	}

	return d, nil
}

// Update updates a doctor
func (r *Repository) Update(ctx context.Context, d *Doctor) error {
	query := `
		UPDATE doctors SET
			full_name = $2, specialization = $3, phone = $4, email = $5,
			salary = $6, commission_rate = $7, active = $8, updated_at = NOW()
		WHERE id = $1`

	result, err := r.pool.Exec(ctx, query,
		d.ID, d.FullName, d.Specialization, d.Phone, d.Email,
		d.Salary, d.CommissionRate, d.Active,
	)

	if err != nil {
		return errors.Wrap(err, "failed to update doctor")
	}

	if result.RowsAffected() == 0 {
		return errors.NotFound("doctor", fmt.Sprintf("%d", d.ID))
	}

	return nil
}

// Delete deletes a doctor
func (r *Repository) Delete(ctx context.Context, id int64) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM doctors WHERE id = $1`, id)
	if err != nil {
		if strings.Contains(err.Error(), "foreign key") {
			return errors.Conflict("doctor has appointments and cannot be deleted")
		}
		return errors.Wrap(err, "failed to delete doctor")
	}

	if result.RowsAffected() == 0 {
		return errors.NotFound("doctor", fmt.Sprintf("%d", id))
	}

	return nil
}

// List lists doctors with optional filters
func (r *Repository) List(ctx context.Context, filter ListDoctorsFilter) ([]Doctor, int, error) {
	var conditions []string
	var args []interface{}
	argNum := 1

	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", argNum))
		args = append(args, *filter.Active)
		argNum++
	}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(full_name ILIKE $%d OR specialization ILIKE $%d)", argNum, argNum))
		args = append(args, "%"+filter.Search+"%")
		argNum++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	// Get total count
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM doctors %s", whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "failed to count doctors")
	}

	limit := 50
	if filter.Limit > 0 && filter.Limit <= 100 {
		limit = filter.Limit
	}

	query := fmt.Sprintf(`
		SELECT id, full_name, specialization, phone, email,
			salary, commission_rate, active, created_at, updated_at
		FROM doctors
		%s
		ORDER BY full_name
		LIMIT $%d OFFSET $%d`, whereClause, argNum, argNum+1)

	args = append(args, limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list doctors")
	}
	defer rows.Close()

	var doctors []Doctor
	for rows.Next() {
		var d Doctor
		err := rows.Scan(
			&d.ID, &d.FullName, &d.Specialization, &d.Phone, &d.Email,
			&d.Salary, &d.CommissionRate, &d.Active, &d.CreatedAt, &d.UpdatedAt,
		)
		if err != nil {
			return nil, 0, errors.Wrap(err, "failed to scan doctor")
		}
		doctors = append(doctors, d)
	}

	return doctors, total, nil
}
