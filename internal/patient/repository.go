package patient

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alnoor-clinic/platform/internal/shared/errors"
)

// Repository provides database operations for patients
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new patient repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create creates a new patient and fills in its generated ID
func (r *Repository) Create(ctx context.Context, p *Patient) error {
	query := `
		INSERT INTO patients (
			full_name, phone, email, date_of_birth, gender,
			address, medical_history, allergies, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		p.FullName, p.Phone, p.Email, p.DateOfBirth, p.Gender,
		p.Address, p.MedicalHistory, p.Allergies, p.Notes,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		return errors.Wrap(err, "failed to create patient")
	}

	return nil
}

// Get retrieves a patient by ID
func (r *Repository) Get(ctx context.Context, id int64) (*Patient, error) {
	query := `
		SELECT id, full_name, phone, email, date_of_birth, gender,
			address, medical_history, allergies, notes,
			created_at, updated_at
		FROM patients
		WHERE id = $1`

	p := &Patient{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.FullName, &p.Phone, &p.Email, &p.DateOfBirth, &p.Gender,
		&p.Address, &p.MedicalHistory, &p.Allergies, &p.Notes,
		&p.CreatedAt, &p.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("patient", fmt.Sprintf("%d", id))
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get patient")
	}

	return p, nil
}

// Update updates a patient
func (r *Repository) Update(ctx context.Context, p *Patient) error {
	query := `
		UPDATE patients SET
			full_name = $2, phone = $3, email = $4, date_of_birth = $5,
			gender = $6, address = $7, medical_history = $8,
			allergies = $9, notes = $10, updated_at = NOW()
		WHERE id = $1`

	result, err := r.pool.Exec(ctx, query,
		p.ID, p.FullName, p.Phone, p.Email, p.DateOfBirth,
		p.Gender, p.Address, p.MedicalHistory, p.Allergies, p.Notes,
	)

	if err != nil {
		return errors.Wrap(err, "failed to update patient")
	}

	if result.RowsAffected() == 0 {
		return errors.NotFound("patient", fmt.Sprintf("%d", p.ID))
	}

	return nil
}

// Delete deletes a patient
func (r *Repository) Delete(ctx context.Context, id int64) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		if strings.Contains(err.Error(), "foreign key") {
			return errors.Conflict("patient has appointments or payments and cannot be deleted")
		}
		return errors.Wrap(err, "failed to delete patient")
	}

	if result.RowsAffected() == 0 {
		return errors.NotFound("patient", fmt.Sprintf("%d", id))
	}

	return nil
}

// List lists patients with optional filters
func (r *Repository) List(ctx context.Context, filter ListPatientsFilter) ([]Patient, int, error) {
	var conditions []string
	var args []interface{}
	argNum := 1

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(full_name ILIKE $%d OR phone ILIKE $%d)", argNum, argNum))
		args = append(args, "%"+filter.Search+"%")
		argNum++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	// Get total count
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM patients %s", whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "failed to count patients")
	}

	limit := 50
	if filter.Limit > 0 && filter.Limit <= 100 {
		limit = filter.Limit
	}

	query := fmt.Sprintf(`
		SELECT id, full_name, phone, email, date_of_birth, gender,
			address, medical_history, allergies, notes,
			created_at, updated_at
		FROM patients
		%s
		ORDER BY full_name
		LIMIT $%d OFFSET $%d`, whereClause, argNum, argNum+1)

	args = append(args, limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list patients")
	}
	defer rows.Close()

	var patients []Patient
	for rows.Next() {
		var p Patient
		err := rows.Scan(
			&p.ID, &p.FullName, &p.Phone, &p.Email, &p.DateOfBirth, &p.Gender,
			&p.Address, &p.MedicalHistory, &p.Allergies, &p.Notes,
			&p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, 0, errors.Wrap(err, "failed to scan patient")
		}
		patients = append(patients, p)
	}

	return patients, total, nil
}
