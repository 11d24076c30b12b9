package treatment

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alnoor-clinic/platform/internal/shared/errors"
)

// Repository provides database operations for treatments
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new treatment repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create creates a new treatment and fills in its generated ID
func (r *Repository) Create(ctx context.Context, t *Treatment) error {
	query := `
		INSERT INTO treatments (
			name, description, base_price, commission_rate,
			duration_minutes, active
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		t.Name, t.Description, t.BasePrice, t.CommissionRate,
		t.DurationMinutes, t.Active,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)

	if err != nil {
		return errors.Wrap(err, "failed to create treatment")
	}

	return nil
}

// Get retrieves a treatment by ID
func (r *Repository) Get(ctx context.Context, id int64) (*Treatment, error) {
	query := `
		SELECT id, name, description, base_price, commission_rate,
			duration_minutes, active, created_at, updated_at
		FROM treatments
		WHERE id = $1`

	t := &Treatment{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.Name, &t.Description, &t.BasePrice, &t.CommissionRate,
		&t.DurationMinutes, &t.Active, &t.CreatedAt, &t.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("treatment", fmt.Sprintf("%d", id))
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get treatment")
	}

	return t, nil
}

// Update updates a treatment
func (r *Repository) Update(ctx context.Context, t *Treatment) error {
	query := `
		UPDATE treatments SET
			name = $2, description = $3, base_price = $4,
			commission_rate = $5, duration_minutes = $6, active = $7,
			updated_at = NOW()
		WHERE id = $1`

	result, err := r.pool.Exec(ctx, query,
		t.ID, t.Name, t.Description, t.BasePrice,
		t.CommissionRate, t.DurationMinutes, t.Active,
	)

	if err != nil {
		return errors.Wrap(err, "failed to update treatment")
	}

	if result.RowsAffected() == 0 {
		return errors.NotFound("treatment", fmt.Sprintf("%d", t.ID))
	}

	return nil
}

// Delete deletes a treatment
func (r *Repository) Delete(ctx context.Context, id int64) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM treatments WHERE id = $1`, id)
	if err != nil {
		if strings.Contains(err.Error(), "foreign key") {
			return errors.Conflict("treatment has appointments and cannot be deleted; deactivate it instead")
		}
		return errors.Wrap(err, "failed to delete treatment")
	}

	if result.RowsAffected() == 0 {
		return errors.NotFound("treatment", fmt.Sprintf("%d", id))
	}

	return nil
}

// List lists treatments with optional filters
func (r *Repository) List(ctx context.Context, filter ListTreatmentsFilter) ([]Treatment, int, error) {
	var conditions []string
	var args []interface{}
	argNum := 1

	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", argNum))
		args = append(args, *filter.Active)
		argNum++
	}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", argNum))
		args = append(args, "%"+filter.Search+"%")
		argNum++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	// Get total count
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM treatments %s", whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "failed to count treatments")
	}

	limit := 50
	if filter.Limit > 0 && filter.Limit <= 100 {
		limit = filter.Limit
	}

	query := fmt.Sprintf(`
		SELECT id, name, description, base_price, commission_rate,
			duration_minutes, active, created_at, updated_at
		FROM treatments
		%s
		ORDER BY name
		LIMIT $%d OFFSET $%d`, whereClause, argNum, argNum+1)

	args = append(args, limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list treatments")
	}
	defer rows.Close()

	var treatments []Treatment
	for rows.Next() {
		var t Treatment
		err := rows.Scan(
			&t.ID, &t.Name, &t.Description, &t.BasePrice, &t.CommissionRate,
			&t.DurationMinutes, &t.Active, &t.CreatedAt, &t.UpdatedAt,
		)
		if err != nil {
			return nil, 0, errors.Wrap(err, "failed to scan treatment")
		}
		treatments = append(treatments, t)
	}

	return treatments, total, nil
}
