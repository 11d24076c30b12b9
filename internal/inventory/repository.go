package inventory

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

// Repository provides database operations for inventory items and suppliers
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new inventory repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const itemColumns = `id, name, category, supplier_id, quantity, unit,
	unit_price, min_stock_level, expiry_date, notes, created_at, updated_at`

func scanItem(row pgx.Row) (*Item, error) {
	i := &Item{}
	var expiry *time.Time
	err := row.Scan(
		&i.ID, &i.Name, &i.Category, &i.SupplierID, &i.Quantity, &i.Unit,
		&i.UnitPrice, &i.MinStockLevel, &expiry, &i.Notes, &i.CreatedAt, &i.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if expiry != nil {
		d := types.DateOf(*expiry)
		i.ExpiryDate = &d
	}
	return i, nil
}

// CreateItem creates a new inventory item and fills in its generated ID
func (r *Repository) CreateItem(ctx context.Context, i *Item) error {
	query := `
		INSERT INTO inventory_items (
			name, category, supplier_id, quantity, unit,
			unit_price, min_stock_level, expiry_date, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		i.Name, i.Category, i.SupplierID, i.Quantity, i.Unit,
		i.UnitPrice, i.MinStockLevel, i.ExpiryDate, i.Notes,
	).Scan(&i.ID, &i.CreatedAt, &i.UpdatedAt)

	if err != nil {
		if strings.Contains(err.Error(), "foreign key") {
			return errors.BadRequest("supplier does not exist")
		}
		return errors.Wrap(err, "failed to create inventory item")
	}

	return nil
}

// GetItem retrieves an inventory item by ID
func (r *Repository) GetItem(ctx context.Context, id int64) (*Item, error) {
	query := fmt.Sprintf(`SELECT %s FROM inventory_items WHERE id = $1`, itemColumns)

	i, err := scanItem(r.pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("inventory item", fmt.Sprintf("%d", id))
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get inventory item")
	}

	return i, nil
}

// UpdateItem updates an inventory item
func (r *Repository) UpdateItem(ctx context.Context, i *Item) error {
	query := `
		UPDATE inventory_items SET
			name = $2, category = $3, supplier_id = $4, quantity = $5,
			unit = $6, unit_price = $7, min_stock_level = $8,
			expiry_date = $9, notes = $10, updated_at = NOW()
		WHERE id = $1`

	result, err := r.pool.Exec(ctx, query,
		i.ID, i.Name, i.Category, i.SupplierID, i.Quantity,
		i.Unit, i.UnitPrice, i.MinStockLevel, i.ExpiryDate, i.Notes,
	)

	if err != nil {
		return errors.Wrap(err, "failed to update inventory item")
	}

	if result.RowsAffected() == 0 {
		return errors.NotFound("inventory item", fmt.Sprintf("%d", i.ID))
	}

	return nil
}

// AdjustStock changes an item's quantity by delta. The quantity CHECK
// constraint rejects adjustments that would go negative.
func (r *Repository) AdjustStock(ctx context.Context, id int64, delta int) (*Item, error) {
	query := fmt.Sprintf(`
		UPDATE inventory_items
		SET quantity = quantity + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING %s`, itemColumns)

	i, err := scanItem(r.pool.QueryRow(ctx, query, id, delta))
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("inventory item", fmt.Sprintf("%d", id))
	}
	if err != nil {
		if strings.Contains(err.Error(), "quantity") {
			return nil, errors.Conflict("adjustment would make stock negative")
		}
		return nil, errors.Wrap(err, "failed to adjust stock")
	}

	return i, nil
}

// DeleteItem deletes an inventory item
func (r *Repository) DeleteItem(ctx context.Context, id int64) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM inventory_items WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "failed to delete inventory item")
	}

	if result.RowsAffected() == 0 {
		return errors.NotFound("inventory item", fmt.Sprintf("%d", id))
	}

	return nil
}

// ListItems lists inventory items with optional filters
func (r *Repository) ListItems(ctx context.Context, filter ListItemsFilter) ([]Item, int, error) {
	var conditions []string
	var args []interface{}
	argNum := 1

	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argNum))
		args = append(args, filter.Category)
		argNum++
	}

	if filter.SupplierID != nil {
		conditions = append(conditions, fmt.Sprintf("supplier_id = $%d", argNum))
		args = append(args, *filter.SupplierID)
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
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM inventory_items %s", whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "failed to count inventory items")
	}

	limit := 50
	if filter.Limit > 0 && filter.Limit <= 100 {
		limit = filter.Limit
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM inventory_items
		%s
		ORDER BY name
		LIMIT $%d OFFSET $%d`, itemColumns, whereClause, argNum, argNum+1)

	args = append(args, limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list inventory items")
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		i, err := scanItem(rows)
		if err != nil {
			return nil, 0, errors.Wrap(err, "failed to scan inventory item")
		}
		items = append(items, *i)
	}

	return items, total, nil
}

// AllItems returns every item, for the alerts pass
func (r *Repository) AllItems(ctx context.Context) ([]Item, error) {
	query := fmt.Sprintf(`SELECT %s FROM inventory_items ORDER BY name`, itemColumns)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list inventory items")
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		i, err := scanItem(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan inventory item")
		}
		items = append(items, *i)
	}

	return items, nil
}

// CreateSupplier creates a new supplier and fills in its generated ID
func (r *Repository) CreateSupplier(ctx context.Context, s *Supplier) error {
	query := `
		INSERT INTO suppliers (name, phone, email, address, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		s.Name, s.Phone, s.Email, s.Address, s.Notes,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)

	if err != nil {
		return errors.Wrap(err, "failed to create supplier")
	}

	return nil
}

// GetSupplier retrieves a supplier by ID
func (r *Repository) GetSupplier(ctx context.Context, id int64) (*Supplier, error) {
	query := `
		SELECT id, name, phone, email, address, notes, created_at, updated_at
		FROM suppliers
		WHERE id = $1`

	s := &Supplier{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.Name, &s.Phone, &s.Email, &s.Address, &s.Notes,
		&s.CreatedAt, &s.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("supplier", fmt.Sprintf("%d", id))
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get supplier")
	}

	return s, nil
}

// UpdateSupplier updates a supplier
func (r *Repository) UpdateSupplier(ctx context.Context, s *Supplier) error {
	query := `
		UPDATE suppliers SET
			name = $2, phone = $3, email = $4, address = $5, notes = $6,
			updated_at = NOW()
		WHERE id = $1`

	result, err := r.pool.Exec(ctx, query,
		s.ID, s.Name, s.Phone, s.Email, s.Address, s.Notes,
	)

	if err != nil {
		return errors.Wrap(err, "failed to update supplier")
	}

	if result.RowsAffected() == 0 {
		return errors.NotFound("supplier", fmt.Sprintf("%d", s.ID))
	}

	return nil
}

// DeleteSupplier deletes a supplier
func (r *Repository) DeleteSupplier(ctx context.Context, id int64) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM suppliers WHERE id = $1`, id)
	if err != nil {
		if strings.Contains(err.Error(), "foreign key") {
			return errors.Conflict("supplier has inventory items and cannot be deleted")
		}
		return errors.Wrap(err, "failed to delete supplier")
	}

	if result.RowsAffected() == 0 {
		return errors.NotFound("supplier", fmt.Sprintf("%d", id))
	}

	return nil
}

// ListSuppliers lists all suppliers
func (r *Repository) ListSuppliers(ctx context.Context) ([]Supplier, error) {
	query := `
		SELECT id, name, phone, email, address, notes, created_at, updated_at
		FROM suppliers
		ORDER BY name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list suppliers")
	}
	defer rows.Close()

	var suppliers []Supplier
	for rows.Next() {
		var s Supplier
		err := rows.Scan(
			&s.ID, &s.Name, &s.Phone, &s.Email, &s.Address, &s.Notes,
			&s.CreatedAt, &s.UpdatedAt,
		)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan supplier")
		}
		suppliers = append(suppliers, s)
	}

	return suppliers, nil
}
