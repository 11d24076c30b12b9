package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alnoor-clinic/platform/internal/shared/errors"
	"github.com/alnoor-clinic/platform/internal/shared/types"
)

// Advisory lock key serializing chain appends across connections
const appendLockKey = 0x617564697421

// Repository implements Store against PostgreSQL
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new audit repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Append seals the entry against the chain head and inserts it. The
// advisory lock holds the head stable between the read and the insert.
func (r *Repository) Append(ctx context.Context, entry *Entry) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to begin audit transaction")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, appendLockKey); err != nil {
		return errors.Wrap(err, "failed to lock audit chain")
	}

	var prevHash string
	err = tx.QueryRow(ctx, `SELECT hash FROM audit_log ORDER BY sequence DESC LIMIT 1`).Scan(&prevHash)
	if err != nil && err != pgx.ErrNoRows {
		return errors.Wrap(err, "failed to read audit chain head")
	}

	if entry.ID.IsZero() {
		entry.ID = types.NewID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if entry.Details == nil {
		entry.Details = map[string]any{}
	}
	entry.Seal(prevHash)

	details, err := json.Marshal(entry.Details)
	if err != nil {
		return errors.Wrap(err, "failed to encode audit details")
	}

	query := `
		INSERT INTO audit_log (
			id, action, actor, resource_type, resource_id,
			details, prev_hash, hash, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING sequence`

	err = tx.QueryRow(ctx, query,
		entry.ID, entry.Action, entry.Actor, entry.ResourceType, entry.ResourceID,
		details, entry.PrevHash, entry.Hash, entry.CreatedAt,
	).Scan(&entry.Sequence)

	if err != nil {
		return errors.Wrap(err, "failed to append audit entry")
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "failed to commit audit entry")
	}

	return nil
}

func scanEntry(rows pgx.Rows) (Entry, error) {
	var e Entry
	var details []byte
	err := rows.Scan(
		&e.ID, &e.Sequence, &e.Action, &e.Actor, &e.ResourceType, &e.ResourceID,
		&details, &e.PrevHash, &e.Hash, &e.CreatedAt,
	)
	if err != nil {
		return Entry{}, err
	}
	if err := json.Unmarshal(details, &e.Details); err != nil {
		return Entry{}, err
	}
	return e, nil
}

const entryColumns = `id, sequence, action, actor, resource_type, resource_id,
	details, prev_hash, hash, created_at`

// List lists audit entries, newest first, with optional filters
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Entry, int, error) {
	var conditions []string
	var args []interface{}
	argNum := 1

	if filter.Action != "" {
		conditions = append(conditions, fmt.Sprintf("action = $%d", argNum))
		args = append(args, filter.Action)
		argNum++
	}

	if filter.ResourceType != "" {
		conditions = append(conditions, fmt.Sprintf("resource_type = $%d", argNum))
		args = append(args, filter.ResourceType)
		argNum++
	}

	if filter.ResourceID != "" {
		conditions = append(conditions, fmt.Sprintf("resource_id = $%d", argNum))
		args = append(args, filter.ResourceID)
		argNum++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM audit_log %s", whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "failed to count audit entries")
	}

	limit := 50
	if filter.Limit > 0 && filter.Limit <= 100 {
		limit = filter.Limit
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM audit_log
		%s
		ORDER BY sequence DESC
		LIMIT $%d OFFSET $%d`, entryColumns, whereClause, argNum, argNum+1)

	args = append(args, limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list audit entries")
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, errors.Wrap(err, "failed to scan audit entry")
		}
		entries = append(entries, e)
	}

	return entries, total, nil
}

// All returns the full chain in sequence order
func (r *Repository) All(ctx context.Context) ([]Entry, error) {
	query := fmt.Sprintf(`SELECT %s FROM audit_log ORDER BY sequence`, entryColumns)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read audit chain")
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan audit entry")
		}
		entries = append(entries, e)
	}

	return entries, nil
}

// Ensure Repository satisfies Store
var _ Store = (*Repository)(nil)
