package legacy

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "github.com/denisenkom/go-mssqldb" // SQL Server driver
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alnoor-clinic/platform/internal/shared/config"
)

// Importer pulls patient and treatment records out of the clinic's
// previous SQL Server based management system and upserts them into the
// local store. Rows are matched on their legacy id, so repeated polls
// update instead of duplicating.
type Importer struct {
	cfg  config.LegacyConfig
	pool *pgxpool.Pool

	source *sql.DB

	running  bool
	mu       sync.RWMutex
	cancel   context.CancelFunc
	lastPoll time.Time
	wg       sync.WaitGroup
}

// New creates a new legacy importer
func New(cfg config.LegacyConfig, pool *pgxpool.Pool) *Importer {
	return &Importer{cfg: cfg, pool: pool}
}

// Start opens the source connection and begins polling
func (i *Importer) Start(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.running {
		return fmt.Errorf("importer already running")
	}

	db, err := sql.Open("sqlserver", i.cfg.ConnString())
	if err != nil {
		return fmt.Errorf("failed to open legacy database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping legacy database: %w", err)
	}

	i.source = db
	i.running = true
	i.lastPoll = time.Time{} // first poll imports everything

	pollCtx, cancel := context.WithCancel(ctx)
	i.cancel = cancel

	i.wg.Add(1)
	go i.pollLoop(pollCtx)

	return nil
}

// Stop stops polling and closes the source connection
func (i *Importer) Stop(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.running {
		return nil
	}

	if i.cancel != nil {
		i.cancel()
	}

	done := make(chan struct{})
	go func() {
		i.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	if i.source != nil {
		i.source.Close()
	}

	i.running = false
	return nil
}

// Health checks source connectivity
func (i *Importer) Health(ctx context.Context) error {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if !i.running {
		return fmt.Errorf("importer not running")
	}
	return i.source.PingContext(ctx)
}

func (i *Importer) pollLoop(ctx context.Context) {
	defer i.wg.Done()

	interval := time.Duration(i.cfg.PollInterval) * time.Second
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	// Run one pass immediately, then on the ticker
	i.runPass(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			i.runPass(ctx)
		}
	}
}

func (i *Importer) runPass(ctx context.Context) {
	i.mu.Lock()
	since := i.lastPoll
	i.lastPoll = time.Now()
	i.mu.Unlock()

	patients, err := i.importPatients(ctx, since)
	if err != nil {
		log.Printf("legacy import: patients: %v", err)
	}

	treatments, err := i.importTreatments(ctx, since)
	if err != nil {
		log.Printf("legacy import: treatments: %v", err)
	}

	if patients > 0 || treatments > 0 {
		log.Printf("legacy import: upserted %d patients, %d treatments", patients, treatments)
	}
}

// importPatients copies patients modified since the last pass
func (i *Importer) importPatients(ctx context.Context, since time.Time) (int, error) {
	query := `
		SELECT PatientID, FullName, Phone, Email, DateOfBirth, Gender,
			Address, MedicalHistory, Allergies, Notes
		FROM dbo.Patients
		WHERE LastModified > @since
		ORDER BY PatientID`

	rows, err := i.source.QueryContext(ctx, query, sql.Named("since", since))
	if err != nil {
		return 0, fmt.Errorf("failed to query legacy patients: %w", err)
	}
	defer rows.Close()

	upsert := `
		INSERT INTO patients (
			full_name, phone, email, date_of_birth, gender,
			address, medical_history, allergies, notes, legacy_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (legacy_id) WHERE legacy_id IS NOT NULL DO UPDATE SET
			full_name = EXCLUDED.full_name,
			phone = EXCLUDED.phone,
			email = EXCLUDED.email,
			date_of_birth = EXCLUDED.date_of_birth,
			gender = EXCLUDED.gender,
			address = EXCLUDED.address,
			medical_history = EXCLUDED.medical_history,
			allergies = EXCLUDED.allergies,
			notes = EXCLUDED.notes,
			updated_at = NOW()`

	count := 0
	for rows.Next() {
		var legacyID int64
		var fullName string
		var phone, email, gender, address, history, allergies, notes sql.NullString
		var dob sql.NullTime

		err := rows.Scan(
			&legacyID, &fullName, &phone, &email, &dob, &gender,
			&address, &history, &allergies, &notes,
		)
		if err != nil {
			return count, fmt.Errorf("failed to scan legacy patient: %w", err)
		}

		var dobValue interface{}
		if dob.Valid {
			dobValue = dob.Time
		}

		_, err = i.pool.Exec(ctx, upsert,
			fullName, phone.String, email.String, dobValue, gender.String,
			address.String, history.String, allergies.String, notes.String, legacyID,
		)
		if err != nil {
			return count, fmt.Errorf("failed to upsert patient %d: %w", legacyID, err)
		}
		count++
	}

	return count, rows.Err()
}

// importTreatments copies the treatment catalog modified since the last
// pass. Imported treatments arrive active; deactivation is a local
// decision.
func (i *Importer) importTreatments(ctx context.Context, since time.Time) (int, error) {
	query := `
		SELECT TreatmentID, Name, Description, BasePrice, CommissionRate, DurationMinutes
		FROM dbo.Treatments
		WHERE LastModified > @since
		ORDER BY TreatmentID`

	rows, err := i.source.QueryContext(ctx, query, sql.Named("since", since))
	if err != nil {
		return 0, fmt.Errorf("failed to query legacy treatments: %w", err)
	}
	defer rows.Close()

	upsert := `
		INSERT INTO treatments (
			name, description, base_price, commission_rate,
			duration_minutes, active, legacy_id
		) VALUES ($1, $2, $3, $4, $5, TRUE, $6)
		ON CONFLICT (legacy_id) WHERE legacy_id IS NOT NULL DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			base_price = EXCLUDED.base_price,
			commission_rate = EXCLUDED.commission_rate,
			duration_minutes = EXCLUDED.duration_minutes,
			updated_at = NOW()`

	count := 0
	for rows.Next() {
		var legacyID int64
		var name string
		var description sql.NullString
		var basePrice, commissionRate sql.NullFloat64
		var duration sql.NullInt32

		err := rows.Scan(&legacyID, &name, &description, &basePrice, &commissionRate, &duration)
		if err != nil {
			return count, fmt.Errorf("failed to scan legacy treatment: %w", err)
		}

		durationMinutes := int32(30)
		if duration.Valid && duration.Int32 > 0 {
			durationMinutes = duration.Int32
		}

		_, err = i.pool.Exec(ctx, upsert,
			name, description.String, basePrice.Float64, commissionRate.Float64,
			durationMinutes, legacyID,
		)
		if err != nil {
			return count, fmt.Errorf("failed to upsert treatment %d: %w", legacyID, err)
		}
		count++
	}

	return count, rows.Err()
}
