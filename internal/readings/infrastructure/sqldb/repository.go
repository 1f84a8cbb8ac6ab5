package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	readings "bptracker/internal/readings/domain"
)

const (
	// DriverPostgres is the pgx stdlib driver name.
	DriverPostgres = "pgx"
	// DriverSQLite is the go-sqlite3 driver name.
	DriverSQLite = "sqlite3"
)

var schemaStatements = map[string][]string{
	DriverPostgres: {
		`CREATE TABLE IF NOT EXISTS bp_readings (
	id BIGSERIAL PRIMARY KEY,
	systolic INTEGER NOT NULL,
	diastolic INTEGER NOT NULL,
	measured_at TIMESTAMP NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_bp_readings_measured_at ON bp_readings (measured_at, id)`,
	},
	DriverSQLite: {
		`CREATE TABLE IF NOT EXISTS bp_readings (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	systolic INTEGER NOT NULL,
	diastolic INTEGER NOT NULL,
	measured_at DATETIME NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_bp_readings_measured_at ON bp_readings (measured_at, id)`,
	},
}

// ReadingRepository persists readings through database/sql.
// Queries use $N placeholders, which both pgx and go-sqlite3 bind positionally.
type ReadingRepository struct {
	db     *sql.DB
	driver string
}

// NewReadingRepository constructs a repository for the given driver.
func NewReadingRepository(db *sql.DB, driver string) (*ReadingRepository, error) {
	if db == nil {
		return nil, errors.New("reading repo: nil db")
	}
	if _, ok := schemaStatements[driver]; !ok {
		return nil, fmt.Errorf("reading repo: unsupported driver %q", driver)
	}
	return &ReadingRepository{db: db, driver: driver}, nil
}

// EnsureSchema creates the readings table and its ordering index.
func (r *ReadingRepository) EnsureSchema(ctx context.Context) error {
	if r == nil || r.db == nil {
		return errors.New("reading repo: nil db")
	}
	for _, stmt := range schemaStatements[r.driver] {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("reading repo: ensure schema: %w", err)
		}
	}
	return nil
}

// Insert stores a reading and returns it with its id.
func (r *ReadingRepository) Insert(ctx context.Context, reading readings.Reading) (readings.Reading, error) {
	if r == nil || r.db == nil {
		return readings.Reading{}, errors.New("reading repo: nil db")
	}
	var id int64
	err := r.db.QueryRowContext(ctx, `
INSERT INTO bp_readings (systolic, diastolic, measured_at)
VALUES ($1, $2, $3)
RETURNING id`, reading.Systolic, reading.Diastolic, reading.MeasuredAt).Scan(&id)
	if err != nil {
		return readings.Reading{}, err
	}
	reading.ID = id
	return reading, nil
}

// ListOrdered returns every reading ascending by measured time.
func (r *ReadingRepository) ListOrdered(ctx context.Context) ([]readings.Reading, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("reading repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, systolic, diastolic, measured_at
FROM bp_readings
ORDER BY measured_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]readings.Reading, 0)
	for rows.Next() {
		reading, err := scanReading(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, reading)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Get loads a reading by id.
func (r *ReadingRepository) Get(ctx context.Context, id int64) (readings.Reading, error) {
	if r == nil || r.db == nil {
		return readings.Reading{}, errors.New("reading repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, systolic, diastolic, measured_at
FROM bp_readings
WHERE id = $1`, id)
	reading, err := scanReading(row)
	if errors.Is(err, sql.ErrNoRows) {
		return readings.Reading{}, readings.ErrReadingNotFound
	}
	return reading, err
}

// Delete removes a reading by id.
func (r *ReadingRepository) Delete(ctx context.Context, id int64) error {
	if r == nil || r.db == nil {
		return errors.New("reading repo: nil db")
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM bp_readings WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return readings.ErrReadingNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReading(row rowScanner) (readings.Reading, error) {
	var reading readings.Reading
	if err := row.Scan(&reading.ID, &reading.Systolic, &reading.Diastolic, &reading.MeasuredAt); err != nil {
		return readings.Reading{}, err
	}
	reading.MeasuredAt = readings.StripZone(reading.MeasuredAt)
	return reading, nil
}
