package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"
)

var schemaStatements = map[string]string{
	"pgx": `CREATE TABLE IF NOT EXISTS export_audit (
	id TEXT PRIMARY KEY,
	action TEXT NOT NULL,
	format TEXT NOT NULL,
	mode TEXT NOT NULL,
	recipient TEXT NOT NULL DEFAULT '',
	row_count INTEGER NOT NULL,
	byte_size INTEGER NOT NULL,
	result TEXT NOT NULL,
	error TEXT NOT NULL DEFAULT '',
	ip TEXT NOT NULL DEFAULT '',
	user_agent TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
)`,
	"sqlite3": `CREATE TABLE IF NOT EXISTS export_audit (
	id TEXT PRIMARY KEY,
	action TEXT NOT NULL,
	format TEXT NOT NULL,
	mode TEXT NOT NULL,
	recipient TEXT NOT NULL DEFAULT '',
	row_count INTEGER NOT NULL,
	byte_size INTEGER NOT NULL,
	result TEXT NOT NULL,
	error TEXT NOT NULL DEFAULT '',
	ip TEXT NOT NULL DEFAULT '',
	user_agent TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
)`,
}

// Repository writes audit logs.
type Repository struct {
	db     *sql.DB
	driver string
}

// NewRepository constructs an audit repository.
func NewRepository(db *sql.DB, driver string) (*Repository, error) {
	if db == nil {
		return nil, errors.New("audit repo: nil db")
	}
	if _, ok := schemaStatements[driver]; !ok {
		return nil, fmt.Errorf("audit repo: unsupported driver %q", driver)
	}
	return &Repository{db: db, driver: driver}, nil
}

// EnsureSchema creates the export_audit table.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schemaStatements[r.driver]); err != nil {
		return fmt.Errorf("audit repo: ensure schema: %w", err)
	}
	return nil
}

// Log writes an audit entry.
func (r *Repository) Log(ctx context.Context, entry Entry) error {
	if r == nil || r.db == nil {
		return errors.New("audit repo: nil db")
	}
	entry = withDefaults(entry)
	_, err := r.db.ExecContext(ctx, `
INSERT INTO export_audit (
	id, action, format, mode, recipient, row_count, byte_size, result, error, ip, user_agent, created_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12
)`, entry.ID, entry.Action, entry.Format, entry.Mode, entry.Recipient, entry.Rows, entry.Bytes,
		entry.Result, entry.Error, entry.IP, entry.UserAgent, entry.CreatedAt)
	return err
}

// recent returns the newest entries first.
func (r *Repository) recent(ctx context.Context, limit int) ([]Entry, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("audit repo: nil db")
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, action, format, mode, recipient, row_count, byte_size, result, error, ip, user_agent, created_at
FROM export_audit
ORDER BY created_at DESC
LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Action, &e.Format, &e.Mode, &e.Recipient, &e.Rows, &e.Bytes,
			&e.Result, &e.Error, &e.IP, &e.UserAgent, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// MemoryLog keeps entries in process, for the memory driver and tests.
type MemoryLog struct {
	mu      sync.Mutex
	entries []Entry
}

// NewMemoryLog constructs an empty log.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{}
}

// Log appends an entry.
func (m *MemoryLog) Log(ctx context.Context, entry Entry) error {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, withDefaults(entry))
	return nil
}

// Entries returns a copy of all entries in insertion order.
func (m *MemoryLog) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

func withDefaults(entry Entry) Entry {
	if entry.ID == "" {
		entry.ID = NewID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	return entry
}
