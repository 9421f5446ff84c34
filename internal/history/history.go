// Package history keeps a sqlite ledger of past generation runs under the
// XDG data directory. Recording is best effort: callers treat failures as
// warnings, never as run failures.
package history

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/llehouerou/charcoal/internal/db"
)

const (
	appName    = "charcoal"
	dbFileName = "charcoal.db"

	defaultMaxEntries = 100
)

// Run statuses stored in the ledger.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Run is one recorded generation run.
type Run struct {
	ID         int64
	StartedAt  time.Time
	Source     string
	Output     string
	Mode       string
	Frames     int
	Definition string
	Duration   time.Duration
	Status     string
	SizeBytes  int64 // output file size; 0 when the run produced no file
}

type Manager struct {
	db         *sql.DB
	maxEntries int
}

// Open opens (creating it if needed) the run ledger in the XDG data dir.
// maxEntries bounds how many runs are kept; older rows are pruned on insert.
func Open(maxEntries int) (*Manager, error) {
	dbPath, err := xdg.DataFile(filepath.Join(appName, dbFileName))
	if err != nil {
		return nil, err
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, err
	}

	sqlDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if err := initSchema(sqlDB); err != nil {
		sqlDB.Close()
		return nil, err
	}

	return newManager(sqlDB, maxEntries), nil
}

func newManager(sqlDB *sql.DB, maxEntries int) *Manager {
	if maxEntries < 1 {
		maxEntries = defaultMaxEntries
	}
	return &Manager{db: sqlDB, maxEntries: maxEntries}
}

func (m *Manager) Close() error {
	return m.db.Close()
}

// Record inserts a run and prunes rows beyond the configured maximum, both
// in one transaction.
func (m *Manager) Record(r Run) error {
	return db.WithTx(m.db, func(tx *sql.Tx) error {
		var size any
		if r.SizeBytes > 0 {
			size = r.SizeBytes
		}

		_, err := tx.Exec(`
			INSERT INTO runs (started_at, source, output, mode, frames, definition, duration_ms, status, size_bytes)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, r.StartedAt.Unix(), r.Source, r.Output, r.Mode, r.Frames,
			r.Definition, r.Duration.Milliseconds(), r.Status, size)
		if err != nil {
			return err
		}

		_, err = tx.Exec(`
			DELETE FROM runs WHERE id NOT IN (
				SELECT id FROM runs ORDER BY started_at DESC, id DESC LIMIT ?
			)
		`, m.maxEntries)
		return err
	})
}

// Recent returns the newest runs, most recent first. A limit below 1 falls
// back to the configured maximum.
func (m *Manager) Recent(limit int) ([]Run, error) {
	if limit < 1 {
		limit = m.maxEntries
	}

	rows, err := m.db.Query(`
		SELECT id, started_at, source, output, mode, frames, definition, duration_ms, status, size_bytes
		FROM runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r          Run
			startedAt  int64
			durationMS int64
			size       sql.NullInt64
		)
		err := rows.Scan(
			&r.ID, &startedAt, &r.Source, &r.Output, &r.Mode,
			&r.Frames, &r.Definition, &durationMS, &r.Status, &size,
		)
		if err != nil {
			return nil, err
		}

		r.StartedAt = time.Unix(startedAt, 0)
		r.Duration = time.Duration(durationMS) * time.Millisecond
		r.SizeBytes = db.NullInt64Value(size)
		runs = append(runs, r)
	}

	return runs, rows.Err()
}
