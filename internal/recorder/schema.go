package recorder

import (
	"database/sql"
	"time"

	"github.com/dalphys/chromatographd/internal/errors"
)

const (
	SchemaVersion = 1

	createTablesSQL = `
	CREATE TABLE IF NOT EXISTS schema_versions (
	    version    INTEGER PRIMARY KEY,
	    applied_at TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS cycles (
	    id             TEXT PRIMARY KEY,
	    started_at     INTEGER NOT NULL,
	    finished_at    INTEGER NOT NULL,
	    status         TEXT NOT NULL,
	    error          TEXT,
	    drift_ns       INTEGER NOT NULL,
	    drift_exceeded INTEGER NOT NULL CHECK (drift_exceeded IN (0, 1)),
	    sample_count   INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS samples (
	    cycle_id  TEXT NOT NULL REFERENCES cycles(id),
	    offset_s  REAL NOT NULL,
	    value_v   REAL NOT NULL,
	    PRIMARY KEY (cycle_id, offset_s)
	);`

	insertCycleSQL = `
	INSERT INTO cycles (
	    id, started_at, finished_at, status, error,
	    drift_ns, drift_exceeded, sample_count
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	insertSampleSQL = `
	INSERT INTO samples (cycle_id, offset_s, value_v) VALUES (?, ?, ?)`
)

// initSchema creates the tables and records the schema version.
func initSchema(db *sql.DB) error {
	if _, err := db.Exec(createTablesSQL); err != nil {
		return errors.Wrap(ErrStorageInit, err)
	}

	_, err := db.Exec(
		`INSERT OR IGNORE INTO schema_versions (version, applied_at) VALUES (?, ?)`,
		SchemaVersion, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return errors.Wrap(ErrStorageInit, err)
	}

	return nil
}
