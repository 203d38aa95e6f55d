package recorder

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"

	"github.com/dalphys/chromatographd/internal/acq"
	"github.com/dalphys/chromatographd/internal/errors"
	"github.com/dalphys/chromatographd/internal/logger"

	_ "github.com/mattn/go-sqlite3"
)

const defaultDirPerm = 0o755

// sqliteRecorder stores every finished cycle and its samples in a
// sqlite database keyed by cycle ULID.
type sqliteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewRepository opens (creating if needed) the cycle database at dbPath.
func NewRepository(dbPath string) (Recorder, error) {
	if dbPath == "" {
		return nil, errors.New(ErrInvalidDBPath)
	}

	logger.Debug().Str("path", dbPath).Msg("opening cycle database")

	if err := os.MkdirAll(filepath.Dir(dbPath), defaultDirPerm); err != nil {
		return nil, errors.Wrap(ErrStorageInit, err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, errors.Wrap(ErrStorageInit, err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteRecorder{db: db}, nil
}

func (r *sqliteRecorder) OnEvent(e acq.Event) {
	var result acq.CycleResult
	switch ev := e.(type) {
	case acq.CycleCompleted:
		result = ev.Result
	case acq.CycleCancelled:
		result = ev.Result
	case acq.CycleFailed:
		result = ev.Result
	default:
		return
	}

	if err := r.store(result); err != nil {
		logger.Error().Err(err).Str("cycle", result.ID.String()).Msg("failed to store cycle")
	}
}

func (r *sqliteRecorder) store(result acq.CycleResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return errors.Wrap(ErrStorageAccess, err)
	}
	defer tx.Rollback()

	var errText sql.NullString
	if result.Err != nil {
		errText = sql.NullString{String: result.Err.Error(), Valid: true}
	}

	_, err = tx.Exec(insertCycleSQL,
		result.ID.String(),
		result.Started.UnixNano(),
		result.Finished.UnixNano(),
		result.Status.String(),
		errText,
		int64(result.Drift),
		boolToInt(result.DriftExceeded),
		len(result.Samples),
	)
	if err != nil {
		return errors.Wrap(ErrStorageAccess, err)
	}

	for _, s := range result.Samples {
		if _, err := tx.Exec(insertSampleSQL, result.ID.String(), s.Offset.Seconds(), s.Value); err != nil {
			return errors.Wrap(ErrStorageAccess, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(ErrStorageAccess, err)
	}

	return nil
}

func (r *sqliteRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.db.Close(); err != nil {
		return errors.Wrap(ErrStorageClose, err)
	}

	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}

	return 0
}
