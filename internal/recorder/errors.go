package recorder

import "github.com/dalphys/chromatographd/internal/errors"

const (
	// Configuration errors
	ErrInvalidDBPath  = errors.ErrorCode("recorder_invalid_db_path")
	ErrInvalidCSVPath = errors.ErrorCode("recorder_invalid_csv_path")

	// Storage errors
	ErrStorageInit   = errors.ErrorCode("recorder_storage_init_failed")
	ErrStorageAccess = errors.ErrorCode("recorder_storage_access_failed")
	ErrStorageClose  = errors.ErrorCode("recorder_storage_close_failed")
)
