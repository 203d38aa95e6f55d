package errors

// Common error codes
const (
	// System errors
	ErrInternal        ErrorCode = "internal_error"
	ErrInvalidArgument ErrorCode = "invalid_argument"
	ErrNotImplemented  ErrorCode = "not_implemented"

	// Configuration errors
	ErrInvalidConfig ErrorCode = "invalid_configuration"
	ErrMissingConfig ErrorCode = "missing_configuration"
	ErrBindFlags     ErrorCode = "bind_flags_failed"
	ErrReadConfig    ErrorCode = "read_config_failed"

	// Logging errors
	ErrInvalidLogLevel ErrorCode = "invalid_log_level"

	// Initialization errors
	ErrInitFailed     ErrorCode = "initialization_failed"
	ErrShutdownFailed ErrorCode = "shutdown_failed"

	// Acquisition errors
	ErrAlreadyRunning ErrorCode = "acquisition_already_running"
	ErrNotRunning     ErrorCode = "acquisition_not_running"
	ErrCancelled      ErrorCode = "acquisition_cancelled"

	// Hardware errors
	ErrValveWrite        ErrorCode = "hardware_valve_write_failed"
	ErrAnalogRead        ErrorCode = "hardware_analog_read_failed"
	ErrReadStalled       ErrorCode = "hardware_read_stalled"
	ErrUnsupportedDevice ErrorCode = "hardware_unsupported_device"
	ErrPortClosed        ErrorCode = "hardware_port_closed"
	ErrInvalidValve      ErrorCode = "hardware_invalid_valve"
	ErrManualValveInAuto ErrorCode = "hardware_manual_valve_in_program"
	ErrAutoValveInManual ErrorCode = "hardware_valve_not_operator_controlled"
)

// Common error messages
var errorMessages = map[ErrorCode]string{
	ErrInternal:          "Internal error occurred",
	ErrInvalidArgument:   "Invalid argument provided",
	ErrNotImplemented:    "Operation not implemented",
	ErrInvalidConfig:     "Invalid configuration",
	ErrMissingConfig:     "Missing configuration",
	ErrBindFlags:         "Failed to bind flags",
	ErrReadConfig:        "Failed to read configuration",
	ErrInvalidLogLevel:   "Invalid log level",
	ErrInitFailed:        "Initialization failed",
	ErrShutdownFailed:    "Shutdown failed",
	ErrAlreadyRunning:    "An acquisition run is already active",
	ErrNotRunning:        "No acquisition run is active",
	ErrCancelled:         "Acquisition cancelled",
	ErrValveWrite:        "Failed to write valve state",
	ErrAnalogRead:        "Failed to read differential channel",
	ErrReadStalled:       "Analog read exceeded maximum latency",
	ErrUnsupportedDevice: "Unsupported DAQ device",
	ErrPortClosed:        "DAQ port is closed",
	ErrInvalidValve:      "Invalid valve identifier",
	ErrManualValveInAuto: "Valve is operator-controlled and cannot be sequenced",
	ErrAutoValveInManual: "Valve is not operator-controlled",
}

// GetErrorMessage returns the message for a given error code
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}

	return string(code)
}
