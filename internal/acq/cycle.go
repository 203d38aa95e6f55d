package acq

import (
	"time"

	"github.com/dalphys/chromatographd/internal/errors"
	"github.com/oklog/ulid/v2"
)

const (
	// DefaultReadsPerSample matches the lab procedure of averaging ten
	// raw readings per recorded sample.
	DefaultReadsPerSample = 10

	// DefaultMaxReadLatency bounds a single blocking analog read before
	// the cycle is failed as stalled hardware.
	DefaultMaxReadLatency = 5 * time.Second

	// DefaultDriftTolerance is the accumulated sampling drift above which
	// a cycle result is flagged.
	DefaultDriftTolerance = time.Second
)

// CycleConfig holds the timing plan and valve program for one cycle.
// It is snapshotted at Start and never mutated by the core.
type CycleConfig struct {
	CycleTime      time.Duration
	SampleWindow   time.Duration
	SampleDelta    time.Duration
	Channel        int
	ReadsPerSample int
	MaxReadLatency time.Duration
	DriftTolerance time.Duration
	Program        Program
}

// withDefaults fills the optional knobs a caller left zero.
func (c CycleConfig) withDefaults() CycleConfig {
	if c.ReadsPerSample <= 0 {
		c.ReadsPerSample = DefaultReadsPerSample
	}
	if c.MaxReadLatency <= 0 {
		c.MaxReadLatency = DefaultMaxReadLatency
	}
	if c.DriftTolerance <= 0 {
		c.DriftTolerance = DefaultDriftTolerance
	}

	return c
}

// Validate enforces the timing invariants before any hardware is touched.
func (c CycleConfig) Validate() error {
	if c.SampleDelta <= 0 {
		return errors.New(errors.ErrInvalidConfig).
			WithMessage("sample_delta must be positive").
			WithData(c.SampleDelta.String())
	}
	if c.SampleDelta > c.SampleWindow {
		return errors.New(errors.ErrInvalidConfig).
			WithMessage("sample_delta must not exceed sample_window").
			WithData(map[string]string{
				"sample_delta":  c.SampleDelta.String(),
				"sample_window": c.SampleWindow.String(),
			})
	}
	if c.CycleTime < 0 {
		return errors.New(errors.ErrInvalidConfig).
			WithMessage("cycle_time must not be negative").
			WithData(c.CycleTime.String())
	}
	if c.Channel < 0 {
		return errors.New(errors.ErrInvalidConfig).
			WithMessage("channel must not be negative").
			WithData(c.Channel)
	}

	return c.Program.Validate()
}

// SampleCount is the number of samples one sampling phase produces:
// one at offset zero and one at each delta boundary within the window.
func (c CycleConfig) SampleCount() int {
	return int(c.SampleWindow/c.SampleDelta) + 1
}

// Sample is a single differential reading at an offset from the start of
// the sampling window.
type Sample struct {
	Offset time.Duration
	Value  float64
}

// Status is the terminal disposition of one cycle.
type Status int

const (
	StatusCompleted Status = iota
	StatusCancelled
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusCancelled:
		return "cancelled"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// CycleResult is the record of one finished cycle, however it terminated.
type CycleResult struct {
	ID            ulid.ULID
	Samples       []Sample
	Status        Status
	Err           error
	Drift         time.Duration
	DriftExceeded bool
	Started       time.Time
	Finished      time.Time
}
