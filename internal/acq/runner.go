package acq

import (
	"context"
	"sync"
	"time"

	"github.com/dalphys/chromatographd/internal/daq"
	"github.com/dalphys/chromatographd/internal/errors"
	"github.com/dalphys/chromatographd/internal/logger"
	"github.com/oklog/ulid/v2"
)

// Runner owns a port and executes cycles against it on a dedicated
// goroutine. At most one run is active per Runner; while a run is active
// the Runner is the only actor commanding the port. Cycles repeat until
// the run is cancelled or a hardware fault ends it.
type Runner struct {
	port       daq.Port
	queueDepth int

	mu        sync.Mutex
	observers []Observer
	running   bool
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewRunner returns an idle Runner for the given port.
func NewRunner(port daq.Port) *Runner {
	return &Runner{
		port:       port,
		queueDepth: DefaultQueueDepth,
	}
}

// SetQueueDepth overrides the per-observer event backlog limit.
// Only effective while idle.
func (r *Runner) SetQueueDepth(depth int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running && depth > 0 {
		r.queueDepth = depth
	}
}

// AddObserver registers an observer for future runs. Observers cannot be
// added while a run is active.
func (r *Runner) AddObserver(obs Observer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return errors.New(errors.ErrAlreadyRunning).
			WithMessage("cannot add observers while a run is active")
	}
	r.observers = append(r.observers, obs)

	return nil
}

// Start validates cfg and begins executing cycles on a new goroutine.
// It fails with acquisition_already_running if a run is active, and with
// a configuration error before any hardware is touched if cfg is invalid.
func (r *Runner) Start(cfg CycleConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	cfg = cfg.withDefaults()
	// Snapshot the program so a caller mutating its slice cannot reach
	// into an active run.
	cfg.Program = append(Program(nil), cfg.Program...)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return errors.New(errors.ErrAlreadyRunning)
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := newDispatcher(r.observers, r.queueDepth)

	r.running = true
	r.cancel = cancel
	r.done = make(chan struct{})

	go r.loop(ctx, cfg, d, r.done)

	logger.Info().
		Dur("cycle_time", cfg.CycleTime).
		Dur("sample_window", cfg.SampleWindow).
		Dur("sample_delta", cfg.SampleDelta).
		Int("program_steps", len(cfg.Program)).
		Msg("acquisition started")

	return nil
}

// Cancel requests cooperative termination of the active run. It returns
// immediately; the run observes the request at its next phase boundary,
// hold, or sampler tick. Cancel on an idle Runner is a no-op.
func (r *Runner) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running && r.cancel != nil {
		r.cancel()
	}
}

// IsRunning reports whether a run is active.
func (r *Runner) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.running
}

// Wait blocks until the active run's goroutine has fully stopped,
// including observer delivery. Wait on an idle Runner returns at once.
func (r *Runner) Wait() {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()

	if done != nil {
		<-done
	}
}

func (r *Runner) loop(ctx context.Context, cfg CycleConfig, d *dispatcher, done chan struct{}) {
	defer func() {
		d.close()
		r.mu.Lock()
		r.running = false
		r.cancel = nil
		r.mu.Unlock()
		close(done)
		logger.Info().Msg("acquisition stopped")
	}()

	for cycle := uint64(1); ; cycle++ {
		result := r.runCycle(ctx, cfg, cycle, d)
		if result.Status != StatusCompleted {
			// A failed run halts rather than restarting against hardware
			// in an unknown state; a cancelled run is done by request.
			return
		}
		if ctx.Err() != nil {
			// Cancelled on the boundary between cycles: no new cycle starts.
			return
		}
	}
}

func (r *Runner) runCycle(ctx context.Context, cfg CycleConfig, cycle uint64, d *dispatcher) CycleResult {
	started := time.Now()
	d.publish(CycleStarted{Cycle: cycle})

	seq := newSequencer(cfg, r.port, d.publish)
	for !seq.Done() {
		seq.Advance(ctx)
	}

	result := CycleResult{
		ID:            ulid.Make(),
		Samples:       seq.Samples(),
		Status:        seq.Status(),
		Err:           seq.Err(),
		Drift:         seq.Drift(),
		DriftExceeded: seq.Drift() > cfg.DriftTolerance,
		Started:       started,
		Finished:      time.Now(),
	}

	if result.DriftExceeded {
		logger.Warn().
			Dur("drift", result.Drift).
			Dur("tolerance", cfg.DriftTolerance).
			Msg("sampling drift exceeded tolerance")
	}

	switch result.Status {
	case StatusCompleted:
		d.publish(CycleCompleted{Result: result})
	case StatusCancelled:
		d.publish(CycleCancelled{Result: result})
	case StatusFailed:
		d.publish(CycleFailed{Result: result, Err: result.Err})
	}

	logger.Info().
		Uint64("cycle", cycle).
		Str("id", result.ID.String()).
		Str("status", result.Status.String()).
		Int("samples", len(result.Samples)).
		Msg("cycle finished")

	return result
}
