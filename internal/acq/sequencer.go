package acq

import (
	"context"
	"time"

	"github.com/dalphys/chromatographd/internal/daq"
	"github.com/dalphys/chromatographd/internal/errors"
	"github.com/dalphys/chromatographd/internal/logger"
)

// waitProgressTick is how often the waiting phase reports progress and
// polls for cancellation.
const waitProgressTick = time.Second

// Sequencer executes the phases of exactly one cycle against a port.
// It owns no goroutines: the caller drives it by calling Advance until
// Done reports true. Whatever happens in the middle phases, the closing
// phase always runs, so every cycle ends with all valves closed.
type Sequencer struct {
	cfg  CycleConfig
	port daq.Port
	emit func(Event)

	phase   Phase
	samples []Sample
	drift   time.Duration
	err     error
	done    bool
}

func newSequencer(cfg CycleConfig, port daq.Port, emit func(Event)) *Sequencer {
	return &Sequencer{
		cfg:   cfg,
		port:  port,
		emit:  emit,
		phase: PhaseIdle,
	}
}

// Phase returns the phase the sequencer is currently in.
func (s *Sequencer) Phase() Phase {
	return s.phase
}

// Done reports whether the cycle has reached a terminal state.
func (s *Sequencer) Done() bool {
	return s.done
}

// Status derives the terminal disposition once Done is true.
func (s *Sequencer) Status() Status {
	switch {
	case s.err == nil:
		return StatusCompleted
	case errors.IsCode(s.err, errors.ErrCancelled):
		return StatusCancelled
	default:
		return StatusFailed
	}
}

// Err returns the error that aborted the cycle, if any.
func (s *Sequencer) Err() error {
	return s.err
}

// Samples returns the samples taken so far, in the order taken.
func (s *Sequencer) Samples() []Sample {
	return s.samples
}

// Drift returns the accumulated sampling schedule push-back.
func (s *Sequencer) Drift() time.Duration {
	return s.drift
}

// Advance runs the next phase to completion. Cancellation or a hardware
// fault inside a phase routes the machine through Closing before it goes
// terminal; Advance never skips the closing writes.
func (s *Sequencer) Advance(ctx context.Context) {
	if s.done {
		return
	}

	switch s.phase {
	case PhaseIdle:
		s.runPhase(ctx, PhasePriming, s.prime)
	case PhasePriming:
		s.runPhase(ctx, PhaseWaiting, s.wait)
	case PhaseWaiting:
		s.runPhase(ctx, PhaseSequencing, s.sequence)
	case PhaseSequencing:
		s.runPhase(ctx, PhaseSampling, s.sample)
	case PhaseSampling:
		s.setPhase(PhaseClosing)
		s.closeAll()
	case PhaseCancelling, PhaseError:
		s.setPhase(PhaseClosing)
		s.closeAll()
	case PhaseClosing:
		s.done = true
	}
}

// runPhase enters next and executes fn, diverting to Cancelling or Error
// when fn reports a problem.
func (s *Sequencer) runPhase(ctx context.Context, next Phase, fn func(context.Context) error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		s.err = errors.Wrap(errors.ErrCancelled, ctxErr)
		s.setPhase(PhaseCancelling)
		return
	}

	s.setPhase(next)

	err := fn(ctx)
	if err == nil {
		// A cancel that lands exactly on a phase boundary is still a cancel.
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = errors.Wrap(errors.ErrCancelled, ctxErr)
		}
	}
	if err == nil {
		return
	}

	s.err = err
	if errors.IsCode(err, errors.ErrCancelled) {
		s.setPhase(PhaseCancelling)
	} else {
		logger.ErrorWithCode(asDomainErr(err)).Msg("cycle phase failed")
		s.setPhase(PhaseError)
	}
}

func (s *Sequencer) setPhase(p Phase) {
	s.phase = p
	s.emit(PhaseChanged{Phase: p})
	logger.Debug().Str("phase", p.String()).Msg("phase entered")
}

// prime opens exactly the priming valve and closes every other valve.
func (s *Sequencer) prime(context.Context) error {
	for _, v := range daq.AllValves() {
		if err := s.port.SetValve(v, v == daq.PrimingValve); err != nil {
			return err
		}
	}

	return nil
}

// wait elapses the cycle time, reporting progress and polling for
// cancellation at least once per second.
func (s *Sequencer) wait(ctx context.Context) error {
	total := s.cfg.CycleTime
	if total <= 0 {
		s.emit(ProgressUpdate{Phase: PhaseWaiting, Fraction: 1})
		return nil
	}

	start := time.Now()
	for {
		elapsed := time.Since(start)
		if elapsed >= total {
			s.emit(ProgressUpdate{Phase: PhaseWaiting, Fraction: 1})
			return nil
		}
		s.emit(ProgressUpdate{Phase: PhaseWaiting, Fraction: float64(elapsed) / float64(total)})

		tick := waitProgressTick
		if remaining := total - elapsed; remaining < tick {
			tick = remaining
		}
		if err := sleepCtx(ctx, tick); err != nil {
			return err
		}
	}
}

// sequence applies the valve program in authored order, holding after
// each step. Cancellation is observed between steps, never mid-write.
func (s *Sequencer) sequence(ctx context.Context) error {
	steps := s.cfg.Program
	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(errors.ErrCancelled, err)
		}
		if err := s.port.SetValve(step.Valve, step.Open); err != nil {
			return err
		}
		logger.Debug().
			Str("valve", step.Valve.String()).
			Bool("open", step.Open).
			Dur("hold", step.Hold).
			Msg("program step applied")
		if err := sleepCtx(ctx, step.Hold); err != nil {
			return err
		}
		s.emit(ProgressUpdate{Phase: PhaseSequencing, Fraction: float64(i+1) / float64(len(steps))})
	}

	return nil
}

// sample delegates to a fresh sampler for the sampling window.
func (s *Sequencer) sample(ctx context.Context) error {
	sm := &sampler{port: s.port, cfg: s.cfg, emit: s.emit}
	samples, drift, err := sm.run(ctx)
	s.samples = samples
	s.drift = drift

	return err
}

// closeAll writes closed to every valve unconditionally. A write failure
// is recorded but does not stop the remaining valves from being closed.
func (s *Sequencer) closeAll() {
	for _, v := range daq.AllValves() {
		if err := s.port.SetValve(v, false); err != nil {
			logger.Error().Err(err).Str("valve", v.String()).Msg("failed to close valve")
			if s.err == nil {
				s.err = err
			}
		}
	}
}

// asDomainErr coerces err into a coded error for structured logging.
func asDomainErr(err error) errors.Error {
	var e errors.Error
	if errors.As(err, &e) {
		return e
	}

	return errors.Wrap(errors.ErrInternal, err)
}
