package acq

import (
	"context"
	"time"

	"github.com/dalphys/chromatographd/internal/daq"
	"github.com/dalphys/chromatographd/internal/errors"
	"github.com/dalphys/chromatographd/internal/logger"
	"gonum.org/v1/gonum/stat"
)

// sampler produces the paced, finite sample sequence for one sampling
// phase. Each sampling phase constructs a fresh sampler.
type sampler struct {
	port daq.Port
	cfg  CycleConfig
	emit func(Event)
}

// run takes floor(window/delta)+1 samples at delta-spaced offsets. A read
// that overruns its slot pushes the remaining schedule back rather than
// skipping or duplicating a sample; the accumulated push-back is returned
// as drift. Cancellation is observed before and after every suspension,
// never mid-read.
func (s *sampler) run(ctx context.Context) (samples []Sample, drift time.Duration, err error) {
	count := s.cfg.SampleCount()
	samples = make([]Sample, 0, count)
	raw := make([]float64, s.cfg.ReadsPerSample)
	start := time.Now()

	for i := 0; i < count; i++ {
		offset := time.Duration(i) * s.cfg.SampleDelta

		target := start.Add(offset + drift)
		if wait := time.Until(target); wait > 0 {
			if err := sleepCtx(ctx, wait); err != nil {
				return samples, drift, err
			}
		}
		if err := ctx.Err(); err != nil {
			return samples, drift, errors.Wrap(errors.ErrCancelled, err)
		}

		for j := range raw {
			readStart := time.Now()
			v, readErr := s.port.ReadDifferential(s.cfg.Channel)
			if readErr != nil {
				return samples, drift, readErr
			}
			if latency := time.Since(readStart); latency > s.cfg.MaxReadLatency {
				return samples, drift, errors.New(errors.ErrReadStalled).
					WithData(latency.String())
			}
			raw[j] = v
		}

		sample := Sample{Offset: offset, Value: stat.Mean(raw, nil)}
		samples = append(samples, sample)
		s.emit(SampleCollected{Sample: sample})
		s.emit(ProgressUpdate{Phase: PhaseSampling, Fraction: float64(i+1) / float64(count)})

		// Late over lost: if this slot overran into the next one, push
		// every remaining slot back by the overrun.
		if i+1 < count {
			next := start.Add(time.Duration(i+1)*s.cfg.SampleDelta + drift)
			if over := time.Since(next); over > 0 {
				drift += over
				logger.Debug().
					Dur("overrun", over).
					Dur("drift", drift).
					Msg("sample slot overran; schedule pushed back")
			}
		}
	}

	return samples, drift, nil
}

// sleepCtx blocks for d or until ctx is cancelled, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(errors.ErrCancelled, err)
		}
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return errors.Wrap(errors.ErrCancelled, ctx.Err())
	case <-timer.C:
		return nil
	}
}
