package acq

import (
	"context"
	"testing"
	"time"

	"github.com/dalphys/chromatographd/internal/daq"
	"github.com/dalphys/chromatographd/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplerConfig() CycleConfig {
	return CycleConfig{
		SampleWindow:   50 * time.Millisecond,
		SampleDelta:    10 * time.Millisecond,
		Channel:        1,
		ReadsPerSample: 1,
		MaxReadLatency: time.Second,
		DriftTolerance: time.Second,
	}
}

func runSampler(t *testing.T, ctx context.Context, port daq.Port, cfg CycleConfig) ([]Sample, time.Duration, error, []Event) {
	t.Helper()
	var emitted []Event
	s := &sampler{port: port, cfg: cfg, emit: func(e Event) { emitted = append(emitted, e) }}
	samples, drift, err := s.run(ctx)
	return samples, drift, err, emitted
}

func TestSamplerCountAndOffsets(t *testing.T) {
	port := daq.NewSimulatedPort()
	cfg := samplerConfig()

	samples, drift, err, emitted := runSampler(t, context.Background(), port, cfg)
	require.NoError(t, err)
	require.Len(t, samples, 6)

	for i, s := range samples {
		assert.Equal(t, time.Duration(i)*cfg.SampleDelta, s.Offset)
	}
	assert.Less(t, drift, cfg.SampleDelta, "an unloaded port should not drift")

	var collected, progress int
	for _, e := range emitted {
		switch e.(type) {
		case SampleCollected:
			collected++
		case ProgressUpdate:
			progress++
		}
	}
	assert.Equal(t, 6, collected)
	assert.Equal(t, 6, progress, "one progress update per sample")
}

func TestSamplerAveragesReads(t *testing.T) {
	port := daq.NewSimulatedPort()
	cfg := samplerConfig()
	cfg.ReadsPerSample = 10

	samples, _, err, _ := runSampler(t, context.Background(), port, cfg)
	require.NoError(t, err)
	require.Len(t, samples, 6)
	assert.Equal(t, 60, port.ReadCount(), "ten raw reads per sample")
}

func TestSamplerLatePreferredOverLost(t *testing.T) {
	port := daq.NewSimulatedPort()
	port.ReadDelay = 25 * time.Millisecond

	cfg := samplerConfig()
	cfg.SampleWindow = 30 * time.Millisecond

	samples, drift, err, _ := runSampler(t, context.Background(), port, cfg)
	require.NoError(t, err)
	// Every slot overruns, but no sample is skipped and none duplicated.
	require.Len(t, samples, 4)
	for i, s := range samples {
		assert.Equal(t, time.Duration(i)*cfg.SampleDelta, s.Offset)
	}
	assert.Greater(t, drift, time.Duration(0), "overruns must be reported as drift")
}

func TestSamplerCancellation(t *testing.T) {
	port := daq.NewSimulatedPort()
	cfg := samplerConfig()
	cfg.SampleWindow = time.Second
	cfg.SampleDelta = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	samples, _, err, _ := runSampler(t, ctx, port, cfg)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCancelled, errors.Code(err))
	assert.Less(t, time.Since(start), 200*time.Millisecond, "cancellation must be observed promptly")
	assert.NotEmpty(t, samples, "samples taken before the cancel are kept")
}

func TestSamplerReadFailure(t *testing.T) {
	port := daq.NewSimulatedPort()
	port.FailReadAt = 3

	samples, _, err, _ := runSampler(t, context.Background(), port, samplerConfig())
	require.Error(t, err)
	assert.Equal(t, errors.ErrAnalogRead, errors.Code(err))
	assert.Len(t, samples, 2, "samples before the fault are kept")
}

func TestSamplerStalledRead(t *testing.T) {
	port := daq.NewSimulatedPort()
	port.ReadDelay = 50 * time.Millisecond

	cfg := samplerConfig()
	cfg.MaxReadLatency = 10 * time.Millisecond

	_, _, err, _ := runSampler(t, context.Background(), port, cfg)
	require.Error(t, err)
	assert.Equal(t, errors.ErrReadStalled, errors.Code(err))
}

func TestSamplerLatencyIsPerRead(t *testing.T) {
	port := daq.NewSimulatedPort()
	port.ReadDelay = 30 * time.Millisecond

	// Five 30ms reads: the batch takes well over the limit, but no single
	// read does, so the sample is late rather than stalled.
	cfg := samplerConfig()
	cfg.SampleWindow = 10 * time.Millisecond
	cfg.ReadsPerSample = 5
	cfg.MaxReadLatency = 100 * time.Millisecond

	samples, drift, err, _ := runSampler(t, context.Background(), port, cfg)
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Greater(t, drift, time.Duration(0), "the slow batch shows up as drift")
}

func TestSleepCtx(t *testing.T) {
	require.NoError(t, sleepCtx(context.Background(), time.Millisecond))
	require.NoError(t, sleepCtx(context.Background(), 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := sleepCtx(ctx, time.Hour)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCancelled, errors.Code(err))
	assert.Error(t, sleepCtx(ctx, 0))
}
