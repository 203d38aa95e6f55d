package daq

import (
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/dalphys/chromatographd/internal/errors"
	"github.com/dalphys/chromatographd/internal/logger"
)

// ValveWrite records one valve command issued to a port, in order.
type ValveWrite struct {
	Valve Valve
	Open  bool
	At    time.Time
}

// SimulatedPort synthesizes a chromatogram-like detector signal and keeps
// an ordered log of every valve command, so the acquisition core can be
// exercised and tested without a DAQ card attached.
type SimulatedPort struct {
	// ReadDelay adds artificial latency to every analog read.
	ReadDelay time.Duration
	// FailReadAt makes the Nth analog read fail (1-based; zero disables).
	FailReadAt int
	// FailValve makes writes to one valve fail (zero disables).
	FailValve Valve

	mu     sync.Mutex
	closed bool
	valves [NumValves + 1]bool
	writes []ValveWrite
	reads  int
	start  time.Time
	rng    *rand.Rand
}

// NewSimulatedPort returns a simulated port with all valves closed.
func NewSimulatedPort() *SimulatedPort {
	return &SimulatedPort{
		start: time.Now(),
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (p *SimulatedPort) SetValve(v Valve, open bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return errors.New(errors.ErrPortClosed)
	}
	if !v.Valid() {
		return errors.New(errors.ErrInvalidValve).WithData(int(v))
	}
	if p.FailValve != 0 && v == p.FailValve {
		return errors.New(errors.ErrValveWrite).WithData(v.String())
	}

	p.valves[v] = open
	p.writes = append(p.writes, ValveWrite{Valve: v, Open: open, At: time.Now()})

	return nil
}

func (p *SimulatedPort) ReadDifferential(channel int) (float64, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return 0, errors.New(errors.ErrPortClosed)
	}
	p.reads++
	n := p.reads
	elapsed := time.Since(p.start).Seconds()
	noise := p.rng.NormFloat64()
	delay := p.ReadDelay
	failAt := p.FailReadAt
	p.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if failAt > 0 && n >= failAt {
		return 0, errors.New(errors.ErrAnalogRead).WithData(channel)
	}

	return syntheticSignal(elapsed, noise), nil
}

func (p *SimulatedPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	logger.Debug().Int("valve_writes", len(p.writes)).Msg("simulated port closed")

	return nil
}

// Writes returns a copy of the ordered valve command log.
func (p *SimulatedPort) Writes() []ValveWrite {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]ValveWrite, len(p.writes))
	copy(out, p.writes)

	return out
}

// ValveOpen reports the current commanded state of one valve.
func (p *SimulatedPort) ValveOpen(v Valve) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !v.Valid() {
		return false
	}

	return p.valves[v]
}

// ReadCount reports how many analog reads have been taken.
func (p *SimulatedPort) ReadCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.reads
}

// syntheticSignal models a detector baseline with a recurring elution peak.
// Amplitudes are in volts, loosely matching the real detector's range.
func syntheticSignal(elapsed, noise float64) float64 {
	const (
		baseline  = 0.08
		amplitude = 1.6
		period    = 30.0
		center    = 12.0
		width     = 3.5
		noiseRMS  = 0.002
	)

	phase := math.Mod(elapsed, period)
	peak := amplitude * math.Exp(-((phase-center)*(phase-center))/(2*width*width))

	return baseline + peak + noiseRMS*noise
}

// OpenPort opens the named DAQ device. Device names beginning with "sim"
// return a simulated port; NI-DAQ hardware bindings live outside this
// repository and are not reachable from here.
func OpenPort(device string) (Port, error) {
	if strings.HasPrefix(device, "sim") {
		logger.Info().Str("device", device).Msg("using simulated DAQ port")
		return NewSimulatedPort(), nil
	}

	return nil, errors.New(errors.ErrUnsupportedDevice).WithData(device)
}

var _ Port = (*SimulatedPort)(nil)
