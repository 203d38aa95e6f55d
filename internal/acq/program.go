package acq

import (
	"time"

	"github.com/dalphys/chromatographd/internal/daq"
	"github.com/dalphys/chromatographd/internal/errors"
)

// Step is one entry in a valve program: drive one valve to a target state,
// then hold before the next step.
type Step struct {
	Valve daq.Valve
	Open  bool
	Hold  time.Duration
}

// Program is an ordered valve sequence applied during the sequencing phase.
// Step order is significant and is applied exactly as authored.
type Program []Step

// Validate checks every step against the fixed valve set. Operator-controlled
// valves (V1, V7) may not appear in an automatic program.
func (p Program) Validate() error {
	for i, step := range p {
		if !step.Valve.Valid() {
			return errors.New(errors.ErrInvalidValve).
				WithData(map[string]any{"step": i, "valve": int(step.Valve)})
		}
		if step.Valve.ManualOnly() {
			return errors.New(errors.ErrManualValveInAuto).
				WithData(map[string]any{"step": i, "valve": step.Valve.String()})
		}
		if step.Hold < 0 {
			return errors.New(errors.ErrInvalidConfig).
				WithMessage("step hold must not be negative").
				WithData(map[string]any{"step": i, "hold": step.Hold.String()})
		}
	}

	return nil
}

// DefaultProgram is the valve schedule from the lab's operation schematic:
// flush, then admit each sample loop in turn against the carrier gas (V4),
// finishing with the column pair (V3, V5) selected.
func DefaultProgram() Program {
	return Program{
		{Valve: daq.V4, Open: false, Hold: 5 * time.Second},
		{Valve: daq.V4, Open: true, Hold: 2 * time.Second},
		{Valve: daq.V6, Open: true, Hold: 5 * time.Second},
		{Valve: daq.V6, Open: false, Hold: 2 * time.Second},
		{Valve: daq.V2, Open: true, Hold: 5 * time.Second},
		{Valve: daq.V2, Open: false, Hold: 2 * time.Second},
		{Valve: daq.V4, Open: false, Hold: 0},
		{Valve: daq.V3, Open: true, Hold: 0},
		{Valve: daq.V5, Open: true, Hold: 5 * time.Second},
	}
}
