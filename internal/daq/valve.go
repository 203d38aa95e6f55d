package daq

import (
	"fmt"
	"strconv"

	"github.com/dalphys/chromatographd/internal/errors"
)

// Valve identifies one of the seven solenoid valves on the digital port.
// The bit layout matches the hardware wiring on digital lines 0:7
// (V1 = 0x02 through V7 = 0x80; bit 0 is unused).
type Valve int

const (
	V1 Valve = iota + 1
	V2
	V3
	V4
	V5
	V6
	V7
)

// NumValves is the size of the fixed valve set.
const NumValves = 7

// PrimingValve is opened at the start of every cycle to admit carrier gas.
const PrimingValve = V4

// AllValves lists every valve in hardware order.
func AllValves() []Valve {
	return []Valve{V1, V2, V3, V4, V5, V6, V7}
}

// Valid reports whether v names one of the seven valves.
func (v Valve) Valid() bool {
	return v >= V1 && v <= V7
}

// ManualOnly reports whether v is operator-controlled and therefore
// excluded from automatic sequencing. V1 and V7 are plumbed to the
// manual sample loops.
func (v Valve) ManualOnly() bool {
	return v == V1 || v == V7
}

// Mask returns the bit for v on the digital output port.
func (v Valve) Mask() uint8 {
	if !v.Valid() {
		return 0
	}

	return 1 << uint(v)
}

func (v Valve) String() string {
	if !v.Valid() {
		return fmt.Sprintf("V?(%d)", int(v))
	}

	return "V" + strconv.Itoa(int(v))
}

// ParseValve converts a valve number (1..7) into a Valve.
func ParseValve(n int) (Valve, error) {
	v := Valve(n)
	if !v.Valid() {
		return 0, errors.New(errors.ErrInvalidValve).WithData(n)
	}

	return v, nil
}
