package acq

// Phase is the run state of a cycle. Phases advance linearly; Cancelling
// and Error both route through Closing before the cycle terminates.
type Phase int

const (
	PhaseIdle Phase = iota
	PhasePriming
	PhaseWaiting
	PhaseSequencing
	PhaseSampling
	PhaseClosing
	PhaseCancelling
	PhaseError
)

var phaseNames = map[Phase]string{
	PhaseIdle:       "idle",
	PhasePriming:    "priming",
	PhaseWaiting:    "waiting",
	PhaseSequencing: "sequencing",
	PhaseSampling:   "sampling",
	PhaseClosing:    "closing",
	PhaseCancelling: "cancelling",
	PhaseError:      "error",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}

	return "unknown"
}
