package acq

// Event is one entry in the ordered stream a cycle emits to its observers.
// Per cycle the order is: CycleStarted, then interleaved PhaseChanged /
// ProgressUpdate / SampleCollected, then exactly one terminal event.
type Event interface {
	event()
}

// CycleStarted opens a cycle's event stream.
type CycleStarted struct {
	Cycle uint64
}

// PhaseChanged reports entry into a new phase.
type PhaseChanged struct {
	Phase Phase
}

// ProgressUpdate reports fractional completion of the current phase.
// It is emitted at least once per second while waiting and once per
// sample while sampling, and is the only event class the dispatcher may
// drop under backpressure.
type ProgressUpdate struct {
	Phase    Phase
	Fraction float64
}

// SampleCollected carries one sample, in the order taken.
type SampleCollected struct {
	Sample Sample
}

// CycleCompleted is the terminal event of a successful cycle.
type CycleCompleted struct {
	Result CycleResult
}

// CycleCancelled is the terminal event of a cooperatively cancelled cycle;
// its result carries whatever samples were taken.
type CycleCancelled struct {
	Result CycleResult
}

// CycleFailed is the terminal event of a cycle ended by a hardware fault.
type CycleFailed struct {
	Result CycleResult
	Err    error
}

func (CycleStarted) event()    {}
func (PhaseChanged) event()    {}
func (ProgressUpdate) event()  {}
func (SampleCollected) event() {}
func (CycleCompleted) event()  {}
func (CycleCancelled) event()  {}
func (CycleFailed) event()     {}

// Observer consumes a cycle's event stream. Callbacks run on a
// per-observer dispatch goroutine, never on the acquisition goroutine,
// so a slow observer cannot disturb hardware timing.
type Observer interface {
	OnEvent(e Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(e Event)

func (f ObserverFunc) OnEvent(e Event) {
	f(e)
}
