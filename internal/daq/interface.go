package daq

// Port is the capability surface the acquisition core consumes.
// Implementations command valve relays on a digital output port and take
// single differential voltage readings on an analog input channel.
// Calls may block and may fail; they are never preempted mid-operation.
type Port interface {
	// SetValve drives one valve open or closed.
	SetValve(v Valve, open bool) error

	// ReadDifferential takes one differential reading, in volts, on the
	// given analog input channel (ai{n}, ai{n+8} pairing).
	ReadDifferential(channel int) (float64, error)

	// Close releases the underlying hardware tasks. The port is unusable
	// afterwards.
	Close() error
}
