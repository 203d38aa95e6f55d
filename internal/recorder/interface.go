package recorder

import "github.com/dalphys/chromatographd/internal/acq"

// Recorder persists finished cycles. Recorders are plain observers on the
// acquisition event stream; they react to terminal cycle events and
// ignore the rest.
type Recorder interface {
	acq.Observer
	Close() error
}
