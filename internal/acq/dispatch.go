package acq

import (
	"sync"

	"github.com/dalphys/chromatographd/internal/logger"
)

// DefaultQueueDepth is the per-observer backlog above which progress
// updates are shed.
const DefaultQueueDepth = 1024

// dispatcher fans events out to observers without ever blocking the
// acquisition goroutine. Each observer gets its own FIFO queue and
// delivery goroutine. Lifecycle and sample events are always queued;
// ProgressUpdate events are dropped once an observer's backlog exceeds
// the configured depth, since only the newest progress value matters.
type dispatcher struct {
	queues []*observerQueue
}

func newDispatcher(observers []Observer, depth int) *dispatcher {
	if depth <= 0 {
		depth = DefaultQueueDepth
	}

	d := &dispatcher{}
	for _, obs := range observers {
		q := &observerQueue{
			obs:   obs,
			depth: depth,
			done:  make(chan struct{}),
		}
		q.cond = sync.NewCond(&q.mu)
		d.queues = append(d.queues, q)
		go q.deliverLoop()
	}

	return d
}

// publish enqueues e for every observer. Never blocks.
func (d *dispatcher) publish(e Event) {
	for _, q := range d.queues {
		q.push(e)
	}
}

// close flushes every queue and waits for delivery to finish.
func (d *dispatcher) close() {
	for _, q := range d.queues {
		q.close()
	}
	for _, q := range d.queues {
		<-q.done
	}
}

type observerQueue struct {
	obs   Observer
	depth int
	done  chan struct{}

	mu      sync.Mutex
	cond    *sync.Cond
	buf     []Event
	dropped int
	closed  bool
}

func (q *observerQueue) push(e Event) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	if _, ok := e.(ProgressUpdate); ok && len(q.buf) >= q.depth {
		q.dropped++
		return
	}

	q.buf = append(q.buf, e)
	q.cond.Signal()
}

func (q *observerQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.cond.Signal()
	q.mu.Unlock()
}

func (q *observerQueue) deliverLoop() {
	defer close(q.done)

	for {
		q.mu.Lock()
		for len(q.buf) == 0 && !q.closed {
			q.cond.Wait()
		}
		batch := q.buf
		q.buf = nil
		closed := q.closed
		dropped := q.dropped
		q.dropped = 0
		q.mu.Unlock()

		if dropped > 0 {
			logger.Warn().Int("dropped", dropped).Msg("observer fell behind; progress updates shed")
		}
		for _, e := range batch {
			q.obs.OnEvent(e)
		}
		// After close, keep draining until a wakeup finds nothing left.
		if closed && len(batch) == 0 {
			return
		}
	}
}
