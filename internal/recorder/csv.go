package recorder

import (
	"bufio"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/dalphys/chromatographd/internal/acq"
	"github.com/dalphys/chromatographd/internal/errors"
	"github.com/dalphys/chromatographd/internal/logger"
)

// csvRecorder appends finished cycles to a plain-text data file in the
// lab's established format: a commented header block, then one
// `id,time,signal` row per sample, where id numbers the dataset within
// this run.
type csvRecorder struct {
	mu      sync.Mutex
	file    *os.File
	w       *bufio.Writer
	dataset int
}

// NewCSV opens path for appending and writes the run header.
func NewCSV(path string, cfg acq.CycleConfig) (Recorder, error) {
	if path == "" {
		return nil, errors.New(ErrInvalidCSVPath)
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, errors.Wrap(ErrStorageInit, err)
	}

	w := bufio.NewWriter(file)
	fmt.Fprintf(w, "# Date : %s\n", time.Now().Format(time.RFC1123))
	fmt.Fprintf(w, "# Sample window (t) : %g sec\n", cfg.SampleWindow.Seconds())
	fmt.Fprintf(w, "# Sample interval (dt) : %g sec\n", cfg.SampleDelta.Seconds())
	fmt.Fprintf(w, "# Cycle time : %g sec\n", cfg.CycleTime.Seconds())
	fmt.Fprintf(w, "#\n")
	fmt.Fprintf(w, "# id, time (s), signal (V)\n")
	if err := w.Flush(); err != nil {
		file.Close()
		return nil, errors.Wrap(ErrStorageInit, err)
	}

	return &csvRecorder{file: file, w: w}, nil
}

func (r *csvRecorder) OnEvent(e acq.Event) {
	var result acq.CycleResult
	switch ev := e.(type) {
	case acq.CycleCompleted:
		result = ev.Result
	case acq.CycleCancelled:
		result = ev.Result
	case acq.CycleFailed:
		result = ev.Result
	default:
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range result.Samples {
		fmt.Fprintf(r.w, "%d,%g,%g\n", r.dataset, s.Offset.Seconds(), s.Value)
	}
	if err := r.w.Flush(); err != nil {
		logger.Error().Err(err).Msg("failed to flush data file")
	}
	r.dataset++
}

func (r *csvRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.w.Flush(); err != nil {
		return errors.Wrap(ErrStorageClose, err)
	}
	if err := r.file.Close(); err != nil {
		return errors.Wrap(ErrStorageClose, err)
	}

	return nil
}
