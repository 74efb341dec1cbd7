package orchestrator

import (
	"fmt"
	"sync"
	"sync/atomic"
)

const progressBuffer = 64

// ProgressReporter fans step events out to a single consumer. Emitting never
// blocks a pipeline: when the consumer falls behind, events are counted and
// dropped. A nil reporter ignores everything.
type ProgressReporter struct {
	mu      sync.RWMutex
	ch      chan ProgressEvent
	closed  bool
	dropped atomic.Int64
}

// NewProgressReporter creates a ProgressReporter.
func NewProgressReporter() *ProgressReporter {
	return &ProgressReporter{ch: make(chan ProgressEvent, progressBuffer)}
}

// Emit queues event for the consumer. It is safe to call concurrently from
// parallel runs and after Close.
func (pr *ProgressReporter) Emit(event ProgressEvent) {
	if pr == nil {
		return
	}
	pr.mu.RLock()
	defer pr.mu.RUnlock()
	if pr.closed {
		return
	}
	select {
	case pr.ch <- event:
	default:
		pr.dropped.Add(1)
	}
}

// Subscribe returns the event stream. It is closed by Close.
func (pr *ProgressReporter) Subscribe() <-chan ProgressEvent {
	return pr.ch
}

// Dropped returns how many events were discarded because the buffer was
// full.
func (pr *ProgressReporter) Dropped() int64 {
	return pr.dropped.Load()
}

// Close ends the stream. Later calls are no-ops.
func (pr *ProgressReporter) Close() {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	if !pr.closed {
		pr.closed = true
		close(pr.ch)
	}
}

// FormatProgress renders event as one status line for a terminal.
func FormatProgress(event ProgressEvent) string {
	label := fmt.Sprintf("[%s] step %d %s", event.Mode, event.Step+1, event.Kind)
	if event.StepID != "" {
		label += " " + event.StepID
	}
	switch event.Status {
	case ProgressWorking:
		return "  … " + label
	case ProgressComplete:
		return "  ✓ " + label
	case ProgressFailed:
		return "  ✗ " + label + ": " + event.Message
	case ProgressSkipped:
		return "  - " + label + " (disabled)"
	default:
		return "  ? " + label
	}
}
