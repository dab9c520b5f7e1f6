package testutil

import (
	"sync"

	"github.com/yungbote/inkforge-backend/internal/data/aggregates"
)

// WriteRecorder keeps every aggregate write attempt and retry in order.
type WriteRecorder struct {
	mu      sync.Mutex
	events  []aggregates.WriteEvent
	retries []int
}

var _ aggregates.Hooks = (*WriteRecorder)(nil)

func (w *WriteRecorder) ObserveWrite(ev aggregates.WriteEvent) {
	w.mu.Lock()
	defer w.mu.Unlock()
	ev.Duration = 0
	w.events = append(w.events, ev)
}

func (w *WriteRecorder) ObserveRetry(_ string, attempt int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.retries = append(w.retries, attempt)
}

// Events returns the recorded attempts with durations zeroed.
func (w *WriteRecorder) Events() []aggregates.WriteEvent {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]aggregates.WriteEvent(nil), w.events...)
}

// Outcomes lists the outcome of every attempt.
func (w *WriteRecorder) Outcomes() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.events))
	for _, ev := range w.events {
		out = append(out, ev.Outcome)
	}
	return out
}

// Retries lists the attempt numbers that were followed by a retry.
func (w *WriteRecorder) Retries() []int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]int(nil), w.retries...)
}
