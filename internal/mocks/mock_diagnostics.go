package mocks

import (
	"context"
	"sync"

	"github.com/you/lendauth/domain"
)

// DiagnosticsRecorder implements domain.DiagnosticsSink and keeps every event
type DiagnosticsRecorder struct {
	mu     sync.Mutex
	events []*domain.DiagnosticEvent
}

func NewDiagnosticsRecorder() *DiagnosticsRecorder {
	return &DiagnosticsRecorder{}
}

func (r *DiagnosticsRecorder) Record(_ context.Context, event *domain.DiagnosticEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Events returns a copy of the recorded events
func (r *DiagnosticsRecorder) Events() []*domain.DiagnosticEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.DiagnosticEvent, len(r.events))
	copy(out, r.events)
	return out
}

// Count returns how many events were recorded for action with severity
func (r *DiagnosticsRecorder) Count(action domain.Action, severity domain.Severity) int {
	n := 0
	for _, e := range r.Events() {
		if e.Action == action && e.Severity == severity {
			n++
		}
	}
	return n
}

var _ domain.DiagnosticsSink = (*DiagnosticsRecorder)(nil)
