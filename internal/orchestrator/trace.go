package orchestrator

import "time"

// tracer accumulates state transitions when tracing is on. The nil-events
// form is a no-op, which keeps the production path allocation-free.
type tracer struct {
	enabled bool
	events  []TraceEvent
}

func newTracer(enabled bool) *tracer {
	return &tracer{enabled: enabled}
}

func (t *tracer) add(stage, integration, detail string, elapsed time.Duration) {
	if !t.enabled {
		return
	}
	t.events = append(t.events, TraceEvent{
		Timestamp:   time.Now().UTC(),
		Stage:       stage,
		Integration: integration,
		Detail:      detail,
		Elapsed:     elapsed,
	})
}
