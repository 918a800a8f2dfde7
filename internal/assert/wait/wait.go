// Package wait collects engine events from a hub consumer so tests can
// block on specific lifecycle milestones
package wait

import (
	"testing"
	"time"

	"github.com/weftlabs/weft/internal/events"
	"github.com/weftlabs/weft/pkg/api"
)

type (
	// Wait drains a hub consumer, remembering everything it has seen
	Wait struct {
		t        *testing.T
		consumer events.Consumer
		timeout  time.Duration
		seen     []*api.Event
	}

	// Predicate selects the event a test is waiting for
	Predicate func(*api.Event) bool
)

const DefaultTimeout = 5 * time.Second

// New subscribes to the hub and returns a Wait bound to the test. The
// consumer is closed when the test finishes
func New(t *testing.T, hub *events.Hub) *Wait {
	cons := hub.NewConsumer()
	t.Cleanup(cons.Close)
	return &Wait{
		t:        t,
		consumer: cons,
		timeout:  DefaultTimeout,
	}
}

// WithTimeout overrides the default wait deadline
func (w *Wait) WithTimeout(d time.Duration) *Wait {
	w.timeout = d
	return w
}

// Seen returns every event collected so far, in arrival order
func (w *Wait) Seen() []*api.Event {
	return w.seen
}

// For blocks until an event matching the predicate arrives, failing the
// test at the deadline. Intervening events are retained in Seen
func (w *Wait) For(match Predicate) *api.Event {
	w.t.Helper()
	deadline := time.After(w.timeout)
	for {
		select {
		case ev, ok := <-w.consumer.Receive():
			if !ok {
				w.t.Fatal("event stream closed while waiting")
				return nil
			}
			w.seen = append(w.seen, ev)
			if match(ev) {
				return ev
			}
		case <-deadline:
			w.t.Fatalf("timed out after %s waiting for event", w.timeout)
			return nil
		}
	}
}

// ForType blocks until an event of the given type arrives
func (w *Wait) ForType(t api.EventType) *api.Event {
	w.t.Helper()
	return w.For(func(ev *api.Event) bool {
		return ev.Type == t
	})
}

// ForStep blocks until the named step reports completion or failure
func (w *Wait) ForStep(name api.Name) *api.Event {
	w.t.Helper()
	return w.For(func(ev *api.Event) bool {
		if ev.Step != name {
			return false
		}
		return ev.Type == api.EventStepCompleted ||
			ev.Type == api.EventStepFailed
	})
}

// ForWorkflowFinished blocks until the named workflow reports its
// terminal event
func (w *Wait) ForWorkflowFinished(workflow string) *api.Event {
	w.t.Helper()
	return w.For(func(ev *api.Event) bool {
		return ev.Type == api.EventWorkflowFinished &&
			ev.Workflow == workflow
	})
}
