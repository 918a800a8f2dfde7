// Package helpers provides a ready-made engine environment and workflow
// builders for scenario tests
package helpers

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/weftlabs/weft/internal/engine"
	"github.com/weftlabs/weft/internal/events"
	"github.com/weftlabs/weft/internal/runner"
	"github.com/weftlabs/weft/pkg/api"
)

// TestEnv holds the components needed for end-to-end engine testing
type TestEnv struct {
	Engine *engine.Engine
	Hub    *events.Hub
}

// WithTestEnv creates an engine with every embedded runner registered
// and an event hub, runs the test body, and tears both down
func WithTestEnv(t *testing.T, fn func(*TestEnv)) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := events.NewHub()
	defer hub.Close()

	fn(&TestEnv{
		Engine: engine.New(runner.NewRegistry(), logger),
		Hub:    hub,
	})
}

// Run executes the workflow sequentially, publishing events to the hub
func (e *TestEnv) Run(wf *api.Workflow) *api.WorkflowResult {
	return e.RunWith(wf, &engine.Options{Notify: e.Hub.Publish})
}

// RunParallel executes the workflow in parallel mode with the given
// concurrency bound, publishing events to the hub
func (e *TestEnv) RunParallel(
	wf *api.Workflow, maxConcurrency int,
) *api.WorkflowResult {
	return e.RunWith(wf, &engine.Options{
		Mode:           engine.ModeParallel,
		MaxConcurrency: maxConcurrency,
		Notify:         e.Hub.Publish,
	})
}

// RunWith executes the workflow with explicit options
func (e *TestEnv) RunWith(
	wf *api.Workflow, opts *engine.Options,
) *api.WorkflowResult {
	return e.Engine.Run(context.Background(), wf, opts)
}
