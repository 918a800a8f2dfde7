package engine

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/weftlabs/weft/internal/graph"
	"github.com/weftlabs/weft/internal/runner"
	"github.com/weftlabs/weft/pkg/api"
	"github.com/weftlabs/weft/pkg/log"
)

type (
	// Engine executes workflows level by level. It owns no run state;
	// each call to Run builds an isolated execution, so a single Engine
	// serves concurrent runs
	Engine struct {
		runners *runner.Registry
		log     *slog.Logger
	}

	// Mode selects how the steps of each level are dispatched
	Mode string

	// Notify receives lifecycle events. It is always called from the
	// scheduling goroutine, in dispatch and completion order, and must
	// not block the run
	Notify func(*api.Event)

	// Options configure a single workflow run
	Options struct {
		Mode           Mode
		MaxConcurrency int
		Notify         Notify
	}
)

const (
	ModeSequential Mode = "sequential"
	ModeParallel   Mode = "parallel"
)

// New creates an engine backed by the provided runner registry
func New(runners *runner.Registry, logger *slog.Logger) *Engine {
	return &Engine{
		runners: runners,
		log:     logger,
	}
}

// Languages returns the canonical language tags this engine can execute
func (e *Engine) Languages() []string {
	return e.runners.Languages()
}

// Run executes the workflow and returns its result. Errors never escape
// as Go errors: graph problems produce a failed result with no step
// entries, and step failures produce failed step results under the
// fail-level policy
func (e *Engine) Run(
	ctx context.Context, wf *api.Workflow, opts *Options,
) *api.WorkflowResult {
	opts = normalizeOptions(opts)
	started := time.Now()

	e.log.Info("workflow started",
		log.Workflow(wf.Name),
		slog.String("mode", string(opts.Mode)),
		slog.Int("steps", len(wf.Steps)),
	)
	notify(opts, &api.Event{
		Type:     api.EventWorkflowStarted,
		Workflow: wf.Name,
	})

	levels, err := graph.Levels(wf)
	if err != nil {
		return e.finish(wf, opts, started, &api.WorkflowResult{
			WorkflowName: wf.Name,
			Status:       api.WorkflowFailed,
			Steps:        []api.StepResult{},
			Error:        err.Error(),
		})
	}

	x := newExecution(e, wf, opts, levels)
	x.run(ctx)

	result := &api.WorkflowResult{
		WorkflowName: wf.Name,
		Status:       api.WorkflowCompleted,
		Steps:        x.results,
	}
	if failed := result.FailedSteps(); len(failed) > 0 {
		result.Status = api.WorkflowFailed
		result.Error = failed[0].Error
	}
	return e.finish(wf, opts, started, result)
}

func (e *Engine) finish(
	wf *api.Workflow, opts *Options, started time.Time,
	result *api.WorkflowResult,
) *api.WorkflowResult {
	result.TotalDurationMS = time.Since(started).Milliseconds()

	e.log.Info("workflow finished",
		log.Workflow(wf.Name),
		log.Status(result.Status),
		slog.Int64("duration_ms", result.TotalDurationMS),
	)
	notify(opts, &api.Event{
		Type:       api.EventWorkflowFinished,
		Workflow:   wf.Name,
		Error:      result.Error,
		DurationMS: result.TotalDurationMS,
	})
	return result
}

func normalizeOptions(opts *Options) *Options {
	res := Options{}
	if opts != nil {
		res = *opts
	}
	if res.Mode == "" {
		res.Mode = ModeSequential
	}
	if res.MaxConcurrency <= 0 {
		res.MaxConcurrency = runtime.NumCPU()
	}
	return &res
}

func notify(opts *Options, ev *api.Event) {
	if opts.Notify == nil {
		return
	}
	ev.Timestamp = time.Now().UTC()
	opts.Notify(ev)
}
