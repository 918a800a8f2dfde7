package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/weftlabs/weft/internal/graph"
	"github.com/weftlabs/weft/internal/runner"
	"github.com/weftlabs/weft/pkg/api"
	"github.com/weftlabs/weft/pkg/log"
)

type (
	// execution is the run-scoped state of a single workflow run. The
	// outputs map and results slice are touched only by the scheduling
	// goroutine; workers report through a channel
	execution struct {
		engine   *Engine
		workflow *api.Workflow
		opts     *Options
		levels   []graph.Level
		outputs  map[api.Name]any
		results  []api.StepResult
	}

	outcome struct {
		step   *api.Step
		result *runner.Result
		err    error
		took   time.Duration
	}
)

func newExecution(
	e *Engine, wf *api.Workflow, opts *Options, levels []graph.Level,
) *execution {
	return &execution{
		engine:   e,
		workflow: wf,
		opts:     opts,
		levels:   levels,
		outputs:  map[api.Name]any{},
		results:  []api.StepResult{},
	}
}

// run drives the levels in order. A failure in level i keeps level i+1
// from ever starting; what happens to the rest of level i depends on
// the mode
func (x *execution) run(ctx context.Context) {
	for num, level := range x.levels {
		var ok bool
		if x.opts.Mode == ModeParallel {
			ok = x.runParallel(ctx, num, level)
		} else {
			ok = x.runSequential(ctx, num, level)
		}
		if !ok {
			return
		}
	}
}

// runSequential executes the level one step at a time in canonical
// order. The first failure aborts the run immediately; later steps in
// the level never start and produce no results
func (x *execution) runSequential(
	ctx context.Context, num int, level graph.Level,
) bool {
	for _, name := range level {
		step := x.workflow.Steps[name]
		x.notifyStarted(step, num)
		o := x.invoke(ctx, step)
		x.record(o, num)
		if o.err != nil {
			return false
		}
	}
	return true
}

// runParallel fans the level out across at most MaxConcurrency workers
// and waits for every step to report before judging the level. A
// failure never interrupts in-flight siblings; it only keeps the next
// level from starting
func (x *execution) runParallel(
	ctx context.Context, num int, level graph.Level,
) bool {
	sem := make(chan struct{}, x.opts.MaxConcurrency)
	done := make(chan *outcome, len(level))

	for _, name := range level {
		step := x.workflow.Steps[name]
		x.notifyStarted(step, num)
		inputs := x.snapshot(step)
		go func() {
			sem <- struct{}{}
			defer func() { <-sem }()
			done <- x.invokeWith(ctx, step, inputs)
		}()
	}

	ok := true
	for range level {
		o := <-done
		x.record(o, num)
		if o.err != nil {
			ok = false
		}
	}
	return ok
}

func (x *execution) invoke(ctx context.Context, step *api.Step) *outcome {
	return x.invokeWith(ctx, step, x.snapshot(step))
}

// invokeWith calls the step's runner with the prepared input snapshot.
// Nothing a runner does may escape: an unknown language, a returned
// error, or a panic all land in the outcome as a failure
func (x *execution) invokeWith(
	ctx context.Context, step *api.Step, inputs api.Args,
) (o *outcome) {
	o = &outcome{step: step}
	started := time.Now()
	defer func() {
		o.took = time.Since(started)
		if p := recover(); p != nil {
			o.err = fmt.Errorf(
				"%w: step %q panicked: %v", api.ErrExecutorFailure,
				step.Name, p,
			)
		}
	}()

	r, err := x.engine.runners.Get(step.Language)
	if err != nil {
		o.err = err
		return o
	}
	o.result, o.err = r.Run(ctx, step, inputs)
	return o
}

// snapshot assembles the step's input view: exactly its declared
// dependencies' outputs, copied into a fresh Args so concurrent
// siblings never share a live map
func (x *execution) snapshot(step *api.Step) api.Args {
	if len(step.DependsOn) == 0 {
		return nil
	}
	inputs := make(api.Args, len(step.DependsOn))
	for _, dep := range step.DependsOn {
		inputs[dep] = x.outputs[dep]
	}
	return inputs
}

// record appends the outcome as the next step result. Step numbers are
// completion ordinals, so intra-level order reflects real completion
func (x *execution) record(o *outcome, num int) {
	res := api.StepResult{
		StepNumber: len(x.results) + 1,
		Name:       o.step.Name,
		Language:   runner.Canonical(o.step.Language),
		Status:     api.StepSuccess,
		DurationMS: o.took.Milliseconds(),
	}
	if o.err != nil {
		res.Status = api.StepFailed
		res.Error = o.err.Error()
	}
	if o.result != nil {
		res.Output = o.result.Output
		res.Console = o.result.Console
	}
	x.results = append(x.results, res)

	if o.err == nil {
		x.outputs[o.step.Name] = res.Output
		x.engine.log.Info("step completed",
			log.Workflow(x.workflow.Name),
			log.Step(o.step.Name),
			log.Language(res.Language),
			log.Level(num),
			slog.Int64("duration_ms", res.DurationMS),
		)
	} else {
		x.engine.log.Error("step failed",
			log.Workflow(x.workflow.Name),
			log.Step(o.step.Name),
			log.Language(res.Language),
			log.Level(num),
			log.Error(o.err),
		)
	}
	x.notifyFinished(&res, num)
}

func (x *execution) notifyStarted(step *api.Step, num int) {
	x.engine.log.Debug("step started",
		log.Workflow(x.workflow.Name),
		log.Step(step.Name),
		log.Language(step.Language),
		log.Level(num),
	)
	notify(x.opts, &api.Event{
		Type:     api.EventStepStarted,
		Workflow: x.workflow.Name,
		Step:     step.Name,
		Language: runner.Canonical(step.Language),
		Level:    num,
	})
}

func (x *execution) notifyFinished(res *api.StepResult, num int) {
	typ := api.EventStepCompleted
	if res.Status == api.StepFailed {
		typ = api.EventStepFailed
	}
	notify(x.opts, &api.Event{
		Type:       typ,
		Workflow:   x.workflow.Name,
		Step:       res.Name,
		Language:   res.Language,
		Level:      num,
		Status:     res.Status,
		Error:      res.Error,
		DurationMS: res.DurationMS,
	})
}
