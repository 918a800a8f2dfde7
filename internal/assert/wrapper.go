package assert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weftlabs/weft/pkg/api"
)

// Wrapper wraps testify assertions with workflow-specific helpers
type Wrapper struct {
	*testing.T
	*assert.Assertions
	Require *require.Assertions
}

// New creates a new test assertion wrapper with both assert and require
// from testify plus workflow-specific helpers
func New(t *testing.T) *Wrapper {
	return &Wrapper{
		T:          t,
		Assertions: assert.New(t),
		Require:    require.New(t),
	}
}

// StepValid asserts that a step declares an executable payload
func (w *Wrapper) StepValid(s *api.Step) {
	w.Helper()
	w.NotEmpty(s.Name)
	w.NotEmpty(s.Language)
	if s.Module != "" {
		return
	}
	w.NotEmpty(s.Code, "non-wasm steps should carry inline code")
}

// WorkflowValid asserts that a workflow passes structural validation
func (w *Wrapper) WorkflowValid(wf *api.Workflow) {
	w.Helper()
	w.NoError(wf.Validate())
	for _, name := range wf.StepNames() {
		w.StepValid(wf.Steps[name])
	}
}

// Completed asserts that a run finished with every step succeeding
func (w *Wrapper) Completed(r *api.WorkflowResult) {
	w.Helper()
	w.Equal(api.WorkflowCompleted, r.Status)
	w.Empty(r.Error)
	w.Empty(r.FailedSteps())
}

// Failed asserts that a run finished in the failed state
func (w *Wrapper) Failed(r *api.WorkflowResult) {
	w.Helper()
	w.Equal(api.WorkflowFailed, r.Status)
	w.NotEmpty(r.Error)
}

// Succeeded asserts that the named step ran and succeeded, returning
// its result
func (w *Wrapper) Succeeded(
	r *api.WorkflowResult, name api.Name,
) *api.StepResult {
	w.Helper()
	res := r.StepResult(name)
	w.Require.NotNil(res, "step %q produced no result", name)
	w.Equal(api.StepSuccess, res.Status)
	return res
}

// StepFailed asserts that the named step ran and failed, returning its
// result
func (w *Wrapper) StepFailed(
	r *api.WorkflowResult, name api.Name,
) *api.StepResult {
	w.Helper()
	res := r.StepResult(name)
	w.Require.NotNil(res, "step %q produced no result", name)
	w.Equal(api.StepFailed, res.Status)
	w.NotEmpty(res.Error)
	return res
}

// NeverRan asserts that the named step produced no result at all
func (w *Wrapper) NeverRan(r *api.WorkflowResult, name api.Name) {
	w.Helper()
	w.Nil(r.StepResult(name), "step %q should not have run", name)
}

// RanBefore asserts that step a completed before step b
func (w *Wrapper) RanBefore(r *api.WorkflowResult, a, b api.Name) {
	w.Helper()
	first := r.StepResult(a)
	second := r.StepResult(b)
	w.Require.NotNil(first, "step %q produced no result", a)
	w.Require.NotNil(second, "step %q produced no result", b)
	w.Less(first.StepNumber, second.StepNumber)
}

// Output asserts that the named step succeeded with an object output and
// returns it
func (w *Wrapper) Output(
	r *api.WorkflowResult, name api.Name,
) map[string]any {
	w.Helper()
	res := w.Succeeded(r, name)
	out, ok := res.Output.(map[string]any)
	w.Require.True(ok, "step %q output is not an object", name)
	return out
}
