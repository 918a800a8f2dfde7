package builder

import (
	"github.com/weftlabs/weft/pkg/api"
)

// Workflow accumulates steps into an api.Workflow. Like Step, every
// With method returns a modified copy
type Workflow struct {
	name        string
	description string
	steps       []*Step
}

// NewWorkflow creates a new workflow builder with the specified name
func NewWorkflow(name string) *Workflow {
	return &Workflow{
		name: name,
	}
}

// WithDescription sets the workflow's description
func (w *Workflow) WithDescription(desc string) *Workflow {
	res := *w
	res.description = desc
	return &res
}

// WithStep appends a step builder to the workflow
func (w *Workflow) WithStep(step *Step) *Workflow {
	res := *w
	res.steps = make([]*Step, len(w.steps)+1)
	copy(res.steps, w.steps)
	res.steps[len(w.steps)] = step
	return &res
}

// WithSteps appends several step builders to the workflow
func (w *Workflow) WithSteps(steps ...*Step) *Workflow {
	res := w
	for _, step := range steps {
		res = res.WithStep(step)
	}
	return res
}

// Build assembles and validates the workflow
func (w *Workflow) Build() (*api.Workflow, error) {
	wf := &api.Workflow{
		Name:        w.name,
		Description: w.description,
		Steps:       map[api.Name]*api.Step{},
	}
	for _, step := range w.steps {
		built, err := step.Build()
		if err != nil {
			return nil, err
		}
		wf.Steps[built.Name] = built
	}
	if err := wf.Validate(); err != nil {
		return nil, err
	}
	return wf, nil
}
