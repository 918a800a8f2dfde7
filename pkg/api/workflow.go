package api

import (
	"fmt"
	"slices"
)

type (
	// Name is a string identifier for workflow steps
	Name string

	// Step declares a single unit of work within a workflow, implemented
	// in one designated language. The executable payload is either inline
	// source (Code) or an opaque module/function reference (Module/Func
	// for wasm steps); the engine never inspects or transforms it
	Step struct {
		Name      Name   `json:"name"`
		Language  string `json:"language"`
		Code      string `json:"code,omitempty"`
		Module    string `json:"module,omitempty"`
		Func      string `json:"func,omitempty"`
		DependsOn []Name `json:"depends_on,omitempty"`
	}

	// Workflow is an immutable set of named steps with explicit
	// dependencies between them. Insertion order is irrelevant; ordering
	// is derived from the dependency graph at run time
	Workflow struct {
		Name        string         `json:"name"`
		Description string         `json:"description,omitempty"`
		Steps       map[Name]*Step `json:"steps"`
	}
)

// Validate checks the structural invariants of a workflow: a non-empty
// step set, no self-dependencies, and no dependency naming a step that
// does not exist
func (w *Workflow) Validate() error {
	if len(w.Steps) == 0 {
		return ErrEmptyWorkflow
	}

	for _, name := range w.StepNames() {
		step := w.Steps[name]
		for _, dep := range step.DependsOn {
			if dep == name {
				return fmt.Errorf("%w: step %q", ErrSelfDependency, name)
			}
			if _, ok := w.Steps[dep]; !ok {
				return fmt.Errorf(
					"%w: step %q depends on %q", ErrUnknownDependency,
					name, dep,
				)
			}
		}
	}

	return nil
}

// StepNames returns the workflow's step names in lexicographic order
func (w *Workflow) StepNames() []Name {
	names := make([]Name, 0, len(w.Steps))
	for name := range w.Steps {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
