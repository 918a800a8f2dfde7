package helpers

import (
	"github.com/weftlabs/weft/internal/runner"
	"github.com/weftlabs/weft/pkg/api"
)

// NewWorkflow assembles a workflow from the given steps, keyed by name
func NewWorkflow(name string, steps ...*api.Step) *api.Workflow {
	wf := &api.Workflow{
		Name:  name,
		Steps: map[api.Name]*api.Step{},
	}
	for _, step := range steps {
		wf.Steps[step.Name] = step
	}
	return wf
}

// NewStep creates a step in the given language with inline code
func NewStep(
	name api.Name, language, code string, deps ...api.Name,
) *api.Step {
	return &api.Step{
		Name:      name,
		Language:  language,
		Code:      code,
		DependsOn: deps,
	}
}

// LuaStep creates a Lua step with inline code
func LuaStep(name api.Name, code string, deps ...api.Name) *api.Step {
	return NewStep(name, runner.LangLua, code, deps...)
}

// AleStep creates an Ale step with inline code
func AleStep(name api.Name, code string, deps ...api.Name) *api.Step {
	return NewStep(name, runner.LangAle, code, deps...)
}

// StarlarkStep creates a Starlark step with inline code
func StarlarkStep(name api.Name, code string, deps ...api.Name) *api.Step {
	return NewStep(name, runner.LangStarlark, code, deps...)
}

// ShellStep creates a shell step with inline script source
func ShellStep(name api.Name, code string, deps ...api.Name) *api.Step {
	return NewStep(name, runner.LangShell, code, deps...)
}
