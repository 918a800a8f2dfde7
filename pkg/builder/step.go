package builder

import (
	"errors"
	"fmt"

	"github.com/weftlabs/weft/pkg/api"
)

// Step accumulates the fields of an api.Step. Builders are immutable;
// every With method returns a modified copy
type Step struct {
	name     api.Name
	language string
	code     string
	module   string
	funcName string
	deps     []api.Name
}

var (
	ErrStepName     = errors.New("step requires a name")
	ErrStepLanguage = errors.New("step requires a language")
	ErrStepPayload  = errors.New("step requires code or a module")
)

// NewStep creates a new step builder with the specified name
func NewStep(name api.Name) *Step {
	return &Step{
		name: name,
	}
}

// WithLanguage sets the step's implementation language
func (s *Step) WithLanguage(language string) *Step {
	res := *s
	res.language = language
	return &res
}

// WithCode sets the step's inline source code
func (s *Step) WithCode(code string) *Step {
	res := *s
	res.code = code
	return &res
}

// WithModule sets the step's compiled module path, used by wasm steps
// in place of inline code
func (s *Step) WithModule(module string) *Step {
	res := *s
	res.module = module
	return &res
}

// WithFunc sets the exported function a wasm step should call
func (s *Step) WithFunc(name string) *Step {
	res := *s
	res.funcName = name
	return &res
}

// DependsOn appends to the step's declared dependencies
func (s *Step) DependsOn(deps ...api.Name) *Step {
	res := *s
	res.deps = make([]api.Name, len(s.deps)+len(deps))
	copy(res.deps, s.deps)
	copy(res.deps[len(s.deps):], deps)
	return &res
}

// Build assembles the step, checking that it names a language and an
// executable payload
func (s *Step) Build() (*api.Step, error) {
	if s.name == "" {
		return nil, ErrStepName
	}
	if s.language == "" {
		return nil, fmt.Errorf("%w: step %q", ErrStepLanguage, s.name)
	}
	if s.code == "" && s.module == "" {
		return nil, fmt.Errorf("%w: step %q", ErrStepPayload, s.name)
	}
	return &api.Step{
		Name:      s.name,
		Language:  s.language,
		Code:      s.code,
		Module:    s.module,
		Func:      s.funcName,
		DependsOn: s.deps,
	}, nil
}
