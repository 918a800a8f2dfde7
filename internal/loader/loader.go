// Package loader reads workflow definitions. A workflow file is a lua
// chunk assigning a global workflow table: a name, an optional
// description, and a steps table keyed by step name, where each step
// declares its language, code, dependencies, and for wasm steps a
// module path and exported function
package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Shopify/go-lua"

	"github.com/weftlabs/weft/internal/runner"
	"github.com/weftlabs/weft/pkg/api"
)

// Info summarizes a workflow file for listings. A file that fails to
// load still appears, with the failure in Error
type Info struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	File        string `json:"file"`
	Steps       int    `json:"steps"`
	Error       string `json:"error,omitempty"`
}

const workflowExt = ".lua"

var (
	ErrReadFailed      = errors.New("failed to read workflow file")
	ErrEvalFailed      = errors.New("failed to evaluate workflow file")
	ErrNoWorkflowTable = errors.New("workflow file does not define a workflow table")
	ErrNoSteps         = errors.New("workflow defines no steps table")
	ErrBadStep         = errors.New("malformed step definition")
	ErrMissingCode     = errors.New("step is missing required code field")
	ErrMissingModule   = errors.New("wasm step is missing required module field")
	ErrLegacyFormat    = errors.New("legacy workflow format: declare code instead of a run function")
)

// Load reads and parses the workflow file at path. The file name,
// minus extension, names the workflow when the table itself does not
func Load(path string) (*api.Workflow, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadFailed, err)
	}
	base := strings.TrimSuffix(filepath.Base(path), workflowExt)
	return Parse(base, string(src))
}

// Parse evaluates workflow source and extracts the workflow table. The
// result is validated, so a parsed workflow is safe to hand straight
// to the engine
func Parse(fallbackName, src string) (*api.Workflow, error) {
	L := lua.NewState()
	lua.OpenLibraries(L)

	if err := lua.DoString(L, src); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEvalFailed, err)
	}

	L.Global("workflow")
	if !L.IsTable(-1) {
		return nil, ErrNoWorkflowTable
	}

	wf := &api.Workflow{
		Name:        stringField(L, "name"),
		Description: stringField(L, "description"),
		Steps:       map[api.Name]*api.Step{},
	}
	if wf.Name == "" {
		wf.Name = fallbackName
	}

	L.Field(-1, "steps")
	if !L.IsTable(-1) {
		return nil, ErrNoSteps
	}

	L.PushNil()
	for L.Next(-2) {
		if L.TypeOf(-2) != lua.TypeString || !L.IsTable(-1) {
			return nil, fmt.Errorf(
				"%w: steps must be tables keyed by name", ErrBadStep,
			)
		}
		name, _ := L.ToString(-2)
		step, err := parseStep(L, api.Name(name))
		if err != nil {
			return nil, err
		}
		wf.Steps[step.Name] = step
		L.Pop(1)
	}

	if err := wf.Validate(); err != nil {
		return nil, err
	}
	return wf, nil
}

// List summarizes every workflow file in dir, sorted by name
func List(dir string) ([]*Info, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*"+workflowExt))
	if err != nil {
		return nil, err
	}

	infos := make([]*Info, 0, len(paths))
	for _, path := range paths {
		info := &Info{
			Name: strings.TrimSuffix(filepath.Base(path), workflowExt),
			File: filepath.Base(path),
		}
		if wf, err := Load(path); err != nil {
			info.Error = err.Error()
		} else {
			info.Name = wf.Name
			info.Description = wf.Description
			info.Steps = len(wf.Steps)
		}
		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Name < infos[j].Name
	})
	return infos, nil
}

// parseStep reads one step table, expected at the top of the stack
func parseStep(L *lua.State, name api.Name) (*api.Step, error) {
	step := &api.Step{
		Name:     name,
		Language: stringField(L, "language"),
		Code:     stringField(L, "code"),
		Module:   stringField(L, "module"),
		Func:     stringField(L, "func"),
	}
	if step.Language == "" {
		step.Language = runner.LangLua
	}
	if step.Func == "" {
		step.Func = stringField(L, "function")
	}
	step.DependsOn = dependsField(L)

	if runner.Canonical(step.Language) == runner.LangWasm {
		if step.Module == "" {
			return nil, fmt.Errorf("%w: step %q", ErrMissingModule, name)
		}
		return step, nil
	}

	if step.Code == "" {
		if hasField(L, "run") {
			return nil, fmt.Errorf("%w: step %q", ErrLegacyFormat, name)
		}
		return nil, fmt.Errorf("%w: step %q", ErrMissingCode, name)
	}
	return step, nil
}

func stringField(L *lua.State, name string) string {
	L.Field(-1, name)
	defer L.Pop(1)
	if L.TypeOf(-1) != lua.TypeString {
		return ""
	}
	s, _ := L.ToString(-1)
	return s
}

func hasField(L *lua.State, name string) bool {
	L.Field(-1, name)
	defer L.Pop(1)
	return !L.IsNil(-1)
}

func dependsField(L *lua.State) []api.Name {
	L.Field(-1, "depends_on")
	defer L.Pop(1)
	if !L.IsTable(-1) {
		return nil
	}

	var deps []api.Name
	for i := 1; ; i++ {
		L.RawGetInt(-1, i)
		if L.IsNil(-1) {
			L.Pop(1)
			return deps
		}
		if s, ok := L.ToString(-1); ok {
			deps = append(deps, api.Name(s))
		}
		L.Pop(1)
	}
}
