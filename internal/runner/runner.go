package runner

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"

	"github.com/weftlabs/weft/pkg/api"
)

type (
	// Result is the outcome of a single step execution: the step's output
	// value (JSON value model) and any console text the step produced.
	// Console capture is the runner's responsibility; it is never
	// interleaved with the scheduler's own logging
	Result struct {
		Output  any
		Console string
	}

	// Runner executes one step given its resolved inputs. Implementations
	// may block for the duration of external-runtime work and must be
	// safe for concurrent calls, one per step in a parallel level
	Runner interface {
		Run(
			ctx context.Context, step *api.Step, inputs api.Args,
		) (*Result, error)
	}

	// Registry maps language tags to their runners. Tags are resolved
	// case-insensitively through a fixed alias table, so "bash", "sh" and
	// "shell" all reach the shell runner
	Registry struct {
		runners map[string]Runner
	}
)

// Every payload-bearing language shares a single entry-point contract:
// the step code defines a run function receiving the inputs map
const runFunction = "run"

const (
	LangLua        = "lua"
	LangAle        = "ale"
	LangStarlark   = "starlark"
	LangPython     = "python"
	LangJavaScript = "javascript"
	LangShell      = "shell"
	LangWasm       = "wasm"
)

var aliases = map[string]string{
	"sh":          LangShell,
	"bash":        LangShell,
	"js":          LangJavaScript,
	"node":        LangJavaScript,
	"nodejs":      LangJavaScript,
	"webassembly": LangWasm,
}

// NewRegistry creates a registry with every built-in language runner
// installed: lua, ale and starlark in-process, python and javascript as
// subprocesses, shell via the embedded interpreter, and wasm
func NewRegistry() *Registry {
	return &Registry{
		runners: map[string]Runner{
			LangLua:        NewLuaRunner(),
			LangAle:        NewAleRunner(),
			LangStarlark:   NewStarlarkRunner(),
			LangPython:     NewPythonRunner(),
			LangJavaScript: NewJavaScriptRunner(),
			LangShell:      NewShellRunner(),
			LangWasm:       NewWasmRunner(),
		},
	}
}

// NewEmptyRegistry creates a registry with no runners installed
func NewEmptyRegistry() *Registry {
	return &Registry{runners: map[string]Runner{}}
}

// Register installs a runner for the given canonical language tag
func (r *Registry) Register(language string, runner Runner) {
	r.runners[language] = runner
}

// Get returns the runner for the given language tag, resolving aliases.
// An unrecognized tag yields api.ErrUnknownLanguage
func (r *Registry) Get(language string) (Runner, error) {
	runner, ok := r.runners[Canonical(language)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", api.ErrUnknownLanguage, language)
	}
	return runner, nil
}

// Languages returns the sorted canonical tags with installed runners
func (r *Registry) Languages() []string {
	tags := make([]string, 0, len(r.runners))
	for tag := range r.runners {
		tags = append(tags, tag)
	}
	slices.Sort(tags)
	return tags
}

// Canonical resolves a language tag to its canonical form
func Canonical(language string) string {
	tag := strings.ToLower(strings.TrimSpace(language))
	if canonical, ok := aliases[tag]; ok {
		return canonical
	}
	return tag
}

func hashPayload(code string) string {
	hash := sha256.Sum256([]byte(code))
	return hex.EncodeToString(hash[:])
}

func argsToMap(inputs api.Args) map[string]any {
	m := make(map[string]any, len(inputs))
	for k, v := range inputs {
		m[string(k)] = v
	}
	return m
}
