package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/tidwall/gjson"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"github.com/weftlabs/weft/pkg/api"
)

// ShellRunner executes shell steps with an embedded POSIX interpreter,
// no external shell required. Inputs are exposed as INPUT_<NAME>
// environment variables holding JSON, and a run function is called
// after the step code when it defines one
type ShellRunner struct{}

const (
	shellInputPrefix = "INPUT_"

	// set -e keeps a failing command from silently continuing; the
	// trailing block calls run only when the step defined it
	shellPrologue = "set -e\n"
	shellEpilogue = `
if command -v run >/dev/null 2>&1; then
  run
fi
`
)

var (
	ErrShellParse     = errors.New("shell parse error")
	ErrShellExecution = errors.New("shell execution error")
)

// NewShellRunner creates a shell runner
func NewShellRunner() *ShellRunner {
	return &ShellRunner{}
}

func (r *ShellRunner) Run(
	ctx context.Context, step *api.Step, inputs api.Args,
) (*Result, error) {
	if step.Code == "" {
		return nil, fmt.Errorf(
			"%w: shell step %q has no code", api.ErrInvalidPayload,
			step.Name,
		)
	}

	script := shellPrologue + step.Code + shellEpilogue
	file, err := syntax.NewParser().Parse(
		strings.NewReader(script), string(step.Name),
	)
	if err != nil {
		return nil, fmt.Errorf(
			"%w: step %q: %w", ErrShellParse, step.Name, err,
		)
	}

	env, err := shellEnviron(inputs)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", api.ErrInvalidPayload, err)
	}

	var stdout, stderr bytes.Buffer
	sh, err := interp.New(
		interp.StdIO(nil, &stdout, &stderr),
		interp.Env(expand.ListEnviron(env...)),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrShellExecution, err)
	}

	if err := sh.Run(ctx, file); err != nil {
		if status, ok := interp.IsExitStatus(err); ok {
			return nil, fmt.Errorf(
				"%w: step %q exited with status %d: %s",
				ErrShellExecution, step.Name, status,
				strings.TrimSpace(stderr.String()),
			)
		}
		return nil, fmt.Errorf(
			"%w: step %q: %w", ErrShellExecution, step.Name, err,
		)
	}

	output, ok := sniffJSONLine(stdout.String())
	if !ok {
		output = map[string]any{
			"stdout":    strings.TrimSpace(stdout.String()),
			"stderr":    strings.TrimSpace(stderr.String()),
			"exit_code": 0,
		}
	}
	return &Result{Output: output, Console: stderr.String()}, nil
}

// shellEnviron builds the child environment: the process environment
// plus one JSON-valued INPUT_<NAME> variable per declared dependency
func shellEnviron(inputs api.Args) ([]string, error) {
	env := os.Environ()
	for _, name := range inputs.SortedNames() {
		encoded, err := json.Marshal(inputs[name])
		if err != nil {
			return nil, err
		}
		env = append(env, fmt.Sprintf(
			"%s%s=%s", shellInputPrefix,
			strings.ToUpper(string(name)), encoded,
		))
	}
	return env, nil
}

// sniffJSONLine scans stdout for the first line that is a complete
// JSON object and decodes it as the step result
func sniffJSONLine(stdout string) (any, bool) {
	for _, line := range strings.Split(stdout, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "{") || !strings.HasSuffix(line, "}") {
			continue
		}
		if !gjson.Valid(line) {
			continue
		}
		var output any
		if err := json.Unmarshal([]byte(line), &output); err == nil {
			return output, true
		}
	}
	return nil, false
}
