package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/weftlabs/weft/pkg/api"
)

// PythonRunner executes python steps in a python3 subprocess. A fixed
// harness receives the step code and inputs as a JSON payload on stdin,
// calls the step's run function and prints the JSON-encoded result on a
// marked line; everything else the step prints becomes console output
type PythonRunner struct {
	interpreter string
}

type pythonPayload struct {
	Code   string         `json:"code"`
	Inputs map[string]any `json:"inputs"`
}

const (
	pythonInterpreter = "python3"

	// resultMarker prefixes the single stdout line carrying the step's
	// JSON result, keeping it separate from user print output
	resultMarker = "__WEFT_RESULT__"

	pythonHarness = `import json, sys
payload = json.load(sys.stdin)
ns = {}
exec(compile(payload["code"], "<step>", "exec"), ns)
run = ns.get("run")
if not callable(run):
    print("no run function defined", file=sys.stderr)
    sys.exit(3)
inputs = payload["inputs"]
result = run(inputs) if inputs else run()
print("__WEFT_RESULT__" + json.dumps(result))
`
)

var (
	ErrPythonUnavailable = errors.New("python interpreter not available")
	ErrPythonExecution   = errors.New("python execution error")
	ErrPythonNoRun       = errors.New("python step does not define a run function")
	ErrPythonResult      = errors.New("failed to decode python result")
)

// NewPythonRunner creates a python runner using python3 from PATH
func NewPythonRunner() *PythonRunner {
	return &PythonRunner{interpreter: pythonInterpreter}
}

func (r *PythonRunner) Run(
	ctx context.Context, step *api.Step, inputs api.Args,
) (*Result, error) {
	if step.Code == "" {
		return nil, fmt.Errorf(
			"%w: python step %q has no code", api.ErrInvalidPayload,
			step.Name,
		)
	}

	payload, err := json.Marshal(&pythonPayload{
		Code:   step.Code,
		Inputs: argsToMap(inputs),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", api.ErrInvalidPayload, err)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.interpreter, "-c", pythonHarness)
	cmd.Stdin = bytes.NewReader(payload)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf(
				"%w: %s", ErrPythonUnavailable, r.interpreter,
			)
		}
		if cmd.ProcessState != nil && cmd.ProcessState.ExitCode() == 3 {
			return nil, fmt.Errorf("%w: step %q", ErrPythonNoRun, step.Name)
		}
		return nil, fmt.Errorf(
			"%w: step %q: %w: %s", ErrPythonExecution, step.Name, err,
			strings.TrimSpace(stderr.String()),
		)
	}

	output, console, err := splitMarkedResult(stdout.String())
	if err != nil {
		return nil, fmt.Errorf("%w: step %q: %w", ErrPythonResult,
			step.Name, err,
		)
	}
	return &Result{Output: output, Console: console}, nil
}

// splitMarkedResult separates the marked result line from the step's
// own print output and decodes the result
func splitMarkedResult(stdout string) (any, string, error) {
	var output any
	var console strings.Builder
	found := false
	for _, line := range strings.Split(stdout, "\n") {
		if rest, ok := strings.CutPrefix(line, resultMarker); ok {
			if err := json.Unmarshal([]byte(rest), &output); err != nil {
				return nil, "", err
			}
			found = true
			continue
		}
		if line != "" || console.Len() > 0 {
			console.WriteString(line)
			console.WriteByte('\n')
		}
	}
	if !found {
		return nil, "", errors.New("no result line in output")
	}
	return output, strings.TrimRight(console.String(), "\n"), nil
}
