package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/weftlabs/weft/pkg/api"
)

// JavaScriptRunner executes javascript steps in a node subprocess. The
// step code and its inputs are written to a temporary script alongside
// a trailer that calls the run function and prints the JSON-encoded
// result as the final stdout line
type JavaScriptRunner struct {
	interpreter string
}

const nodeInterpreter = "node"

// Non-object results are wrapped so the step output is always a JSON
// object or value the data-flow layer can snapshot
const jsTrailer = `
let __result;
if (typeof run === 'function') {
  __result = Object.keys(inputs).length === 0 ? run() : run(inputs);
} else {
  console.error('no run function defined');
  process.exit(3);
}
if (__result === undefined || __result === null) {
  __result = {};
}
if (typeof __result === 'object') {
  console.log(JSON.stringify(__result));
} else {
  console.log(JSON.stringify({ value: __result }));
}
`

var (
	ErrJSUnavailable = errors.New("node interpreter not available")
	ErrJSExecution   = errors.New("javascript execution error")
	ErrJSNoRun       = errors.New("javascript step does not define a run function")
)

// NewJavaScriptRunner creates a javascript runner using node from PATH
func NewJavaScriptRunner() *JavaScriptRunner {
	return &JavaScriptRunner{interpreter: nodeInterpreter}
}

func (r *JavaScriptRunner) Run(
	ctx context.Context, step *api.Step, inputs api.Args,
) (*Result, error) {
	if step.Code == "" {
		return nil, fmt.Errorf(
			"%w: javascript step %q has no code", api.ErrInvalidPayload,
			step.Name,
		)
	}

	script, err := r.buildScript(step, inputs)
	if err != nil {
		return nil, err
	}

	file, err := os.CreateTemp("", "weft-*.js")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrJSExecution, err)
	}
	defer func() { _ = os.Remove(file.Name()) }()
	if _, err := file.WriteString(script); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("%w: %w", ErrJSExecution, err)
	}
	if err := file.Close(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrJSExecution, err)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.interpreter, file.Name())
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrJSUnavailable, r.interpreter)
		}
		if cmd.ProcessState != nil && cmd.ProcessState.ExitCode() == 3 {
			return nil, fmt.Errorf("%w: step %q", ErrJSNoRun, step.Name)
		}
		return nil, fmt.Errorf(
			"%w: step %q: %w: %s", ErrJSExecution, step.Name, err,
			strings.TrimSpace(stderr.String()),
		)
	}

	output, console := splitTrailingResult(stdout.String())
	return &Result{Output: output, Console: console}, nil
}

func (r *JavaScriptRunner) buildScript(
	step *api.Step, inputs api.Args,
) (string, error) {
	var b strings.Builder
	b.WriteString("const inputs = {};\n")
	for _, name := range inputs.SortedNames() {
		encoded, err := json.Marshal(inputs[name])
		if err != nil {
			return "", fmt.Errorf("%w: %w", api.ErrInvalidPayload, err)
		}
		fmt.Fprintf(&b, "inputs[%q] = %s;\n", string(name), encoded)
	}
	b.WriteString("\n")
	b.WriteString(step.Code)
	b.WriteString(jsTrailer)
	return b.String(), nil
}

// splitTrailingResult takes the last stdout line that parses as JSON
// as the step result; the remaining lines are console output
func splitTrailingResult(stdout string) (any, string) {
	lines := strings.Split(strings.TrimRight(stdout, "\n"), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		var output any
		if err := json.Unmarshal([]byte(lines[i]), &output); err == nil {
			console := strings.Join(
				append(lines[:i:i], lines[i+1:]...), "\n",
			)
			return output, strings.TrimSpace(console)
		}
	}
	return map[string]any{}, strings.TrimSpace(stdout)
}
