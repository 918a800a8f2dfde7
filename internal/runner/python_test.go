package runner_test

import (
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weftlabs/weft/internal/runner"
	"github.com/weftlabs/weft/pkg/api"
)

func requirePython(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("python3"); err != nil {
		t.Skip("python3 not available")
	}
}

func pythonStep(code string) *api.Step {
	return &api.Step{
		Name:     "test",
		Language: runner.LangPython,
		Code:     code,
	}
}

func TestPythonRunSimple(t *testing.T) {
	requirePython(t)
	r := runner.NewPythonRunner()

	res, err := r.Run(context.Background(), pythonStep(`
def run():
    return {"message": "ok", "value": 42}
`), nil)
	require.NoError(t, err)

	output, ok := res.Output.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ok", output["message"])
	assert.Equal(t, float64(42), output["value"])
}

func TestPythonRunWithInputs(t *testing.T) {
	requirePython(t)
	r := runner.NewPythonRunner()

	res, err := r.Run(context.Background(), pythonStep(`
def run(inputs):
    return {"doubled": [x * 2 for x in inputs["data"]]}
`), api.Args{"data": []any{1, 2, 3}})
	require.NoError(t, err)

	output, ok := res.Output.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{
		float64(2), float64(4), float64(6),
	}, output["doubled"])
}

func TestPythonConsoleCapture(t *testing.T) {
	requirePython(t)
	r := runner.NewPythonRunner()

	res, err := r.Run(context.Background(), pythonStep(`
def run():
    print("working")
    return {}
`), nil)
	require.NoError(t, err)
	assert.Equal(t, "working", res.Console)
}

func TestPythonNoRunFunction(t *testing.T) {
	requirePython(t)
	r := runner.NewPythonRunner()

	_, err := r.Run(context.Background(), pythonStep(`x = 1`), nil)
	assert.ErrorIs(t, err, runner.ErrPythonNoRun)
}

func TestPythonRuntimeError(t *testing.T) {
	requirePython(t)
	r := runner.NewPythonRunner()

	_, err := r.Run(context.Background(), pythonStep(`
def run():
    return 1 / 0
`), nil)
	assert.ErrorIs(t, err, runner.ErrPythonExecution)
	assert.Contains(t, err.Error(), "ZeroDivisionError")
}

func TestPythonEmptyCode(t *testing.T) {
	r := runner.NewPythonRunner()

	_, err := r.Run(context.Background(), pythonStep(""), nil)
	assert.ErrorIs(t, err, api.ErrInvalidPayload)
}
