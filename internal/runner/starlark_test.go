package runner_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weftlabs/weft/internal/runner"
	"github.com/weftlabs/weft/pkg/api"
)

func starlarkStep(code string) *api.Step {
	return &api.Step{
		Name:     "test",
		Language: runner.LangStarlark,
		Code:     code,
	}
}

func TestStarlarkRunSimple(t *testing.T) {
	r := runner.NewStarlarkRunner()

	res, err := r.Run(context.Background(), starlarkStep(`
def run():
    return {"message": "ok", "value": 42}
`), nil)
	require.NoError(t, err)

	output, ok := res.Output.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ok", output["message"])
	assert.Equal(t, 42, output["value"])
}

func TestStarlarkRunWithInputs(t *testing.T) {
	r := runner.NewStarlarkRunner()

	res, err := r.Run(context.Background(), starlarkStep(`
def run(inputs):
    return {"sum": inputs["a"] + inputs["b"]}
`), api.Args{"a": 5, "b": 10})
	require.NoError(t, err)

	output, ok := res.Output.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 15, output["sum"])
}

func TestStarlarkListResult(t *testing.T) {
	r := runner.NewStarlarkRunner()

	res, err := r.Run(context.Background(), starlarkStep(`
def run():
    return [x * 2 for x in [1, 2, 3]]
`), nil)
	require.NoError(t, err)
	assert.Equal(t, []any{2, 4, 6}, res.Output)
}

func TestStarlarkConsoleCapture(t *testing.T) {
	r := runner.NewStarlarkRunner()

	res, err := r.Run(context.Background(), starlarkStep(`
def run():
    print("hello")
    return {}
`), nil)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", res.Console)
}

func TestStarlarkNoRunFunction(t *testing.T) {
	r := runner.NewStarlarkRunner()

	_, err := r.Run(context.Background(), starlarkStep(`x = 1`), nil)
	assert.ErrorIs(t, err, runner.ErrStarlarkNoRun)
}

func TestStarlarkEmptyCode(t *testing.T) {
	r := runner.NewStarlarkRunner()

	_, err := r.Run(context.Background(), starlarkStep(""), nil)
	assert.ErrorIs(t, err, api.ErrInvalidPayload)
}

func TestStarlarkRuntimeError(t *testing.T) {
	r := runner.NewStarlarkRunner()

	_, err := r.Run(context.Background(), starlarkStep(`
def run():
    fail("boom")
`), nil)
	assert.ErrorIs(t, err, runner.ErrStarlarkExec)
}
