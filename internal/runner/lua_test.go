package runner_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weftlabs/weft/internal/runner"
	"github.com/weftlabs/weft/pkg/api"
)

func luaStep(code string) *api.Step {
	return &api.Step{
		Name:     "test",
		Language: runner.LangLua,
		Code:     code,
	}
}

func TestLuaRunSimple(t *testing.T) {
	r := runner.NewLuaRunner()

	res, err := r.Run(context.Background(), luaStep(`
function run()
  return {message = "ok", value = 42}
end
`), nil)
	require.NoError(t, err)

	output, ok := res.Output.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ok", output["message"])
	assert.Equal(t, 42, output["value"])
}

func TestLuaRunWithInputs(t *testing.T) {
	r := runner.NewLuaRunner()

	res, err := r.Run(context.Background(), luaStep(`
function run(inputs)
  return {sum = inputs.a.value + inputs.b.value}
end
`), api.Args{
		"a": map[string]any{"value": 5},
		"b": map[string]any{"value": 10},
	})
	require.NoError(t, err)

	output, ok := res.Output.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 15, output["sum"])
}

func TestLuaArrayResult(t *testing.T) {
	r := runner.NewLuaRunner()

	res, err := r.Run(context.Background(), luaStep(`
function run()
  return {1, 2, 3}
end
`), nil)
	require.NoError(t, err)
	assert.Equal(t, []any{1, 2, 3}, res.Output)
}

func TestLuaConsoleCapture(t *testing.T) {
	r := runner.NewLuaRunner()

	res, err := r.Run(context.Background(), luaStep(`
function run()
  print("hello", 42)
  return {}
end
`), nil)
	require.NoError(t, err)
	assert.Equal(t, "hello\t42\n", res.Console)
}

func TestLuaSandbox(t *testing.T) {
	r := runner.NewLuaRunner()

	res, err := r.Run(context.Background(), luaStep(`
function run()
  return {io_blocked = io == nil, os_blocked = os == nil}
end
`), nil)
	require.NoError(t, err)

	output, ok := res.Output.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, output["io_blocked"])
	assert.Equal(t, true, output["os_blocked"])
}

func TestLuaNoRunFunction(t *testing.T) {
	r := runner.NewLuaRunner()

	_, err := r.Run(context.Background(), luaStep(`local x = 1`), nil)
	assert.ErrorIs(t, err, runner.ErrLuaNoRun)
}

func TestLuaEmptyCode(t *testing.T) {
	r := runner.NewLuaRunner()

	_, err := r.Run(context.Background(), luaStep(""), nil)
	assert.ErrorIs(t, err, api.ErrInvalidPayload)
}

func TestLuaSyntaxError(t *testing.T) {
	r := runner.NewLuaRunner()

	_, err := r.Run(context.Background(), luaStep(`function run(`), nil)
	assert.ErrorIs(t, err, runner.ErrLuaLoad)
}

func TestLuaRuntimeError(t *testing.T) {
	r := runner.NewLuaRunner()

	_, err := r.Run(context.Background(), luaStep(`
function run()
  error("boom")
end
`), nil)
	assert.ErrorIs(t, err, runner.ErrLuaExecution)
}

func TestLuaStateReuse(t *testing.T) {
	r := runner.NewLuaRunner()
	code := luaStep(`
function run()
  return {value = 1}
end
`)

	for i := 0; i < 20; i++ {
		res, err := r.Run(context.Background(), code, nil)
		require.NoError(t, err)
		output, ok := res.Output.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, 1, output["value"])
	}
}
