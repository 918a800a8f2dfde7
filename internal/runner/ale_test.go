package runner_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weftlabs/weft/internal/runner"
	"github.com/weftlabs/weft/pkg/api"
)

func aleStep(code string) *api.Step {
	return &api.Step{
		Name:     "test",
		Language: runner.LangAle,
		Code:     code,
	}
}

func TestAleRunSimple(t *testing.T) {
	r := runner.NewAleRunner()

	res, err := r.Run(
		context.Background(), aleStep(`{:message "ok" :value 42}`), nil,
	)
	require.NoError(t, err)

	output, ok := res.Output.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ok", output["message"])
	assert.Equal(t, 42, output["value"])
}

func TestAleRunWithInputs(t *testing.T) {
	r := runner.NewAleRunner()

	res, err := r.Run(
		context.Background(),
		aleStep(`(+ (:a inputs) (:b inputs))`),
		api.Args{"a": 5, "b": 10},
	)
	require.NoError(t, err)
	assert.Equal(t, 15, res.Output)
}

func TestAleVectorResult(t *testing.T) {
	r := runner.NewAleRunner()

	res, err := r.Run(context.Background(), aleStep(`[1 2 3]`), nil)
	require.NoError(t, err)
	assert.Equal(t, []any{1, 2, 3}, res.Output)
}

func TestAleEmptyCode(t *testing.T) {
	r := runner.NewAleRunner()

	_, err := r.Run(context.Background(), aleStep(""), nil)
	assert.ErrorIs(t, err, api.ErrInvalidPayload)
}

func TestAleBadScript(t *testing.T) {
	r := runner.NewAleRunner()

	_, err := r.Run(context.Background(), aleStep(`(unknown-fn 1 2)`), nil)
	assert.Error(t, err)
}

func TestAleCompileCaching(t *testing.T) {
	r := runner.NewAleRunner()
	step := aleStep(`(* (:n inputs) 2)`)

	for _, n := range []int{1, 2, 3} {
		res, err := r.Run(
			context.Background(), step, api.Args{"n": n},
		)
		require.NoError(t, err)
		assert.Equal(t, n*2, res.Output)
	}
}
