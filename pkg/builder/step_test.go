package builder_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weftlabs/weft/pkg/api"
	"github.com/weftlabs/weft/pkg/builder"
)

func TestStepBuild(t *testing.T) {
	step, err := builder.NewStep("fetch").
		WithLanguage("lua").
		WithCode("function run() return {} end").
		DependsOn("auth", "config").
		Build()
	require.NoError(t, err)

	assert.Equal(t, api.Name("fetch"), step.Name)
	assert.Equal(t, "lua", step.Language)
	assert.Equal(t, []api.Name{"auth", "config"}, step.DependsOn)
}

func TestStepBuilderImmutable(t *testing.T) {
	base := builder.Lua("shared", "function run() return {} end")
	withDep := base.DependsOn("other")

	step, err := base.Build()
	require.NoError(t, err)
	assert.Empty(t, step.DependsOn)

	step, err = withDep.Build()
	require.NoError(t, err)
	assert.Equal(t, []api.Name{"other"}, step.DependsOn)
}

func TestStepRequiresName(t *testing.T) {
	_, err := builder.NewStep("").
		WithLanguage("lua").
		WithCode("function run() return {} end").
		Build()
	assert.ErrorIs(t, err, builder.ErrStepName)
}

func TestStepRequiresLanguage(t *testing.T) {
	_, err := builder.NewStep("bare").WithCode("x = 1").Build()
	assert.ErrorIs(t, err, builder.ErrStepLanguage)
}

func TestStepRequiresPayload(t *testing.T) {
	_, err := builder.NewStep("empty").WithLanguage("lua").Build()
	assert.ErrorIs(t, err, builder.ErrStepPayload)
}

func TestWasmHelper(t *testing.T) {
	step, err := builder.Wasm("crunch", "crunch.wasm", "process").Build()
	require.NoError(t, err)

	assert.Equal(t, "wasm", step.Language)
	assert.Equal(t, "crunch.wasm", step.Module)
	assert.Equal(t, "process", step.Func)
	assert.Empty(t, step.Code)
}

func TestLanguageHelpers(t *testing.T) {
	for helper, language := range map[*builder.Step]string{
		builder.Lua("s", "c"):        "lua",
		builder.Ale("s", "c"):        "ale",
		builder.Starlark("s", "c"):   "starlark",
		builder.Python("s", "c"):     "python",
		builder.JavaScript("s", "c"): "javascript",
		builder.Shell("s", "c"):      "shell",
	} {
		step, err := helper.Build()
		require.NoError(t, err)
		assert.Equal(t, language, step.Language)
	}
}
