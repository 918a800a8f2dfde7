package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weftlabs/weft/internal/graph"
	"github.com/weftlabs/weft/pkg/api"
)

func makeWorkflow(deps map[api.Name][]api.Name) *api.Workflow {
	steps := map[api.Name]*api.Step{}
	for name, dependsOn := range deps {
		steps[name] = &api.Step{
			Name:      name,
			Language:  "lua",
			Code:      "function run() return {} end",
			DependsOn: dependsOn,
		}
	}
	return &api.Workflow{Name: "test", Steps: steps}
}

func TestLevelsNoDependencies(t *testing.T) {
	wf := makeWorkflow(map[api.Name][]api.Name{
		"alpha": nil,
		"beta":  nil,
	})

	levels, err := graph.Levels(wf)
	require.NoError(t, err)
	require.Len(t, levels, 1)
	assert.Equal(t, graph.Level{"alpha", "beta"}, levels[0])
}

func TestLevelsLinearChain(t *testing.T) {
	wf := makeWorkflow(map[api.Name][]api.Name{
		"first":  nil,
		"second": {"first"},
		"third":  {"second"},
	})

	levels, err := graph.Levels(wf)
	require.NoError(t, err)
	require.Len(t, levels, 3)
	assert.Equal(t, graph.Level{"first"}, levels[0])
	assert.Equal(t, graph.Level{"second"}, levels[1])
	assert.Equal(t, graph.Level{"third"}, levels[2])
}

func TestLevelsDiamond(t *testing.T) {
	wf := makeWorkflow(map[api.Name][]api.Name{
		"init":  nil,
		"a":     {"init"},
		"b":     {"init"},
		"c":     {"init"},
		"d":     {"init"},
		"merge": {"a", "b", "c", "d"},
	})

	levels, err := graph.Levels(wf)
	require.NoError(t, err)
	require.Len(t, levels, 3)
	assert.Equal(t, graph.Level{"init"}, levels[0])
	assert.Equal(t, graph.Level{"a", "b", "c", "d"}, levels[1])
	assert.Equal(t, graph.Level{"merge"}, levels[2])
}

func TestLevelsDependenciesStrictlyEarlier(t *testing.T) {
	wf := makeWorkflow(map[api.Name][]api.Name{
		"fetch":   nil,
		"decode":  {"fetch"},
		"enrich":  {"decode", "fetch"},
		"publish": {"enrich"},
		"audit":   {"fetch"},
	})

	levels, err := graph.Levels(wf)
	require.NoError(t, err)

	position := map[api.Name]int{}
	total := 0
	for i, level := range levels {
		for _, name := range level {
			_, seen := position[name]
			assert.False(t, seen, "step %s appears twice", name)
			position[name] = i
			total++
		}
	}
	assert.Equal(t, len(wf.Steps), total)

	for name, step := range wf.Steps {
		for _, dep := range step.DependsOn {
			assert.Less(t, position[dep], position[name],
				"dependency %s must be leveled before %s", dep, name)
		}
	}
}

func TestLevelsIdempotent(t *testing.T) {
	wf := makeWorkflow(map[api.Name][]api.Name{
		"one":   nil,
		"two":   {"one"},
		"three": {"one"},
		"four":  {"two", "three"},
	})

	first, err := graph.Levels(wf)
	require.NoError(t, err)
	second, err := graph.Levels(wf)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestLevelsEmptyWorkflow(t *testing.T) {
	wf := &api.Workflow{Name: "empty", Steps: map[api.Name]*api.Step{}}

	_, err := graph.Levels(wf)
	assert.ErrorIs(t, err, api.ErrEmptyWorkflow)
}

func TestLevelsUnknownDependency(t *testing.T) {
	wf := makeWorkflow(map[api.Name][]api.Name{
		"lonely": {"missing"},
	})

	_, err := graph.Levels(wf)
	require.ErrorIs(t, err, api.ErrUnknownDependency)
	assert.Contains(t, err.Error(), "lonely")
	assert.Contains(t, err.Error(), "missing")
}

func TestLevelsSelfDependency(t *testing.T) {
	wf := makeWorkflow(map[api.Name][]api.Name{
		"narcissus": {"narcissus"},
	})

	_, err := graph.Levels(wf)
	assert.ErrorIs(t, err, api.ErrSelfDependency)
}

func TestLevelsCycle(t *testing.T) {
	wf := makeWorkflow(map[api.Name][]api.Name{
		"a": {"b"},
		"b": {"a"},
	})

	levels, err := graph.Levels(wf)
	require.ErrorIs(t, err, api.ErrCycleDetected)
	assert.Nil(t, levels)
}

func TestLevelsPartialCycle(t *testing.T) {
	wf := makeWorkflow(map[api.Name][]api.Name{
		"root": nil,
		"x":    {"root", "y"},
		"y":    {"x"},
	})

	levels, err := graph.Levels(wf)
	require.ErrorIs(t, err, api.ErrCycleDetected)
	assert.Nil(t, levels, "a cycle must never yield a partial level list")
}
