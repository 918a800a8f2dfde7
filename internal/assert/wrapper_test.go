package assert_test

import (
	"testing"

	"github.com/weftlabs/weft/internal/assert"
	"github.com/weftlabs/weft/pkg/api"
)

func sampleResult() *api.WorkflowResult {
	return &api.WorkflowResult{
		WorkflowName: "sample",
		Status:       api.WorkflowCompleted,
		Steps: []api.StepResult{
			{
				StepNumber: 1,
				Name:       "first",
				Language:   "lua",
				Status:     api.StepSuccess,
				Output:     map[string]any{"value": float64(1)},
			},
			{
				StepNumber: 2,
				Name:       "second",
				Language:   "lua",
				Status:     api.StepSuccess,
				Output:     map[string]any{"value": float64(2)},
			},
		},
	}
}

func TestCompleted(t *testing.T) {
	as := assert.New(t)
	as.Completed(sampleResult())
}

func TestSucceededReturnsResult(t *testing.T) {
	as := assert.New(t)
	res := as.Succeeded(sampleResult(), "second")
	as.Equal(2, res.StepNumber)
}

func TestRanBefore(t *testing.T) {
	as := assert.New(t)
	as.RanBefore(sampleResult(), "first", "second")
}

func TestOutput(t *testing.T) {
	as := assert.New(t)
	out := as.Output(sampleResult(), "first")
	as.Equal(float64(1), out["value"])
}

func TestNeverRan(t *testing.T) {
	as := assert.New(t)
	as.NeverRan(sampleResult(), "ghost")
}

func TestWorkflowValid(t *testing.T) {
	as := assert.New(t)
	as.WorkflowValid(&api.Workflow{
		Name: "sample",
		Steps: map[api.Name]*api.Step{
			"only": {
				Name:     "only",
				Language: "lua",
				Code:     "function run() return {} end",
			},
		},
	})
}
