package api

type (
	// WorkflowStatus represents the terminal state of a workflow run
	WorkflowStatus string

	// StepStatus represents the terminal state of a step execution
	StepStatus string

	// StepResult records the outcome of a single step execution
	StepResult struct {
		StepNumber int        `json:"step_number"`
		Name       Name       `json:"step_name"`
		Language   string     `json:"language"`
		Status     StepStatus `json:"status"`
		Output     any        `json:"output,omitempty"`
		Error      string     `json:"error,omitempty"`
		DurationMS int64      `json:"duration_ms"`
		Console    string     `json:"console,omitempty"`
	}

	// WorkflowResult aggregates every collected StepResult in completion
	// order, the terminal workflow status, and the wall-clock duration of
	// the run. A failed run preserves the results of every step that ran
	WorkflowResult struct {
		WorkflowName    string         `json:"workflow_name"`
		Status          WorkflowStatus `json:"status"`
		Steps           []StepResult   `json:"steps"`
		TotalDurationMS int64          `json:"total_duration_ms"`
		Error           string         `json:"error,omitempty"`
	}
)

const (
	WorkflowCompleted WorkflowStatus = "completed"
	WorkflowFailed    WorkflowStatus = "failed"
)

const (
	StepSuccess StepStatus = "success"
	StepFailed  StepStatus = "failed"
)

// FailedSteps returns the results of every step that failed
func (r *WorkflowResult) FailedSteps() []StepResult {
	var failed []StepResult
	for _, step := range r.Steps {
		if step.Status == StepFailed {
			failed = append(failed, step)
		}
	}
	return failed
}

// StepResult returns the result for the named step, or nil when the step
// never produced one
func (r *WorkflowResult) StepResult(name Name) *StepResult {
	for i := range r.Steps {
		if r.Steps[i].Name == name {
			return &r.Steps[i]
		}
	}
	return nil
}
