package api

import "time"

type (
	// EventType identifies a step or workflow lifecycle event
	EventType string

	// Event is a lifecycle notification emitted by the engine while a
	// workflow runs. Events are produced by the scheduler only, in
	// dispatch/completion order
	Event struct {
		Type       EventType  `json:"type"`
		Workflow   string     `json:"workflow"`
		Step       Name       `json:"step,omitempty"`
		Language   string     `json:"language,omitempty"`
		Level      int        `json:"level,omitempty"`
		Status     StepStatus `json:"status,omitempty"`
		Error      string     `json:"error,omitempty"`
		DurationMS int64      `json:"duration_ms,omitempty"`
		Timestamp  time.Time  `json:"timestamp"`
	}
)

const (
	EventWorkflowStarted  EventType = "workflow_started"
	EventWorkflowFinished EventType = "workflow_finished"
	EventStepStarted      EventType = "step_started"
	EventStepCompleted    EventType = "step_completed"
	EventStepFailed       EventType = "step_failed"
)
