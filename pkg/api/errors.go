package api

import "errors"

// Graph errors are fatal to the whole run and detected before any step
// executes; step errors surface per-step and trigger the fail-level rule
var (
	ErrEmptyWorkflow     = errors.New("workflow has no steps")
	ErrUnknownDependency = errors.New("unknown dependency")
	ErrSelfDependency    = errors.New("step cannot depend on itself")
	ErrCycleDetected     = errors.New("circular dependency detected")

	ErrUnknownLanguage = errors.New("unsupported step language")
	ErrExecutorFailure = errors.New("step execution failed")
	ErrInvalidPayload  = errors.New("invalid step payload")
)
