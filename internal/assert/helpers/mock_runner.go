package helpers

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/weftlabs/weft/internal/engine"
	"github.com/weftlabs/weft/internal/events"
	"github.com/weftlabs/weft/internal/runner"
	"github.com/weftlabs/weft/pkg/api"
)

// MockRunner is a scripted runner.Runner for tests that need exact
// control over step outcomes without touching a real interpreter
type MockRunner struct {
	responses map[api.Name]any
	errors    map[api.Name]error
	invoked   []api.Name
	inputs    map[api.Name][]api.Args
	mu        sync.Mutex
}

// MockLanguage is the language tag mock steps should declare
const MockLanguage = "mock"

// NewMockRunner creates a mock runner that allows setting outputs and
// errors per step name
func NewMockRunner() *MockRunner {
	return &MockRunner{
		responses: map[api.Name]any{},
		errors:    map[api.Name]error{},
		invoked:   []api.Name{},
		inputs:    map[api.Name][]api.Args{},
	}
}

// WithMockEnv creates an engine whose registry contains only the mock
// runner, registered under MockLanguage, and runs the test body
func WithMockEnv(t *testing.T, fn func(*TestEnv, *MockRunner)) {
	t.Helper()

	mock := NewMockRunner()
	registry := runner.NewEmptyRegistry()
	registry.Register(MockLanguage, mock)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := events.NewHub()
	defer hub.Close()

	fn(&TestEnv{
		Engine: engine.New(registry, logger),
		Hub:    hub,
	}, mock)
}

// Run records the invocation and returns the configured output or error
func (m *MockRunner) Run(
	_ context.Context, step *api.Step, inputs api.Args,
) (*runner.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.invoked = append(m.invoked, step.Name)
	m.inputs[step.Name] = append(m.inputs[step.Name], inputs)

	if err, ok := m.errors[step.Name]; ok {
		return nil, err
	}
	return &runner.Result{Output: m.responses[step.Name]}, nil
}

// SetResponse configures the output a step produces
func (m *MockRunner) SetResponse(name api.Name, output any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[name] = output
}

// SetError configures a step to fail
func (m *MockRunner) SetError(name api.Name, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[name] = err
}

// Invocations returns the step names that ran, in completion order
func (m *MockRunner) Invocations() []api.Name {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]api.Name, len(m.invoked))
	copy(result, m.invoked)
	return result
}

// WasInvoked reports whether the named step ran
func (m *MockRunner) WasInvoked(name api.Name) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.invoked {
		if n == name {
			return true
		}
	}
	return false
}

// LastInputs returns the most recent input snapshot the named step
// received, or nil when it never ran
func (m *MockRunner) LastInputs(name api.Name) api.Args {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := m.inputs[name]
	if len(entries) == 0 {
		return nil
	}
	return entries[len(entries)-1]
}

// MockStep creates a step bound to the mock runner
func MockStep(name api.Name, deps ...api.Name) *api.Step {
	return &api.Step{
		Name:      name,
		Language:  MockLanguage,
		Code:      "scripted",
		DependsOn: deps,
	}
}
