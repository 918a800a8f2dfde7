// Package history records completed workflow runs. Two stores exist:
// an in-memory ring for standalone use and a Redis-backed store for
// deployments that want history to survive the process. Neither is a
// checkpoint; a run only lands here after it terminates
package history

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/weftlabs/weft/internal/config"
	"github.com/weftlabs/weft/pkg/api"
)

type (
	// Run is one recorded workflow run
	Run struct {
		ID        string              `json:"id"`
		Workflow  string              `json:"workflow"`
		Mode      string              `json:"mode"`
		StartedAt time.Time           `json:"started_at"`
		Result    *api.WorkflowResult `json:"result"`
	}

	// Store persists runs, newest first
	Store interface {
		Record(ctx context.Context, run *Run) error
		Get(ctx context.Context, id string) (*Run, error)
		Recent(ctx context.Context, limit int) ([]*Run, error)
	}
)

var ErrRunNotFound = errors.New("run not found")

// NewRun stamps a recorded run with a fresh identifier
func NewRun(workflow, mode string, result *api.WorkflowResult) *Run {
	return &Run{
		ID:        uuid.New().String(),
		Workflow:  workflow,
		Mode:      mode,
		StartedAt: time.Now().UTC(),
		Result:    result,
	}
}

// NewStore selects a store from configuration: Redis when an address
// is configured, the in-memory ring otherwise
func NewStore(cfg *config.Config) Store {
	if cfg.RedisAddr == "" {
		return NewMemoryStore(cfg.HistoryLimit)
	}
	return NewRedisStore(cfg)
}
