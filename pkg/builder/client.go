package builder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/weftlabs/weft/pkg/api"
)

type (
	// Client talks to a running engine over its HTTP API
	Client struct {
		httpClient *http.Client
		baseURL    string
	}

	// RunOptions selects the execution mode for a remote run. The zero
	// value runs sequentially with the server's defaults
	RunOptions struct {
		Mode           string `json:"mode,omitempty"`
		MaxConcurrency int    `json:"max_concurrency,omitempty"`
	}

	// WorkflowInfo describes one workflow available on the server
	WorkflowInfo struct {
		Name        string `json:"name"`
		Description string `json:"description,omitempty"`
		File        string `json:"file"`
		Steps       int    `json:"steps"`
		Error       string `json:"error,omitempty"`
	}

	// WorkflowList is the server's workflow listing
	WorkflowList struct {
		Workflows []*WorkflowInfo `json:"workflows"`
		Count     int             `json:"count"`
	}

	// RunReport is the recorded identity and result of a remote run
	RunReport struct {
		RunID string `json:"run_id"`
		api.WorkflowResult
	}

	// RunRecord is one entry of the server's run history
	RunRecord struct {
		ID        string              `json:"id"`
		Workflow  string              `json:"workflow"`
		Mode      string              `json:"mode"`
		StartedAt time.Time           `json:"started_at"`
		Result    *api.WorkflowResult `json:"result"`
	}

	// HistoryList is the server's recent-runs listing
	HistoryList struct {
		Runs  []*RunRecord `json:"runs"`
		Count int          `json:"count"`
	}
)

var (
	ErrListWorkflows = errors.New("failed to list workflows")
	ErrRunWorkflow   = errors.New("failed to run workflow")
	ErrListHistory   = errors.New("failed to list history")
	ErrGetRun        = errors.New("failed to get run")
)

const DefaultEngineURL = "http://localhost:8080"

// NewClient creates an API client for the engine at baseURL
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ListWorkflows fetches the workflows available on the server
func (c *Client) ListWorkflows(ctx context.Context) (*WorkflowList, error) {
	var result WorkflowList
	err := c.get(ctx, "/api/workflows", ErrListWorkflows, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// RunWorkflow executes the named workflow on the server and returns its
// recorded result. A nil opts runs sequentially with server defaults
func (c *Client) RunWorkflow(
	ctx context.Context, name string, opts *RunOptions,
) (*RunReport, error) {
	var body io.Reader
	if opts != nil {
		data, err := json.Marshal(opts)
		if err != nil {
			return nil, err
		}
		body = bytes.NewBuffer(data)
	}

	path := fmt.Sprintf("/api/workflows/%s/run", name)
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.baseURL+path, body,
	)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var result RunReport
	if err := c.do(req, ErrRunWorkflow, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// History fetches up to limit recent runs, newest first. A zero limit
// returns everything the server retains
func (c *Client) History(
	ctx context.Context, limit int,
) (*HistoryList, error) {
	path := "/api/history"
	if limit > 0 {
		path = fmt.Sprintf("%s?limit=%d", path, limit)
	}

	var result HistoryList
	if err := c.get(ctx, path, ErrListHistory, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetRun fetches a recorded run by ID
func (c *Client) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	var result RunRecord
	err := c.get(ctx, "/api/history/"+id, ErrGetRun, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) get(
	ctx context.Context, path string, wrap error, into any,
) error {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, c.baseURL+path, nil,
	)
	if err != nil {
		return err
	}
	return c.do(req, wrap, into)
}

func (c *Client) do(req *http.Request, wrap error, into any) error {
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", wrap, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: status %d, body: %s",
			wrap, resp.StatusCode, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(into)
}
