package server_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weftlabs/weft/internal/config"
	"github.com/weftlabs/weft/internal/engine"
	"github.com/weftlabs/weft/internal/events"
	"github.com/weftlabs/weft/internal/history"
	"github.com/weftlabs/weft/internal/runner"
	"github.com/weftlabs/weft/internal/server"
)

const addWorkflow = `
workflow = {
  name = "add",
  description = "adds two numbers",
  steps = {
    numbers = {
      language = "lua",
      code = [[
function run()
  return {a = 2, b = 3}
end
]]
    },
    sum = {
      depends_on = {"numbers"},
      language = "lua",
      code = [[
function run(inputs)
  return {total = inputs.numbers.a + inputs.numbers.b}
end
]]
    }
  }
}
`

type testEnv struct {
	router *gin.Engine
	dir    string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "add.lua"), []byte(addWorkflow), 0o644,
	))

	cfg := config.NewDefaultConfig()
	cfg.WorkflowDir = dir

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	eng := engine.New(runner.NewRegistry(), logger)
	hub := events.NewHub()
	t.Cleanup(hub.Close)
	store := history.NewMemoryStore(cfg.HistoryLimit)

	srv := server.New(eng, hub, store, cfg)
	return &testEnv{
		router: srv.SetupRoutes(),
		dir:    dir,
	}
}

func (e *testEnv) request(
	t *testing.T, method, path, body string,
) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var res map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return res
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	res := decodeJSON(t, w)
	assert.Equal(t, "ok", res["status"])
	assert.Contains(t, res["languages"], "lua")
}

func TestListWorkflows(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodGet, "/api/workflows", "")
	require.Equal(t, http.StatusOK, w.Code)

	res := decodeJSON(t, w)
	assert.Equal(t, float64(1), res["count"])

	workflows := res["workflows"].([]any)
	first := workflows[0].(map[string]any)
	assert.Equal(t, "add", first["name"])
	assert.Equal(t, "add.lua", first["file"])
	assert.Equal(t, float64(2), first["steps"])
}

func TestRunWorkflow(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodPost, "/api/workflows/add/run", "")
	require.Equal(t, http.StatusOK, w.Code)

	res := decodeJSON(t, w)
	assert.Equal(t, "add", res["workflow_name"])
	assert.Equal(t, "completed", res["status"])
	assert.NotEmpty(t, res["run_id"])

	steps := res["steps"].([]any)
	require.Len(t, steps, 2)
	last := steps[1].(map[string]any)
	assert.Equal(t, "sum", last["step_name"])
	assert.Equal(t, map[string]any{"total": float64(5)}, last["output"])
}

func TestRunWorkflowParallel(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(
		t, http.MethodPost, "/api/workflows/add/run",
		`{"mode": "parallel", "max_concurrency": 2}`,
	)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "completed", decodeJSON(t, w)["status"])
}

func TestRunWorkflowUnknownMode(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(
		t, http.MethodPost, "/api/workflows/add/run",
		`{"mode": "sideways"}`,
	)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRunWorkflowNotFound(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodPost, "/api/workflows/ghost/run", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRunRecordsHistory(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodPost, "/api/workflows/add/run", "")
	require.Equal(t, http.StatusOK, w.Code)
	runID := decodeJSON(t, w)["run_id"].(string)

	w = env.request(t, http.MethodGet, "/api/history", "")
	require.Equal(t, http.StatusOK, w.Code)
	res := decodeJSON(t, w)
	assert.Equal(t, float64(1), res["count"])

	w = env.request(t, http.MethodGet, "/api/history/"+runID, "")
	require.Equal(t, http.StatusOK, w.Code)
	run := decodeJSON(t, w)
	assert.Equal(t, "add", run["workflow"])
}

func TestGetRunNotFound(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodGet, "/api/history/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHistoryBadLimit(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodGet, "/api/history?limit=nope", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRunWorkflowReportsFailure(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.WriteFile(
		filepath.Join(env.dir, "broken.lua"), []byte(`
workflow = {
  name = "broken",
  steps = {
    boom = {
      language = "lua",
      code = "function run() error('nope') end"
    }
  }
}
`), 0o644))

	w := env.request(t, http.MethodPost, "/api/workflows/broken/run", "")
	require.Equal(t, http.StatusOK, w.Code)

	res := decodeJSON(t, w)
	assert.Equal(t, "failed", res["status"])
	assert.NotEmpty(t, res["error"])
}

func TestRunWorkflowBadDefinition(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.WriteFile(
		filepath.Join(env.dir, "bad.lua"), []byte("workflow = {"), 0o644,
	))

	w := env.request(t, http.MethodPost, "/api/workflows/bad/run", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
