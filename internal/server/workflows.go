package server

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/weftlabs/weft/internal/engine"
	"github.com/weftlabs/weft/internal/history"
	"github.com/weftlabs/weft/internal/loader"
	"github.com/weftlabs/weft/pkg/api"
)

type (
	workflowListResponse struct {
		Workflows []*loader.Info `json:"workflows"`
		Count     int            `json:"count"`
	}

	runRequest struct {
		Mode           string `json:"mode"`
		MaxConcurrency int    `json:"max_concurrency"`
	}

	runResponse struct {
		RunID string `json:"run_id"`
		*api.WorkflowResult
	}
)

var (
	ErrListWorkflows    = errors.New("failed to list workflows")
	ErrWorkflowNotFound = errors.New("workflow not found")
	ErrInvalidJSON      = errors.New("invalid request body")
	ErrRecordRun        = errors.New("failed to record run")
)

func (s *Server) listWorkflows(c *gin.Context) {
	infos, err := loader.List(s.cfg.WorkflowDir)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{
			Error:  fmt.Sprintf("%s: %v", ErrListWorkflows, err),
			Status: http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, workflowListResponse{
		Workflows: infos,
		Count:     len(infos),
	})
}

func (s *Server) runWorkflow(c *gin.Context) {
	name := c.Param("name")
	path := filepath.Join(s.cfg.WorkflowDir, name+".lua")
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, api.ErrorResponse{
			Error:  fmt.Sprintf("%s: %s", ErrWorkflowNotFound, name),
			Status: http.StatusNotFound,
		})
		return
	}

	req := runRequest{MaxConcurrency: s.cfg.MaxConcurrency}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{
				Error:  fmt.Sprintf("%s: %v", ErrInvalidJSON, err),
				Status: http.StatusBadRequest,
			})
			return
		}
	}

	wf, err := loader.Load(path)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{
			Error:  err.Error(),
			Status: http.StatusBadRequest,
		})
		return
	}

	mode := engine.ModeSequential
	switch engine.Mode(req.Mode) {
	case "", engine.ModeSequential:
	case engine.ModeParallel:
		mode = engine.ModeParallel
	default:
		c.JSON(http.StatusBadRequest, api.ErrorResponse{
			Error:  fmt.Sprintf("%s: unknown mode %q", ErrInvalidJSON, req.Mode),
			Status: http.StatusBadRequest,
		})
		return
	}

	opts := &engine.Options{
		Mode:           mode,
		MaxConcurrency: req.MaxConcurrency,
		Notify:         s.hub.Publish,
	}
	result := s.engine.Run(c.Request.Context(), wf, opts)

	run := history.NewRun(wf.Name, string(opts.Mode), result)
	if err := s.store.Record(c.Request.Context(), run); err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{
			Error:  fmt.Sprintf("%s: %v", ErrRecordRun, err),
			Status: http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, runResponse{
		RunID:          run.ID,
		WorkflowResult: result,
	})
}
