package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	glog "github.com/gin-contrib/slog"
	"github.com/gin-gonic/gin"

	"github.com/weftlabs/weft/internal/config"
	"github.com/weftlabs/weft/internal/engine"
	"github.com/weftlabs/weft/internal/events"
	"github.com/weftlabs/weft/internal/history"
	"github.com/weftlabs/weft/internal/util"
)

// Server implements the HTTP API for the workflow engine
type Server struct {
	engine  *engine.Engine
	hub     *events.Hub
	store   history.Store
	cfg     *config.Config
	sockets util.Set[*Client]
	mu      sync.Mutex
}

// New creates a new HTTP API server
func New(
	eng *engine.Engine, hub *events.Hub, store history.Store,
	cfg *config.Config,
) *Server {
	return &Server{
		engine:  eng,
		hub:     hub,
		store:   store,
		cfg:     cfg,
		sockets: util.Set[*Client]{},
	}
}

// SetupRoutes configures and returns the HTTP router with all API
// endpoints
func (s *Server) SetupRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(glog.SetLogger(
		glog.WithLogger(func(c *gin.Context, l *slog.Logger) *slog.Logger {
			return slog.Default()
		}),
	))

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set(
			"Access-Control-Allow-Methods", "GET, POST, OPTIONS",
		)
		c.Writer.Header().Set(
			"Access-Control-Allow-Headers", "Content-Type, Authorization",
		)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	})

	router.GET("/health", s.handleHealth)

	apiGroup := router.Group("/api")
	{
		apiGroup.GET("/workflows", s.listWorkflows)
		apiGroup.POST("/workflows/:name/run", s.runWorkflow)

		apiGroup.GET("/history", s.listHistory)
		apiGroup.GET("/history/:id", s.getRun)

		apiGroup.GET("/ws", s.handleWebSocket)
	}

	return router
}

// ListenAndServe runs the server until the context is cancelled
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.cfg.APIHost, s.cfg.APIPort),
		Handler: s.SetupRoutes(),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.CloseWebSockets()
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(), 10*time.Second,
		)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"languages": s.engine.Languages(),
	})
}

func (s *Server) registerWebSocket(client *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sockets.Add(client)
}

func (s *Server) unregisterWebSocket(client *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sockets.Remove(client)
}

// CloseWebSockets closes all active WebSocket connections
func (s *Server) CloseWebSockets() {
	s.mu.Lock()
	conns := make([]*Client, 0, s.sockets.Len())
	for client := range s.sockets {
		conns = append(conns, client)
	}
	s.mu.Unlock()

	for _, client := range conns {
		client.close()
	}
}
