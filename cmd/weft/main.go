package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	app "github.com/weftlabs/weft"
	"github.com/weftlabs/weft/internal/config"
	"github.com/weftlabs/weft/internal/engine"
	"github.com/weftlabs/weft/internal/events"
	"github.com/weftlabs/weft/internal/history"
	"github.com/weftlabs/weft/internal/loader"
	"github.com/weftlabs/weft/internal/runner"
	"github.com/weftlabs/weft/internal/server"
	"github.com/weftlabs/weft/pkg/api"
	"github.com/weftlabs/weft/pkg/log"
)

type weft struct {
	cfg    *config.Config
	engine *engine.Engine
	hub    *events.Hub
	store  history.Store
	quit   chan os.Signal

	serve    bool
	parallel bool
	maxConc  int
}

var ErrWorkflowFailed = errors.New("workflow failed")

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

func main() {
	cfg := config.NewDefaultConfig()
	if err := cfg.LoadFromEnv(); err != nil {
		slog.Error("Invalid configuration", log.Error(err))
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", log.Error(err))
		os.Exit(1)
	}

	w := &weft{
		cfg:  cfg,
		quit: make(chan os.Signal, 1),
	}
	w.parseFlags()
	w.setupLogging()

	if err := w.run(); err != nil {
		if !errors.Is(err, ErrWorkflowFailed) {
			slog.Error("Failed to start application", log.Error(err))
		}
		os.Exit(1)
	}
}

func (w *weft) parseFlags() {
	flag.BoolVar(&w.serve, "serve", false, "start the HTTP API server")
	flag.BoolVar(&w.parallel, "parallel", false,
		"execute independent steps concurrently")
	flag.IntVar(&w.maxConc, "max", w.cfg.MaxConcurrency,
		"bound on concurrent steps in parallel mode")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(),
			"Usage: %s [flags] <workflow.lua>\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
}

func (w *weft) run() error {
	w.engine = engine.New(runner.NewRegistry(), slog.Default())

	if w.serve {
		return w.runServer()
	}

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	return w.runWorkflow(flag.Arg(0))
}

func (w *weft) setupLogging() {
	level, ok := logLevels[w.cfg.LogLevel]
	if !ok {
		level = slog.LevelInfo
	}

	logger := log.NewWithLevel(app.Name, app.Version, level)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level)
}

func (w *weft) runWorkflow(path string) error {
	wf, err := loader.Load(path)
	if err != nil {
		return err
	}

	mode := engine.ModeSequential
	if w.parallel {
		mode = engine.ModeParallel
	}

	result := w.engine.Run(context.Background(), wf, &engine.Options{
		Mode:           mode,
		MaxConcurrency: w.maxConc,
	})

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))

	if result.Status == api.WorkflowFailed {
		return ErrWorkflowFailed
	}
	return nil
}

func (w *weft) runServer() error {
	slog.Info("Weft Engine starting",
		slog.String("log_level", w.cfg.LogLevel))

	slog.Info("Configuration loaded",
		slog.String("api_host", w.cfg.APIHost),
		slog.Int("api_port", w.cfg.APIPort),
		slog.String("workflow_dir", w.cfg.WorkflowDir),
		slog.String("redis_addr", w.cfg.RedisAddr),
		slog.Int("history_limit", w.cfg.HistoryLimit))

	w.hub = events.NewHub()
	defer w.hub.Close()

	w.store = history.NewStore(w.cfg)
	defer w.closeStore()

	srv := server.New(w.engine, w.hub, w.store, w.cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signal.Notify(w.quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(w.quit)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server starting",
			slog.String("host", w.cfg.APIHost),
			slog.Int("port", w.cfg.APIPort))
		errCh <- srv.ListenAndServe(ctx)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-w.quit:
		slog.Info("Shutting down")
		cancel()
		if err := <-errCh; err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			slog.Error("Shutdown failed", log.Error(err))
		}
	}

	slog.Info("Server exited")
	return nil
}

func (w *weft) closeStore() {
	if c, ok := w.store.(interface{ Close() error }); ok {
		_ = c.Close()
	}
}
