// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/ansuz/internal/api"
	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/llm"
	"github.com/starford/ansuz/internal/mcpserver"
	"github.com/starford/ansuz/internal/noteservice"
	"github.com/starford/ansuz/internal/pipeline"
	"github.com/starford/ansuz/internal/retry"
	"github.com/starford/ansuz/internal/sse"
	"github.com/starford/ansuz/internal/storage"
)

// Version is reported by the MCP server and the CLI.
const Version = "0.1.0"

// stack is the wired set of components shared by every entry point.
type stack struct {
	logger *slog.Logger
	store  *storage.FS
	db     *index.DB
	svc    *noteservice.Service
}

func (s *stack) Close() error {
	return s.db.Close()
}

func newApplication(opts []Option) (*application, error) {
	app := &application{out: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// setup builds storage, index, model client and the pipeline. Logs go to
// stderr so stdout stays free for MCP and CLI output.
func (a *application) setup(ctx context.Context, progress noteservice.Progress) (*stack, error) {
	cfg := a.config

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("model", cfg.Model.Name),
		slog.Int("max_retries", cfg.Retry.MaxRetries),
		slog.String("log_level", cfg.App.LogLevel.String()))

	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	model := a.model
	if model == nil {
		gemini, err := llm.NewGemini(ctx, cfg.Model.APIKey, cfg.Model.Name)
		if err != nil {
			return nil, fmt.Errorf("init model: %w", err)
		}
		model = gemini
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	if err := index.Sync(db, store, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	caller := retry.New(cfg.Retry.Policy())
	pipe := pipeline.New(store, model, caller, cfg.PipelineSettings(),
		pipeline.WithTitles(db),
		pipeline.WithRunLog(db),
		pipeline.WithLogger(logger),
	)

	svc := noteservice.NewService(store, db, pipe, progress, logger)

	return &stack{logger: logger, store: store, db: db, svc: svc}, nil
}

// Run starts the HTTP server, the vault watcher and the SSE broker.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	st, err := app.setup(ctx, broker)
	if err != nil {
		return err
	}
	defer st.Close()
	logger := st.logger

	apiRouter := api.NewRouter(st.svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := index.Watch(gCtx, st.db, st.store, st.store.Root(), logger, broker.PublishVaultEvent); err != nil {
			logger.Warn("vault watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the watcher exits with the server.
var errShutdown = errors.New("shutdown")

// ServeMCP exposes the pipeline as MCP tools on stdin/stdout.
func ServeMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	st, err := app.setup(ctx, nil)
	if err != nil {
		return err
	}
	defer st.Close()

	st.logger.Info("Starting MCP server on stdio")
	return mcpserver.New(st.svc, Version).ServeStdio()
}

// CreatePlan runs plan creation once for sourcePath and prints progress.
func CreatePlan(ctx context.Context, sourcePath string, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	st, err := app.setup(ctx, nil)
	if err != nil {
		return err
	}
	defer st.Close()

	res, err := st.svc.CreatePlan(ctx, sourcePath, printer(app.out))
	if err != nil {
		return err
	}
	fmt.Fprintf(app.out, "Plan: %s\n", res.Path)
	if res.DraftPath != "" {
		fmt.Fprintf(app.out, "Draft template: %s\n", res.DraftPath)
	}
	return nil
}

// GenerateNotes runs note generation once for planPath and prints a summary.
func GenerateNotes(ctx context.Context, planPath string, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	st, err := app.setup(ctx, nil)
	if err != nil {
		return err
	}
	defer st.Close()

	sum, err := st.svc.GenerateNotes(ctx, planPath, printer(app.out))
	if sum != nil {
		for _, f := range sum.Failed {
			fmt.Fprintf(app.out, "FAILED %s: %s\n", f.Title, f.Error)
		}
	}
	return err
}

func printer(w io.Writer) pipeline.Reporter {
	return pipeline.ReporterFunc(func(msg string) {
		fmt.Fprintln(w, msg)
	})
}
