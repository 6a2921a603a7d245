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

	"github.com/starford/kenaz-moc/internal/api"
	"github.com/starford/kenaz-moc/internal/index"
	"github.com/starford/kenaz-moc/internal/logging"
	"github.com/starford/kenaz-moc/internal/mcpserver"
	"github.com/starford/kenaz-moc/internal/mocservice"
	"github.com/starford/kenaz-moc/internal/sse"
	"github.com/starford/kenaz-moc/internal/storage"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{mode: ModeServe}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	if app.out == nil {
		app.out = os.Stdout
	}

	cfg := app.config

	// Only serve mode owns stdout; render and mcp write their payload there.
	var logOut io.Writer = os.Stdout
	if app.mode != ModeServe {
		logOut = os.Stderr
	}
	logger, err := logging.New(logOut, cfg.App.LogFormat, cfg.App.LogLevel)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("mode", app.mode),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("moc_output", cfg.MOC.Output),
		slog.Any("moc_folders", cfg.MOC.Folders),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure vault directory exists.
	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return fmt.Errorf("create vault dir: %w", err)
	}

	// Initialize storage.
	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	// Initialize SQLite index.
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	// Run initial sync.
	if err := index.Sync(db, store, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	svc := mocservice.NewService(store, db, cfg.MOC.ServiceConfig(), logger)

	switch app.mode {
	case ModeRender:
		res, err := svc.Render(ctx, app.folders)
		if err != nil {
			return fmt.Errorf("render: %w", err)
		}
		if _, err := io.WriteString(app.out, res.Markdown); err != nil {
			return fmt.Errorf("write render: %w", err)
		}
		logger.Info("MOC rendered", slog.String("render_id", res.RenderID), slog.Int("pages", res.Pages))
		return nil

	case ModePublish:
		if _, err := svc.Publish(ctx, ""); err != nil {
			return fmt.Errorf("publish: %w", err)
		}
		return nil

	case ModeMCP:
		return runMCP(ctx, cfg, svc, store, db, logger)

	case ModeServe:
		return serve(ctx, cfg, svc, store, db, logger)
	}
	return fmt.Errorf("unknown mode %q", app.mode)
}

// runMCP serves MCP over stdio while the watcher keeps the index fresh.
func runMCP(ctx context.Context, cfg *Config, svc *mocservice.Service, store storage.Provider, db *index.DB, logger *slog.Logger) error {
	srv := mcpserver.New(svc, store, db, cfg.MOC.AssetsDir)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := index.Watch(gCtx, db, store, logger, nil); err != nil {
			logger.Warn("watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})
	g.Go(func() error {
		defer stop()
		return srv.Listen(gCtx, os.Stdin, os.Stdout, logger)
	})
	return g.Wait()
}

func serve(ctx context.Context, cfg *Config, svc *mocservice.Service, store storage.Provider, db *index.DB, logger *slog.Logger) error {
	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	publisher := mocservice.NewPublisher(svc, cfg.MOC.Watch.Debounce, logger, broker.PublishMOCEvent)

	apiRouter := api.NewRouter(svc, api.RouterOptions{
		AuthEnabled: cfg.Auth.AuthEnabled(),
		Token:       cfg.Auth.Token,
		Events:      broker,
		VaultRoot:   store.Root(),
		AssetsDir:   cfg.MOC.AssetsDir,
		OnPublish:   broker.PublishMOCEvent,
	})

	// Build chi router.
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

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start file watcher; changes go to SSE clients and, when enabled, the publisher.
	g.Go(func() error {
		err := index.Watch(gCtx, db, store, logger, func(kind, path string) {
			broker.PublishNoteEvent(kind, path)
			if cfg.MOC.Watch.Enabled {
				publisher.Notify(path)
			}
		})
		if err != nil {
			logger.Error("watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

	// Publish once at startup so the note reflects edits made while stopped.
	if cfg.MOC.Watch.Enabled && svc.Output() != "" {
		publisher.Notify("")
		g.Go(func() error {
			return publisher.Run(gCtx)
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

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

// errShutdown cancels the group so the watcher and publisher stop with the server.
var errShutdown = errors.New("shutdown")
