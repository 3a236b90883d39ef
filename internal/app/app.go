package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"captionmux/internal/config"
	"captionmux/internal/deps"
	"captionmux/internal/engine"
	"captionmux/internal/events"
	"captionmux/internal/history"
	"captionmux/internal/intake"
	"captionmux/internal/logging"
	"captionmux/internal/pipeline"
	"captionmux/internal/present"
	"captionmux/internal/session"
	"captionmux/internal/workspace"
)

// Options adjusts assembly.
type Options struct {
	// Providers replaces the configured engine provider chain.
	Providers []engine.Provider
}

// App is an assembled captionmux process.
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Workspace *workspace.Workspace
	History   *history.Store
	Session   *session.Session

	providers []engine.Provider
	recipe    pipeline.Recipe
}

// Open prepares directories and builds the session. The engine is not loaded
// until LoadEngine.
func Open(cfg *config.Config, logger *slog.Logger, opts Options) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	ws, err := workspace.Open(cfg.Paths.WorkspaceDir)
	if err != nil {
		return nil, fmt.Errorf("open workspace: %w", err)
	}

	var store *history.Store
	if strings.TrimSpace(cfg.Paths.HistoryDB) != "" {
		store, err = history.Open(cfg.Paths.HistoryDB)
		if err != nil {
			return nil, fmt.Errorf("open history: %w", err)
		}
		closeInterrupted(store, ws, logger)
	}

	providers := opts.Providers
	if len(providers) == 0 {
		providers = engine.ProvidersFromConfig(cfg, ws, engine.WithLogger(logger))
	}

	sess := session.New(session.Options{
		Validator: intake.NewValidator(cfg.MaxVideoBytes()),
		Presenter: present.New(cfg.Paths.OutputDir, cfg.Subtitles.Language, logger),
		Bus:       events.NewBus(0),
		History:   store,
		Logger:    logger,
	})

	return &App{
		Config:    cfg,
		Logger:    logger,
		Workspace: ws,
		History:   store,
		Session:   sess,
		providers: providers,
		recipe:    pipeline.RecipeFromConfig(cfg.Subtitles),
	}, nil
}

// LoadEngine loads the engine provider chain into the session.
func (a *App) LoadEngine(ctx context.Context) error {
	return a.Session.LoadEngine(ctx, a.Workspace, a.recipe, a.providers...)
}

// Close shuts the session down and closes the history store.
func (a *App) Close(ctx context.Context) error {
	if a == nil {
		return nil
	}
	err := a.Session.Shutdown(ctx)
	if a.History != nil {
		if closeErr := a.History.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	return err
}

// LogDependencySnapshot records which engines are available at startup.
func LogDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.String("providers", strings.Join(cfg.Engine.Providers, ",")),
		logging.Int("max_video_mib", cfg.Limits.MaxVideoMiB),
	}
	for _, status := range deps.CheckEngines(cfg) {
		key := strings.ToLower(strings.ReplaceAll(status.Name, " ", "_"))
		attrs = append(attrs,
			logging.Bool(key+"_available", status.Available),
			logging.String(key+"_binary", status.Command),
		)
	}
	logger.Info("dependency snapshot", logging.Args(attrs...)...)
}

// closeInterrupted settles runs left "running" by a crashed process. Holding
// the workspace lock proves no other process is mid-run.
func closeInterrupted(store *history.Store, ws *workspace.Workspace, logger *slog.Logger) {
	release, err := ws.Acquire()
	if err != nil {
		return
	}
	defer release()
	n, err := store.CloseInterrupted(context.Background())
	if err != nil {
		logging.WarnWithContext(logger, "history cleanup failed", "history_cleanup_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "crashed runs stay marked running"),
			logging.String(logging.FieldErrorHint, "run captionmux history clear"),
		)
		return
	}
	if n > 0 {
		logger.Info("closed interrupted runs",
			logging.String(logging.FieldEventType, "history_interrupted_closed"),
			logging.Int64("runs", n),
		)
	}
}
