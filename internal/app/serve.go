package app

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"captionmux/internal/config"
	"captionmux/internal/logging"
	"captionmux/internal/server"
)

const shutdownTimeout = 10 * time.Second

// ServeOptions configures Serve.
type ServeOptions struct {
	Options
	// Ready, when set, receives the listening address once the API is up.
	Ready func(addr string)
}

// Serve runs the HTTP API until ctx ends or SIGINT/SIGTERM arrives. A failed
// engine load is not fatal: the session reports it on its status line.
func Serve(cmdCtx context.Context, cfg *config.Config, logger *slog.Logger, opts ServeOptions) error {
	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	LogDependencySnapshot(logger, cfg)

	a, err := Open(cfg, logger, opts.Options)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer closeCancel()
		if err := a.Close(closeCtx); err != nil {
			logger.Warn("shutdown incomplete",
				logging.String(logging.FieldEventType, "shutdown_incomplete"),
				logging.Error(err),
				logging.String(logging.FieldImpact, "engine resources may outlive the process"),
				logging.String(logging.FieldErrorHint, "remove leftover captionmux-* containers manually"),
			)
		}
	}()

	srv, err := server.New(server.Options{
		Bind:    cfg.Server.Bind,
		Token:   cfg.Server.Token,
		Session: a.Session,
		History: a.History,
		Logger:  logger,
	})
	if err != nil {
		return err
	}
	if err := srv.Start(signalCtx); err != nil {
		return fmt.Errorf("start api server: %w", err)
	}
	if opts.Ready != nil {
		opts.Ready(srv.Addr())
	}

	if err := a.LoadEngine(signalCtx); err != nil {
		logging.WarnWithContext(logger, "media engine unavailable", "engine_unavailable",
			logging.Error(err),
			logging.String(logging.FieldImpact, "runs are rejected until the engine is installed and captionmux restarts"),
			logging.String(logging.FieldErrorHint, "run captionmux deps"),
		)
	}

	<-signalCtx.Done()
	srv.Stop()
	logger.Info("captionmux server shutting down", logging.String(logging.FieldEventType, "server_shutdown"))
	return nil
}
