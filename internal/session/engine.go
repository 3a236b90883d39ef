package session

import (
	"context"
	"errors"
	"fmt"

	"captionmux/internal/engine"
	"captionmux/internal/events"
	"captionmux/internal/logging"
	"captionmux/internal/pipeline"
	"captionmux/internal/workspace"
)

// LoadEngine loads the first available engine provider and binds a runner to
// it. The status line follows the load: loading while providers are tried,
// ready once one opens, error with install instructions when none does.
func (s *Session) LoadEngine(ctx context.Context, ws *workspace.Workspace, recipe pipeline.Recipe, providers ...engine.Provider) error {
	adapter, err := engine.Load(ctx, engine.LoadOptions{Logger: s.base, Notify: s.engineNotice}, providers...)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		hint := ""
		var initErr *engine.InitError
		if errors.As(err, &initErr) {
			hint = initErr.Instructions()
		}
		s.setStatusLocked(events.StatusError, engine.MessageFatal, hint)
		return err
	}

	if s.adapter != nil {
		if closeErr := s.adapter.Close(); closeErr != nil {
			s.logger.Warn("previous engine close failed",
				logging.String(logging.FieldEventType, "engine_close_failed"),
				logging.Error(closeErr),
				logging.String(logging.FieldImpact, "engine resources may leak until exit"),
				logging.String(logging.FieldErrorHint, "restart captionmux if container engines accumulate"),
			)
		}
	}
	s.adapter = adapter
	s.runner = pipeline.NewRunner(adapter, ws, recipe, s.base)
	s.setStatusLocked(events.StatusReady, fmt.Sprintf(engine.MessageReady, adapter.Name()), "")
	return nil
}

// SetRunner binds an already constructed runner.
func (s *Session) SetRunner(runner *pipeline.Runner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runner = runner
}

func (s *Session) engineNotice(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bus.Publish(events.Event{Type: events.TypeEngine, Message: msg})
	if msg == engine.MessageFatal {
		return
	}
	s.setStatusLocked(events.StatusLoading, msg, "")
}
