package session

import (
	"context"

	"captionmux/internal/events"
	"captionmux/internal/intake"
	"captionmux/internal/logging"
	"captionmux/internal/pipeline"
)

// Reset clears inputs, result and progress and cancels any run in flight.
// The cancelled run can no longer touch session state.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	cancelled := s.running
	if s.cancelRun != nil {
		s.cancelRun()
		s.cancelRun = nil
	}
	s.inputs = intake.InputSet{}
	s.running = false
	s.runID = ""
	s.runErr = nil
	s.lastErr = nil
	s.result = nil
	s.stage = pipeline.StageIdle
	s.percent = 0
	s.visible = false
	s.steps = pendingSteps()
	s.estimate = ""
	if s.presenter != nil {
		s.presenter.Release()
	}

	s.bus.Publish(events.Event{Type: events.TypeReset})
	s.setStatusLocked(events.StatusReady, MessageAfterReset, "")
	s.logger.Info("session reset",
		logging.String(logging.FieldEventType, "session_reset"),
		logging.Bool("cancelled_run", cancelled),
	)
}

// Shutdown cancels any run, waits for it to exit and closes the engine.
func (s *Session) Shutdown(ctx context.Context) error {
	s.stopAll()

	s.mu.Lock()
	done := s.active
	s.mu.Unlock()
	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.adapter == nil {
		return nil
	}
	err := s.adapter.Close()
	s.adapter = nil
	s.runner = nil
	return err
}
