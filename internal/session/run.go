package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"captionmux/internal/events"
	"captionmux/internal/history"
	"captionmux/internal/intake"
	"captionmux/internal/logging"
	"captionmux/internal/pipeline"
	"captionmux/internal/present"
	"captionmux/internal/services"
)

const historyTimeout = 5 * time.Second

// Start launches a run over the current inputs and returns its ID. It fails
// with services.ErrRunInProgress while a run is active and with
// services.ErrNotReady until both inputs are present.
//
// ctx bounds only the wait for a cancelled predecessor to exit; the run
// itself lives until it finishes, Reset cancels it, or Shutdown is called.
func (s *Session) Start(ctx context.Context) (string, error) {
	s.mu.Lock()
	if err := s.startableLocked(); err != nil {
		s.mu.Unlock()
		return "", err
	}
	previous := s.active
	s.mu.Unlock()

	// A run cancelled by Reset may still hold the workspace.
	if previous != nil {
		select {
		case <-previous:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	s.mu.Lock()
	if err := s.startableLocked(); err != nil {
		s.mu.Unlock()
		return "", err
	}
	s.generation++
	gen := s.generation
	runID := uuid.NewString()
	runCtx, cancel := context.WithCancel(s.baseCtx)
	done := make(chan struct{})
	inputs := s.inputs
	runner := s.runner

	s.running = true
	s.runID = runID
	s.cancelRun = cancel
	s.active = done
	s.runErr = nil
	s.lastErr = nil
	s.stage = pipeline.StageIdle
	s.percent = 0
	s.visible = true
	s.steps = pendingSteps()
	s.estimate = fmt.Sprintf("Processing video (%.1fMB)...", float64(inputs.Video.Size)/(1024*1024))
	s.publishProgressLocked()
	s.mu.Unlock()

	s.recordStart(runID, runner.EngineName(), inputs)
	logger := logging.WithContext(logging.WithRunID(runCtx, runID), s.logger)
	logger.Info("run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("video_name", inputs.Video.Name),
		logging.Int64("video_bytes", inputs.Video.Size),
		logging.Int("caption_bytes", len(inputs.Captions.Text)),
	)

	go s.execute(runCtx, cancel, done, gen, runID, runner, inputs)
	return runID, nil
}

func (s *Session) startableLocked() error {
	switch {
	case s.running:
		return services.Wrap(services.ErrRunInProgress, "", "start", "a run is already in progress", nil)
	case !s.inputs.IsReady():
		return services.Wrap(services.ErrNotReady, "", "start", "a video and captions are required", nil)
	case s.runner == nil:
		return services.Wrap(services.ErrConfiguration, "", "start", "media engine not loaded", nil)
	}
	return nil
}

// Wait blocks until the current run goroutine exits and returns its error.
func (s *Session) Wait(ctx context.Context) error {
	s.mu.Lock()
	done := s.active
	s.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runErr
}

func (s *Session) execute(ctx context.Context, cancel context.CancelFunc, done chan struct{}, gen uint64, runID string, runner *pipeline.Runner, inputs intake.InputSet) {
	defer close(done)
	defer cancel()

	observe := func(update pipeline.Update) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.generation != gen {
			return
		}
		s.applyUpdateLocked(update)
	}
	artifact, err := runner.Run(ctx, pipeline.Inputs{
		RunID:    runID,
		Video:    inputs.Video.Data,
		Captions: inputs.Captions.Text,
	}, observe)

	logger := logging.WithContext(logging.WithRunID(ctx, runID), s.logger)
	outcome := history.Outcome{}

	s.mu.Lock()
	switch {
	case s.generation != gen:
		logger.Info("stale run discarded", logging.String(logging.FieldEventType, "run_discarded"))
		outcome.Status = history.StatusCancelled
		outcome.Stage = string(stageOf(err))
	case err == nil:
		var handle *present.ViewHandle
		handle, err = s.presentLocked(runID, artifact)
		if err != nil {
			outcome = s.failLocked(runID, err)
			break
		}
		s.succeedLocked(handle)
		outcome.Status = history.StatusSucceeded
		outcome.Stage = string(pipeline.StageDone)
		outcome.OutputBytes = int64(len(artifact.VideoBytes))
	case errors.Is(err, context.Canceled):
		s.running = false
		s.cancelRun = nil
		s.runErr = err
		s.stage = pipeline.StageIdle
		s.visible = false
		s.estimate = ""
		s.setStatusLocked(events.StatusReady, MessageCancelled, "")
		outcome.Status = history.StatusCancelled
		outcome.Stage = string(stageOf(err))
	default:
		outcome = s.failLocked(runID, err)
	}
	s.mu.Unlock()

	s.recordFinish(runID, outcome)
}

func (s *Session) applyUpdateLocked(update pipeline.Update) {
	if update.Percent < s.percent {
		update.Percent = s.percent
	}
	s.stage = update.Stage
	s.percent = update.Percent
	s.visible = true
	if update.Completed {
		s.setStepLocked(update.Stage.Step(), StepCompleted)
		s.publishProgressLocked()
		return
	}
	s.setStepLocked(update.Stage.Step(), StepActive)
	s.publishProgressLocked()
	s.setStatusLocked(events.StatusLoading, update.Stage.Message(), "")
}

func (s *Session) presentLocked(runID string, artifact *pipeline.Artifact) (*present.ViewHandle, error) {
	if s.presenter == nil {
		return nil, nil
	}
	handle, err := s.presenter.Present(runID, artifact)
	if err != nil {
		return nil, &pipeline.RunError{
			Stage:    pipeline.StageFinalizing,
			Category: services.CategoryGeneric,
			Err:      services.Wrap(services.ErrIO, string(pipeline.StageFinalizing), "present output", "", err),
		}
	}
	return handle, nil
}

func (s *Session) succeedLocked(handle *present.ViewHandle) {
	s.running = false
	s.cancelRun = nil
	s.stage = pipeline.StageDone
	s.percent = 100
	s.result = handle
	s.estimate = EstimateComplete
	s.publishProgressLocked()
	s.setStatusLocked(events.StatusReady, pipeline.StageDone.Message(), "")
	s.bus.Publish(events.Event{RunID: s.runID, Type: events.TypeResult, Message: pipeline.StageDone.Message(), Visible: s.visible})
}

func (s *Session) failLocked(runID string, err error) history.Outcome {
	stage := stageOf(err)
	category := services.Classify(err)
	var runErr *pipeline.RunError
	if errors.As(err, &runErr) && runErr.Category != services.CategoryNone {
		category = runErr.Category
	}
	if category == services.CategoryNone {
		category = services.CategoryGeneric
	}
	info := &ErrorInfo{
		RunID:    runID,
		Stage:    stage,
		Category: category,
		Message:  err.Error(),
		Hint:     category.Hint(),
	}

	s.running = false
	s.cancelRun = nil
	s.runErr = err
	s.lastErr = info
	s.stage = pipeline.StageFailed
	s.visible = false
	s.estimate = EstimateFailed
	s.setStatusLocked(events.StatusError, "Error: "+info.Message, info.Hint)
	s.bus.Publish(events.Event{
		RunID:    runID,
		Type:     events.TypeError,
		Stage:    string(stage),
		Message:  info.Message,
		Category: string(category),
		Hint:     info.Hint,
	})

	return history.Outcome{
		Status:        history.StatusFailed,
		Stage:         string(stage),
		ErrorCategory: string(category),
		ErrorMessage:  info.Message,
	}
}

func stageOf(err error) pipeline.Stage {
	var runErr *pipeline.RunError
	if errors.As(err, &runErr) {
		return runErr.Stage
	}
	return pipeline.StageIdle
}

func (s *Session) recordStart(runID, engineName string, inputs intake.InputSet) {
	if s.history == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
	defer cancel()
	err := s.history.Start(ctx, history.Run{
		ID:           runID,
		Engine:       engineName,
		VideoName:    inputs.Video.Name,
		VideoBytes:   inputs.Video.Size,
		CaptionBytes: int64(len(inputs.Captions.Text)),
	})
	if err != nil {
		s.logger.Warn("history start failed",
			logging.String(logging.FieldEventType, "history_write_failed"),
			logging.String(logging.FieldRunID, runID),
			logging.Error(err),
			logging.String(logging.FieldImpact, "run will be missing from history"),
			logging.String(logging.FieldErrorHint, "check history_db permissions"),
		)
	}
}

func (s *Session) recordFinish(runID string, outcome history.Outcome) {
	if s.history == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
	defer cancel()
	if err := s.history.Finish(ctx, runID, outcome); err != nil {
		s.logger.Warn("history finish failed",
			logging.String(logging.FieldEventType, "history_write_failed"),
			logging.String(logging.FieldRunID, runID),
			logging.Error(err),
			logging.String(logging.FieldImpact, "run stays marked running until restart"),
			logging.String(logging.FieldErrorHint, "check history_db permissions"),
		)
	}
}
