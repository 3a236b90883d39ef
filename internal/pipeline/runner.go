package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"captionmux/internal/engine"
	"captionmux/internal/logging"
	"captionmux/internal/services"
	"captionmux/internal/workspace"
)

// Inputs are the bytes a run consumes.
type Inputs struct {
	RunID    string
	Video    []byte
	Captions string
}

// Artifact is the product of a successful run.
type Artifact struct {
	VideoBytes  []byte
	MIMEType    string
	CaptionText string
}

// Update reports a progress breakpoint.
type Update struct {
	Stage     Stage
	Percent   int
	Completed bool
}

// Observer receives progress breakpoints in order.
type Observer func(Update)

// RunError reports a failed run.
type RunError struct {
	Stage    Stage
	Category services.Category
	Err      error
}

func (e *RunError) Error() string {
	if e == nil || e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *RunError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Hint returns the remediation text for the failure category.
func (e *RunError) Hint() string {
	if e == nil {
		return ""
	}
	return e.Category.Hint()
}

// Runner executes runs against one engine adapter and workspace.
type Runner struct {
	engine engine.Adapter
	ws     *workspace.Workspace
	recipe Recipe
	logger *slog.Logger
}

// NewRunner constructs a runner.
func NewRunner(adapter engine.Adapter, ws *workspace.Workspace, recipe Recipe, logger *slog.Logger) *Runner {
	return &Runner{
		engine: adapter,
		ws:     ws,
		recipe: recipe,
		logger: logging.NewComponentLogger(logger, "pipeline"),
	}
}

// EngineName reports the provider the runner executes on.
func (r *Runner) EngineName() string {
	if r == nil || r.engine == nil {
		return ""
	}
	return r.engine.Name()
}

// runState tracks a single execution.
type runState struct {
	*Runner
	ctx     context.Context
	logger  *slog.Logger
	observe Observer
	percent int
}

// Run executes the full pipeline. On failure the error is a *RunError whose
// Stage names where the run stopped; a cancelled run's RunError unwraps to
// the context error and carries no category.
func (r *Runner) Run(ctx context.Context, in Inputs, observe Observer) (*Artifact, error) {
	if r == nil || r.engine == nil || r.ws == nil {
		return nil, &RunError{Stage: StagePreparing, Category: services.CategoryGeneric, Err: services.Wrap(services.ErrConfiguration, "", "run", "engine not loaded", nil)}
	}
	if observe == nil {
		observe = func(Update) {}
	}
	ctx = logging.WithRunID(ctx, in.RunID)
	run := &runState{Runner: r, ctx: ctx, logger: logging.WithContext(ctx, r.logger), observe: observe}

	release, err := r.ws.Acquire()
	if err != nil {
		marker := services.ErrIO
		if errors.Is(err, workspace.ErrBusy) {
			marker = services.ErrRunInProgress
		}
		return nil, &RunError{Stage: StagePreparing, Category: services.CategoryGeneric, Err: services.Wrap(marker, string(StagePreparing), "lock workspace", "", err)}
	}
	defer release()

	started := time.Now()
	if err := run.stage(StagePreparing, func() error { return run.prepare(in) }); err != nil {
		return nil, err
	}
	if err := run.stage(StageConvertingFormat, run.convert); err != nil {
		return nil, err
	}
	if err := run.stage(StageMerging, func() error { return nil }); err != nil {
		return nil, err
	}
	var artifact *Artifact
	if err := run.stage(StageFinalizing, func() error {
		var finalizeErr error
		artifact, finalizeErr = run.finalize(in)
		return finalizeErr
	}); err != nil {
		return nil, err
	}

	if err := r.ws.Remove(r.recipe.WorkspaceEntries()...); err != nil {
		logging.WarnWithContext(run.logger, "workspace cleanup failed", "workspace_cleanup_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "stale entries are removed before the next run"),
		)
	}
	run.logger.Info("run completed",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.String(logging.FieldEngine, r.engine.Name()),
		logging.Int("output_bytes", len(artifact.VideoBytes)),
		logging.Duration("elapsed", time.Since(started)),
	)
	return artifact, nil
}

func (run *runState) report(stage Stage, percent int, completed bool) {
	if percent < run.percent {
		percent = run.percent
	}
	run.percent = percent
	run.observe(Update{Stage: stage, Percent: percent, Completed: completed})
}

// stage brackets fn with enter/done breakpoints and failure wrapping.
func (run *runState) stage(stage Stage, fn func() error) error {
	if err := run.ctx.Err(); err != nil {
		return &RunError{Stage: stage, Err: err}
	}
	enter, done := stage.Progress()
	run.report(stage, enter, false)
	logger := logging.WithContext(logging.WithStage(run.ctx, string(stage)), run.Runner.logger)
	logger.Info("stage started", logging.String(logging.FieldEventType, "stage_start"))

	if err := fn(); err != nil {
		if ctxErr := run.ctx.Err(); ctxErr != nil {
			logger.Info("stage cancelled", logging.String(logging.FieldEventType, "stage_cancelled"))
			return &RunError{Stage: stage, Err: ctxErr}
		}
		var runErr *RunError
		if !errors.As(err, &runErr) {
			runErr = &RunError{Stage: stage, Category: services.CategoryGeneric, Err: err}
		}
		logging.ErrorWithContext(logger, "stage failed", "stage_failure",
			logging.String(logging.FieldErrorCategory, string(runErr.Category)),
			logging.String(logging.FieldErrorHint, runErr.Hint()),
			logging.Error(runErr.Err),
		)
		return runErr
	}
	run.report(stage, done, true)
	logger.Info("stage completed", logging.String(logging.FieldEventType, "stage_complete"))
	return nil
}

func (run *runState) prepare(in Inputs) error {
	if err := run.ws.Remove(run.recipe.WorkspaceEntries()...); err != nil {
		return services.Wrap(services.ErrIO, string(StagePreparing), "clear workspace", "", err)
	}
	if err := run.engine.WriteFile(InputName, in.Video); err != nil {
		return services.Wrap(services.ErrIO, string(StagePreparing), "write video", "", err)
	}
	if err := run.engine.WriteFile(CaptionsName, []byte(in.Captions)); err != nil {
		return services.Wrap(services.ErrIO, string(StagePreparing), "write captions", "", err)
	}
	return nil
}

// convert runs the primary recipe and, when it fails, exactly one fallback.
func (run *runState) convert() error {
	primaryErr := run.engine.Execute(run.ctx, run.recipe.ConvertArgs())
	if primaryErr == nil {
		primaryErr = run.engine.Execute(run.ctx, run.recipe.RemuxArgs(run.recipe.IntermediateName()))
	}
	if primaryErr == nil {
		return nil
	}
	if run.ctx.Err() != nil {
		return primaryErr
	}

	logging.WarnWithContext(run.logger, "primary remux failed, trying direct caption remux", "remux_fallback",
		logging.String(logging.FieldStage, string(StageConvertingFormat)),
		logging.String(logging.FieldErrorCategory, string(services.Classify(primaryErr))),
		logging.Error(primaryErr),
		logging.String(logging.FieldImpact, "captions are remuxed without format conversion"),
		logging.String(logging.FieldErrorHint, "inspect the caption file if the fallback also fails"),
	)

	fallbackErr := run.engine.Execute(run.ctx, run.recipe.RemuxArgs(CaptionsName))
	if fallbackErr == nil {
		return nil
	}
	if run.ctx.Err() != nil {
		return fallbackErr
	}
	return &RunError{
		Stage:    StageConvertingFormat,
		Category: services.Classify(fallbackErr),
		Err:      services.Wrap(services.ErrExternalTool, string(StageConvertingFormat), "remux", "", fallbackErr),
	}
}

func (run *runState) finalize(in Inputs) (*Artifact, error) {
	data, err := run.engine.ReadFile(OutputName)
	if err != nil {
		return nil, services.Wrap(services.ErrIO, string(StageFinalizing), "read output", "", err)
	}
	if len(data) == 0 {
		return nil, services.Wrap(services.ErrIO, string(StageFinalizing), "read output", fmt.Sprintf("%s is empty", OutputName), nil)
	}
	return &Artifact{
		VideoBytes:  data,
		MIMEType:    OutputMIME,
		CaptionText: in.Captions,
	}, nil
}
