package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"captionmux/internal/engine"
	"captionmux/internal/events"
	"captionmux/internal/history"
	"captionmux/internal/intake"
	"captionmux/internal/logging"
	"captionmux/internal/pipeline"
	"captionmux/internal/present"
)

// Status messages outside the pipeline stages.
const (
	MessageReadyForInput = "Ready to process videos."
	MessageAfterReset    = "Ready to process another video!"
	MessageCancelled     = "Processing cancelled."
	EstimateComplete     = "Processing complete"
	EstimateFailed       = "Processing failed"
)

// Options configures a Session.
type Options struct {
	Validator *intake.Validator
	Presenter *present.Presenter
	Bus       *events.Bus
	// History is optional.
	History *history.Store
	Logger  *slog.Logger
	// Runner may be nil until LoadEngine succeeds.
	Runner *pipeline.Runner
}

// Session is the process-wide interactive session.
type Session struct {
	id        string
	validator *intake.Validator
	presenter *present.Presenter
	bus       *events.Bus
	history   *history.Store
	base      *slog.Logger
	logger    *slog.Logger
	baseCtx   context.Context
	stopAll   context.CancelFunc

	mu         sync.Mutex
	adapter    engine.Adapter
	runner     *pipeline.Runner
	inputs     intake.InputSet
	status     Status
	stage      pipeline.Stage
	percent    int
	visible    bool
	steps      []Step
	estimate   string
	running    bool
	runID      string
	generation uint64
	cancelRun  context.CancelFunc
	active     chan struct{}
	runErr     error
	lastErr    *ErrorInfo
	result     *present.ViewHandle
}

// New constructs a session.
func New(opts Options) *Session {
	bus := opts.Bus
	if bus == nil {
		bus = events.NewBus(0)
	}
	validator := opts.Validator
	if validator == nil {
		validator = intake.NewValidator(50 << 20)
	}
	baseCtx, stopAll := context.WithCancel(context.Background())
	s := &Session{
		id:        uuid.NewString(),
		validator: validator,
		presenter: opts.Presenter,
		bus:       bus,
		history:   opts.History,
		base:      opts.Logger,
		logger:    logging.NewComponentLogger(opts.Logger, "session"),
		baseCtx:   baseCtx,
		stopAll:   stopAll,
		runner:    opts.Runner,
		stage:     pipeline.StageIdle,
		steps:     pendingSteps(),
		status:    Status{Kind: events.StatusReady, Message: MessageReadyForInput},
	}
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Bus returns the bus the session publishes on.
func (s *Session) Bus() *events.Bus {
	return s.bus
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		SessionID:       s.id,
		Status:          s.status,
		Stage:           s.stage,
		Percent:         s.percent,
		ProgressVisible: s.visible,
		Steps:           append([]Step(nil), s.steps...),
		Estimate:        s.estimate,
		Running:         s.running,
		TriggerEnabled:  s.triggerEnabledLocked(),
		RunID:           s.runID,
		Inputs:          s.inputs.Info(),
	}
	if s.runner != nil {
		snap.Engine = s.runner.EngineName()
	}
	if s.lastErr != nil {
		copied := *s.lastErr
		snap.LastError = &copied
	}
	if s.result != nil {
		copied := *s.result
		snap.Result = &copied
	}
	return snap
}

// TriggerEnabled reports whether Start would be accepted.
func (s *Session) TriggerEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.triggerEnabledLocked()
}

func (s *Session) triggerEnabledLocked() bool {
	return s.inputs.IsReady() && !s.running
}

// Result returns the presented handle, if any.
func (s *Session) Result() *present.ViewHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return nil
	}
	copied := *s.result
	return &copied
}

func (s *Session) setStatusLocked(kind events.StatusKind, message, hint string) {
	s.status = Status{Kind: kind, Message: message, Hint: hint}
	s.bus.Publish(events.Event{
		RunID:   s.runID,
		Type:    events.TypeStatus,
		Kind:    kind,
		Message: message,
		Hint:    hint,
		Visible: s.visible,
	})
}

func (s *Session) publishProgressLocked() {
	s.bus.Publish(events.Event{
		RunID:   s.runID,
		Type:    events.TypeProgress,
		Stage:   string(s.stage),
		Percent: s.percent,
		Visible: s.visible,
	})
}

func (s *Session) setStepLocked(number int, state StepState) {
	for i := range s.steps {
		if s.steps[i].Number == number {
			s.steps[i].State = state
		}
	}
	s.bus.Publish(events.Event{
		RunID:     s.runID,
		Type:      events.TypeStep,
		Step:      number,
		StepState: string(state),
		Visible:   s.visible,
	})
}
