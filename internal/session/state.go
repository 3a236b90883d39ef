package session

import (
	"captionmux/internal/events"
	"captionmux/internal/intake"
	"captionmux/internal/pipeline"
	"captionmux/internal/present"
	"captionmux/internal/services"
)

// StepState is the indicator state of one pipeline step.
type StepState string

const (
	StepPending   StepState = "pending"
	StepActive    StepState = "active"
	StepCompleted StepState = "completed"
)

// Step is one entry of the four-step indicator.
type Step struct {
	Number int       `json:"number"`
	Label  string    `json:"label"`
	State  StepState `json:"state"`
}

// Status is the session's status line.
type Status struct {
	Kind    events.StatusKind `json:"kind"`
	Message string            `json:"message"`
	Hint    string            `json:"hint,omitempty"`
}

// ErrorInfo describes the last failed run.
type ErrorInfo struct {
	RunID    string            `json:"run_id"`
	Stage    pipeline.Stage    `json:"stage"`
	Category services.Category `json:"category"`
	Message  string            `json:"message"`
	Hint     string            `json:"hint"`
}

// Snapshot is a point-in-time copy of the session for display.
type Snapshot struct {
	SessionID       string              `json:"session_id"`
	Engine          string              `json:"engine,omitempty"`
	Status          Status              `json:"status"`
	Stage           pipeline.Stage      `json:"stage"`
	Percent         int                 `json:"percent"`
	ProgressVisible bool                `json:"progress_visible"`
	Steps           []Step              `json:"steps"`
	Estimate        string              `json:"estimate,omitempty"`
	Running         bool                `json:"running"`
	TriggerEnabled  bool                `json:"trigger_enabled"`
	RunID           string              `json:"run_id,omitempty"`
	Inputs          intake.Info         `json:"inputs"`
	LastError       *ErrorInfo          `json:"last_error,omitempty"`
	Result          *present.ViewHandle `json:"result,omitempty"`
}

func pendingSteps() []Step {
	steps := make([]Step, 0, len(pipeline.WorkingStages))
	for _, stage := range pipeline.WorkingStages {
		steps = append(steps, Step{Number: stage.Step(), Label: stage.Label(), State: StepPending})
	}
	return steps
}
