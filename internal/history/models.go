package history

import "time"

// Status is the outcome of a recorded run.
type Status string

const (
	StatusRunning     Status = "running"
	StatusSucceeded   Status = "succeeded"
	StatusFailed      Status = "failed"
	StatusCancelled   Status = "cancelled"
	StatusInterrupted Status = "interrupted"
)

// Run is one recorded pipeline run.
type Run struct {
	ID            string
	Status        Status
	Stage         string
	Engine        string
	VideoName     string
	VideoBytes    int64
	CaptionBytes  int64
	OutputBytes   int64
	ErrorCategory string
	ErrorMessage  string
	StartedAt     time.Time
	FinishedAt    *time.Time
}

// Duration reports how long the run took, or zero while it is running.
func (r Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Outcome is the terminal update applied by Finish.
type Outcome struct {
	Status        Status
	Stage         string
	OutputBytes   int64
	ErrorCategory string
	ErrorMessage  string
}
