package pipeline

// Stage is a pipeline state.
type Stage string

const (
	StageIdle             Stage = "idle"
	StagePreparing        Stage = "preparing"
	StageConvertingFormat Stage = "converting_format"
	StageMerging          Stage = "merging"
	StageFinalizing       Stage = "finalizing"
	StageDone             Stage = "done"
	StageFailed           Stage = "failed"
)

// WorkingStages lists the stages a run passes through, in order.
var WorkingStages = []Stage{StagePreparing, StageConvertingFormat, StageMerging, StageFinalizing}

type stageInfo struct {
	step    int
	enter   int
	done    int
	label   string
	message string
}

var stageTable = map[Stage]stageInfo{
	StagePreparing:        {step: 1, enter: 15, done: 30, label: "Preparing files", message: "Processing video..."},
	StageConvertingFormat: {step: 2, enter: 45, done: 60, label: "Converting subtitle format", message: "Converting subtitle format..."},
	StageMerging:          {step: 3, enter: 75, done: 90, label: "Merging subtitles", message: "Merging subtitles with video..."},
	StageFinalizing:       {step: 4, enter: 95, done: 100, label: "Finalizing output", message: "Finalizing video..."},
	StageDone:             {done: 100, message: "Video processed successfully!"},
}

// Step returns the 1-based step number of a working stage, or 0.
func (s Stage) Step() int {
	return stageTable[s].step
}

// Progress returns the percentages reported on entering and completing s.
func (s Stage) Progress() (enter, done int) {
	info := stageTable[s]
	return info.enter, info.done
}

// Label names the step shown in the step indicator.
func (s Stage) Label() string {
	return stageTable[s].label
}

// Message is the status line shown while s is active.
func (s Stage) Message() string {
	return stageTable[s].message
}

// Working reports whether s is one of the run's active stages.
func (s Stage) Working() bool {
	return s.Step() > 0
}

// Terminal reports whether s ends a run.
func (s Stage) Terminal() bool {
	return s == StageDone || s == StageFailed
}

func (s Stage) String() string {
	return string(s)
}
