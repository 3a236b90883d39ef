package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrIO            = errors.New("io error")
	ErrNotReady      = errors.New("inputs not ready")
	ErrRunInProgress = errors.New("run in progress")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "pipeline failure"
	}
	return strings.Join(parts, ": ")
}

// Category is the user-facing class of a failed run.
type Category string

const (
	CategoryNone           Category = ""
	CategorySubtitleFormat Category = "subtitle_format"
	CategoryCodecIssue     Category = "codec_issue"
	CategoryGeneric        Category = "generic"
)

// diagnoser is implemented by engine errors that keep the engine's failure
// lines apart from their one-line message.
type diagnoser interface {
	Diagnostics() string
}

// Classify maps err onto a Category by keyword. The error text and any engine
// diagnostics in the chain are inspected; engine arguments never reach it.
// Subtitle keywords win over codec keywords.
func Classify(err error) Category {
	if err == nil {
		return CategoryNone
	}
	msg := strings.ToLower(err.Error())
	var d diagnoser
	if errors.As(err, &d) {
		msg += "\n" + strings.ToLower(d.Diagnostics())
	}
	switch {
	case strings.Contains(msg, "subtitle"), strings.Contains(msg, "caption"):
		return CategorySubtitleFormat
	case strings.Contains(msg, "mov_text"), strings.Contains(msg, "codec"):
		return CategoryCodecIssue
	default:
		return CategoryGeneric
	}
}

// Hint returns the remediation text shown with a failure of this category.
func (c Category) Hint() string {
	switch c {
	case CategorySubtitleFormat:
		return "Possible issues: the VTT file format might be incorrect, the file may be too complex, or the timestamps may be malformed. Try a simpler VTT file."
	case CategoryCodecIssue:
		return "Subtitle codec issue. The engine could not encode the caption track; try a different caption file or engine provider."
	case CategoryGeneric:
		return "Please try again with a different video or check the logs for details."
	default:
		return ""
	}
}

// Label returns a short human-readable name.
func (c Category) Label() string {
	switch c {
	case CategorySubtitleFormat:
		return "Subtitle format"
	case CategoryCodecIssue:
		return "Codec issue"
	case CategoryGeneric:
		return "Error"
	default:
		return ""
	}
}
