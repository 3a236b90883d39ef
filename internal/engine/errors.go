package engine

import (
	"errors"
	"fmt"
	"strings"
)

// maxOutputBytes bounds how much engine output an ExecError retains.
const maxOutputBytes = 8 << 10

// ExecError reports a non-zero engine exit. Output holds the tail of the
// engine's combined stdout/stderr.
type ExecError struct {
	Engine string
	Args   []string
	Output string
	Err    error
}

// Error omits Args. Remux arguments always name codecs, and callers classify
// failures on this text.
func (e *ExecError) Error() string {
	if e == nil {
		return ""
	}
	msg := fmt.Sprintf("%s engine: %v", e.Engine, e.Err)
	if out := lastLine(e.Output); out != "" {
		msg += ": " + out
	}
	return msg
}

// diagnosticMarkers pick out ffmpeg's failure lines. Stream listings such as
// "Stream #1:0: Subtitle: webvtt" appear in every run and carry none of them.
var diagnosticMarkers = []string{
	"error", "fail", "could not", "cannot", "can't", "invalid", "unknown",
	"not supported", "unsupported", "unable", "no such",
}

// Diagnostics returns the lines of Output that report a failure, oldest
// first. ffmpeg names the codec or stream at fault well before its closing
// "Conversion failed!" line.
func (e *ExecError) Diagnostics() string {
	if e == nil || e.Output == "" {
		return ""
	}
	var lines []string
	for _, line := range strings.Split(e.Output, "\n") {
		line = strings.TrimSpace(line)
		lower := strings.ToLower(line)
		for _, marker := range diagnosticMarkers {
			if strings.Contains(lower, marker) {
				lines = append(lines, line)
				break
			}
		}
	}
	return strings.Join(lines, "\n")
}

func (e *ExecError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IOError reports a failed workspace read or write.
type IOError struct {
	Op   string
	Name string
	Err  error
}

func (e *IOError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Name, e.Err)
}

func (e *IOError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ProviderFailure records why a provider could not initialize.
type ProviderFailure struct {
	Provider string
	Err      error
}

// InitError reports that no provider could initialize the engine.
type InitError struct {
	Failures []ProviderFailure
}

func (e *InitError) Error() string {
	if e == nil {
		return ""
	}
	if len(e.Failures) == 0 {
		return "media engine unavailable: no providers configured"
	}
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s: %v", f.Provider, f.Err))
	}
	return "media engine unavailable (" + strings.Join(parts, "; ") + ")"
}

func (e *InitError) Unwrap() []error {
	if e == nil {
		return nil
	}
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}

// Instructions returns the remediation text shown with a fatal load failure.
func (e *InitError) Instructions() string {
	return "Install ffmpeg on PATH (or next to the captionmux binary), or install docker/podman so the container engine can run, then try again."
}

// IsExecError reports whether err carries an engine exit failure.
func IsExecError(err error) bool {
	var execErr *ExecError
	return errors.As(err, &execErr)
}

func tailOutput(out []byte) string {
	if len(out) > maxOutputBytes {
		out = out[len(out)-maxOutputBytes:]
	}
	return strings.TrimSpace(string(out))
}

func lastLine(out string) string {
	out = strings.TrimSpace(out)
	if idx := strings.LastIndexByte(out, '\n'); idx >= 0 {
		out = out[idx+1:]
	}
	return strings.TrimSpace(out)
}
