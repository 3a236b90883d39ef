package services_test

import (
	"errors"
	"strings"
	"testing"

	"captionmux/internal/engine"
	"captionmux/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "converting_format", "remux", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"converting_format", "remux", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected default marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "pipeline failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want services.Category
	}{
		{name: "nil", err: nil, want: services.CategoryNone},
		{name: "subtitle", err: errors.New("Error while decoding Subtitle stream"), want: services.CategorySubtitleFormat},
		{name: "caption", err: errors.New("caption track invalid"), want: services.CategorySubtitleFormat},
		{name: "subtitle beats codec", err: errors.New("subtitle codec 94213 is not supported"), want: services.CategorySubtitleFormat},
		{name: "mov_text", err: errors.New("Unknown encoder 'mov_text'"), want: services.CategoryCodecIssue},
		{name: "codec", err: errors.New("Could not find codec parameters"), want: services.CategoryCodecIssue},
		{name: "generic", err: errors.New("exit status 1: moov atom not found"), want: services.CategoryGeneric},
		{
			name: "engine diagnostics",
			err: services.Wrap(services.ErrExternalTool, "converting_format", "remux", "", &engine.ExecError{
				Engine: "local",
				Output: "Could not find tag for codec webvtt in stream #2\nConversion failed!",
				Err:    errors.New("exit status 1"),
			}),
			want: services.CategoryCodecIssue,
		},
		{
			name: "stream listing ignored",
			err: &engine.ExecError{
				Engine: "local",
				Output: "Stream #1:0: Subtitle: webvtt\ninput.mp4: moov atom not found",
				Err:    errors.New("exit status 1"),
			},
			want: services.CategoryGeneric,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := services.Classify(tt.err)
			if got != tt.want {
				t.Fatalf("Classify = %q, want %q", got, tt.want)
			}
			if tt.want != services.CategoryNone && got.Hint() == "" {
				t.Fatal("expected hint for non-empty category")
			}
		})
	}
}
