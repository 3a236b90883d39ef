//go:build unix

package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"captionmux/internal/workspace"
)

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestLocalExecuteRunsInWorkspace(t *testing.T) {
	ws, err := workspace.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	bin := writeScript(t, t.TempDir(), "ffmpeg", `printf '%s' "$*" > output.mp4`)
	adapter := NewLocal(ws, bin)

	if err := adapter.Execute(context.Background(), []string{"-i", "input.mp4"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	data, err := adapter.ReadFile("output.mp4")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "-i input.mp4" {
		t.Fatalf("unexpected output %q", data)
	}
}

func TestLocalExecuteCapturesOutput(t *testing.T) {
	ws, err := workspace.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	bin := writeScript(t, t.TempDir(), "ffmpeg", "echo 'Subtitle encoding currently only possible from text to text' >&2\nexit 1")
	adapter := NewLocal(ws, bin)

	err = adapter.Execute(context.Background(), []string{"-i", "captions.vtt", "captions.srt"})
	var execErr *ExecError
	if !errors.As(err, &execErr) {
		t.Fatalf("expected ExecError, got %v", err)
	}
	if execErr.Output != "Subtitle encoding currently only possible from text to text" {
		t.Fatalf("unexpected output %q", execErr.Output)
	}
}

func TestLocalExecuteCancelKillsProcessGroup(t *testing.T) {
	ws, err := workspace.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	bin := writeScript(t, t.TempDir(), "ffmpeg", "sleep 30 &\nwait")
	adapter := NewLocal(ws, bin)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)
	start := time.Now()
	err = adapter.Execute(ctx, []string{"-i", "input.mp4"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Fatalf("cancel took %s", elapsed)
	}
}

func TestLocalExecuteTimeout(t *testing.T) {
	ws, err := workspace.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	bin := writeScript(t, t.TempDir(), "ffmpeg", "sleep 30")
	adapter := NewLocal(ws, bin, WithTimeout(100*time.Millisecond))

	err = adapter.Execute(context.Background(), nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestLocalProviderProbesBinary(t *testing.T) {
	ws, err := workspace.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	good := writeScript(t, t.TempDir(), "ffmpeg", "exit 0")
	adapter, err := LocalProvider(ws, good).Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if adapter.(*Local).Binary() != good {
		t.Fatalf("expected %q, got %q", good, adapter.(*Local).Binary())
	}

	broken := writeScript(t, t.TempDir(), "ffmpeg", "exit 3")
	if _, err := LocalProvider(ws, broken).Open(context.Background()); err == nil {
		t.Fatal("expected failing probe to reject the provider")
	}
}

func TestContainerProviderPullsImage(t *testing.T) {
	ws, err := workspace.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	runtimePath := writeScript(t, t.TempDir(), "docker", "exit 0")
	var calls [][]string
	runner := func(_ context.Context, _ string, _ string, args ...string) ([]byte, error) {
		calls = append(calls, args)
		return nil, nil
	}
	provider := ContainerProvider(ws, runtimePath, "img:1", true, WithCommandRunner(runner))
	adapter, err := provider.Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if adapter.Name() != ContainerName {
		t.Fatalf("unexpected adapter %q", adapter.Name())
	}
	if len(calls) != 1 || strings.Join(calls[0], " ") != "pull img:1" {
		t.Fatalf("expected a single pull, got %q", calls)
	}
}
