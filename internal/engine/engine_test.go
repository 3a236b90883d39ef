package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"captionmux/internal/config"
	"captionmux/internal/workspace"
)

type stubAdapter struct {
	name string
}

func (s stubAdapter) Name() string                            { return s.name }
func (s stubAdapter) WriteFile(string, []byte) error          { return nil }
func (s stubAdapter) Execute(context.Context, []string) error { return nil }
func (s stubAdapter) ReadFile(string) ([]byte, error)         { return nil, nil }
func (s stubAdapter) Close() error                            { return nil }

func TestLoadFirstSuccessWins(t *testing.T) {
	errLocal := errors.New("ffmpeg missing")
	thirdCalled := false
	var messages []string

	adapter, err := Load(context.Background(), LoadOptions{Notify: func(msg string) { messages = append(messages, msg) }},
		Provider{Name: "local", Open: func(context.Context) (Adapter, error) { return nil, errLocal }},
		Provider{Name: "container", Open: func(context.Context) (Adapter, error) { return stubAdapter{name: "container"}, nil }},
		Provider{Name: "third", Open: func(context.Context) (Adapter, error) {
			thirdCalled = true
			return stubAdapter{name: "third"}, nil
		}},
	)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if adapter.Name() != "container" {
		t.Fatalf("expected container adapter, got %q", adapter.Name())
	}
	if thirdCalled {
		t.Fatal("expected providers after the first success to be skipped")
	}
	want := []string{MessageLoading, "Primary engine unavailable, trying container...", "Media engine ready (container)"}
	if strings.Join(messages, "|") != strings.Join(want, "|") {
		t.Fatalf("unexpected messages %q", messages)
	}
}

func TestLoadCollectsFailures(t *testing.T) {
	errLocal := errors.New("ffmpeg missing")
	errContainer := errors.New("docker missing")
	var last string

	_, err := Load(context.Background(), LoadOptions{Notify: func(msg string) { last = msg }},
		Provider{Name: "local", Open: func(context.Context) (Adapter, error) { return nil, errLocal }},
		Provider{Name: "container", Open: func(context.Context) (Adapter, error) { return nil, errContainer }},
	)
	var initErr *InitError
	if !errors.As(err, &initErr) {
		t.Fatalf("expected InitError, got %v", err)
	}
	if len(initErr.Failures) != 2 {
		t.Fatalf("expected 2 failures, got %d", len(initErr.Failures))
	}
	if !errors.Is(err, errLocal) || !errors.Is(err, errContainer) {
		t.Fatalf("expected both causes to unwrap, got %v", err)
	}
	if last != MessageFatal {
		t.Fatalf("expected fatal message last, got %q", last)
	}
	if initErr.Instructions() == "" {
		t.Fatal("expected remediation text")
	}
}

func TestLoadNoProviders(t *testing.T) {
	_, err := Load(context.Background(), LoadOptions{})
	var initErr *InitError
	if !errors.As(err, &initErr) {
		t.Fatalf("expected InitError, got %v", err)
	}
}

func TestExecErrorOmitsArgs(t *testing.T) {
	ws, err := workspace.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	runner := func(context.Context, string, string, ...string) ([]byte, error) {
		return []byte("frame=0\nError initializing output stream: unsupported codec"), errors.New("exit status 1")
	}
	adapter := NewLocal(ws, "ffmpeg", WithCommandRunner(runner))

	err = adapter.Execute(context.Background(), []string{"-i", "input.mp4", "-c:s", "mov_text", "output.mp4"})
	var execErr *ExecError
	if !errors.As(err, &execErr) {
		t.Fatalf("expected ExecError, got %v", err)
	}
	if strings.Contains(err.Error(), "mov_text") || strings.Contains(err.Error(), "input.mp4") {
		t.Fatalf("error message leaks args: %q", err.Error())
	}
	if !strings.Contains(err.Error(), "unsupported codec") {
		t.Fatalf("expected last output line in message, got %q", err.Error())
	}
	if len(execErr.Args) != 5 || execErr.Engine != LocalName {
		t.Fatalf("unexpected ExecError fields %#v", execErr)
	}
}

func TestFilesWrapIOErrors(t *testing.T) {
	ws, err := workspace.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	adapter := NewLocal(ws, "ffmpeg")
	_, err = adapter.ReadFile("output.mp4")
	var ioErr *IOError
	if !errors.As(err, &ioErr) || ioErr.Op != "read" {
		t.Fatalf("expected read IOError, got %v", err)
	}
	if err := adapter.WriteFile("../escape", []byte("x")); !errors.As(err, &ioErr) || ioErr.Op != "write" {
		t.Fatalf("expected write IOError, got %v", err)
	}
}

func TestContainerRunArgs(t *testing.T) {
	ws, err := workspace.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	var gotName string
	var gotArgs []string
	runner := func(_ context.Context, dir, name string, args ...string) ([]byte, error) {
		if dir != ws.Dir() {
			t.Errorf("expected dir %q, got %q", ws.Dir(), dir)
		}
		gotName = name
		gotArgs = args
		return nil, nil
	}
	adapter := NewContainer(ws, "podman", "example/ffmpeg:7", WithCommandRunner(runner))
	if err := adapter.Execute(context.Background(), []string{"-i", "captions.vtt", "captions.srt"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if gotName != "podman" {
		t.Fatalf("expected podman, got %q", gotName)
	}
	joined := strings.Join(gotArgs, " ")
	if !strings.HasPrefix(joined, "run --rm --name captionmux-") {
		t.Fatalf("unexpected run prefix %q", joined)
	}
	if !strings.Contains(joined, "-v "+ws.Dir()+":/work -w /work") {
		t.Fatalf("expected workspace mount in %q", joined)
	}
	if !strings.HasSuffix(joined, "example/ffmpeg:7 -i captions.vtt captions.srt") {
		t.Fatalf("expected image followed by engine args, got %q", joined)
	}
}

func TestContainerRemovedOnCancel(t *testing.T) {
	ws, err := workspace.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	var calls [][]string
	runner := func(_ context.Context, _ string, _ string, args ...string) ([]byte, error) {
		calls = append(calls, args)
		if args[0] == "run" {
			cancel()
			return []byte("killed"), errors.New("signal: killed")
		}
		return nil, nil
	}
	adapter := NewContainer(ws, "docker", "img", WithCommandRunner(runner))
	err = adapter.Execute(ctx, []string{"-version"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(calls) != 2 {
		t.Fatalf("expected run then rm, got %q", calls)
	}
	name := calls[0][3]
	if !strings.HasPrefix(name, "captionmux-") {
		t.Fatalf("unexpected container name %q", name)
	}
	if got := strings.Join(calls[1], " "); got != "rm -f "+name {
		t.Fatalf("expected forced removal of %s, got %q", name, got)
	}
}

func TestContainerProviderMissingRuntime(t *testing.T) {
	t.Setenv("PATH", "")
	ws, err := workspace.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	provider := ContainerProvider(ws, "definitely-not-docker", "img", false)
	if _, err := provider.Open(context.Background()); err == nil {
		t.Fatal("expected missing runtime to fail")
	}
}

func TestProvidersFromConfigOrder(t *testing.T) {
	ws, err := workspace.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	cfg := config.Default()
	cfg.Engine.Providers = []string{"container", "local"}
	providers := ProvidersFromConfig(&cfg, ws)
	if len(providers) != 2 || providers[0].Name != ContainerName || providers[1].Name != LocalName {
		t.Fatalf("unexpected provider order %#v", providers)
	}
}

func TestExecErrorDiagnostics(t *testing.T) {
	execErr := &ExecError{
		Engine: LocalName,
		Output: strings.Join([]string{
			"Input #1, webvtt, from 'captions.vtt':",
			"  Stream #1:0: Subtitle: webvtt",
			"[srt @ 0x1] Invalid timestamp in cue 3",
			"  Stream #1:0 -> #0:0 (webvtt (native) -> subrip (srt))",
			"Error while decoding stream #1:0: Invalid data found when processing input",
			"Conversion failed!",
		}, "\n"),
		Err: errors.New("exit status 1"),
	}
	want := "[srt @ 0x1] Invalid timestamp in cue 3\n" +
		"Error while decoding stream #1:0: Invalid data found when processing input\n" +
		"Conversion failed!"
	if got := execErr.Diagnostics(); got != want {
		t.Fatalf("Diagnostics() = %q, want %q", got, want)
	}
	if got := (&ExecError{Engine: LocalName, Err: errors.New("exit status 1")}).Diagnostics(); got != "" {
		t.Fatalf("expected no diagnostics without output, got %q", got)
	}
}
