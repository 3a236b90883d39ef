package testsupport

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"captionmux/internal/engine"
)

// ExecFunc scripts the outcome of one Execute call. call is zero-based.
type ExecFunc func(call int, args []string, files map[string][]byte) error

// FakeEngine is an in-memory engine.Adapter. Without an ExecFunc every
// command succeeds: the output file named by the last argument is written
// from the first input file, prefixed with "muxed:" when it is an mp4.
type FakeEngine struct {
	EngineName string
	Exec       ExecFunc
	WriteErrs  map[string]error
	ReadErrs   map[string]error
	// Gate, when set, holds every Execute until it is closed or ctx ends.
	Gate chan struct{}
	// Entered receives each call's args before Gate is consulted.
	Entered chan []string

	mu    sync.Mutex
	files map[string][]byte
	calls [][]string
}

// NewFakeEngine returns an engine that succeeds on every call.
func NewFakeEngine() *FakeEngine {
	return &FakeEngine{EngineName: "fake", files: make(map[string][]byte)}
}

// ExecFailure builds the error a failing engine command produces.
func ExecFailure(output string) error {
	return &engine.ExecError{Engine: "fake", Output: output, Err: errors.New("exit status 1")}
}

func (f *FakeEngine) Name() string { return f.EngineName }

func (f *FakeEngine) WriteFile(name string, data []byte) error {
	if err := f.WriteErrs[name]; err != nil {
		return &engine.IOError{Op: "write", Name: name, Err: err}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.files == nil {
		f.files = make(map[string][]byte)
	}
	f.files[name] = append([]byte(nil), data...)
	return nil
}

func (f *FakeEngine) ReadFile(name string) ([]byte, error) {
	if err := f.ReadErrs[name]; err != nil {
		return nil, &engine.IOError{Op: "read", Name: name, Err: err}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.files[name]
	if !ok {
		return nil, &engine.IOError{Op: "read", Name: name, Err: fs.ErrNotExist}
	}
	return append([]byte(nil), data...), nil
}

func (f *FakeEngine) Execute(ctx context.Context, args []string) error {
	f.mu.Lock()
	call := len(f.calls)
	f.calls = append(f.calls, append([]string(nil), args...))
	f.mu.Unlock()

	if f.Entered != nil {
		select {
		case f.Entered <- args:
		default:
		}
	}
	if f.Gate != nil {
		select {
		case <-f.Gate:
		case <-ctx.Done():
			return &engine.ExecError{Engine: f.EngineName, Args: args, Err: ctx.Err()}
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Exec != nil {
		if err := f.Exec(call, args, f.files); err != nil {
			return err
		}
		return nil
	}
	return f.defaultExec(args)
}

func (f *FakeEngine) defaultExec(args []string) error {
	if len(args) < 3 {
		return nil
	}
	input := ""
	for i := 0; i+1 < len(args); i++ {
		if args[i] == "-i" {
			input = args[i+1]
			break
		}
	}
	src, ok := f.files[input]
	if !ok {
		return ExecFailure(fmt.Sprintf("%s: No such file or directory", input))
	}
	output := args[len(args)-1]
	if strings.HasSuffix(output, ".mp4") {
		src = append([]byte("muxed:"), src...)
	}
	f.files[output] = append([]byte(nil), src...)
	return nil
}

func (f *FakeEngine) Close() error { return nil }

// Calls returns a copy of every Execute argument list seen so far.
func (f *FakeEngine) Calls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = append([]string(nil), c...)
	}
	return out
}

// File returns the current contents of a file in the fake workspace.
func (f *FakeEngine) File(name string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.files[name]
	return data, ok
}

var _ engine.Adapter = (*FakeEngine)(nil)
