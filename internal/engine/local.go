package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"captionmux/internal/deps"
	"captionmux/internal/logging"
	"captionmux/internal/workspace"
)

// LocalName identifies the local ffmpeg provider.
const LocalName = "local"

// probeTimeout bounds the version probe run while a provider opens.
const probeTimeout = 30 * time.Second

// Option customizes an adapter.
type Option func(*settings)

type settings struct {
	logger  *slog.Logger
	run     commandRunner
	timeout time.Duration
}

// WithLogger sets the adapter's logging destination.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithCommandRunner allows injecting a custom command runner for tests.
func WithCommandRunner(r commandRunner) Option {
	return func(s *settings) {
		if r != nil {
			s.run = r
		}
	}
}

// WithTimeout bounds each Execute call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) {
		s.timeout = d
	}
}

func applyOptions(opts []Option) settings {
	s := settings{run: defaultCommandRunner}
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}
	return s
}

// Local runs an ffmpeg binary on the host with the workspace as its working
// directory.
type Local struct {
	files
	binary string
	settings
}

// NewLocal constructs a local adapter for binary.
func NewLocal(ws *workspace.Workspace, binary string, opts ...Option) *Local {
	s := applyOptions(opts)
	s.logger = logging.NewComponentLogger(s.logger, "engine").With(logging.String(logging.FieldEngine, LocalName))
	return &Local{files: files{ws: ws}, binary: binary, settings: s}
}

// Name implements Adapter.
func (l *Local) Name() string { return LocalName }

// Binary returns the ffmpeg executable this adapter runs.
func (l *Local) Binary() string { return l.binary }

// Execute implements Adapter.
func (l *Local) Execute(ctx context.Context, args []string) error {
	l.logger.Debug("executing ffmpeg",
		logging.String("binary", l.binary),
		logging.Any("args", args),
	)
	return execute(ctx, l.run, LocalName, l.ws.Dir(), l.binary, args, l.timeout)
}

// Close implements Adapter.
func (l *Local) Close() error { return nil }

// probe verifies the binary actually starts.
func (l *Local) probe(ctx context.Context) error {
	return execute(ctx, l.run, LocalName, l.ws.Dir(), l.binary, []string{"-hide_banner", "-version"}, probeTimeout)
}

// LocalProvider resolves ffmpeg (sidecar first, then configured/PATH) and
// probes it before handing out an adapter.
func LocalProvider(ws *workspace.Workspace, configured string, opts ...Option) Provider {
	return Provider{
		Name: LocalName,
		Open: func(ctx context.Context) (Adapter, error) {
			status := deps.ResolveFFmpeg(configured)
			if !status.Available {
				return nil, errors.New(status.Detail)
			}
			adapter := NewLocal(ws, status.Command, opts...)
			if err := adapter.probe(ctx); err != nil {
				return nil, err
			}
			return adapter, nil
		},
	}
}
