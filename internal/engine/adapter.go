package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"captionmux/internal/logging"
)

// Adapter is a loaded media engine bound to a workspace.
type Adapter interface {
	// Name identifies the provider that produced the adapter.
	Name() string
	WriteFile(name string, data []byte) error
	// Execute runs one engine invocation. A non-zero exit yields *ExecError.
	Execute(ctx context.Context, args []string) error
	ReadFile(name string) ([]byte, error)
	Close() error
}

// Provider is one way of obtaining an Adapter.
type Provider struct {
	Name string
	Open func(ctx context.Context) (Adapter, error)
}

// Status messages published while the engine loads.
const (
	MessageLoading  = "Loading media engine..."
	MessageFallback = "Primary engine unavailable, trying %s..."
	MessageReady    = "Media engine ready (%s)"
	MessageFatal    = "Failed to load media engine."
)

// LoadOptions configures Load.
type LoadOptions struct {
	Logger *slog.Logger
	// Notify receives human-readable load progress messages.
	Notify func(msg string)
}

// Load tries providers in order and returns the first adapter that opens.
// When every provider fails the error is an *InitError listing each failure.
func Load(ctx context.Context, opts LoadOptions, providers ...Provider) (Adapter, error) {
	logger := logging.NewComponentLogger(opts.Logger, "engine")
	notify := opts.Notify
	if notify == nil {
		notify = func(string) {}
	}

	notify(MessageLoading)
	initErr := &InitError{}
	for i, provider := range providers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if i > 0 {
			notify(fmt.Sprintf(MessageFallback, provider.Name))
		}
		if provider.Open == nil {
			initErr.Failures = append(initErr.Failures, ProviderFailure{Provider: provider.Name, Err: errors.New("provider has no opener")})
			continue
		}
		adapter, err := provider.Open(ctx)
		if err != nil {
			logging.WarnWithContext(logger, "engine provider unavailable", "engine_provider_failed",
				logging.String(logging.FieldEngine, provider.Name),
				logging.Error(err),
				logging.String(logging.FieldImpact, "falling back to next provider"),
				logging.String(logging.FieldErrorHint, "run captionmux deps to inspect engine availability"),
			)
			initErr.Failures = append(initErr.Failures, ProviderFailure{Provider: provider.Name, Err: err})
			continue
		}
		logger.Info("media engine loaded",
			logging.String(logging.FieldEventType, "engine_loaded"),
			logging.String(logging.FieldEngine, adapter.Name()),
		)
		notify(fmt.Sprintf(MessageReady, adapter.Name()))
		return adapter, nil
	}

	notify(MessageFatal)
	logging.ErrorWithContext(logger, "media engine unavailable", "engine_load_failed",
		logging.Error(initErr),
		logging.String(logging.FieldErrorHint, initErr.Instructions()),
	)
	return nil, initErr
}
