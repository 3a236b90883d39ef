package engine

import (
	"context"
	"os/exec"
	"time"
)

// commandRunner executes name with args in dir and returns combined output.
type commandRunner func(ctx context.Context, dir, name string, args ...string) ([]byte, error)

// killGrace bounds how long Wait keeps reading output after a cancel kill.
const killGrace = 5 * time.Second

func defaultCommandRunner(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	configureProcessGroup(cmd)
	cmd.WaitDelay = killGrace
	return cmd.CombinedOutput()
}

// execute runs one engine invocation and folds failures into ExecError.
func execute(ctx context.Context, run commandRunner, engineName, dir, bin string, args []string, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	out, err := run(ctx, dir, bin, args...)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = ctxErr
	}
	return &ExecError{
		Engine: engineName,
		Args:   append([]string(nil), args...),
		Output: tailOutput(out),
		Err:    err,
	}
}
