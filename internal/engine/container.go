package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/google/uuid"

	"captionmux/internal/logging"
	"captionmux/internal/workspace"
)

// ContainerName identifies the container provider.
const ContainerName = "container"

// containerWorkdir is where the workspace is mounted inside the container.
const containerWorkdir = "/work"

// Container runs the engine image through docker or podman with the
// workspace bind-mounted as the working directory.
type Container struct {
	files
	runtime string
	image   string
	settings
}

// NewContainer constructs a container adapter.
func NewContainer(ws *workspace.Workspace, runtime, image string, opts ...Option) *Container {
	s := applyOptions(opts)
	s.logger = logging.NewComponentLogger(s.logger, "engine").With(logging.String(logging.FieldEngine, ContainerName))
	return &Container{files: files{ws: ws}, runtime: runtime, image: image, settings: s}
}

// Name implements Adapter.
func (c *Container) Name() string { return ContainerName }

// Execute implements Adapter.
func (c *Container) Execute(ctx context.Context, args []string) error {
	name := "captionmux-" + uuid.NewString()
	runArgs := c.runArgs(name, args)
	c.logger.Debug("executing ffmpeg container",
		logging.String("container", name),
		logging.String("image", c.image),
		logging.Any("args", args),
	)
	err := execute(ctx, c.run, ContainerName, c.ws.Dir(), c.runtime, runArgs, c.timeout)
	if err != nil && (ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded)) {
		// killing the client does not always stop the container itself
		c.remove(name)
	}
	if execErr, ok := err.(*ExecError); ok {
		execErr.Args = append([]string(nil), args...)
	}
	return err
}

func (c *Container) runArgs(name string, args []string) []string {
	out := []string{"run", "--rm", "--name", name,
		"-v", c.ws.Dir() + ":" + containerWorkdir,
		"-w", containerWorkdir,
	}
	if uid, gid := os.Getuid(), os.Getgid(); uid >= 0 && gid >= 0 {
		out = append(out, "--user", strconv.Itoa(uid)+":"+strconv.Itoa(gid))
	}
	out = append(out, c.image)
	return append(out, args...)
}

func (c *Container) remove(name string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := c.run(ctx, c.ws.Dir(), c.runtime, "rm", "-f", name); err != nil {
		logging.WarnWithContext(c.logger, "failed to remove cancelled container", "container_cleanup_failed",
			logging.String("container", name),
			logging.Error(err),
			logging.String(logging.FieldImpact, "container may keep running until ffmpeg exits"),
			logging.String(logging.FieldErrorHint, fmt.Sprintf("%s rm -f %s", c.runtime, name)),
		)
	}
}

// Close implements Adapter.
func (c *Container) Close() error { return nil }

// prepare makes sure the image is present, pulling it when configured.
func (c *Container) prepare(ctx context.Context, pull bool) error {
	args := []string{"image", "inspect", c.image}
	if pull {
		args = []string{"pull", c.image}
	}
	return execute(ctx, c.run, ContainerName, c.ws.Dir(), c.runtime, args, 0)
}

// ContainerProvider opens the container engine when runtime is installed and
// the image is available.
func ContainerProvider(ws *workspace.Workspace, runtime, image string, pull bool, opts ...Option) Provider {
	return Provider{
		Name: ContainerName,
		Open: func(ctx context.Context) (Adapter, error) {
			resolved, err := exec.LookPath(runtime)
			if err != nil {
				return nil, fmt.Errorf("container runtime %q not found: %w", runtime, err)
			}
			adapter := NewContainer(ws, resolved, image, opts...)
			if err := adapter.prepare(ctx, pull); err != nil {
				return nil, fmt.Errorf("prepare image %s: %w", image, err)
			}
			return adapter, nil
		},
	}
}
