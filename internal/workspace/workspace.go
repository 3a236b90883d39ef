package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

const lockName = ".captionmux.lock"

var (
	// ErrBusy reports that another run holds the workspace lock.
	ErrBusy = errors.New("workspace busy")
	// ErrInvalidName reports an entry name that would escape the workspace.
	ErrInvalidName = errors.New("invalid workspace entry name")
)

// Workspace is the engine's file namespace: a directory holding the fixed-name
// entries of a single run, guarded by an exclusive file lock.
type Workspace struct {
	dir  string
	lock *flock.Flock
}

// Open prepares dir for use as a workspace.
func Open(dir string) (*Workspace, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("workspace directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace %q: %w", dir, err)
	}
	return &Workspace{
		dir:  dir,
		lock: flock.New(filepath.Join(dir, lockName)),
	}, nil
}

// Dir returns the workspace root.
func (w *Workspace) Dir() string {
	return w.dir
}

// Acquire takes the exclusive run lock. The returned release func is safe to
// call more than once.
func (w *Workspace) Acquire() (func(), error) {
	ok, err := w.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire workspace lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s is locked by another run", ErrBusy, w.dir)
	}
	released := false
	return func() {
		if released {
			return
		}
		released = true
		_ = w.lock.Unlock()
	}, nil
}

// Path resolves an entry name to its absolute location.
func (w *Workspace) Path(name string) (string, error) {
	if name == "" || name == lockName || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(w.dir, name), nil
}

// WriteFile stores data under name, replacing any previous entry atomically.
func (w *Workspace) WriteFile(name string, data []byte) error {
	target, err := w.Path(name)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(w.dir, ".write-*")
	if err != nil {
		return fmt.Errorf("create temp entry: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("store %s: %w", name, err)
	}
	return nil
}

// ReadFile returns the contents of name.
func (w *Workspace) ReadFile(name string) ([]byte, error) {
	target, err := w.Path(name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(target)
}

// Remove deletes the named entries, ignoring ones that do not exist.
func (w *Workspace) Remove(names ...string) error {
	var errs []error
	for _, name := range names {
		target, err := w.Path(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
