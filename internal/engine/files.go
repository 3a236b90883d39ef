package engine

import (
	"captionmux/internal/workspace"
)

// files maps the adapter's file contract onto a workspace.
type files struct {
	ws *workspace.Workspace
}

func (f files) WriteFile(name string, data []byte) error {
	if err := f.ws.WriteFile(name, data); err != nil {
		return &IOError{Op: "write", Name: name, Err: err}
	}
	return nil
}

func (f files) ReadFile(name string) ([]byte, error) {
	data, err := f.ws.ReadFile(name)
	if err != nil {
		return nil, &IOError{Op: "read", Name: name, Err: err}
	}
	return data, nil
}
