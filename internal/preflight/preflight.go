package preflight

import (
	"context"

	"captionmux/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Workspace directory", cfg.Paths.WorkspaceDir))
	// input, intermediate captions and output can coexist in the workspace
	results = append(results, CheckFreeSpace(ctx, "Workspace free space", cfg.Paths.WorkspaceDir, uint64(cfg.MaxVideoBytes())*2))
	results = append(results, CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir))

	return results
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}
