package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"captionmux/internal/config"
)

// Requirement defines an external dependency captionmux relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, len(requirements))
	for i, req := range requirements {
		results[i] = checkBinary(req)
	}
	return results
}

func checkBinary(req Requirement) Status {
	status := Status{
		Name:        req.Name,
		Command:     strings.TrimSpace(req.Command),
		Description: strings.TrimSpace(req.Description),
		Optional:    req.Optional,
	}
	if status.Command == "" {
		status.Detail = "command not configured"
		return status
	}
	if _, err := exec.LookPath(status.Command); err != nil {
		status.Detail = fmt.Sprintf("binary %q not found", status.Command)
		return status
	}
	status.Available = true
	return status
}

// CheckEngines reports every engine dependency named by the configured
// provider order. A provider later in the order is optional as long as an
// earlier one is available.
func CheckEngines(cfg *config.Config) []Status {
	if cfg == nil {
		return nil
	}
	var results []Status
	for i, provider := range cfg.Engine.Providers {
		var status Status
		switch provider {
		case "local":
			status = ResolveFFmpeg(cfg.FFmpegBinary())
		case "container":
			status = checkBinary(Requirement{
				Name:        "Container runtime",
				Command:     cfg.Engine.ContainerRuntime,
				Description: fmt.Sprintf("Engine image %s", cfg.Engine.ContainerImage),
			})
		default:
			continue
		}
		status.Optional = i > 0
		results = append(results, status)
	}
	return results
}
