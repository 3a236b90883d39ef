package engine

import (
	"captionmux/internal/config"
	"captionmux/internal/workspace"
)

// ProvidersFromConfig builds the provider list in configured order.
// Unknown names are skipped; config validation rejects them earlier.
func ProvidersFromConfig(cfg *config.Config, ws *workspace.Workspace, opts ...Option) []Provider {
	if cfg == nil {
		return nil
	}
	opts = append([]Option{WithTimeout(cfg.ExecTimeout())}, opts...)
	providers := make([]Provider, 0, len(cfg.Engine.Providers))
	for _, name := range cfg.Engine.Providers {
		switch name {
		case LocalName:
			providers = append(providers, LocalProvider(ws, cfg.FFmpegBinary(), opts...))
		case ContainerName:
			providers = append(providers, ContainerProvider(ws, cfg.Engine.ContainerRuntime, cfg.Engine.ContainerImage, cfg.Engine.ContainerPull, opts...))
		}
	}
	return providers
}
