package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeEngine()
	c.normalizeSubtitles()
	c.normalizeLogging()
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	c.Server.Token = strings.TrimSpace(c.Server.Token)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultServerBind
	}
	if c.Limits.MaxVideoMiB == 0 {
		c.Limits.MaxVideoMiB = defaultMaxVideoMiB
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkspaceDir) == "" {
		c.Paths.WorkspaceDir = defaultWorkspaceDir
	}
	if c.Paths.WorkspaceDir, err = expandPath(c.Paths.WorkspaceDir); err != nil {
		return fmt.Errorf("paths.workspace_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	// An empty history_db disables run history.
	if c.Paths.HistoryDB, err = expandPath(strings.TrimSpace(c.Paths.HistoryDB)); err != nil {
		return fmt.Errorf("paths.history_db: %w", err)
	}
	return nil
}

func (c *Config) normalizeEngine() {
	if value, ok := os.LookupEnv("CAPTIONMUX_FFMPEG"); ok && strings.TrimSpace(value) != "" {
		c.Engine.FFmpegBinary = strings.TrimSpace(value)
	}
	if value, ok := os.LookupEnv("CAPTIONMUX_ENGINE_IMAGE"); ok && strings.TrimSpace(value) != "" {
		c.Engine.ContainerImage = strings.TrimSpace(value)
	}
	c.Engine.FFmpegBinary = strings.TrimSpace(c.Engine.FFmpegBinary)
	if c.Engine.FFmpegBinary == "" {
		c.Engine.FFmpegBinary = defaultFFmpegBinary
	}
	c.Engine.ContainerRuntime = strings.TrimSpace(c.Engine.ContainerRuntime)
	if c.Engine.ContainerRuntime == "" {
		c.Engine.ContainerRuntime = defaultContainerRuntime
	}
	c.Engine.ContainerImage = strings.TrimSpace(c.Engine.ContainerImage)

	providers := make([]string, 0, len(c.Engine.Providers))
	seen := make(map[string]struct{}, len(c.Engine.Providers))
	for _, name := range c.Engine.Providers {
		normalized := strings.ToLower(strings.TrimSpace(name))
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		providers = append(providers, normalized)
	}
	if len(providers) == 0 {
		providers = []string{"local", "container"}
	}
	c.Engine.Providers = providers
}

func (c *Config) normalizeSubtitles() {
	c.Subtitles.Language = strings.ToLower(strings.TrimSpace(c.Subtitles.Language))
	if c.Subtitles.Language == "" {
		c.Subtitles.Language = defaultSubtitleLanguage
	}
	c.Subtitles.Title = strings.TrimSpace(c.Subtitles.Title)
	if c.Subtitles.Title == "" {
		c.Subtitles.Title = defaultSubtitleTitle
	}
	c.Subtitles.Codec = strings.ToLower(strings.TrimSpace(c.Subtitles.Codec))
	if c.Subtitles.Codec == "" {
		c.Subtitles.Codec = defaultSubtitleCodec
	}
	c.Subtitles.IntermediateFormat = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(c.Subtitles.IntermediateFormat), "."))
	if c.Subtitles.IntermediateFormat == "" {
		c.Subtitles.IntermediateFormat = defaultIntermediateFormat
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
