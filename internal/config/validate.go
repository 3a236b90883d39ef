package config

import (
	"errors"
	"fmt"
	"strings"
)

var knownProviders = map[string]struct{}{
	"local":     {},
	"container": {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateEngine(); err != nil {
		return err
	}
	if err := c.validateLimits(); err != nil {
		return err
	}
	if err := c.validateSubtitles(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateEngine() error {
	if len(c.Engine.Providers) == 0 {
		return errors.New("engine.providers must list at least one provider")
	}
	for _, name := range c.Engine.Providers {
		if _, ok := knownProviders[name]; !ok {
			return fmt.Errorf("engine.providers: unsupported provider %q (use local or container)", name)
		}
		if name == "container" && c.Engine.ContainerImage == "" {
			return errors.New("engine.container_image must be set when the container provider is enabled")
		}
	}
	if c.Engine.ExecTimeoutSeconds < 0 {
		return errors.New("engine.exec_timeout_seconds must not be negative")
	}
	return nil
}

func (c *Config) validateLimits() error {
	if c.Limits.MaxVideoMiB <= 0 {
		return errors.New("limits.max_video_mib must be positive")
	}
	return nil
}

func (c *Config) validateSubtitles() error {
	if strings.ContainsAny(c.Subtitles.Language, " =") {
		return fmt.Errorf("subtitles.language: invalid value %q", c.Subtitles.Language)
	}
	switch c.Subtitles.IntermediateFormat {
	case "srt", "ass":
	default:
		return fmt.Errorf("subtitles.intermediate_format: unsupported value %q", c.Subtitles.IntermediateFormat)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
