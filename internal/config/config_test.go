package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"captionmux/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("CAPTIONMUX_FFMPEG", "")
	t.Setenv("CAPTIONMUX_ENGINE_IMAGE", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantWorkspace := filepath.Join(tempHome, ".local", "share", "captionmux", "workspace")
	if cfg.Paths.WorkspaceDir != wantWorkspace {
		t.Fatalf("unexpected workspace dir: got %q want %q", cfg.Paths.WorkspaceDir, wantWorkspace)
	}
	if cfg.MaxVideoBytes() != 50*1024*1024 {
		t.Fatalf("unexpected video cap: %d", cfg.MaxVideoBytes())
	}
	if got := strings.Join(cfg.Engine.Providers, ","); got != "local,container" {
		t.Fatalf("unexpected provider order: %q", got)
	}
	if cfg.Subtitles.Codec != "mov_text" {
		t.Fatalf("unexpected subtitle codec: %q", cfg.Subtitles.Codec)
	}
	if cfg.Subtitles.Title != "English Subtitles" {
		t.Fatalf("unexpected subtitle title: %q", cfg.Subtitles.Title)
	}
	if cfg.FFmpegBinary() != "ffmpeg" {
		t.Fatalf("unexpected ffmpeg binary: %q", cfg.FFmpegBinary())
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.WorkspaceDir, cfg.Paths.OutputDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "captionmux.toml")

	type payload struct {
		Engine struct {
			Providers    []string `toml:"providers"`
			FFmpegBinary string   `toml:"ffmpeg_binary"`
		} `toml:"engine"`
		Limits struct {
			MaxVideoMiB int `toml:"max_video_mib"`
		} `toml:"limits"`
		Subtitles struct {
			Language string `toml:"language"`
		} `toml:"subtitles"`
	}
	custom := payload{}
	custom.Engine.Providers = []string{" Local ", "local"}
	custom.Engine.FFmpegBinary = "/opt/ffmpeg/bin/ffmpeg"
	custom.Limits.MaxVideoMiB = 10
	custom.Subtitles.Language = "ES"

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("CAPTIONMUX_FFMPEG", "")
	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected custom config to be used, got %q exists=%v", resolved, exists)
	}
	if len(cfg.Engine.Providers) != 1 || cfg.Engine.Providers[0] != "local" {
		t.Fatalf("expected providers to be deduplicated, got %v", cfg.Engine.Providers)
	}
	if cfg.FFmpegBinary() != "/opt/ffmpeg/bin/ffmpeg" {
		t.Fatalf("unexpected ffmpeg binary: %q", cfg.FFmpegBinary())
	}
	if cfg.MaxVideoBytes() != 10*1024*1024 {
		t.Fatalf("unexpected video cap: %d", cfg.MaxVideoBytes())
	}
	if cfg.Subtitles.Language != "es" {
		t.Fatalf("expected language to be lowercased, got %q", cfg.Subtitles.Language)
	}
}

func TestLoadEnvOverridesFFmpegBinary(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CAPTIONMUX_FFMPEG", "/custom/ffmpeg")
	t.Chdir(t.TempDir())

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.FFmpegBinary() != "/custom/ffmpeg" {
		t.Fatalf("expected env override, got %q", cfg.FFmpegBinary())
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{
			name:   "unknown provider",
			mutate: func(c *config.Config) { c.Engine.Providers = []string{"wasm"} },
			want:   "unsupported provider",
		},
		{
			name: "container without image",
			mutate: func(c *config.Config) {
				c.Engine.Providers = []string{"container"}
				c.Engine.ContainerImage = ""
			},
			want: "container_image",
		},
		{
			name:   "negative limit",
			mutate: func(c *config.Config) { c.Limits.MaxVideoMiB = -1 },
			want:   "max_video_mib",
		},
		{
			name:   "intermediate format",
			mutate: func(c *config.Config) { c.Subtitles.IntermediateFormat = "sub" },
			want:   "intermediate_format",
		},
		{
			name:   "log format",
			mutate: func(c *config.Config) { c.Logging.Format = "xml" },
			want:   "logging.format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error to mention %q, got %v", tt.want, err)
			}
		})
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	t.Setenv("HOME", t.TempDir())
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if cfg.Server.Bind != config.Default().Server.Bind {
		t.Fatalf("unexpected bind: %q", cfg.Server.Bind)
	}
	encoded, err := cfg.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.Contains(encoded, "mov_text") {
		t.Fatalf("expected encoded config to include codec, got %s", encoded)
	}
}
