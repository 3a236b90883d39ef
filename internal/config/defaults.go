package config

const (
	defaultWorkspaceDir       = "~/.local/share/captionmux/workspace"
	defaultOutputDir          = "~/.local/share/captionmux/output"
	defaultLogDir             = "~/.local/share/captionmux/logs"
	defaultHistoryDB          = "~/.local/share/captionmux/history.db"
	defaultFFmpegBinary       = "ffmpeg"
	defaultContainerRuntime   = "docker"
	defaultContainerImage     = "docker.io/linuxserver/ffmpeg:latest"
	defaultExecTimeoutSeconds = 600
	defaultMaxVideoMiB        = 50
	defaultSubtitleLanguage   = "en"
	defaultSubtitleTitle      = "English Subtitles"
	defaultSubtitleCodec      = "mov_text"
	defaultIntermediateFormat = "srt"
	defaultServerBind         = "127.0.0.1:7490"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkspaceDir: defaultWorkspaceDir,
			OutputDir:    defaultOutputDir,
			LogDir:       defaultLogDir,
			HistoryDB:    defaultHistoryDB,
		},
		Engine: Engine{
			Providers:          []string{"local", "container"},
			FFmpegBinary:       defaultFFmpegBinary,
			ContainerRuntime:   defaultContainerRuntime,
			ContainerImage:     defaultContainerImage,
			ContainerPull:      true,
			ExecTimeoutSeconds: defaultExecTimeoutSeconds,
		},
		Limits: Limits{
			MaxVideoMiB: defaultMaxVideoMiB,
		},
		Subtitles: Subtitles{
			Language:           defaultSubtitleLanguage,
			Title:              defaultSubtitleTitle,
			Codec:              defaultSubtitleCodec,
			IntermediateFormat: defaultIntermediateFormat,
		},
		Server: Server{
			Bind: defaultServerBind,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
