package config

const (
	defaultDataDir          = "~/.local/share/clipforge"
	defaultWorkspaceDir     = "~/.local/share/clipforge/workspace"
	defaultLogDir           = "~/.local/share/clipforge/logs"
	defaultAPIBind          = "127.0.0.1:7823"
	defaultFFmpegBinary     = "ffmpeg"
	defaultFFprobeBinary    = "ffprobe"
	defaultTransformTimeout = 600
	defaultConcurrency      = ConcurrencyPerProject
	defaultClipSeconds      = 10
	defaultResolution       = "1280x720"
	defaultJobQueueDepth    = 16
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// Concurrency policy values accepted by engine.concurrency.
const (
	ConcurrencyPerProject = "per-project"
	ConcurrencyGlobal     = "global"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:      defaultDataDir,
			WorkspaceDir: defaultWorkspaceDir,
			LogDir:       defaultLogDir,
			APIBind:      defaultAPIBind,
		},
		Engine: Engine{
			FFmpegBinary:     defaultFFmpegBinary,
			FFprobeBinary:    defaultFFprobeBinary,
			TransformTimeout: defaultTransformTimeout,
			Concurrency:      defaultConcurrency,
		},
		Generation: Generation{
			ClipSeconds: defaultClipSeconds,
			Resolution:  defaultResolution,
		},
		Workflow: Workflow{
			JobQueueDepth: defaultJobQueueDepth,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
