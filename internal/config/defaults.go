package config

const (
	defaultMinecraftDir       = "~/.minecraft"
	defaultOutputDir          = "~/mcsounds"
	defaultStateDir           = "~/.local/share/mcsounds"
	defaultLogDir             = "~/.local/share/mcsounds/logs"
	defaultTargetExtension    = ".ogg"
	defaultMP3BitrateKbps     = 192
	defaultTranscodeWorkers   = 1
	defaultTranscodeTimeout   = 300
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultHistoryRetention   = 90
	maxTranscodeWorkers       = 32
	envMinecraftDir           = "MCSOUNDS_MINECRAFT_DIR"
	envOutputDir              = "MCSOUNDS_OUTPUT_DIR"
	envFFmpegBinary           = "MCSOUNDS_FFMPEG"
	envFFprobeBinary          = "MCSOUNDS_FFPROBE"
	defaultConfigRelativePath = "~/.config/mcsounds/config.toml"
	projectConfigName         = "mcsounds.toml"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			MinecraftDir: defaultMinecraftDir,
			OutputDir:    defaultOutputDir,
			StateDir:     defaultStateDir,
			LogDir:       defaultLogDir,
		},
		Extraction: Extraction{
			Formats:         []string{},
			KeepOriginals:   true,
			TargetExtension: defaultTargetExtension,
			VerifyCopies:    true,
		},
		Transcode: Transcode{
			FFmpegBinary:   "ffmpeg",
			FFprobeBinary:  "ffprobe",
			MP3BitrateKbps: defaultMP3BitrateKbps,
			Workers:        defaultTranscodeWorkers,
			TimeoutSeconds: defaultTranscodeTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		History: History{
			Enabled:       true,
			RetentionDays: defaultHistoryRetention,
		},
	}
}
