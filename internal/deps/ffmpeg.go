package deps

import (
	"os"
	"strings"
)

// Environment overrides for the codec binaries.
const (
	EnvFFmpeg  = "MCSOUNDS_FFMPEG"
	EnvFFprobe = "MCSOUNDS_FFPROBE"
)

// ResolveFFmpegPath returns the ffmpeg command to execute: the configured value,
// then $MCSOUNDS_FFMPEG, then "ffmpeg" from PATH.
func ResolveFFmpegPath(configured string) string {
	return resolve(configured, EnvFFmpeg, "ffmpeg")
}

// ResolveFFprobePath returns the ffprobe command using the same precedence as
// ResolveFFmpegPath.
func ResolveFFprobePath(configured string) string {
	return resolve(configured, EnvFFprobe, "ffprobe")
}

// CodecRequirements lists the binaries needed for conversion. ffprobe is only
// required when converted outputs are verified.
func CodecRequirements(ffmpeg, ffprobe string, verifyOutput bool) []Requirement {
	return []Requirement{
		{
			Name:        "FFmpeg",
			Command:     ResolveFFmpegPath(ffmpeg),
			Description: "Required for mp3/flac/wav conversion",
			VersionArg:  "-version",
		},
		{
			Name:        "FFprobe",
			Command:     ResolveFFprobePath(ffprobe),
			Description: "Verifies converted files",
			Optional:    !verifyOutput,
			VersionArg:  "-version",
		},
	}
}

func resolve(configured, envKey, fallback string) string {
	if value := strings.TrimSpace(configured); value != "" {
		return value
	}
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}
