package preflight

import (
	"context"

	"mcsounds/internal/config"
	"mcsounds/internal/deps"
	"mcsounds/internal/transcode"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Optional bool   `json:"optional,omitempty"`
	Detail   string `json:"detail"`
}

// RunAll executes the checks that matter for an extraction from sourceRoot
// into outputRoot producing formats.
func RunAll(ctx context.Context, cfg *config.Config, sourceRoot, outputRoot string, formats []transcode.Format) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	install, soundBytes := CheckMinecraftInstall(sourceRoot, cfg.Extraction.TargetExtension)
	results = append(results, install)
	results = append(results, CheckOutputRoot("Output folder", outputRoot))
	if soundBytes > 0 {
		results = append(results, CheckFreeSpace("Free space", outputRoot, EstimateOutputBytes(soundBytes, formats)))
	}

	if len(formats) == 0 {
		return results
	}

	ffmpeg := deps.ResolveFFmpegPath(cfg.Transcode.FFmpegBinary)
	ffprobe := deps.ResolveFFprobePath(cfg.Transcode.FFprobeBinary)
	for _, status := range deps.CheckBinaries(ctx, deps.CodecRequirements(ffmpeg, ffprobe, cfg.Transcode.VerifyOutput)) {
		results = append(results, FromDependency(status))
	}
	results = append(results, CheckEncoders(ctx, transcode.NewFFmpeg(ffmpeg, cfg.Transcode.MP3BitrateKbps, 0), formats))
	return results
}

// Failed returns the required checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			failed = append(failed, r)
		}
	}
	return failed
}

// FromDependency converts a binary availability status into a Result.
func FromDependency(status deps.Status) Result {
	result := Result{Name: status.Name, Passed: status.Available, Optional: status.Optional}
	switch {
	case status.Available && status.Version != "":
		result.Detail = status.Path + " (" + status.Version + ")"
	case status.Available:
		result.Detail = status.Path
	case status.Detail != "":
		result.Detail = status.Detail
	default:
		result.Detail = status.Description
	}
	return result
}
