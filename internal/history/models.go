package history

import (
	"time"

	"mcsounds/internal/extraction"
	"mcsounds/internal/transcode"
)

// Run is one stored extraction job.
type Run struct {
	ID              string         `json:"id"`
	SourceRoot      string         `json:"source_root"`
	OutputRoot      string         `json:"output_root"`
	Formats         []string       `json:"formats"`
	KeepOriginals   bool           `json:"keep_originals"`
	DryRun          bool           `json:"dry_run"`
	Status          string         `json:"status"`
	Reason          string         `json:"reason,omitempty"`
	Message         string         `json:"message,omitempty"`
	Manifest        string         `json:"manifest,omitempty"`
	ManifestVersion string         `json:"manifest_version,omitempty"`
	Candidates      int            `json:"candidates"`
	Copied          int            `json:"copied"`
	CopiedBytes     int64          `json:"copied_bytes"`
	Converted       map[string]int `json:"converted,omitempty"`
	Errors          int            `json:"errors"`
	Removed         int            `json:"removed"`
	StartedAt       time.Time      `json:"started_at"`
	FinishedAt      time.Time      `json:"finished_at"`
}

// Failure is one per-file failure of a run.
type Failure struct {
	Phase   string `json:"phase"`
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Duration returns the wall time of the run.
func (r Run) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// FromSummary converts a job summary into a run record and its failures.
func FromSummary(summary extraction.Summary) (Run, []Failure) {
	converted := make(map[string]int, len(summary.Converted))
	for format, count := range summary.Converted {
		converted[string(format)] = count
	}
	run := Run{
		ID:              summary.JobID,
		SourceRoot:      summary.SourceRoot,
		OutputRoot:      summary.OutputRoot,
		Formats:         transcode.Strings(summary.Formats),
		KeepOriginals:   summary.KeepOriginals,
		DryRun:          summary.DryRun,
		Status:          string(summary.Status),
		Reason:          string(summary.Reason),
		Message:         summary.Message,
		Manifest:        summary.Manifest,
		ManifestVersion: summary.ManifestVersion,
		Candidates:      summary.Candidates,
		Copied:          summary.Copied,
		CopiedBytes:     summary.CopiedBytes,
		Converted:       converted,
		Errors:          summary.Errors,
		Removed:         summary.Removed,
		StartedAt:       summary.StartedAt,
		FinishedAt:      summary.FinishedAt,
	}
	failures := make([]Failure, 0, len(summary.Failures))
	for _, f := range summary.Failures {
		failures = append(failures, Failure{Phase: string(f.Phase), Path: f.Path, Message: f.Message})
	}
	return run, failures
}
