package extraction

import (
	"log/slog"
	"time"

	"mcsounds/internal/failure"
	"mcsounds/internal/transcode"
)

// State is the job lifecycle position.
type State string

const (
	StateIdle       State = "idle"
	StateLocating   State = "locating"
	StateParsing    State = "parsing"
	StateCopying    State = "copying"
	StateConverting State = "converting"
	StateCleanup    State = "cleanup"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

// Terminal reports whether no further transitions follow s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// Phase tags events. Conversion passes use the format name as their phase.
type Phase string

const (
	PhaseLocate  Phase = "locate"
	PhaseParse   Phase = "parse"
	PhaseCopy    Phase = "copy"
	PhaseCleanup Phase = "cleanup"
)

// FormatPhase returns the phase of the conversion pass for f.
func FormatPhase(f transcode.Format) Phase {
	return Phase(f)
}

// EventKind distinguishes the event payloads.
type EventKind string

const (
	EventLog     EventKind = "log"
	EventPercent EventKind = "percent"
	EventDone    EventKind = "done"
	EventFailed  EventKind = "failed"
)

// Event is one entry of the job stream. Percent is set for EventPercent and
// never decreases within a phase. Summary is set on the terminal event, and
// Reason and Err on EventFailed.
type Event struct {
	JobID   string
	Kind    EventKind
	State   State
	Phase   Phase
	Level   slog.Level
	Message string
	Src     string
	Dst     string
	Percent int
	Reason  failure.Reason
	Err     error
	Summary *Summary
	Time    time.Time
}

// Terminal reports whether e ends the stream.
func (e Event) Terminal() bool {
	return e.Kind == EventDone || e.Kind == EventFailed
}

// ItemFailure records one skipped file.
type ItemFailure struct {
	Phase   Phase  `json:"phase"`
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Summary is the outcome of a job.
type Summary struct {
	JobID           string                   `json:"job_id"`
	Status          State                    `json:"status"`
	Reason          failure.Reason           `json:"reason,omitempty"`
	Message         string                   `json:"message,omitempty"`
	SourceRoot      string                   `json:"source_root"`
	OutputRoot      string                   `json:"output_root"`
	Formats         []transcode.Format       `json:"formats"`
	KeepOriginals   bool                     `json:"keep_originals"`
	DryRun          bool                     `json:"dry_run,omitempty"`
	Manifest        string                   `json:"manifest,omitempty"`
	ManifestVersion string                   `json:"manifest_version,omitempty"`
	Candidates      int                      `json:"candidates"`
	Scanned         int                      `json:"scanned"`
	Matched         int                      `json:"matched"`
	Copied          int                      `json:"copied"`
	CopiedBytes     int64                    `json:"copied_bytes"`
	Converted       map[transcode.Format]int `json:"converted,omitempty"`
	Errors          int                      `json:"errors"`
	Failures        []ItemFailure            `json:"failures,omitempty"`
	Removed         int                      `json:"removed"`
	CleanedUp       bool                     `json:"cleaned_up"`
	StartedAt       time.Time                `json:"started_at"`
	FinishedAt      time.Time                `json:"finished_at"`
}

// Duration returns the wall time of the job.
func (s Summary) Duration() time.Duration {
	if s.FinishedAt.IsZero() || s.StartedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// Failed reports whether the job ended in the failed state.
func (s Summary) Failed() bool {
	return s.Status == StateFailed
}
