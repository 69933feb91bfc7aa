package extraction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"mcsounds/internal/assets"
	"mcsounds/internal/failure"
	"mcsounds/internal/logging"
	"mcsounds/internal/transcode"
)

// OriginalsDir is the output subdirectory receiving extracted source files.
const OriginalsDir = "ogg"

// Job describes one extraction request.
type Job struct {
	ID            string
	SourceRoot    string
	OutputRoot    string
	Formats       []transcode.Format
	KeepOriginals bool
	DryRun        bool
}

// Options configures an Engine.
type Options struct {
	Codec           transcode.Codec
	Verifier        transcode.Verifier
	Logger          *slog.Logger
	Workers         int
	VerifyCopies    bool
	TargetExtension string
	Clock           func() time.Time
}

// Engine executes extraction jobs. An Engine holds no per-job state and may
// run several jobs, provided they target different output roots.
type Engine struct {
	codec        transcode.Codec
	verifier     transcode.Verifier
	logger       *slog.Logger
	workers      int
	verifyCopies bool
	ext          string
	clock        func() time.Time
}

// New constructs an Engine.
func New(opts Options) *Engine {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	ext := strings.TrimSpace(opts.TargetExtension)
	if ext == "" {
		ext = assets.SoundExtension
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Engine{
		codec:        opts.Codec,
		verifier:     opts.Verifier,
		logger:       logging.NewComponentLogger(opts.Logger, "extraction"),
		workers:      workers,
		verifyCopies: opts.VerifyCopies,
		ext:          ext,
		clock:        clock,
	}
}

// Start runs job on a background goroutine and returns its event stream. The
// channel is closed after the terminal event; callers must drain it.
func (e *Engine) Start(ctx context.Context, job Job) <-chan Event {
	events := make(chan Event, 64)
	go func() {
		defer close(events)
		e.Run(ctx, job, func(ev Event) { events <- ev })
	}()
	return events
}

// Run executes job synchronously, passing every event to sink (which may be
// nil), and returns the final summary.
func (e *Engine) Run(ctx context.Context, job Job, sink func(Event)) Summary {
	if strings.TrimSpace(job.ID) == "" {
		job.ID = uuid.NewString()
	}
	ctx = logging.WithJobID(ctx, job.ID)
	r := &run{
		engine:  e,
		ctx:     ctx,
		job:     job,
		sink:    sink,
		logger:  logging.WithContext(ctx, e.logger),
		sampler: logging.NewProgressSampler(5),
		state:   StateIdle,
		summary: Summary{
			JobID:         job.ID,
			SourceRoot:    job.SourceRoot,
			OutputRoot:    job.OutputRoot,
			Formats:       job.Formats,
			KeepOriginals: job.KeepOriginals,
			DryRun:        job.DryRun,
			Converted:     make(map[transcode.Format]int),
			StartedAt:     e.clock(),
		},
	}
	err := r.execute()
	return r.finish(err)
}

// copiedFile is an intermediate file written by this job.
type copiedFile struct {
	hash      string
	filename  string
	path      string
	converted int
}

type run struct {
	engine  *Engine
	ctx     context.Context
	job     Job
	sink    func(Event)
	logger  *slog.Logger
	sampler *logging.ProgressSampler

	// mu guards everything below once conversions run in parallel.
	mu      sync.Mutex
	state   State
	summary Summary
	copied  []*copiedFile
	total   int
}

func (r *run) execute() error {
	job := r.job
	if strings.TrimSpace(job.SourceRoot) == "" || strings.TrimSpace(job.OutputRoot) == "" {
		return errors.New("job requires a source root and an output root")
	}
	formats, err := normalizeFormats(job.Formats)
	if err != nil {
		return err
	}
	r.job.Formats = formats
	r.summary.Formats = formats

	r.transition(StateLocating)
	manifestPath, err := assets.LocateManifest(job.SourceRoot)
	if err != nil {
		return err
	}
	r.summary.Manifest = manifestPath
	r.log(PhaseLocate, slog.LevelInfo, "using asset index "+manifestPath)

	r.transition(StateParsing)
	index := r.loadIndex(manifestPath)
	if len(index) == 0 {
		return failure.Wrap(failure.ErrEmptyIndex, string(PhaseParse), "", "no matching entries in "+filepath.Base(manifestPath), nil)
	}
	r.total = len(index)
	r.summary.Candidates = len(index)
	r.log(PhaseParse, slog.LevelInfo, fmt.Sprintf("asset index lists %d %s files", len(index), r.engine.ext))

	r.transition(StateCopying)
	if err := r.copyStage(index); err != nil {
		return err
	}
	if job.DryRun {
		r.log(PhaseCopy, slog.LevelInfo, fmt.Sprintf("dry run: %d of %d files would be copied", r.summary.Matched, r.total))
		return nil
	}

	if len(formats) == 0 {
		return nil
	}
	if len(r.copied) == 0 {
		r.log(PhaseCopy, slog.LevelWarn, "nothing was copied; skipping conversion")
		return nil
	}

	r.transition(StateConverting)
	if err := r.transcodeStage(formats); err != nil {
		return err
	}

	if !job.KeepOriginals {
		r.transition(StateCleanup)
		r.cleanupIntermediate(len(formats))
	}
	return nil
}

func (r *run) loadIndex(manifestPath string) assets.HashIndex {
	manifest, err := assets.Load(manifestPath)
	if err != nil {
		r.logErr(PhaseParse, "asset index could not be read", err)
		return assets.HashIndex{}
	}
	r.summary.ManifestVersion = manifest.Version
	index, err := manifest.Index(r.engine.ext)
	if err != nil {
		r.logErr(PhaseParse, "asset index is malformed", err)
		return assets.HashIndex{}
	}
	return index
}

func (r *run) finish(err error) Summary {
	r.mu.Lock()
	r.summary.FinishedAt = r.engine.clock()
	r.summary.Errors = len(r.summary.Failures)
	if err != nil {
		reason := failure.ReasonOf(err)
		r.summary.Status = StateFailed
		r.summary.Reason = reason
		r.summary.Message = err.Error()
		r.state = StateFailed
	} else {
		r.summary.Status = StateDone
		r.state = StateDone
	}
	summary := r.summary
	summary.Failures = append([]ItemFailure(nil), r.summary.Failures...)
	r.mu.Unlock()

	if err != nil {
		logging.ErrorWithContext(r.logger, "extraction failed", "job_failed",
			logging.String("reason", string(summary.Reason)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, hintFor(summary.Reason)),
		)
		r.emit(Event{Kind: EventFailed, State: StateFailed, Level: slog.LevelError, Message: summary.Reason.Message(), Reason: summary.Reason, Err: err, Summary: &summary})
		return summary
	}

	r.logger.Info("extraction finished",
		logging.String(logging.FieldEventType, "job_done"),
		logging.Int("copied", summary.Copied),
		logging.Int("errors", summary.Errors),
		logging.Duration("duration", summary.Duration()),
	)
	r.emit(Event{Kind: EventDone, State: StateDone, Level: slog.LevelInfo, Message: fmt.Sprintf("copied: %d, errors: %d", summary.Copied, summary.Errors), Summary: &summary})
	return summary
}

func (r *run) transition(state State) {
	r.mu.Lock()
	r.state = state
	r.mu.Unlock()
	r.logger.Debug("job state changed", logging.String("state", string(state)))
}

// emit stamps ev and hands it to the sink. Callers running in parallel hold
// r.mu so events of one phase keep their order.
func (r *run) emit(ev Event) {
	ev.JobID = r.job.ID
	if ev.Time.IsZero() {
		ev.Time = r.engine.clock()
	}
	if r.sink != nil {
		r.sink(ev)
	}
}

func (r *run) log(phase Phase, level slog.Level, message string) {
	r.logger.Log(r.ctx, level, message, logging.String(logging.FieldPhase, string(phase)))
	r.emit(Event{Kind: EventLog, State: r.state, Phase: phase, Level: level, Message: message})
}

func (r *run) logErr(phase Phase, message string, err error) {
	r.logger.Error(message, logging.String(logging.FieldPhase, string(phase)), logging.Error(err))
	r.emit(Event{Kind: EventLog, State: r.state, Phase: phase, Level: slog.LevelError, Message: message + ": " + err.Error(), Err: err})
}

func (r *run) logTransfer(phase Phase, src, dst string) {
	r.logger.Debug("transferred",
		logging.String(logging.FieldPhase, string(phase)),
		logging.String("src", src),
		logging.String("dst", dst),
	)
	r.emit(Event{Kind: EventLog, State: r.state, Phase: phase, Level: slog.LevelInfo, Message: src + " -> " + dst, Src: src, Dst: dst})
}

func (r *run) percent(phase Phase, done int) {
	pct := 0
	if r.total > 0 {
		pct = done * 100 / r.total
	}
	if r.sampler.ShouldLog(string(phase), pct) {
		r.logger.Info("progress",
			logging.String(logging.FieldPhase, string(phase)),
			logging.Int(logging.FieldProgressPercent, pct),
		)
	}
	r.emit(Event{Kind: EventPercent, State: r.state, Phase: phase, Level: slog.LevelInfo, Percent: pct})
}

// itemFailed records a skipped file. Callers hold r.mu when running in parallel.
func (r *run) itemFailed(phase Phase, path string, err error) {
	r.summary.Failures = append(r.summary.Failures, ItemFailure{Phase: phase, Path: path, Message: err.Error()})
	logging.WarnWithContext(r.logger, "file skipped", string(phase)+"_failed",
		logging.String(logging.FieldPhase, string(phase)),
		logging.String("path", path),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, hintForPhase(phase)),
		logging.String(logging.FieldImpact, "file is missing from the output"),
	)
	r.emit(Event{Kind: EventLog, State: r.state, Phase: phase, Level: slog.LevelWarn, Message: "skipped " + path + ": " + err.Error(), Src: path, Err: err})
}

func (r *run) canceled(phase Phase) error {
	if err := r.ctx.Err(); err != nil {
		return failure.Wrap(failure.ErrCanceled, string(phase), "", "", err)
	}
	return nil
}

func normalizeFormats(formats []transcode.Format) ([]transcode.Format, error) {
	set := make(map[transcode.Format]struct{}, len(formats))
	for _, f := range formats {
		if _, err := transcode.ParseFormat(string(f)); err != nil {
			return nil, err
		}
		set[f] = struct{}{}
	}
	return transcode.Ordered(set), nil
}

func hintFor(reason failure.Reason) string {
	switch reason {
	case failure.ReasonNotFound:
		return "check that the source folder is a Minecraft installation with assets/indexes"
	case failure.ReasonEmptyIndex:
		return "launch the game once so the asset index is downloaded, then retry"
	case failure.ReasonCodecUnavailable:
		return "install ffmpeg with mp3, flac, and wav encoders or set transcode.ffmpeg_binary"
	case failure.ReasonCanceled:
		return "rerun the extraction to finish"
	default:
		return "check logs for details"
	}
}

func hintForPhase(phase Phase) string {
	switch phase {
	case PhaseCopy:
		return "check free space and permissions in the output folder"
	case PhaseCleanup:
		return "remove the intermediate file manually"
	default:
		return "inspect the source file with ffprobe"
	}
}
