package main

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jedib0t/go-pretty/v6/progress"

	"mcsounds/internal/extraction"
	"mcsounds/internal/logging"
)

// reporter renders the event stream of one job.
type reporter interface {
	Handle(ev extraction.Event)
	Close()
}

// newReporter picks live progress bars for terminals and plain lines
// otherwise. A quiet reporter prints warnings and errors only.
func newReporter(w io.Writer, verbose, quiet bool) reporter {
	if !quiet && isTerminal(w) {
		return newProgressReporter(w, verbose)
	}
	return &plainReporter{
		w:       w,
		verbose: verbose,
		quiet:   quiet,
		sampler: logging.NewProgressSampler(10),
	}
}

type plainReporter struct {
	w       io.Writer
	verbose bool
	quiet   bool
	sampler *logging.ProgressSampler
}

func (r *plainReporter) Handle(ev extraction.Event) {
	switch ev.Kind {
	case extraction.EventLog:
		switch {
		case ev.Level >= slog.LevelError:
			fmt.Fprintf(r.w, "error: %s\n", ev.Message)
		case ev.Level >= slog.LevelWarn:
			fmt.Fprintf(r.w, "warning: %s\n", ev.Message)
		case r.verbose && !r.quiet:
			fmt.Fprintf(r.w, "[%s] %s\n", ev.Phase, ev.Message)
		}
	case extraction.EventPercent:
		if r.quiet || !r.sampler.ShouldLog(string(ev.Phase), ev.Percent) {
			return
		}
		fmt.Fprintf(r.w, "%-8s %3d%%\n", ev.Phase, ev.Percent)
	}
}

func (r *plainReporter) Close() {}

type progressReporter struct {
	pw       progress.Writer
	trackers map[extraction.Phase]*progress.Tracker
	verbose  bool
}

func newProgressReporter(w io.Writer, verbose bool) *progressReporter {
	pw := progress.NewWriter()
	pw.SetOutputWriter(w)
	pw.SetAutoStop(false)
	pw.SetTrackerLength(30)
	pw.SetMessageLength(10)
	pw.SetUpdateFrequency(100 * time.Millisecond)
	pw.SetStyle(progress.StyleDefault)
	pw.Style().Visibility.ETA = false
	pw.Style().Visibility.Speed = false
	pw.Style().Visibility.Value = false
	go pw.Render()
	return &progressReporter{
		pw:       pw,
		trackers: make(map[extraction.Phase]*progress.Tracker),
		verbose:  verbose,
	}
}

func (r *progressReporter) Handle(ev extraction.Event) {
	switch ev.Kind {
	case extraction.EventPercent:
		tracker := r.tracker(ev.Phase)
		tracker.SetValue(int64(ev.Percent))
		if ev.Percent >= 100 {
			tracker.MarkAsDone()
		}
	case extraction.EventLog:
		if ev.Level >= slog.LevelWarn || r.verbose {
			r.pw.Log("%s", ev.Message)
		}
	case extraction.EventDone, extraction.EventFailed:
		for _, tracker := range r.trackers {
			if tracker.IsDone() {
				continue
			}
			if ev.Kind == extraction.EventFailed {
				tracker.MarkAsErrored()
			} else {
				tracker.MarkAsDone()
			}
		}
	}
}

func (r *progressReporter) tracker(phase extraction.Phase) *progress.Tracker {
	if tracker, ok := r.trackers[phase]; ok {
		return tracker
	}
	tracker := &progress.Tracker{Message: string(phase), Total: 100}
	r.trackers[phase] = tracker
	r.pw.AppendTracker(tracker)
	return tracker
}

func (r *progressReporter) Close() {
	r.pw.Stop()
	for r.pw.IsRenderInProgress() {
		time.Sleep(10 * time.Millisecond)
	}
}
