package history_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"mcsounds/internal/extraction"
	"mcsounds/internal/failure"
	"mcsounds/internal/history"
	"mcsounds/internal/transcode"
)

func openStore(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.Open(filepath.Join(t.TempDir(), "state", "history.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleSummary(id string, started time.Time) extraction.Summary {
	return extraction.Summary{
		JobID:         id,
		Status:        extraction.StateDone,
		SourceRoot:    "/home/steve/.minecraft",
		OutputRoot:    "/home/steve/mcsounds",
		Formats:       []transcode.Format{transcode.MP3, transcode.WAV},
		KeepOriginals: false,
		Manifest:      "/home/steve/.minecraft/assets/indexes/12.json",
		Candidates:    3,
		Copied:        3,
		CopiedBytes:   4096,
		Converted:     map[transcode.Format]int{transcode.MP3: 3, transcode.WAV: 2},
		Errors:        1,
		Failures: []extraction.ItemFailure{
			{Phase: "wav", Path: "/home/steve/mcsounds/ogg/meow.ogg", Message: "decode error"},
		},
		StartedAt:  started,
		FinishedAt: started.Add(3 * time.Second),
	}
}

func TestRecordAndGet(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	run, failures := history.FromSummary(sampleSummary("1f3c9a2e-0000-4000-8000-000000000001", started))
	if err := store.Record(ctx, run, failures); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	got, err := store.Get(ctx, run.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Status != "done" || got.Copied != 3 || got.Errors != 1 {
		t.Fatalf("unexpected run: %#v", got)
	}
	if len(got.Formats) != 2 || got.Formats[0] != "mp3" || got.Formats[1] != "wav" {
		t.Fatalf("unexpected formats: %v", got.Formats)
	}
	if got.Converted["wav"] != 2 {
		t.Fatalf("unexpected converted counts: %v", got.Converted)
	}
	if !got.StartedAt.Equal(started) || got.Duration() != 3*time.Second {
		t.Fatalf("unexpected timing: %v %v", got.StartedAt, got.Duration())
	}

	byPrefix, err := store.Get(ctx, "1f3c9a2e")
	if err != nil || byPrefix.ID != run.ID {
		t.Fatalf("expected prefix lookup to find run, got %#v, %v", byPrefix, err)
	}

	stored, err := store.Failures(ctx, run.ID)
	if err != nil {
		t.Fatalf("Failures failed: %v", err)
	}
	if len(stored) != 1 || stored[0].Phase != "wav" || stored[0].Message != "decode error" {
		t.Fatalf("unexpected failures: %#v", stored)
	}
}

func TestRecordReplacesExistingRun(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	summary := sampleSummary("run-a", time.Now().UTC())

	run, failures := history.FromSummary(summary)
	if err := store.Record(ctx, run, failures); err != nil {
		t.Fatalf("first Record failed: %v", err)
	}
	run.Errors = 0
	if err := store.Record(ctx, run, nil); err != nil {
		t.Fatalf("second Record failed: %v", err)
	}

	runs, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(runs) != 1 || runs[0].Errors != 0 {
		t.Fatalf("expected one replaced run, got %#v", runs)
	}
	stored, err := store.Failures(ctx, run.ID)
	if err != nil {
		t.Fatalf("Failures failed: %v", err)
	}
	if len(stored) != 0 {
		t.Fatalf("expected failures replaced, got %#v", stored)
	}
}

func TestListNewestFirstAndLimit(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"run-1", "run-2", "run-3"} {
		started := base.Add(time.Duration(i) * time.Hour)
		if i == 1 {
			started = started.Add(500 * time.Millisecond)
		}
		run, _ := history.FromSummary(sampleSummary(id, started))
		if err := store.Record(ctx, run, nil); err != nil {
			t.Fatalf("Record %s failed: %v", id, err)
		}
	}

	runs, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "run-3" || runs[1].ID != "run-2" {
		t.Fatalf("unexpected order: %#v", runs)
	}
}

func TestGetUnknownAndAmbiguous(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, history.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	for _, id := range []string{"abc-1", "abc-2"} {
		run, _ := history.FromSummary(sampleSummary(id, time.Now()))
		if err := store.Record(ctx, run, nil); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}
	if _, err := store.Get(ctx, "abc"); err == nil {
		t.Fatal("expected ambiguous prefix error")
	}
	if _, err := store.Get(ctx, "abc_"); !errors.Is(err, history.ErrNotFound) {
		t.Fatalf("expected underscore to match literally, got %v", err)
	}
}

func TestFromSummaryFailedRun(t *testing.T) {
	summary := extraction.Summary{
		JobID:   "failed-run",
		Status:  extraction.StateFailed,
		Reason:  failure.ReasonCodecUnavailable,
		Message: "codec unavailable: convert: no flac encoder",
	}
	run, failures := history.FromSummary(summary)
	if run.Status != "failed" || run.Reason != "codec_unavailable" {
		t.Fatalf("unexpected run: %#v", run)
	}
	if len(failures) != 0 {
		t.Fatalf("expected no failures, got %#v", failures)
	}
}

func TestPruneRemovesOldRuns(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	old, oldFailures := history.FromSummary(sampleSummary("old", now.AddDate(0, 0, -100)))
	recent, _ := history.FromSummary(sampleSummary("recent", now.AddDate(0, 0, -1)))
	if err := store.Record(ctx, old, oldFailures); err != nil {
		t.Fatalf("Record old failed: %v", err)
	}
	if err := store.Record(ctx, recent, nil); err != nil {
		t.Fatalf("Record recent failed: %v", err)
	}

	removed, err := store.Prune(ctx, now.AddDate(0, 0, -90))
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 pruned run, got %d", removed)
	}
	if _, err := store.Get(ctx, "old"); !errors.Is(err, history.ErrNotFound) {
		t.Fatalf("expected old run gone, got %v", err)
	}
	stored, err := store.Failures(ctx, "old")
	if err != nil {
		t.Fatalf("Failures failed: %v", err)
	}
	if len(stored) != 0 {
		t.Fatalf("expected failures cascaded, got %#v", stored)
	}
}

func TestOpenReusesExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	first, err := history.Open(path)
	if err != nil {
		t.Fatalf("first Open failed: %v", err)
	}
	run, _ := history.FromSummary(sampleSummary("persisted", time.Now()))
	if err := first.Record(context.Background(), run, nil); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	_ = first.Close()

	second, err := history.Open(path)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	defer second.Close()
	if _, err := second.Get(context.Background(), "persisted"); err != nil {
		t.Fatalf("expected run after reopen: %v", err)
	}
}
