package extraction_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"mcsounds/internal/extraction"
	"mcsounds/internal/failure"
	"mcsounds/internal/transcode"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type object struct {
	key  string
	hash string
	data string
}

// writeInstall lays out a Minecraft folder with one asset index listing
// entries and stores every object under objects/<first two chars>/<hash>.
func writeInstall(t *testing.T, version string, entries []object, extra ...object) string {
	t.Helper()
	root := t.TempDir()
	indexes := filepath.Join(root, "assets", "indexes")
	require.NoError(t, os.MkdirAll(indexes, 0o755))

	objects := map[string]map[string]any{}
	for _, e := range entries {
		objects[e.key] = map[string]any{"hash": e.hash, "size": len(e.data)}
	}
	payload, err := json.Marshal(map[string]any{"objects": objects})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(indexes, version+".json"), payload, 0o644))

	for _, e := range append(append([]object{}, entries...), extra...) {
		if e.data == "" {
			continue
		}
		writeObject(t, root, e.hash[:2], e.hash, e.data)
	}
	return root
}

func writeObject(t *testing.T, root, shard, name, data string) {
	t.Helper()
	dir := filepath.Join(root, "assets", "objects", shard)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(data), 0o644))
}

type fakeCodec struct {
	mu          sync.Mutex
	unavailable error
	failOn      map[string]bool
	calls       []string
}

func (c *fakeCodec) Available(context.Context, []transcode.Format) error {
	return c.unavailable
}

func (c *fakeCodec) Convert(_ context.Context, src, dst string, format transcode.Format) error {
	c.mu.Lock()
	c.calls = append(c.calls, string(format)+":"+filepath.Base(src))
	c.mu.Unlock()
	if c.failOn[string(format)+":"+filepath.Base(src)] {
		return errors.New("decode error")
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, append([]byte(string(format)+":"), data...), 0o644)
}

type recorder struct {
	mu     sync.Mutex
	events []extraction.Event
}

func (r *recorder) sink(ev extraction.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) percents(phase extraction.Phase) []int {
	var out []int
	for _, ev := range r.events {
		if ev.Kind == extraction.EventPercent && ev.Phase == phase {
			out = append(out, ev.Percent)
		}
	}
	return out
}

func (r *recorder) terminal(t *testing.T) extraction.Event {
	t.Helper()
	count := 0
	for _, ev := range r.events {
		if ev.Terminal() {
			count++
		}
	}
	require.Equal(t, 1, count, "expected exactly one terminal event")
	last := r.events[len(r.events)-1]
	require.True(t, last.Terminal(), "terminal event must be last")
	return last
}

func requireNonDecreasing(t *testing.T, values []int) {
	t.Helper()
	for i := 1; i < len(values); i++ {
		require.GreaterOrEqual(t, values[i], values[i-1], "percent decreased at %d: %v", i, values)
	}
}

func TestRunCopiesOnlyIndexedObject(t *testing.T) {
	src := writeInstall(t, "12", []object{
		{key: "minecraft/sounds/music/game/music1.ogg", hash: "abc123", data: "OggS-music"},
	}, object{hash: "def999", data: "unrelated"})
	out := t.TempDir()

	rec := &recorder{}
	summary := extraction.New(extraction.Options{VerifyCopies: true}).Run(context.Background(), extraction.Job{
		SourceRoot:    src,
		OutputRoot:    out,
		KeepOriginals: true,
	}, rec.sink)

	require.Equal(t, extraction.StateDone, summary.Status)
	require.Equal(t, 1, summary.Candidates)
	require.Equal(t, 2, summary.Scanned)
	require.Equal(t, 1, summary.Copied)
	require.Equal(t, 0, summary.Errors)
	require.NotEmpty(t, summary.JobID)

	entries, err := os.ReadDir(filepath.Join(out, "ogg"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "music1.ogg", entries[0].Name())

	got, err := os.ReadFile(filepath.Join(out, "ogg", "music1.ogg"))
	require.NoError(t, err)
	require.Equal(t, []byte("OggS-music"), got)

	done := rec.terminal(t)
	require.Equal(t, extraction.EventDone, done.Kind)
	require.Equal(t, "copied: 1, errors: 0", done.Message)

	var transfers []string
	for _, ev := range rec.events {
		if ev.Src != "" && ev.Dst != "" {
			transfers = append(transfers, ev.Message)
		}
	}
	require.Equal(t, []string{filepath.Join(src, "assets", "objects", "ab", "abc123") + " -> " + filepath.Join(out, "ogg", "music1.ogg")}, transfers)
}

func TestRunCopyPercentsAreMonotonicAndReachHundred(t *testing.T) {
	var entries []object
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		entries = append(entries, object{key: "minecraft/sounds/" + name + ".ogg", hash: name + name + "01", data: "data-" + name})
	}
	src := writeInstall(t, "7", entries)

	rec := &recorder{}
	summary := extraction.New(extraction.Options{}).Run(context.Background(), extraction.Job{
		SourceRoot: src, OutputRoot: t.TempDir(), KeepOriginals: true,
	}, rec.sink)

	require.Equal(t, 7, summary.Copied)
	percents := rec.percents(extraction.PhaseCopy)
	require.NotEmpty(t, percents)
	requireNonDecreasing(t, percents)
	require.Equal(t, 100, percents[len(percents)-1])
	for _, p := range percents {
		require.True(t, p >= 0 && p <= 100, "percent out of range: %d", p)
	}
}

func TestRunEndToEndWavRemovesOriginals(t *testing.T) {
	src := writeInstall(t, "1.20", []object{
		{key: "minecraft/sounds/ambient/cave1.ogg", hash: "aa0001", data: "cave"},
		{key: "minecraft/sounds/mob/cat/meow.ogg", hash: "bb0002", data: "meow"},
		{key: "minecraft/lang/en_us.json", hash: "cc0003", data: "{}"},
	})
	out := t.TempDir()
	codec := &fakeCodec{}

	rec := &recorder{}
	summary := extraction.New(extraction.Options{Codec: codec}).Run(context.Background(), extraction.Job{
		SourceRoot:    src,
		OutputRoot:    out,
		Formats:       []transcode.Format{transcode.WAV},
		KeepOriginals: false,
	}, rec.sink)

	require.Equal(t, extraction.StateDone, summary.Status)
	require.Equal(t, 2, summary.Copied)
	require.Equal(t, 0, summary.Errors)
	require.Equal(t, 2, summary.Converted[transcode.WAV])
	require.Equal(t, 2, summary.Removed)
	require.True(t, summary.CleanedUp)

	_, err := os.Stat(filepath.Join(out, "ogg"))
	require.True(t, os.IsNotExist(err), "expected ogg directory removed, got %v", err)

	wav, err := os.ReadFile(filepath.Join(out, "wav", "meow.wav"))
	require.NoError(t, err)
	require.Equal(t, "wav:meow", string(wav))
	require.FileExists(t, filepath.Join(out, "wav", "cave1.wav"))

	done := rec.terminal(t)
	require.Equal(t, "copied: 2, errors: 0", done.Message)
	require.Equal(t, []int{0, 50, 100}, rec.percents(extraction.FormatPhase(transcode.WAV)))
}

func TestRunCleanupKeepsFilesFromEarlierRuns(t *testing.T) {
	src := writeInstall(t, "5", []object{{key: "minecraft/sounds/x.ogg", hash: "ab0001", data: "x"}})
	out := t.TempDir()
	earlier := filepath.Join(out, "ogg", "earlier.ogg")
	require.NoError(t, os.MkdirAll(filepath.Dir(earlier), 0o755))
	require.NoError(t, os.WriteFile(earlier, []byte("kept"), 0o644))

	summary := extraction.New(extraction.Options{Codec: &fakeCodec{}}).Run(context.Background(), extraction.Job{
		SourceRoot: src,
		OutputRoot: out,
		Formats:    []transcode.Format{transcode.WAV},
	}, nil)

	require.Equal(t, extraction.StateDone, summary.Status)
	require.Equal(t, 1, summary.Removed)
	require.False(t, summary.CleanedUp)
	require.NoFileExists(t, filepath.Join(out, "ogg", "x.ogg"))
	require.FileExists(t, earlier)
	require.FileExists(t, filepath.Join(out, "wav", "x.wav"))
}

func TestRunWithoutFormatsNeverDeletesOriginals(t *testing.T) {
	src := writeInstall(t, "5", []object{{key: "minecraft/sounds/x.ogg", hash: "ab0001", data: "x"}})
	out := t.TempDir()

	summary := extraction.New(extraction.Options{}).Run(context.Background(), extraction.Job{
		SourceRoot: src, OutputRoot: out, KeepOriginals: false,
	}, nil)

	require.Equal(t, extraction.StateDone, summary.Status)
	require.FileExists(t, filepath.Join(out, "ogg", "x.ogg"))
	require.False(t, summary.CleanedUp)
}

func TestRunFailsWhenNoManifest(t *testing.T) {
	out := t.TempDir()
	rec := &recorder{}
	summary := extraction.New(extraction.Options{}).Run(context.Background(), extraction.Job{
		SourceRoot: t.TempDir(), OutputRoot: out,
	}, rec.sink)

	require.Equal(t, extraction.StateFailed, summary.Status)
	require.Equal(t, failure.ReasonNotFound, summary.Reason)
	failed := rec.terminal(t)
	require.Equal(t, extraction.EventFailed, failed.Kind)
	require.ErrorIs(t, failed.Err, failure.ErrNotFound)
	_, err := os.Stat(filepath.Join(out, "ogg"))
	require.True(t, os.IsNotExist(err))
}

func TestRunFailsOnEmptyOrMalformedIndex(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"no sound entries", `{"objects":{"minecraft/lang/en_us.json":{"hash":"ab01","size":2}}}`},
		{"malformed json", `{"objects": {`},
		{"missing hash", `{"objects":{"minecraft/sounds/a.ogg":{"size":2}}}`},
		{"no objects field", `{"version": 3}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := t.TempDir()
			indexes := filepath.Join(src, "assets", "indexes")
			require.NoError(t, os.MkdirAll(indexes, 0o755))
			require.NoError(t, os.WriteFile(filepath.Join(indexes, "3.json"), []byte(tt.payload), 0o644))

			rec := &recorder{}
			summary := extraction.New(extraction.Options{}).Run(context.Background(), extraction.Job{
				SourceRoot: src, OutputRoot: t.TempDir(),
			}, rec.sink)

			require.Equal(t, extraction.StateFailed, summary.Status)
			require.Equal(t, failure.ReasonEmptyIndex, summary.Reason)
			require.Equal(t, extraction.EventFailed, rec.terminal(t).Kind)
		})
	}
}

func TestRunCodecUnavailableKeepsOriginals(t *testing.T) {
	src := writeInstall(t, "9", []object{
		{key: "minecraft/sounds/a.ogg", hash: "ab0001", data: "a"},
		{key: "minecraft/sounds/b.ogg", hash: "ab0002", data: "b"},
	})
	out := t.TempDir()
	codec := &fakeCodec{unavailable: failure.Wrap(failure.ErrCodecUnavailable, "convert", "", "no flac encoder", nil)}

	rec := &recorder{}
	summary := extraction.New(extraction.Options{Codec: codec}).Run(context.Background(), extraction.Job{
		SourceRoot:    src,
		OutputRoot:    out,
		Formats:       []transcode.Format{transcode.MP3, transcode.FLAC},
		KeepOriginals: false,
	}, rec.sink)

	require.Equal(t, extraction.StateFailed, summary.Status)
	require.Equal(t, failure.ReasonCodecUnavailable, summary.Reason)
	require.Equal(t, 2, summary.Copied)
	require.Empty(t, codec.calls)
	require.FileExists(t, filepath.Join(out, "ogg", "a.ogg"))
	require.FileExists(t, filepath.Join(out, "ogg", "b.ogg"))
	require.Equal(t, extraction.EventFailed, rec.terminal(t).Kind)
}

func TestRunConversionFailureIsPerFile(t *testing.T) {
	src := writeInstall(t, "9", []object{
		{key: "minecraft/sounds/a.ogg", hash: "ab0001", data: "a"},
		{key: "minecraft/sounds/b.ogg", hash: "ab0002", data: "b"},
	})
	out := t.TempDir()
	codec := &fakeCodec{failOn: map[string]bool{"mp3:b.ogg": true}}

	rec := &recorder{}
	summary := extraction.New(extraction.Options{Codec: codec}).Run(context.Background(), extraction.Job{
		SourceRoot:    src,
		OutputRoot:    out,
		Formats:       []transcode.Format{transcode.MP3, transcode.FLAC},
		KeepOriginals: false,
	}, rec.sink)

	require.Equal(t, extraction.StateDone, summary.Status)
	require.Equal(t, 1, summary.Errors)
	require.Equal(t, extraction.FormatPhase(transcode.MP3), summary.Failures[0].Phase)
	require.Equal(t, 1, summary.Converted[transcode.MP3])
	require.Equal(t, 2, summary.Converted[transcode.FLAC])
	require.Equal(t, []int{0, 50}, rec.percents(extraction.FormatPhase(transcode.MP3)))
	require.Equal(t, []int{0, 50, 100}, rec.percents(extraction.FormatPhase(transcode.FLAC)))

	require.NoFileExists(t, filepath.Join(out, "ogg", "a.ogg"))
	require.FileExists(t, filepath.Join(out, "ogg", "b.ogg"), "unconverted original must be kept")
	require.False(t, summary.CleanedUp)
	require.Equal(t, "copied: 2, errors: 1", rec.terminal(t).Message)
}

func TestRunConvertsInFixedFormatOrder(t *testing.T) {
	src := writeInstall(t, "9", []object{{key: "minecraft/sounds/a.ogg", hash: "ab0001", data: "a"}})
	codec := &fakeCodec{}

	rec := &recorder{}
	extraction.New(extraction.Options{Codec: codec}).Run(context.Background(), extraction.Job{
		SourceRoot:    src,
		OutputRoot:    t.TempDir(),
		Formats:       []transcode.Format{transcode.WAV, transcode.MP3, transcode.FLAC, transcode.WAV},
		KeepOriginals: true,
	}, rec.sink)

	require.Equal(t, []string{"mp3:a.ogg", "flac:a.ogg", "wav:a.ogg"}, codec.calls)

	var phases []extraction.Phase
	for _, ev := range rec.events {
		if ev.Kind != extraction.EventPercent {
			continue
		}
		if len(phases) == 0 || phases[len(phases)-1] != ev.Phase {
			phases = append(phases, ev.Phase)
		}
	}
	require.Equal(t, []extraction.Phase{extraction.PhaseCopy, "mp3", "flac", "wav"}, phases)
}

func TestRunParallelWorkersKeepPercentsOrdered(t *testing.T) {
	var entries []object
	for i := 0; i < 12; i++ {
		name := string(rune('a' + i))
		entries = append(entries, object{key: "minecraft/sounds/" + name + ".ogg", hash: "f" + name + "00" + name, data: name})
	}
	src := writeInstall(t, "9", entries)

	rec := &recorder{}
	summary := extraction.New(extraction.Options{Codec: &fakeCodec{}, Workers: 4}).Run(context.Background(), extraction.Job{
		SourceRoot:    src,
		OutputRoot:    t.TempDir(),
		Formats:       []transcode.Format{transcode.MP3, transcode.FLAC},
		KeepOriginals: true,
	}, rec.sink)

	require.Equal(t, 12, summary.Converted[transcode.MP3])
	require.Equal(t, 12, summary.Converted[transcode.FLAC])
	for _, f := range []transcode.Format{transcode.MP3, transcode.FLAC} {
		percents := rec.percents(extraction.FormatPhase(f))
		requireNonDecreasing(t, percents)
		require.Equal(t, 100, percents[len(percents)-1])
	}
}

func TestRunDuplicateKeyIsCopyError(t *testing.T) {
	src := writeInstall(t, "9", []object{{key: "minecraft/sounds/a.ogg", hash: "ab0001", data: "first"}})
	writeObject(t, src, "zz", "ab0001", "second")

	summary := extraction.New(extraction.Options{}).Run(context.Background(), extraction.Job{
		SourceRoot: src, OutputRoot: t.TempDir(), KeepOriginals: true,
	}, nil)

	require.Equal(t, extraction.StateDone, summary.Status)
	require.Equal(t, 1, summary.Copied)
	require.Equal(t, 1, summary.Errors)
	require.Contains(t, summary.Failures[0].Message, "duplicate key")
}

func TestRunCopyFailureIsCountedAndSkipped(t *testing.T) {
	src := writeInstall(t, "9", []object{
		{key: "minecraft/sounds/a.ogg", hash: "aa0001", data: "first"},
		{key: "minecraft/sounds/b.ogg", hash: "bb0002", data: "second"},
	})
	out := t.TempDir()
	// A directory where a.ogg belongs makes that one write fail.
	require.NoError(t, os.MkdirAll(filepath.Join(out, "ogg", "a.ogg"), 0o755))

	rec := &recorder{}
	summary := extraction.New(extraction.Options{VerifyCopies: true}).Run(context.Background(), extraction.Job{
		SourceRoot: src, OutputRoot: out, KeepOriginals: true,
	}, rec.sink)

	require.Equal(t, extraction.StateDone, summary.Status)
	require.Equal(t, 1, summary.Copied)
	require.Equal(t, 1, summary.Errors)
	require.Len(t, summary.Failures, 1)
	require.Contains(t, summary.Failures[0].Path, "aa0001")

	got, err := os.ReadFile(filepath.Join(out, "ogg", "b.ogg"))
	require.NoError(t, err)
	require.Equal(t, []byte("second"), got)

	done := rec.terminal(t)
	require.Equal(t, extraction.EventDone, done.Kind)
	require.Equal(t, "copied: 1, errors: 1", done.Message)
}

func TestRunMatchesHashCaseExactly(t *testing.T) {
	src := writeInstall(t, "9", []object{{key: "minecraft/sounds/a.ogg", hash: "AB0001", data: "upper"}})
	out := t.TempDir()

	summary := extraction.New(extraction.Options{}).Run(context.Background(), extraction.Job{
		SourceRoot: src, OutputRoot: out, KeepOriginals: true,
	}, nil)

	require.Equal(t, extraction.StateDone, summary.Status)
	require.Equal(t, 1, summary.Copied)
	got, err := os.ReadFile(filepath.Join(out, "ogg", "a.ogg"))
	require.NoError(t, err)
	require.Equal(t, []byte("upper"), got)
}

func TestRunMissingObjectStoreCountsError(t *testing.T) {
	src := writeInstall(t, "9", []object{{key: "minecraft/sounds/a.ogg", hash: "ab0001"}})

	summary := extraction.New(extraction.Options{}).Run(context.Background(), extraction.Job{
		SourceRoot: src, OutputRoot: t.TempDir(), KeepOriginals: true,
	}, nil)

	require.Equal(t, extraction.StateDone, summary.Status)
	require.Equal(t, 0, summary.Copied)
	require.Equal(t, 1, summary.Errors)
}

func TestRunDryRunCopiesNothing(t *testing.T) {
	src := writeInstall(t, "9", []object{{key: "minecraft/sounds/a.ogg", hash: "ab0001", data: "a"}})
	out := t.TempDir()

	summary := extraction.New(extraction.Options{Codec: &fakeCodec{}}).Run(context.Background(), extraction.Job{
		SourceRoot: src, OutputRoot: out, Formats: []transcode.Format{transcode.MP3}, DryRun: true,
	}, nil)

	require.Equal(t, extraction.StateDone, summary.Status)
	require.Equal(t, 1, summary.Matched)
	require.Equal(t, 0, summary.Copied)
	_, err := os.Stat(filepath.Join(out, "ogg"))
	require.True(t, os.IsNotExist(err))
}

type rejectVerifier struct{}

func (rejectVerifier) Verify(context.Context, string) error { return errors.New("no audio stream") }

func TestRunVerifierRejectsOutput(t *testing.T) {
	src := writeInstall(t, "9", []object{{key: "minecraft/sounds/a.ogg", hash: "ab0001", data: "a"}})
	out := t.TempDir()

	summary := extraction.New(extraction.Options{Codec: &fakeCodec{}, Verifier: rejectVerifier{}}).Run(context.Background(), extraction.Job{
		SourceRoot: src, OutputRoot: out, Formats: []transcode.Format{transcode.MP3}, KeepOriginals: false,
	}, nil)

	require.Equal(t, 1, summary.Errors)
	require.Equal(t, 0, summary.Converted[transcode.MP3])
	require.NoFileExists(t, filepath.Join(out, "mp3", "a.mp3"))
	require.FileExists(t, filepath.Join(out, "ogg", "a.ogg"))
}

func TestRunCanceledContextFailsJob(t *testing.T) {
	src := writeInstall(t, "9", []object{{key: "minecraft/sounds/a.ogg", hash: "ab0001", data: "a"}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary := extraction.New(extraction.Options{}).Run(ctx, extraction.Job{
		SourceRoot: src, OutputRoot: t.TempDir(),
	}, nil)

	require.Equal(t, extraction.StateFailed, summary.Status)
	require.Equal(t, failure.ReasonCanceled, summary.Reason)
}

func TestStartStreamsAndCloses(t *testing.T) {
	src := writeInstall(t, "9", []object{
		{key: "minecraft/sounds/a.ogg", hash: "ab0001", data: "a"},
		{key: "minecraft/sounds/b.ogg", hash: "ab0002", data: "b"},
	})

	events := extraction.New(extraction.Options{Codec: &fakeCodec{}}).Start(context.Background(), extraction.Job{
		ID:         "job-42",
		SourceRoot: src,
		OutputRoot: t.TempDir(),
		Formats:    []transcode.Format{transcode.WAV},
	})

	rec := &recorder{}
	for ev := range events {
		require.Equal(t, "job-42", ev.JobID)
		rec.sink(ev)
	}
	done := rec.terminal(t)
	require.Equal(t, extraction.EventDone, done.Kind)
	require.NotNil(t, done.Summary)
	require.Equal(t, 2, done.Summary.Copied)
}

func TestRunRejectsUnknownFormat(t *testing.T) {
	summary := extraction.New(extraction.Options{}).Run(context.Background(), extraction.Job{
		SourceRoot: t.TempDir(), OutputRoot: t.TempDir(), Formats: []transcode.Format{"aac"},
	}, nil)
	require.Equal(t, extraction.StateFailed, summary.Status)
	require.Equal(t, failure.ReasonInternal, summary.Reason)
	require.True(t, strings.Contains(summary.Message, "aac"))
}

func TestCopiedFilesAreByteIdentical(t *testing.T) {
	payload := bytes.Repeat([]byte{0x4f, 0x67, 0x67, 0x53, 0x00, 0xff}, 4096)
	src := writeInstall(t, "9", []object{{key: "minecraft/sounds/big.ogg", hash: "ab0001", data: string(payload)}})
	out := t.TempDir()

	summary := extraction.New(extraction.Options{VerifyCopies: true}).Run(context.Background(), extraction.Job{
		SourceRoot: src, OutputRoot: out, KeepOriginals: true,
	}, nil)

	require.Equal(t, int64(len(payload)), summary.CopiedBytes)
	got, err := os.ReadFile(filepath.Join(out, "ogg", "big.ogg"))
	require.NoError(t, err)
	require.True(t, bytes.Equal(payload, got))
}
