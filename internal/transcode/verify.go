package transcode

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"mcsounds/internal/media/ffprobe"
)

// ProbeVerifier rejects converted files that ffprobe cannot read, that carry
// no audio stream, report zero duration, or whose audio codec does not match
// the file extension.
type ProbeVerifier struct {
	Binary string
}

// Verify inspects path with ffprobe.
func (v ProbeVerifier) Verify(ctx context.Context, path string) error {
	result, err := ffprobe.Inspect(ctx, v.Binary, path)
	if err != nil {
		return err
	}
	if result.AudioStreamCount() == 0 {
		return fmt.Errorf("verify %s: no audio stream", path)
	}
	if d, ok := result.Duration(); ok && d == 0 {
		return fmt.Errorf("verify %s: zero duration", path)
	}
	format, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return nil
	}
	if want, got := format.Codec(), result.AudioCodec(); want != "" && !strings.EqualFold(want, got) {
		return fmt.Errorf("verify %s: audio codec %q, want %q", path, got, want)
	}
	return nil
}
