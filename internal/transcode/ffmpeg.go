package transcode

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"mcsounds/internal/failure"
)

// FFmpeg implements Codec with an ffmpeg executable.
type FFmpeg struct {
	Binary         string
	MP3BitrateKbps int
	Timeout        time.Duration

	once     sync.Once
	encoders map[string]struct{}
	probeErr error
}

// NewFFmpeg constructs a codec for binary. Zero options fall back to defaults.
func NewFFmpeg(binary string, mp3BitrateKbps int, timeout time.Duration) *FFmpeg {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	if mp3BitrateKbps <= 0 {
		mp3BitrateKbps = DefaultMP3BitrateKbps
	}
	return &FFmpeg{Binary: binary, MP3BitrateKbps: mp3BitrateKbps, Timeout: timeout}
}

// Available verifies the binary resolves and lists an encoder for every format.
func (c *FFmpeg) Available(ctx context.Context, formats []Format) error {
	encoders, err := c.listEncoders(ctx)
	if err != nil {
		return failure.Wrap(failure.ErrCodecUnavailable, "convert", "probe ffmpeg", c.Binary, err)
	}
	var missing []string
	for _, f := range formats {
		name := f.Encoder()
		if name == "" {
			missing = append(missing, string(f))
			continue
		}
		if _, ok := encoders[name]; !ok {
			missing = append(missing, fmt.Sprintf("%s (encoder %s)", f, name))
		}
	}
	if len(missing) > 0 {
		return failure.Wrap(failure.ErrCodecUnavailable, "convert", "probe ffmpeg",
			"unsupported formats: "+strings.Join(missing, ", "), nil)
	}
	return nil
}

// Convert encodes src into dst. Output goes to a sibling partial file that is
// renamed into place once ffmpeg exits cleanly.
func (c *FFmpeg) Convert(ctx context.Context, src, dst string, format Format) error {
	if format.Encoder() == "" {
		return failure.Wrap(failure.ErrCodecUnavailable, "convert", "", "unsupported format "+string(format), nil)
	}
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	partial := filepath.Join(filepath.Dir(dst), "."+filepath.Base(dst)+".partial")
	cmd := exec.CommandContext(ctx, c.Binary, c.Args(src, partial, format)...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		_ = os.Remove(partial)
		detail := strings.TrimSpace(string(output))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("ffmpeg %s: %w", format, ctxErr)
		}
		if detail != "" {
			return fmt.Errorf("ffmpeg %s: %w: %s", format, err, lastLine(detail))
		}
		return fmt.Errorf("ffmpeg %s: %w", format, err)
	}
	if err := os.Rename(partial, dst); err != nil {
		_ = os.Remove(partial)
		return fmt.Errorf("finalize %s: %w", dst, err)
	}
	return nil
}

// Args returns the ffmpeg arguments for one conversion.
func (c *FFmpeg) Args(src, dst string, format Format) []string {
	args := []string{"-hide_banner", "-nostdin", "-v", "error", "-y", "-i", src, "-vn", "-map_metadata", "0", "-c:a", format.Encoder()}
	if format == MP3 {
		bitrate := c.MP3BitrateKbps
		if bitrate <= 0 {
			bitrate = DefaultMP3BitrateKbps
		}
		args = append(args, "-b:a", strconv.Itoa(bitrate)+"k")
	}
	return append(args, "-f", format.Muxer(), dst)
}

func (c *FFmpeg) listEncoders(ctx context.Context) (map[string]struct{}, error) {
	c.once.Do(func() {
		if _, err := exec.LookPath(c.Binary); err != nil {
			c.probeErr = err
			return
		}
		probeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		output, err := exec.CommandContext(probeCtx, c.Binary, "-hide_banner", "-encoders").Output()
		if err != nil {
			c.probeErr = err
			return
		}
		c.encoders = ParseEncoders(output)
		if len(c.encoders) == 0 {
			c.probeErr = errors.New("ffmpeg reported no encoders")
		}
	})
	return c.encoders, c.probeErr
}

// ParseEncoders extracts encoder names from `ffmpeg -encoders` output. Each
// encoder line starts with a six character capability column.
func ParseEncoders(output []byte) map[string]struct{} {
	encoders := make(map[string]struct{})
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 || len(fields[0]) != 6 {
			continue
		}
		switch fields[0][0] {
		case 'A', 'V', 'S':
		default:
			continue
		}
		if fields[1] == "=" {
			continue
		}
		encoders[fields[1]] = struct{}{}
	}
	return encoders
}

func lastLine(value string) string {
	if idx := strings.LastIndexByte(value, '\n'); idx >= 0 {
		return strings.TrimSpace(value[idx+1:])
	}
	return value
}
