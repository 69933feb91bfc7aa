package transcode

import (
	"fmt"
	"strings"
)

// Format is a conversion target.
type Format string

const (
	MP3  Format = "mp3"
	FLAC Format = "flac"
	WAV  Format = "wav"
)

// Order is the fixed evaluation order for conversion passes.
var Order = []Format{MP3, FLAC, WAV}

// DefaultMP3BitrateKbps is the mp3 encoding bitrate.
const DefaultMP3BitrateKbps = 192

// ParseFormat validates a format name case-insensitively.
func ParseFormat(value string) (Format, error) {
	candidate := Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(value), ".")))
	for _, f := range Order {
		if f == candidate {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported output format %q (expected one of mp3, flac, wav)", value)
}

// ParseFormats validates values, drops duplicates, and returns them in Order.
func ParseFormats(values []string) ([]Format, error) {
	selected := make(map[Format]struct{}, len(values))
	for _, value := range values {
		if strings.TrimSpace(value) == "" {
			continue
		}
		f, err := ParseFormat(value)
		if err != nil {
			return nil, err
		}
		selected[f] = struct{}{}
	}
	return Ordered(selected), nil
}

// Ordered returns the formats present in set, in Order.
func Ordered(set map[Format]struct{}) []Format {
	out := make([]Format, 0, len(set))
	for _, f := range Order {
		if _, ok := set[f]; ok {
			out = append(out, f)
		}
	}
	return out
}

// Extension returns the file extension including the leading dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// Encoder returns the ffmpeg encoder used for the format.
func (f Format) Encoder() string {
	switch f {
	case MP3:
		return "libmp3lame"
	case FLAC:
		return "flac"
	case WAV:
		return "pcm_s16le"
	default:
		return ""
	}
}

// Codec returns the codec name ffprobe reports for files of the format.
func (f Format) Codec() string {
	switch f {
	case MP3:
		return "mp3"
	case FLAC:
		return "flac"
	case WAV:
		return "pcm_s16le"
	default:
		return ""
	}
}

// Muxer returns the ffmpeg output container name for the format.
func (f Format) Muxer() string {
	return string(f)
}

// Strings renders formats for logs and persistence.
func Strings(formats []Format) []string {
	out := make([]string, 0, len(formats))
	for _, f := range formats {
		out = append(out, string(f))
	}
	return out
}
