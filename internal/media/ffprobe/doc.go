// Package ffprobe runs ffprobe against a single media file and exposes the
// handful of fields output verification needs: audio streams, their codec,
// duration and size.
package ffprobe
