// Package transcode converts extracted sounds into other audio formats.
//
// The codec itself is external: FFmpeg implements Codec by shelling out to an
// ffmpeg binary. Formats are always processed in the fixed Order so logs are
// reproducible between runs.
package transcode
