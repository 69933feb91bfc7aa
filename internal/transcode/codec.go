package transcode

import "context"

// Codec decodes a source file and encodes it in a target format.
type Codec interface {
	// Available reports, once per job, whether every format can be produced.
	// A failure is tagged failure.ErrCodecUnavailable.
	Available(ctx context.Context, formats []Format) error
	// Convert writes src as format to dst. dst is only present on success.
	Convert(ctx context.Context, src, dst string, format Format) error
}

// Verifier checks a converted file after it has been written.
type Verifier interface {
	Verify(ctx context.Context, path string) error
}
