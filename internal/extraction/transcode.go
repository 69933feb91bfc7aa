package extraction

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"mcsounds/internal/failure"
	"mcsounds/internal/transcode"
)

// transcodeStage converts every copied file into each format, one format pass
// at a time in transcode.Order. Availability is checked once up front.
func (r *run) transcodeStage(formats []transcode.Format) error {
	codec := r.engine.codec
	if codec == nil {
		return failure.Wrap(failure.ErrCodecUnavailable, "convert", "", "no codec configured", nil)
	}
	if err := codec.Available(r.ctx, formats); err != nil {
		if !errors.Is(err, failure.ErrCodecUnavailable) {
			err = failure.Wrap(failure.ErrCodecUnavailable, "convert", "probe codec", "", err)
		}
		return err
	}

	for _, format := range formats {
		if err := r.canceled(FormatPhase(format)); err != nil {
			return err
		}
		if err := r.convertPass(codec, format); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) convertPass(codec transcode.Codec, format transcode.Format) error {
	phase := FormatPhase(format)
	dir := filepath.Join(r.job.OutputRoot, string(format))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		r.itemFailed(phase, dir, failure.Wrap(failure.ErrConversion, string(phase), "create output directory", "", err))
		return nil
	}

	r.percent(phase, 0)
	converted := 0
	group := new(errgroup.Group)
	group.SetLimit(r.engine.workers)
	for _, file := range r.copied {
		if err := r.canceled(phase); err != nil {
			break
		}
		dst := filepath.Join(dir, stem(file.filename)+format.Extension())
		group.Go(func() error {
			err := r.convertOne(codec, file.path, dst, format)

			r.mu.Lock()
			defer r.mu.Unlock()
			if err != nil {
				if r.ctx.Err() == nil {
					r.itemFailed(phase, file.path, err)
				}
				return nil
			}
			file.converted++
			converted++
			r.summary.Converted[format] = converted
			r.logTransfer(phase, file.path, dst)
			r.percent(phase, converted)
			return nil
		})
	}
	_ = group.Wait()
	return r.canceled(phase)
}

func (r *run) convertOne(codec transcode.Codec, src, dst string, format transcode.Format) error {
	if err := codec.Convert(r.ctx, src, dst, format); err != nil {
		return failure.Wrap(failure.ErrConversion, string(format), "", filepath.Base(src), err)
	}
	if r.engine.verifier == nil {
		return nil
	}
	if err := r.engine.verifier.Verify(r.ctx, dst); err != nil {
		_ = os.Remove(dst)
		return failure.Wrap(failure.ErrConversion, string(format), "verify", filepath.Base(dst), err)
	}
	return nil
}

func stem(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}
