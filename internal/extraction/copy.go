package extraction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"mcsounds/internal/assets"
	"mcsounds/internal/failure"
	"mcsounds/internal/fileutil"
	"mcsounds/internal/logging"
	"mcsounds/internal/objectstore"
)

// copyStage walks the object store and copies every indexed object into the
// originals directory. Copies run strictly one at a time.
func (r *run) copyStage(index assets.HashIndex) error {
	oggDir := filepath.Join(r.job.OutputRoot, OriginalsDir)
	if !r.job.DryRun {
		if err := os.MkdirAll(oggDir, 0o755); err != nil {
			r.itemFailed(PhaseCopy, oggDir, failure.Wrap(failure.ErrCopy, string(PhaseCopy), "create output directory", "", err))
			return nil
		}
	}

	r.percent(PhaseCopy, 0)
	matcher := objectstore.NewMatcher(index)
	scanner := objectstore.NewScanner(assets.ObjectsDir(r.job.SourceRoot), r.logger)
	err := scanner.Walk(r.ctx, func(obj objectstore.Object) error {
		r.summary.Scanned++
		match, ok, err := matcher.Match(obj)
		if err != nil {
			r.itemFailed(PhaseCopy, obj.Path, err)
			return nil
		}
		if !ok {
			return nil
		}
		r.summary.Matched++
		dst := filepath.Join(oggDir, match.Filename)
		if r.job.DryRun {
			r.log(PhaseCopy, slog.LevelDebug, fmt.Sprintf("would copy %s -> %s", obj.Path, dst))
			r.percent(PhaseCopy, r.summary.Matched)
			return nil
		}
		return r.copyOne(match, dst)
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return failure.Wrap(failure.ErrCanceled, string(PhaseCopy), "", "", err)
	case errors.Is(err, failure.ErrNotFound):
		logging.WarnWithContext(r.logger, "object store missing; nothing copied", "objects_missing",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "launch the game once so sounds are downloaded into assets/objects"),
			logging.String(logging.FieldImpact, "no sound files were extracted"),
		)
		r.itemFailed(PhaseCopy, assets.ObjectsDir(r.job.SourceRoot), err)
		return nil
	default:
		r.itemFailed(PhaseCopy, assets.ObjectsDir(r.job.SourceRoot), err)
		return nil
	}
}

func (r *run) copyOne(match objectstore.Match, dst string) error {
	copyFn := fileutil.CopyFile
	if r.engine.verifyCopies {
		copyFn = fileutil.CopyFileVerified
	}
	n, err := copyFn(match.Path, dst)
	if err != nil {
		r.itemFailed(PhaseCopy, match.Path, failure.Wrap(failure.ErrCopy, string(PhaseCopy), "", match.Filename, err))
		return nil
	}
	r.copied = append(r.copied, &copiedFile{hash: match.Hash, filename: match.Filename, path: dst})
	r.summary.Copied++
	r.summary.CopiedBytes += n
	r.logTransfer(PhaseCopy, match.Path, dst)
	r.percent(PhaseCopy, r.summary.Copied)
	return nil
}
