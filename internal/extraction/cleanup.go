package extraction

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"mcsounds/internal/fileutil"
)

// cleanupIntermediate removes the originals this job copied once they were
// converted into every selected format, then drops the originals directory if
// nothing else is left in it. Files in the originals directory that this job
// did not copy, or that failed a conversion, are kept and leave the directory
// in place.
func (r *run) cleanupIntermediate(formatCount int) {
	removed := 0
	kept := 0
	for _, file := range r.copied {
		if file.converted < formatCount {
			kept++
			continue
		}
		if err := os.Remove(file.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			r.itemFailed(PhaseCleanup, file.path, err)
			continue
		}
		removed++
	}
	r.summary.Removed = removed

	dir := filepath.Join(r.job.OutputRoot, OriginalsDir)
	gone, err := fileutil.RemoveEmptyDir(dir)
	if err != nil {
		r.itemFailed(PhaseCleanup, dir, err)
		return
	}
	r.summary.CleanedUp = gone
	message := fmt.Sprintf("removed %d intermediate files", removed)
	if kept > 0 {
		message += fmt.Sprintf(", kept %d that did not convert", kept)
	}
	if gone {
		message += "; removed " + dir
	}
	r.log(PhaseCleanup, slog.LevelInfo, message)
}
