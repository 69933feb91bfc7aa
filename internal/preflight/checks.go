package preflight

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"

	"mcsounds/internal/assets"
	"mcsounds/internal/transcode"
)

// Output size relative to the Vorbis source, per format. Rough upper bounds
// for game sound effects.
var sizeFactor = map[transcode.Format]float64{
	transcode.MP3:  1.5,
	transcode.FLAC: 6,
	transcode.WAV:  10,
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckOutputRoot accepts an existing writable directory or a missing one
// whose nearest existing parent is writable.
func CheckOutputRoot(name, path string) Result {
	if _, err := os.Stat(path); err == nil {
		return CheckDirectoryAccess(name, path)
	}
	parent := existingAncestor(path)
	if parent == "" {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: no existing parent)", path)}
	}
	if err := unix.Access(parent, unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: cannot create under %s: %v)", path, parent, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (will be created)", path)}
}

// CheckMinecraftInstall verifies that root holds an asset index and an object
// store. It also returns the declared size of the sound entries of the
// selected index, or 0 when it cannot be read.
func CheckMinecraftInstall(root, ext string) (Result, int64) {
	const name = "Minecraft folder"
	manifestPath, err := assets.LocateManifest(root)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: no asset index)", root)}, 0
	}
	if err := unix.Access(assets.ObjectsDir(root), unix.R_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: assets/objects unreadable: %v)", root, err)}, 0
	}
	manifest, err := assets.Load(manifestPath)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", filepath.Base(manifestPath), err)}, 0
	}
	index, err := manifest.Index(ext)
	if err != nil || len(index) == 0 {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: no sound entries)", filepath.Base(manifestPath))}, 0
	}
	bytes := manifest.Bytes(ext)
	return Result{
		Name:   name,
		Passed: true,
		Detail: fmt.Sprintf("%s index %s: %s sounds, %s", root, manifest.Version, humanize.Comma(int64(len(index))), humanize.Bytes(uint64(bytes))),
	}, bytes
}

// EstimateOutputBytes estimates the space a job needs for the originals plus
// every converted copy.
func EstimateOutputBytes(soundBytes int64, formats []transcode.Format) uint64 {
	total := float64(soundBytes)
	for _, f := range formats {
		total += float64(soundBytes) * sizeFactor[f]
	}
	return uint64(total)
}

// CheckFreeSpace compares the space available at path (or its nearest
// existing parent) with need.
func CheckFreeSpace(name, path string, need uint64) Result {
	target := existingAncestor(path)
	if target == "" {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: no existing parent)", path)}
	}
	var stat unix.Statfs_t
	if err := unix.Statfs(target, &stat); err != nil {
		return Result{Name: name, Optional: true, Detail: fmt.Sprintf("%s (statfs failed: %v)", target, err)}
	}
	available := stat.Bavail * uint64(stat.Bsize)
	detail := fmt.Sprintf("%s available, about %s needed", humanize.Bytes(available), humanize.Bytes(need))
	if available < need {
		return Result{Name: name, Detail: detail}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckEncoders asks the codec whether every selected format can be produced.
func CheckEncoders(ctx context.Context, codec transcode.Codec, formats []transcode.Format) Result {
	const name = "Encoders"
	if len(formats) == 0 {
		return Result{Name: name, Passed: true, Optional: true, Detail: "no formats selected"}
	}
	if err := codec.Available(ctx, formats); err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%v ready", transcode.Strings(formats))}
}

func existingAncestor(path string) string {
	current := filepath.Clean(path)
	for {
		if info, err := os.Stat(current); err == nil && info.IsDir() {
			return current
		}
		parent := filepath.Dir(current)
		if parent == current {
			return ""
		}
		current = parent
	}
}
