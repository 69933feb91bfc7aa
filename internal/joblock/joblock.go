// Package joblock serializes extraction jobs that write to the same output
// folder, across processes, using an advisory file lock.
package joblock

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked is returned when another job holds the lock for the output folder.
var ErrLocked = errors.New("another extraction is writing to this output folder")

// Lock is a held job lock.
type Lock struct {
	path  string
	flock *flock.Flock
}

// PathFor returns the lock file used for outputRoot inside locksDir.
func PathFor(locksDir, outputRoot string) (string, error) {
	abs, err := filepath.Abs(outputRoot)
	if err != nil {
		return "", fmt.Errorf("resolve output root: %w", err)
	}
	sum := sha256.Sum256([]byte(filepath.Clean(abs)))
	return filepath.Join(locksDir, hex.EncodeToString(sum[:8])+".lock"), nil
}

// Acquire takes the lock for outputRoot without blocking.
func Acquire(locksDir, outputRoot string) (*Lock, error) {
	path, err := PathFor(locksDir, outputRoot)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(locksDir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (%s)", ErrLocked, outputRoot)
	}
	return &Lock{path: path, flock: fl}, nil
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.path
}

// Release unlocks and removes the lock file.
func (l *Lock) Release() error {
	if l == nil || l.flock == nil {
		return nil
	}
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	_ = os.Remove(l.path)
	return nil
}
