package objectstore

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"mcsounds/internal/failure"
	"mcsounds/internal/logging"
)

// Object is a regular file found under the object store root.
type Object struct {
	Path string
	Key  string
	Size int64
}

// Scanner walks an object store rooted at Root.
type Scanner struct {
	Root   string
	Logger *slog.Logger
}

// NewScanner constructs a scanner for root.
func NewScanner(root string, logger *slog.Logger) *Scanner {
	return &Scanner{Root: root, Logger: logging.NewComponentLogger(logger, "objectstore")}
}

// Key derives the lookup key for a stored object: the filename with any
// extension stripped. Dot files keep their full name.
func Key(name string) string {
	base := filepath.Base(name)
	key := strings.TrimSuffix(base, filepath.Ext(base))
	if key == "" {
		return base
	}
	return key
}

// Walk calls fn for every regular file under the root. Unreadable
// subdirectories are logged and skipped; an unreadable root is returned as an
// error. A symlinked root is followed; links below it are not. The context is
// checked before each file and fn errors stop the walk.
func (s *Scanner) Walk(ctx context.Context, fn func(Object) error) error {
	root := strings.TrimSpace(s.Root)
	if root == "" {
		return errors.New("object store root is empty")
	}
	info, err := os.Stat(root)
	if err != nil {
		return failure.Wrap(failure.ErrNotFound, "scan", "stat object store", root, err)
	}
	if !info.IsDir() {
		return failure.Wrap(failure.ErrNotFound, "scan", "", root+" is not a directory", nil)
	}
	// WalkDir does not follow a symlinked root; the trailing separator makes
	// it resolve the link while reported paths keep the configured prefix.
	// Launchers that share assets between instances link the objects folder.
	walkRoot := strings.TrimRight(root, string(filepath.Separator)) + string(filepath.Separator)

	return filepath.WalkDir(walkRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			if path == walkRoot {
				return walkErr
			}
			logging.WarnWithContext(s.logger(), "skipping unreadable object store entry", "object_scan_skipped",
				logging.String("path", path),
				logging.Error(walkErr),
				logging.String(logging.FieldErrorHint, "check permissions under the assets/objects folder"),
				logging.String(logging.FieldImpact, "objects in this directory are not extracted"),
			)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		var size int64
		if fi, err := d.Info(); err == nil {
			size = fi.Size()
		}
		return fn(Object{Path: path, Key: Key(d.Name()), Size: size})
	})
}

func (s *Scanner) logger() *slog.Logger {
	if s.Logger == nil {
		return logging.NewNop()
	}
	return s.Logger
}
