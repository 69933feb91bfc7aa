package fileutil

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// CopyFile streams src to dst with default permissions (0o644) and returns the
// number of bytes written. dst is replaced through a temporary sibling so a
// failed copy never leaves a truncated file behind.
func CopyFile(src, dst string) (int64, error) {
	return copyFile(src, dst, false)
}

// CopyFileVerified behaves like CopyFile and additionally checks size and
// SHA-256 of the written bytes against the source.
func CopyFileVerified(src, dst string) (int64, error) {
	return copyFile(src, dst, true)
}

// beforeVerify runs between writing the temporary copy and verifying it.
// Tests use it to damage the written bytes.
var beforeVerify func(tmpPath string)

func copyFile(src, dst string, verify bool) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	srcInfo, err := in.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat source: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".tmp-*")
	if err != nil {
		return 0, err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	srcHasher := sha256.New()
	var reader io.Reader = in
	if verify {
		reader = io.TeeReader(in, srcHasher)
	}

	written, err := io.Copy(tmp, reader)
	if err != nil {
		return written, err
	}
	if err := tmp.Chmod(0o644); err != nil {
		return written, err
	}
	if err := tmp.Close(); err != nil {
		return written, err
	}

	if verify {
		if beforeVerify != nil {
			beforeVerify(tmpName)
		}
		if written != srcInfo.Size() {
			return written, fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", srcInfo.Size(), written)
		}
		onDisk, size, err := hashFile(tmpName)
		if err != nil {
			return written, fmt.Errorf("verify copy: %w", err)
		}
		if size != written {
			return written, fmt.Errorf("copy size mismatch: wrote %d bytes, found %d on disk", written, size)
		}
		if !bytes.Equal(srcHasher.Sum(nil), onDisk) {
			return written, fmt.Errorf("copy hash mismatch: file corrupted during copy")
		}
	}

	if err := os.Rename(tmpName, dst); err != nil {
		return written, err
	}
	return written, nil
}

// hashFile returns the SHA-256 and length of the file at path as read back
// from disk.
func hashFile(path string) ([]byte, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()
	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return nil, n, err
	}
	return h.Sum(nil), n, nil
}

// RemoveEmptyDir removes dir only when it has no entries. It reports whether
// the directory was removed; a non-empty or missing directory is not an error.
func RemoveEmptyDir(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if len(entries) > 0 {
		return false, nil
	}
	if err := os.Remove(dir); err != nil {
		return false, err
	}
	return true, nil
}
