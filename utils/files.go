package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// CopyFile copies src to dst byte for byte and returns the number of bytes
// written. A partially written dst is removed on failure.
func CopyFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(out, in)
	if err == nil {
		err = out.Sync()
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dst)
		return 0, err
	}
	return n, nil
}

// WriteFileAtomic writes data to a temp file in the same directory and
// renames it over path.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// MoveRegularFiles moves every regular file directly under srcDir into
// dstDir, one file at a time (copy then remove). Directories and the paths
// listed in skip are left in place. It stops at the first failure and
// reports which file it was; files moved before that stay in dstDir.
func MoveRegularFiles(srcDir, dstDir string, skip ...string) (int, error) {
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", srcDir, err)
	}

	skipped := make(map[string]bool, len(skip))
	for _, p := range skip {
		skipped[filepath.Clean(p)] = true
	}

	moved := 0
	for _, entry := range entries {
		src := filepath.Join(srcDir, entry.Name())
		if skipped[src] {
			continue
		}
		info, err := os.Stat(src)
		if err != nil {
			return moved, fmt.Errorf("failed to stat %s: %w", src, err)
		}
		if !info.Mode().IsRegular() {
			continue
		}

		dst := filepath.Join(dstDir, entry.Name())
		if _, err := CopyFile(src, dst); err != nil {
			return moved, fmt.Errorf("failed to copy %s: %w", entry.Name(), err)
		}
		if err := os.Remove(src); err != nil {
			return moved, fmt.Errorf("failed to remove %s: %w", src, err)
		}

		logrus.WithFields(logrus.Fields{
			"file": entry.Name(),
			"from": srcDir,
			"to":   dstDir,
		}).Debug("Moved file")
		moved++
	}
	return moved, nil
}
