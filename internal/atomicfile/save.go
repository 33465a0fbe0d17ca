// Package atomicfile replaces files through a synced temp file and a rename,
// so readers see either the old contents or the new ones.
package atomicfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const defaultPerm = 0o600

// Save writes data next to path and renames it into place. A zero perm
// means 0600.
func Save(path string, data []byte, perm os.FileMode) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("atomicfile: path is required")
	}
	if perm == 0 {
		perm = defaultPerm
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("atomicfile: create dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("atomicfile: create temp: %w", err)
	}
	if err := fill(tmp, data, perm); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("atomicfile: replace %s: %w", path, err)
	}
	return nil
}

// CreateIfMissing writes data to path only when nothing exists there yet.
// It reports whether the file was created.
func CreateIfMissing(path string, data []byte, perm os.FileMode) (bool, error) {
	info, err := os.Stat(path)
	switch {
	case err == nil && info.IsDir():
		return false, fmt.Errorf("atomicfile: %q is a directory", path)
	case err == nil:
		return false, nil
	case !errors.Is(err, fs.ErrNotExist):
		return false, fmt.Errorf("atomicfile: stat %q: %w", path, err)
	}
	if err := Save(path, data, perm); err != nil {
		return false, err
	}
	return true, nil
}

// fill writes, syncs and closes f. f is closed on every path.
func fill(f *os.File, data []byte, perm os.FileMode) error {
	err := f.Chmod(perm)
	if err == nil {
		_, err = f.Write(data)
	}
	if err == nil {
		err = f.Sync()
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("atomicfile: write temp: %w", err)
	}
	return nil
}
