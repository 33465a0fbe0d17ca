//go:build !windows

package appdirs

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/pweiskircher/cmux/internal/identity"
	"github.com/pweiskircher/cmux/internal/runenv"
)

var privateDirWarnOnce sync.Once

// RuntimeDir returns the directory used for runtime state (socket/pid/logs),
// creating it with owner-only permissions.
func RuntimeDir() (string, error) {
	dir, isOverride, err := runtimeDirPath()
	if err != nil {
		return "", err
	}
	return EnsurePrivateDir(dir, isOverride)
}

// RuntimeDirPath resolves the runtime dir without touching the filesystem.
func RuntimeDirPath() (string, error) {
	dir, _, err := runtimeDirPath()
	return dir, err
}

func runtimeDirPath() (string, bool, error) {
	if override := runenv.RuntimeDir(); override != "" {
		return override, true, nil
	}
	if xdg := os.Getenv("XDG_RUNTIME_DIR"); xdg != "" {
		return filepath.Join(xdg, identity.AppSlug), false, nil
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", false, fmt.Errorf("resolve cache dir: %w", err)
	}
	return filepath.Join(dir, identity.AppSlug), false, nil
}

// ConfigDirPath returns the directory holding config.yml.
func ConfigDirPath() (string, error) {
	if override := runenv.ConfigDir(); override != "" {
		return override, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, identity.AppSlug), nil
}

// EnsurePrivateDir creates dir with 0700 or tightens an existing default dir.
// Overrides chosen by the user are only warned about.
func EnsurePrivateDir(dir string, isOverride bool) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("directory path is empty")
	}
	info, err := os.Stat(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("stat dir: %w", err)
		}
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return "", fmt.Errorf("create dir: %w", err)
		}
		return dir, nil
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%q is not a directory", dir)
	}
	mode := info.Mode().Perm()
	if mode&0o077 == 0 {
		return dir, nil
	}
	if isOverride {
		privateDirWarnOnce.Do(func() {
			slog.Warn("dir is group/world accessible; consider chmod 0700", "path", dir, "mode", mode.String())
		})
		return dir, nil
	}
	if ownedByCurrentUser(info) {
		if err := os.Chmod(dir, 0o700); err != nil {
			return "", fmt.Errorf("chmod dir: %w", err)
		}
		return dir, nil
	}
	privateDirWarnOnce.Do(func() {
		slog.Warn("dir is not owned by current user; permissions unchanged", "path", dir, "mode", mode.String())
	})
	return dir, nil
}

func ownedByCurrentUser(info os.FileInfo) bool {
	if info == nil {
		return false
	}
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return false
	}
	return stat.Uid == uint32(os.Getuid())
}
