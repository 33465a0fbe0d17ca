//go:build !windows

package sessiond

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/sys/unix"
)

// pidLock holds an exclusive flock on the pid file for the daemon's lifetime.
type pidLock struct {
	path string
	file *os.File
}

func acquirePidLock(path string) (*pidLock, error) {
	if path == "" {
		return &pidLock{}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("sessiond: create pid dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("sessiond: open pid file: %w", err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		_ = f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, fmt.Errorf("%w (pid file %s is locked)", ErrDaemonRunning, path)
		}
		return nil, fmt.Errorf("sessiond: lock pid file: %w", err)
	}
	if err := f.Truncate(0); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("sessiond: truncate pid file: %w", err)
	}
	if _, err := f.WriteAt([]byte(strconv.Itoa(os.Getpid())+"\n"), 0); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("sessiond: write pid file: %w", err)
	}
	return &pidLock{path: path, file: f}, nil
}

func (l *pidLock) release() error {
	if l == nil || l.file == nil {
		return nil
	}
	_ = os.Remove(l.path)
	_ = unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	err := l.file.Close()
	l.file = nil
	return err
}
