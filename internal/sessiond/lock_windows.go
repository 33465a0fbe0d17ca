//go:build windows

package sessiond

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

type pidLock struct {
	path string
}

func acquirePidLock(path string) (*pidLock, error) {
	if path == "" {
		return &pidLock{}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("sessiond: create pid dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o600); err != nil {
		return nil, fmt.Errorf("sessiond: write pid file: %w", err)
	}
	return &pidLock{path: path}, nil
}

func (l *pidLock) release() error {
	if l == nil || l.path == "" {
		return nil
	}
	return os.Remove(l.path)
}
