//go:build !windows

package sessiond

import (
	"path/filepath"

	"github.com/pweiskircher/cmux/internal/appdirs"
	"github.com/pweiskircher/cmux/internal/identity"
	"github.com/pweiskircher/cmux/internal/runenv"
)

// DefaultSocketPath returns the socket path, honoring the override env var.
func DefaultSocketPath() (string, error) {
	if path := runenv.SocketPath(); path != "" {
		return path, nil
	}
	return runtimeSocketPath()
}

func runtimeSocketPath() (string, error) {
	dir, err := appdirs.RuntimeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, identity.SocketFile), nil
}

// DefaultPidPath returns the pid file path, honoring the override env var.
func DefaultPidPath() (string, error) {
	if path := runenv.PidPath(); path != "" {
		return path, nil
	}
	dir, err := appdirs.RuntimeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, identity.PidFile), nil
}
