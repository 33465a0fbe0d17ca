package sessiond

import (
	"path/filepath"
	"strings"

	"github.com/pweiskircher/cmux/internal/runenv"
)

// PidPathFor returns the pid file guarding socketPath. The socket in the
// runtime dir uses the runtime pid file; any other socket gets a pid file
// next to it, so daemons on different sockets never share a lock.
func PidPathFor(socketPath string) (string, error) {
	if path := runenv.PidPath(); path != "" {
		return path, nil
	}
	socketPath = strings.TrimSpace(socketPath)
	if socketPath == "" {
		return DefaultPidPath()
	}
	if def, err := runtimeSocketPath(); err == nil && filepath.Clean(def) == filepath.Clean(socketPath) {
		return DefaultPidPath()
	}
	return strings.TrimSuffix(socketPath, filepath.Ext(socketPath)) + ".pid", nil
}
