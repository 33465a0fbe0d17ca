package sessiond

import (
	"errors"
	"io/fs"
	"net"

	"github.com/pweiskircher/cmux/internal/muxerr"
)

var (
	// ErrDaemonProbeTimeout means something holds the socket but did not
	// finish the handshake in time. Autostart must not race it.
	ErrDaemonProbeTimeout = errors.New("cmux daemon did not answer in time")
	ErrDaemonRunning      = errors.New("cmux daemon is already running")
	ErrClientClosed       = errors.New("daemon client is closed")
	// ErrConnectionLost is returned to calls still waiting when the
	// connection drops.
	ErrConnectionLost = errors.New("daemon connection lost")
)

// IsConnectionError reports whether err means no daemon could be reached,
// as opposed to the daemon rejecting a request.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	for _, target := range []error{ErrClientClosed, ErrConnectionLost, net.ErrClosed, fs.ErrNotExist} {
		if errors.Is(err, target) {
			return true
		}
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// responseError rebuilds the typed error a response carries.
func responseError(env Envelope) error {
	if env.Error == "" && env.ErrorCode == "" {
		return nil
	}
	return muxerr.FromWire(env.ErrorCode, env.Error)
}
