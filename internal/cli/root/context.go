package root

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/pweiskircher/cmux/internal/cli/spec"
	"github.com/pweiskircher/cmux/internal/sessiond"
)

// CommandContext is what a Handler gets for one invocation.
type CommandContext struct {
	Context context.Context
	Spec    spec.Command
	// Cmd is nil for passthrough commands run outside urfave, e.g. in tests.
	Cmd *cli.Command
	// Args are the positionals, or for a passthrough command the raw argv
	// after its name with global flags stripped.
	Args    []string
	Deps    Dependencies
	Globals Globals
	JSON    bool

	Stdin  io.Reader
	Out    io.Writer
	ErrOut io.Writer
}

// ConnectOptions picks the daemon socket: --socket (or $CMUX_SOCKET), then
// daemon.socket from config.yml, then the runtime dir default inside
// sessiond.
func (ctx CommandContext) ConnectOptions() sessiond.ConnectOptions {
	socket := ctx.Globals.Socket
	if socket == "" {
		socket = strings.TrimSpace(ctx.Deps.Config.Daemon.Socket)
	}
	return sessiond.ConnectOptions{
		SocketPath: socket,
		Version:    ctx.Deps.Version,
		AutoStart:  !ctx.Globals.NoAutostart,
	}
}

// SocketPath is the socket this invocation talks to, defaults applied.
func (ctx CommandContext) SocketPath() (string, error) {
	if socket := ctx.ConnectOptions().SocketPath; socket != "" {
		return socket, nil
	}
	return sessiond.DefaultSocketPath()
}

// Connect dials the daemon, starting it unless --no-autostart is set. The
// dial is bounded by the call timeout; the returned client is not.
func (ctx CommandContext) Connect() (*sessiond.Client, error) {
	if ctx.Deps.Connect == nil {
		return nil, errors.New("daemon connection not configured")
	}
	parent := ctx.Context
	if parent == nil {
		parent = context.Background()
	}
	dialCtx, cancel := context.WithTimeout(parent, ctx.Globals.CallTimeout())
	defer cancel()
	client, err := ctx.Deps.Connect(dialCtx, ctx.ConnectOptions())
	if err != nil {
		return nil, fmt.Errorf("connect to daemon: %w", err)
	}
	return client, nil
}
