package sessiond

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/pweiskircher/cmux/internal/logging"
	"github.com/pweiskircher/cmux/internal/runenv"
)

const (
	startWaitTimeout = 10 * time.Second
	pollInterval     = 150 * time.Millisecond
)

// ConnectOptions selects the daemon a client connects to.
type ConnectOptions struct {
	// SocketPath defaults to DefaultSocketPath.
	SocketPath string
	Version    string
	// AutoStart launches a daemon in the background when none answers.
	AutoStart bool
}

// Connect dials the daemon, starting it first when allowed.
func Connect(ctx context.Context, opts ConnectOptions) (*Client, error) {
	socket := opts.SocketPath
	if socket == "" {
		var err error
		if socket, err = DefaultSocketPath(); err != nil {
			return nil, err
		}
	}
	if opts.AutoStart {
		if err := EnsureDaemonRunning(ctx, socket, opts.Version); err != nil {
			return nil, err
		}
	}
	return Dial(ctx, socket, opts.Version)
}

// EnsureDaemonRunning starts a daemon unless one already answers on
// socketPath, then waits until it does.
func EnsureDaemonRunning(ctx context.Context, socketPath, version string) error {
	return autostart{probe: probeDaemon, launch: launchDaemon, wait: waitForDaemon}.run(ctx, socketPath, version)
}

// autostart is the probe, launch, wait sequence behind EnsureDaemonRunning.
type autostart struct {
	probe  func(ctx context.Context, socket, version string) error
	launch func(socket string) error
	wait   func(ctx context.Context, socket, version string) error
}

func (a autostart) run(ctx context.Context, socket, version string) error {
	err := a.probe(ctx, socket, version)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrDaemonProbeTimeout):
		// Something owns the socket; a second daemon would fail on the lock.
		return err
	}
	if err := a.launch(socket); err != nil {
		return err
	}
	return a.wait(ctx, socket, version)
}

// StopDaemon sends the daemon on socketPath a termination signal and
// waits for the socket to stop answering. No daemon is not an error.
func StopDaemon(ctx context.Context, socketPath, pidPath, version string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := probeDaemon(ctx, socketPath, version); err != nil {
		if errors.Is(err, ErrDaemonProbeTimeout) {
			return err
		}
		return nil
	}
	pid, err := readPidFile(pidPath)
	if err != nil {
		return err
	}
	if err := signalDaemon(pid); err != nil {
		return fmt.Errorf("signal daemon %d: %w", pid, err)
	}
	return waitForDaemonStop(ctx, socketPath, version)
}

// launcher starts `<self> daemon` detached, with its output appended to
// the daemon log. Fields are swapped out in tests.
type launcher struct {
	executable func() (string, error)
	command    func(name string, args ...string) *exec.Cmd
	logPath    func() (string, error)
	environ    func() []string
	openLog    func(path string) (*os.File, error)
	start      func(*exec.Cmd) error
}

func defaultLauncher() launcher {
	return launcher{
		executable: os.Executable,
		command:    exec.Command,
		logPath:    logging.DefaultLogPath,
		environ:    os.Environ,
		openLog: func(path string) (*os.File, error) {
			return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		},
		start: func(cmd *exec.Cmd) error {
			if err := cmd.Start(); err != nil {
				return err
			}
			return cmd.Process.Release()
		},
	}
}

func launchDaemon(socket string) error {
	return defaultLauncher().launch(socket)
}

func (l launcher) launch(socket string) error {
	self, err := l.executable()
	if err != nil {
		return fmt.Errorf("locate cmux binary: %w", err)
	}
	cmd := l.command(self, "daemon")
	configureDaemonCommand(cmd)
	cmd.Env = append(l.environ(), runenv.SocketEnv+"="+socket)
	if path, err := l.logPath(); err == nil && path != "" {
		if f, err := l.openLog(path); err == nil {
			defer func() { _ = f.Close() }()
			cmd.Stdout, cmd.Stderr = f, f
		}
	}
	if err := l.start(cmd); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}
	return nil
}

// poll runs check every pollInterval until it reports done, fails, ctx
// ends or limit passes. A zero limit only honours ctx.
func poll(ctx context.Context, limit time.Duration, check func() (bool, error)) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if limit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, limit)
		defer cancel()
	}
	tick := time.NewTicker(pollInterval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
			done, err := check()
			if err != nil || done {
				return err
			}
		}
	}
}

func waitForDaemon(ctx context.Context, socket, version string) error {
	err := poll(ctx, startWaitTimeout, func() (bool, error) {
		return probeDaemon(ctx, socket, version) == nil, nil
	})
	if errors.Is(err, context.DeadlineExceeded) && (ctx == nil || ctx.Err() == nil) {
		return fmt.Errorf("daemon did not come up on %s within %s", socket, startWaitTimeout)
	}
	return err
}

func waitForDaemonStop(ctx context.Context, socket, version string) error {
	return poll(ctx, 0, func() (bool, error) {
		if _, err := os.Stat(socket); errors.Is(err, os.ErrNotExist) {
			return true, nil
		}
		err := probeDaemon(ctx, socket, version)
		if errors.Is(err, ErrDaemonProbeTimeout) {
			return false, err
		}
		return err != nil, nil
	})
}

func readPidFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("daemon pid: %w", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("daemon pid file %s holds %q", path, strings.TrimSpace(string(data)))
	}
	return pid, nil
}
