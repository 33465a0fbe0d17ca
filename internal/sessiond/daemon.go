// Package sessiond hosts the cmux session daemon. The daemon owns the single
// command dispatcher and serves it over a local unix socket (length-prefixed
// gob frames) and, optionally, a websocket bridge for a GUI front end.
package sessiond

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pweiskircher/cmux/internal/appdirs"
	"github.com/pweiskircher/cmux/internal/command"
	"github.com/pweiskircher/cmux/internal/config"
	"github.com/pweiskircher/cmux/internal/mux"
)

const (
	defaultReadTimeout  = 2 * time.Minute
	defaultWriteTimeout = 5 * time.Second
	probeTimeout        = 2 * time.Second
)

// DaemonConfig configures a session daemon instance.
type DaemonConfig struct {
	Version    string
	SocketPath string
	PidPath    string
	// WebsocketAddr enables the websocket bridge when set.
	WebsocketAddr string
	HandleSignals bool
	// Command configures the dispatcher the daemon owns. OnEvents, if set,
	// still runs after the daemon has fanned events out.
	Command command.Options
	// Config, if set, is watched and its hooks are re-applied on change.
	Config *config.Loader
}

// Daemon owns the session and serves clients over a local socket.
type Daemon struct {
	dispatcher *command.Dispatcher
	listener   atomic.Pointer[net.Listener]
	socketPath string
	pidPath    string
	version    string
	wsAddr     string
	loader     *config.Loader
	lock       *pidLock
	bridge     *bridge

	ctx    context.Context
	cancel context.CancelFunc

	clients   map[uint64]*clientConn
	clientsMu sync.RWMutex
	clientSeq atomic.Uint64

	started atomic.Bool
	closing atomic.Bool
	wg      sync.WaitGroup
}

// NewDaemon creates a daemon instance.
func NewDaemon(cfg DaemonConfig) (*Daemon, error) {
	socketPath := cfg.SocketPath
	if socketPath == "" {
		path, err := DefaultSocketPath()
		if err != nil {
			return nil, err
		}
		socketPath = path
	}
	pidPath := cfg.PidPath
	if pidPath == "" {
		path, err := PidPathFor(socketPath)
		if err != nil {
			return nil, err
		}
		pidPath = path
	}
	ctx, cancel := context.WithCancel(context.Background())
	d := &Daemon{
		socketPath: socketPath,
		pidPath:    pidPath,
		version:    cfg.Version,
		wsAddr:     cfg.WebsocketAddr,
		loader:     cfg.Config,
		ctx:        ctx,
		cancel:     cancel,
		clients:    make(map[uint64]*clientConn),
	}
	opts := cfg.Command
	next := opts.OnEvents
	opts.OnEvents = func(events []mux.Event) {
		d.publish(events)
		if next != nil {
			next(events)
		}
	}
	d.dispatcher = command.New(opts)
	d.bridge = newBridge(d)
	if cfg.HandleSignals {
		d.handleSignals()
	}
	return d, nil
}

// Dispatcher returns the dispatcher served by the daemon.
func (d *Daemon) Dispatcher() *command.Dispatcher { return d.dispatcher }

// SocketPath returns the path the daemon listens on.
func (d *Daemon) SocketPath() string { return d.socketPath }

// Start takes the pid lock and begins listening for client connections.
func (d *Daemon) Start() error {
	if d == nil {
		return errors.New("sessiond: daemon is nil")
	}
	if d.started.Swap(true) {
		return errors.New("sessiond: daemon already started")
	}
	lock, err := acquirePidLock(d.pidPath)
	if err != nil {
		return err
	}
	listener, err := d.listen()
	if err != nil {
		_ = lock.release()
		return err
	}
	d.lock = lock
	d.listener.Store(&listener)

	d.wg.Add(1)
	go d.acceptLoop(listener)

	slog.Info("sessiond: daemon listening",
		slog.String("socket", d.socketPath),
		slog.Int("pid", os.Getpid()),
		slog.String("version", d.version))
	return nil
}

// listen binds the unix socket, replacing a stale one, and restricts it
// to the current user.
func (d *Daemon) listen() (net.Listener, error) {
	if _, err := appdirs.EnsurePrivateDir(filepath.Dir(d.socketPath), true); err != nil {
		return nil, fmt.Errorf("sessiond: socket dir: %w", err)
	}
	if err := d.claimSocket(); err != nil {
		return nil, err
	}
	listener, err := net.Listen("unix", d.socketPath)
	if err != nil {
		return nil, fmt.Errorf("sessiond: listen on %s: %w", d.socketPath, err)
	}
	if err := os.Chmod(d.socketPath, 0o700); err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("sessiond: chmod socket: %w", err)
	}
	return listener, nil
}

// listening returns the active listener, or nil before Start and after Stop.
func (d *Daemon) listening() net.Listener {
	if l := d.listener.Load(); l != nil {
		return *l
	}
	return nil
}

// Run starts the daemon and blocks until ctx ends, Stop is called or one of
// the side services (websocket bridge, config watcher) fails.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.Start(); err != nil {
		return err
	}
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(d.ctx, cancel)
	defer stop()

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})
	if d.wsAddr != "" {
		g.Go(func() error { return d.bridge.serve(gctx, d.wsAddr) })
	}
	if d.loader != nil {
		g.Go(func() error { return d.watchConfig(gctx) })
	}
	err := g.Wait()
	if stopErr := d.Stop(); err == nil {
		err = stopErr
	}
	return err
}

// Stop signals the daemon to shut down and waits for its loops to exit.
func (d *Daemon) Stop() error {
	if d == nil {
		return nil
	}
	if d.closing.Swap(true) {
		return nil
	}
	d.cancel()
	return d.shutdown()
}

func (d *Daemon) shutdown() error {
	if l := d.listener.Swap(nil); l != nil {
		_ = (*l).Close()
	}

	d.clientsMu.Lock()
	for _, client := range d.clients {
		client.close()
	}
	d.clients = make(map[uint64]*clientConn)
	d.clientsMu.Unlock()

	d.bridge.closeAll()
	d.wg.Wait()

	err := d.dispatcher.Close()
	if d.lock != nil {
		_ = os.Remove(d.socketPath)
	}
	if lockErr := d.lock.release(); err == nil {
		err = lockErr
	}
	slog.Info("sessiond: daemon stopped", slog.String("socket", d.socketPath))
	return err
}

func (d *Daemon) watchConfig(ctx context.Context) error {
	w, err := config.Watch(d.loader)
	if err != nil {
		slog.Warn("sessiond: config watch disabled", slog.Any("err", err))
		return nil
	}
	return w.Run(ctx, func(cfg config.Config) {
		d.dispatcher.ApplyHookPresets(cfg.Hooks)
		slog.Info("sessiond: hooks reloaded", slog.Int("hooks", len(cfg.Hooks)))
	})
}

func (d *Daemon) acceptLoop(listener net.Listener) {
	defer d.wg.Done()
	for {
		conn, err := listener.Accept()
		if err != nil {
			if d.closing.Load() || errors.Is(err, net.ErrClosed) {
				return
			}
			slog.Warn("sessiond: accept failed", slog.Any("err", err))
			continue
		}
		client := d.newClient(conn)
		if !d.registerClient(client) {
			client.close()
			return
		}
		d.wg.Add(2)
		go d.readLoop(client)
		go d.writeLoop(client)
	}
}

// publish fans dispatcher events out to subscribed socket clients and
// websocket connections.
func (d *Daemon) publish(events []mux.Event) {
	if len(events) == 0 {
		return
	}
	now := time.Now()
	for _, ev := range events {
		event := eventFrom(ev, now)
		d.broadcast(event)
		d.bridge.broadcast(event)
	}
}

// claimSocket removes a socket file left behind by a daemon that is no
// longer answering. A live daemon on the path is an error.
func (d *Daemon) claimSocket() error {
	if _, err := os.Stat(d.socketPath); errors.Is(err, fs.ErrNotExist) {
		return nil
	} else if err != nil {
		return fmt.Errorf("sessiond: stat socket: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()
	switch err := probeDaemon(ctx, d.socketPath, d.version); {
	case err == nil:
		return fmt.Errorf("%w on %s", ErrDaemonRunning, d.socketPath)
	case errors.Is(err, ErrDaemonProbeTimeout):
		return err
	}
	if err := os.Remove(d.socketPath); err != nil {
		return fmt.Errorf("sessiond: remove stale socket: %w", err)
	}
	slog.Info("sessiond: removed stale socket", slog.String("socket", d.socketPath))
	return nil
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
