package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pweiskircher/cmux/internal/cli/output"
	"github.com/pweiskircher/cmux/internal/cli/root"
	"github.com/pweiskircher/cmux/internal/command"
	"github.com/pweiskircher/cmux/internal/config"
	"github.com/pweiskircher/cmux/internal/sessiond"
	"github.com/pweiskircher/cmux/internal/telemetry"
	"github.com/pweiskircher/cmux/internal/terminal"
	"github.com/pweiskircher/cmux/internal/userpath"
)

// Register registers daemon handlers.
func Register(reg *root.Registry) {
	reg.Register("daemon", runDaemon)
	reg.Register("daemon.start", runStart)
	reg.Register("daemon.stop", runStop)
	reg.Register("daemon.status", runStatus)
}

var (
	stopDaemon   = sessiond.StopDaemon
	ensureDaemon = sessiond.EnsureDaemonRunning
)

const controlTimeout = 15 * time.Second

func runDaemon(ctx root.CommandContext) error {
	socket, err := ctx.SocketPath()
	if err != nil {
		return err
	}
	cfg := ctx.Deps.Config
	tel, err := telemetry.Init(ctx.Context, telemetry.Config{
		Endpoint: cfg.Telemetry.Endpoint,
		Headers:  cfg.Telemetry.Headers,
		Version:  ctx.Deps.Version,
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			slog.Warn("daemon: telemetry shutdown failed", slog.Any("err", err))
		}
	}()
	daemonCfg := daemonConfig(ctx, socket, cfg)
	daemonCfg.Command.Metrics = tel.Metrics
	daemonCfg.Command.Tracer = tel.Tracer
	daemon, err := sessiond.NewDaemon(daemonCfg)
	if err != nil {
		return fmt.Errorf("failed to create daemon: %w", err)
	}
	if err := daemon.Run(ctx.Context); err != nil {
		return fmt.Errorf("daemon failed: %w", err)
	}
	return nil
}

// daemonConfig maps config.yml and the daemon flags onto the daemon.
func daemonConfig(ctx root.CommandContext, socket string, cfg config.Config) sessiond.DaemonConfig {
	wsAddr := strings.TrimSpace(cfg.Daemon.WebsocketAddr)
	if ctx.Cmd != nil {
		if addr := strings.TrimSpace(ctx.Cmd.String("websocket-addr")); addr != "" {
			wsAddr = addr
		}
	}
	out := sessiond.DaemonConfig{
		Version:       ctx.Deps.Version,
		SocketPath:    socket,
		WebsocketAddr: wsAddr,
		HandleSignals: true,
		Command: command.Options{
			Mux:          cfg.MuxOptions(),
			Engine:       newEngine(cfg.Terminal),
			Hooks:        cfg.Hooks,
			DefaultTitle: cfg.Workspace.DefaultTitle,
			Cols:         cfg.Terminal.Cols,
			Rows:         cfg.Terminal.Rows,
		},
	}
	if path := strings.TrimSpace(ctx.Deps.ConfigPath); path != "" {
		out.Config = config.NewLoader(path)
	}
	return out
}

func newEngine(cfg config.TerminalConfig) terminal.Engine {
	if cfg.Engine == config.EngineMemory {
		return terminal.NewMemoryEngine(cfg.ScrollbackLines)
	}
	return terminal.NewPTYEngine(cfg.Shell, cfg.ScrollbackLines)
}

type daemonStatus struct {
	Running bool   `json:"running"`
	Socket  string `json:"socket"`
	PID     int    `json:"pid,omitempty"`
	Version string `json:"version,omitempty"`
}

func runStart(ctx root.CommandContext) error {
	start := time.Now()
	socket, err := ctx.SocketPath()
	if err != nil {
		return err
	}
	ctxTimeout, cancel := context.WithTimeout(ctx.Context, controlTimeout)
	defer cancel()
	if err := ensureDaemon(ctxTimeout, socket, ctx.Deps.Version); err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}
	status := probe(ctxTimeout, socket, ctx.Deps.Version)
	return writeStatus(ctx, "daemon.start", status, start)
}

func runStop(ctx root.CommandContext) error {
	start := time.Now()
	meta := output.NewMeta("daemon.stop", ctx.Deps.Version)
	socket, err := ctx.SocketPath()
	if err != nil {
		return err
	}
	pidPath, err := sessiond.PidPathFor(socket)
	if err != nil {
		return err
	}
	ctxTimeout, cancel := context.WithTimeout(ctx.Context, controlTimeout)
	defer cancel()
	if err := stopDaemon(ctxTimeout, socket, pidPath, ctx.Deps.Version); err != nil {
		return fmt.Errorf("failed to stop daemon: %w", err)
	}
	if ctx.JSON {
		meta = meta.Since(start)
		return output.WriteSuccess(ctx.Out, meta, daemonStatus{Socket: socket})
	}
	if _, err := fmt.Fprintln(ctx.ErrOut, "Daemon stopped."); err != nil {
		return err
	}
	return nil
}

func runStatus(ctx root.CommandContext) error {
	start := time.Now()
	socket, err := ctx.SocketPath()
	if err != nil {
		return err
	}
	ctxTimeout, cancel := context.WithTimeout(ctx.Context, ctx.Globals.CallTimeout())
	defer cancel()
	return writeStatus(ctx, "daemon.status", probe(ctxTimeout, socket, ctx.Deps.Version), start)
}

func probe(ctx context.Context, socket, version string) daemonStatus {
	status := daemonStatus{Socket: socket}
	client, err := sessiond.Dial(ctx, socket, version)
	if err != nil {
		return status
	}
	defer func() { _ = client.Close() }()
	status.Running = true
	status.PID = client.ServerPID()
	status.Version = client.ServerVersion()
	return status
}

func writeStatus(ctx root.CommandContext, id string, status daemonStatus, start time.Time) error {
	if ctx.JSON {
		meta := output.NewMeta(id, ctx.Deps.Version).Since(start)
		return output.WriteSuccess(ctx.Out, meta, status)
	}
	if !status.Running {
		_, err := fmt.Fprintf(ctx.Out, "daemon not running (socket %s)\n", userpath.Shorten(status.Socket))
		return err
	}
	_, err := fmt.Fprintf(ctx.Out, "daemon running\npid: %d\nversion: %s\nsocket: %s\n", status.PID, status.Version, userpath.Shorten(status.Socket))
	return err
}
