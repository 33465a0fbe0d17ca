// Package command is the single entry point for every command, whether it
// arrives from the CLI over the socket, from the websocket bridge or from a
// hook. A command name is looked up once in a closed table, its targets are
// resolved and it runs against the session under one lock.
package command

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/pweiskircher/cmux/internal/buffers"
	"github.com/pweiskircher/cmux/internal/hooks"
	"github.com/pweiskircher/cmux/internal/logging"
	"github.com/pweiskircher/cmux/internal/mux"
	"github.com/pweiskircher/cmux/internal/muxerr"
	"github.com/pweiskircher/cmux/internal/runenv"
	"github.com/pweiskircher/cmux/internal/target"
	"github.com/pweiskircher/cmux/internal/telemetry"
	"github.com/pweiskircher/cmux/internal/terminal"
	"github.com/pweiskircher/cmux/internal/waitgate"
)

// MaxHookDepth bounds hook re-entry. A hook fired at this depth is skipped
// with a warning.
const MaxHookDepth = 8

const hookWarnInterval = 30 * time.Second

// Options configures a Dispatcher. Zero values pick in-memory defaults.
type Options struct {
	State        *mux.SessionState
	Mux          mux.Options
	Engine       terminal.Engine
	Hooks        map[string]string
	DefaultTitle string
	Cols         int
	Rows         int
	// Env is added to every surface process, after the ambient ids.
	Env      []string
	Metrics  *telemetry.Metrics
	Tracer   trace.Tracer
	OnEvents func([]mux.Event)
}

// Caller describes who issued a command. Ambient holds the ids inherited
// from the invoking surface's environment.
type Caller struct {
	Ambient target.Selectors
	depth   int
}

// CallerFromEnv maps ambient environment ids onto selectors. The tab id is
// an alias of the surface id.
func CallerFromEnv(a runenv.Ambient) Caller {
	surface := a.SurfaceID
	if surface == "" {
		surface = a.TabID
	}
	return Caller{Ambient: target.Selectors{Workspace: a.WorkspaceID, Pane: a.PaneID, Surface: surface}}
}

// Dispatcher owns the session state and the registries next to it.
type Dispatcher struct {
	mu       sync.RWMutex
	state    *mux.SessionState
	hooks    *hooks.Registry
	buffers  *buffers.Store
	waits    *waitgate.Registry
	engine   terminal.Engine
	metrics  *telemetry.Metrics
	tracer   trace.Tracer
	onEvents func([]mux.Event)

	defaultTitle string
	cols, rows   int
	env          []string
}

func New(opts Options) *Dispatcher {
	state := opts.State
	if state == nil {
		state = mux.NewState(opts.Mux)
	}
	engine := opts.Engine
	if engine == nil {
		engine = terminal.NewMemoryEngine(0)
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = otel.Tracer("github.com/pweiskircher/cmux/internal/command")
	}
	d := &Dispatcher{
		state:        state,
		hooks:        hooks.NewRegistry(),
		buffers:      buffers.NewStore(),
		waits:        waitgate.NewRegistry(),
		engine:       engine,
		metrics:      opts.Metrics,
		tracer:       tracer,
		onEvents:     opts.OnEvents,
		defaultTitle: opts.DefaultTitle,
		cols:         opts.Cols,
		rows:         opts.Rows,
		env:          append([]string(nil), opts.Env...),
	}
	d.hooks.ApplyPresets(opts.Hooks)
	return d
}

// ApplyHookPresets replaces the hooks loaded from the config file.
func (d *Dispatcher) ApplyHookPresets(presets map[string]string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hooks.ApplyPresets(presets)
}

// Snapshot runs fn against the live state under the shared lock. fn must
// not keep references past its return.
func (d *Dispatcher) Snapshot(fn func(state *mux.SessionState)) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	fn(d.state)
}

// Close stops every terminal.
func (d *Dispatcher) Close() error {
	return d.engine.Close()
}

// Dispatch runs one command. Errors are *muxerr.Error values; anything else
// is reported as an internal error by the transports.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, args Args, caller Caller) (Result, error) {
	start := time.Now()
	e, err := lookup(name)
	if err != nil {
		d.metrics.RecordCommand(ctx, "unknown", string(muxerr.CodeOf(err)), time.Since(start))
		return nil, err
	}
	ctx, span := d.tracer.Start(ctx, "cmux "+e.method, trace.WithAttributes(
		attribute.String("cmux.command", name),
		attribute.Int("cmux.hook_depth", caller.depth),
	))
	defer span.End()

	if args == nil {
		args = Args{}
	}
	c := &call{ctx: ctx, d: d, entry: e, name: name, args: args, caller: caller}
	res, err := d.run(c)
	code := ""
	if err != nil {
		code = string(muxerr.CodeOf(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Debug("command: failed",
			slog.String("command", name),
			slog.String("code", code),
			slog.String("error", err.Error()))
	}
	d.metrics.RecordCommand(ctx, e.method, code, time.Since(start))
	return res, err
}

func (d *Dispatcher) run(c *call) (Result, error) {
	switch c.entry.access {
	case accessUnlocked:
		return c.entry.run(c)
	case accessRead:
		d.mu.RLock()
		c.state = d.state
		res, err := c.entry.run(c)
		d.mu.RUnlock()
		if err != nil {
			return nil, err
		}
		for _, fn := range c.after {
			if err := fn(c.ctx); err != nil {
				return nil, err
			}
		}
		return c.finish(res), nil
	default:
		return d.mutate(c)
	}
}

// hookRun is a hook picked up while the lock was held.
type hookRun struct {
	event   mux.Event
	command string
	ambient target.Selectors
}

// mutate runs a handler against a clone and swaps it in only when the
// handler, the state check and every terminal start succeed.
func (d *Dispatcher) mutate(c *call) (Result, error) {
	d.mu.Lock()
	c.state = d.state.Clone()
	res, err := c.entry.run(c)
	if err == nil {
		err = c.state.Validate()
	}
	if err != nil {
		d.mu.Unlock()
		return nil, err
	}
	events := append(c.state.DrainEvents(), c.events...)
	if err := d.startTerminals(c, events); err != nil {
		d.mu.Unlock()
		return nil, err
	}
	d.state = c.state
	runs := d.pendingHooks(events)
	d.mu.Unlock()

	d.stopTerminals(closedSurfaces(events))
	d.countWorkspaces(c.ctx, events)
	if d.onEvents != nil && len(events) > 0 {
		d.onEvents(events)
	}
	d.runHooks(c, runs)
	for _, fn := range c.after {
		if err := fn(c.ctx); err != nil {
			c.warn("%v", err)
		}
	}
	return c.finish(res), nil
}

func (d *Dispatcher) surfaceEnv(state *mux.SessionState, surface *mux.Surface) []string {
	ambient := runenv.Ambient{SurfaceID: surface.ID, TabID: surface.ID, PaneID: surface.PaneID}
	if ws := state.WorkspaceOfSurface(surface.ID); ws != nil {
		ambient.WorkspaceID = ws.ID
	}
	return append(ambient.Environ(), d.env...)
}

func (d *Dispatcher) startOptions(state *mux.SessionState, surface *mux.Surface) terminal.StartOptions {
	return terminal.StartOptions{
		Command: surface.Command,
		Env:     d.surfaceEnv(state, surface),
		Cols:    d.cols,
		Rows:    d.rows,
	}
}

// startTerminals starts a process for every surface created by the command.
// A failure stops the ones already started so nothing leaks.
func (d *Dispatcher) startTerminals(c *call, events []mux.Event) error {
	var started []string
	for _, ev := range events {
		if ev.Name != mux.EventSurfaceCreated {
			continue
		}
		surface := c.state.Surface(ev.SurfaceID)
		if surface == nil {
			continue
		}
		if err := d.engine.Start(c.ctx, surface.ID, d.startOptions(c.state, surface)); err != nil {
			d.stopTerminals(started)
			return fmt.Errorf("command: start surface %s: %w", surface.Ref(), err)
		}
		started = append(started, surface.ID)
	}
	return nil
}

func closedSurfaces(events []mux.Event) []string {
	var ids []string
	for _, ev := range events {
		if ev.Name == mux.EventSurfaceClosed && ev.SurfaceID != "" {
			ids = append(ids, ev.SurfaceID)
		}
	}
	return ids
}

func (d *Dispatcher) stopTerminals(ids []string) {
	if len(ids) == 0 {
		return
	}
	var g errgroup.Group
	for _, id := range ids {
		g.Go(func() error {
			if err := d.engine.Stop(id); err != nil {
				slog.Debug("command: stop surface", slog.String("surface_id", id), slog.String("error", err.Error()))
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (d *Dispatcher) countWorkspaces(ctx context.Context, events []mux.Event) {
	var delta int64
	for _, ev := range events {
		switch ev.Name {
		case mux.EventWorkspaceCreated:
			delta++
		case mux.EventWorkspaceClosed:
			delta--
		}
	}
	d.metrics.AddWorkspaces(ctx, delta)
}

// pendingHooks collects bound hooks for events. Ambient ids only name
// entities that are still live so the hook resolves against real targets.
// Caller holds d.mu.
func (d *Dispatcher) pendingHooks(events []mux.Event) []hookRun {
	var runs []hookRun
	for _, ev := range events {
		command, ok := d.hooks.Lookup(ev.Name)
		if !ok {
			continue
		}
		var ambient target.Selectors
		if d.state.Workspace(ev.WorkspaceID) != nil {
			ambient.Workspace = ev.WorkspaceID
		}
		if d.state.Pane(ev.PaneID) != nil {
			ambient.Pane = ev.PaneID
		}
		if d.state.Surface(ev.SurfaceID) != nil {
			ambient.Surface = ev.SurfaceID
		}
		runs = append(runs, hookRun{event: ev, command: command, ambient: ambient})
	}
	return runs
}

// runHooks dispatches each hook command synchronously. Failures become
// warnings on the triggering result.
func (d *Dispatcher) runHooks(c *call, runs []hookRun) {
	for _, run := range runs {
		if c.caller.depth >= MaxHookDepth {
			c.warn("hook %s skipped: nested deeper than %d", run.event.Name, MaxHookDepth)
			continue
		}
		res, err := d.runHook(c, run)
		d.metrics.RecordHook(c.ctx, run.event.Name, err == nil)
		if err != nil {
			c.warn("hook %s: %v", run.event.Name, err)
			logging.LogEvery(c.ctx, "hook:"+run.event.Name, hookWarnInterval, slog.LevelWarn, "command: hook failed",
				slog.String("event", run.event.Name),
				slog.String("hook", logging.SanitizeCommand(run.command)),
				slog.String("error", err.Error()))
			continue
		}
		c.warnings = append(c.warnings, Warnings(res)...)
	}
}

func (d *Dispatcher) runHook(c *call, run hookRun) (Result, error) {
	name, args, err := ParseCommandLine(run.command)
	if err != nil {
		return nil, err
	}
	return d.Dispatch(c.ctx, name, args, Caller{Ambient: run.ambient, depth: c.caller.depth + 1})
}

// Warnings returns the non-fatal warnings attached to a result.
func Warnings(res Result) []string {
	switch w := res["warnings"].(type) {
	case []string:
		return w
	case []any:
		out := make([]string, 0, len(w))
		for _, item := range w {
			out = append(out, fmt.Sprint(item))
		}
		return out
	default:
		return nil
	}
}
