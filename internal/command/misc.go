package command

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pweiskircher/cmux/internal/mux"
	"github.com/pweiskircher/cmux/internal/muxerr"
	"github.com/pweiskircher/cmux/internal/runenv"
	"github.com/pweiskircher/cmux/internal/target"
	"github.com/pweiskircher/cmux/internal/terminal"
)

func ping(*call) (Result, error) {
	return Result{"pong": true}, nil
}

func capabilities(*call) (Result, error) {
	caps := ListCapabilities()
	return Result{
		"methods":       caps.Methods,
		"verbs":         caps.Verbs,
		"not_supported": caps.NotSupported,
		"events":        caps.Events,
	}, nil
}

// identify reports the globally focused entities and, when the caller runs
// inside a surface, the entities it resolves to.
func identify(c *call) (Result, error) {
	out := Result{}
	if ws := c.state.Selected(); ws != nil {
		out["focused"] = map[string]any(resolvedFields(Result{}, targetOf(c.state, ws)))
	}
	if !c.caller.Ambient.Empty() {
		r, err := target.Resolve(c.state, target.Request{Ambient: c.caller.Ambient})
		if err == nil {
			out["caller"] = map[string]any(resolvedFields(Result{}, r))
		}
	}
	return out, nil
}

func setHook(c *call) (Result, error) {
	list, err := c.args.Bool("list")
	if err != nil {
		return nil, err
	}
	if list {
		return listHooks(c)
	}
	unset, err := c.args.Bool("unset")
	if err != nil {
		return nil, err
	}
	if unset {
		return unsetHook(c)
	}
	event, err := c.text("event")
	if err != nil {
		return nil, err
	}
	if !mux.IsEvent(event) {
		return nil, muxerr.InvalidArgument("unknown hook event %q", event)
	}
	command, err := c.text("command")
	if err != nil {
		return nil, err
	}
	if err := c.d.hooks.Set(event, command); err != nil {
		return nil, err
	}
	return Result{"event": event, "command": command}, nil
}

func listHooks(c *call) (Result, error) {
	return Result{"hooks": c.d.hooks.List(), "events": mux.EventNames()}, nil
}

func unsetHook(c *call) (Result, error) {
	event, err := c.text("event")
	if err != nil {
		return nil, err
	}
	return Result{"event": event, "removed": c.d.hooks.Unset(event)}, nil
}

func setBuffer(c *call) (Result, error) {
	data := unescape(c.args.String("data", "text"))
	if data == "" {
		return nil, muxerr.InvalidArgument("%s requires data", c.name)
	}
	name, err := c.d.buffers.Set(c.args.String("name"), []byte(data))
	if err != nil {
		return nil, err
	}
	c.emit(mux.EventBufferSet)
	return Result{"name": name, "size": len(data)}, nil
}

func listBuffers(c *call) (Result, error) {
	return Result{"buffers": c.d.buffers.List()}, nil
}

func getBuffer(c *call) (Result, error) {
	data, name, err := c.d.buffers.Get(c.args.String("name"))
	if err != nil {
		return nil, err
	}
	return Result{"name": name, "data": string(data)}, nil
}

func deleteBuffer(c *call) (Result, error) {
	name, err := c.text("name")
	if err != nil {
		return nil, err
	}
	if err := c.d.buffers.Delete(name); err != nil {
		return nil, err
	}
	return Result{"name": name, "deleted": true}, nil
}

// pasteBuffer writes a buffer into a surface. The terminal write happens
// last so a failed lookup leaves the buffer store untouched.
func pasteBuffer(c *call) (Result, error) {
	del, err := c.args.Bool("delete")
	if err != nil {
		return nil, err
	}
	data, name, err := c.d.buffers.Get(c.args.String("name"))
	if err != nil {
		return nil, err
	}
	r, err := c.resolve()
	if err != nil {
		return nil, err
	}
	if err := c.d.engine.SendText(r.Surface.ID, string(data)); err != nil {
		return nil, err
	}
	if del {
		if err := c.d.buffers.Delete(name); err != nil {
			return nil, err
		}
	}
	out := resolvedFields(Result{}, r)
	out["name"] = name
	out["bytes"] = len(data)
	return out, nil
}

// waitTimeout reads timeout_ms, or timeout in (fractional) seconds. Zero
// means no deadline beyond the caller's context.
func waitTimeout(c *call) (time.Duration, error) {
	ms, set, err := c.args.Int("timeout_ms")
	if err != nil {
		return 0, err
	}
	if set {
		if ms < 0 {
			return 0, muxerr.InvalidArgument("--timeout-ms must not be negative")
		}
		return time.Duration(ms) * time.Millisecond, nil
	}
	secs, _, err := c.args.Float("timeout")
	if err != nil {
		return 0, err
	}
	if secs < 0 {
		return 0, muxerr.InvalidArgument("--timeout must not be negative")
	}
	return time.Duration(secs * float64(time.Second)), nil
}

func waitFor(c *call) (Result, error) {
	signal, err := c.args.Bool("signal")
	if err != nil {
		return nil, err
	}
	if signal {
		return signalGate(c)
	}
	name, err := c.text("name")
	if err != nil {
		return nil, err
	}
	timeout, err := waitTimeout(c)
	if err != nil {
		return nil, err
	}
	ctx := c.ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	start := time.Now()
	err = c.d.waits.Wait(ctx, name)
	switch {
	case err == nil:
		c.d.metrics.RecordWait(c.ctx, "signaled")
	case errors.Is(err, muxerr.ErrTimedOut):
		c.d.metrics.RecordWait(c.ctx, "timed_out")
		return nil, muxerr.TimedOut("wait-for %s timed out after %s", name, timeout)
	default:
		c.d.metrics.RecordWait(c.ctx, "canceled")
		return nil, err
	}
	return Result{"name": name, "signaled": true, "waited_ms": time.Since(start).Milliseconds()}, nil
}

func signalGate(c *call) (Result, error) {
	name, err := c.text("name")
	if err != nil {
		return nil, err
	}
	woke, err := c.d.waits.Signal(name)
	if err != nil {
		return nil, err
	}
	return Result{"name": name, "woken": woke}, nil
}

var formatVar = regexp.MustCompile(`#\{([a-z_]+)\}`)

// displayMessage expands #{...} fields against the resolved target.
// Unknown fields expand to nothing.
func displayMessage(c *call) (Result, error) {
	r, err := c.resolve()
	if err != nil && len(c.state.Workspaces()) > 0 {
		return nil, err
	}
	fields := formatFields(c.state, r)
	msg := formatVar.ReplaceAllStringFunc(c.args.String("message", "format"), func(m string) string {
		return fields[formatVar.FindStringSubmatch(m)[1]]
	})
	out := resolvedFields(Result{}, r)
	out["message"] = msg
	return out, nil
}

func formatFields(state *mux.SessionState, r target.Resolved) map[string]string {
	fields := make(map[string]string)
	if r.Workspace == nil {
		return fields
	}
	title := r.Workspace.DisplayTitle()
	fields["workspace_id"] = r.Workspace.ID
	fields["workspace_ref"] = r.Workspace.Ref().String()
	fields["workspace_title"] = title
	fields["window_name"] = title
	fields["session_name"] = title
	for i, ws := range state.Workspaces() {
		if ws.ID == r.Workspace.ID {
			fields["workspace_index"] = strconv.Itoa(i)
			fields["window_index"] = strconv.Itoa(i)
		}
	}
	fields["pane_count"] = strconv.Itoa(len(state.Panes(r.Workspace.ID)))
	if r.Pane != nil {
		fields["pane_id"] = r.Pane.ID
		fields["pane_ref"] = r.Pane.Ref().String()
	}
	if r.Surface != nil {
		fields["surface_id"] = r.Surface.ID
		fields["surface_ref"] = r.Surface.Ref().String()
		fields["surface_title"] = r.Surface.Title
		fields["pane_title"] = r.Surface.Title
		fields["tab_ref"] = r.Surface.Ref().TabRef()
	}
	return fields
}

// runShell runs a shell command with the caller's ambient ids exported.
// Hooks use it to reach outside the multiplexer.
func runShell(c *call) (Result, error) {
	command, err := c.text("command")
	if err != nil {
		return nil, err
	}
	ambient := runenv.Ambient{
		WorkspaceID: c.caller.Ambient.Workspace,
		PaneID:      c.caller.Ambient.Pane,
		SurfaceID:   c.caller.Ambient.Surface,
		TabID:       c.caller.Ambient.Surface,
	}
	output, err := terminal.RunShell(c.ctx, command, append(ambient.Environ(), c.d.env...))
	if err != nil {
		return nil, err
	}
	return Result{"output": strings.TrimRight(output, "\n")}, nil
}
