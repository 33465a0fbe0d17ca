package command

import (
	"context"
	"log/slog"
	"strings"

	"github.com/pweiskircher/cmux/internal/layout"
	"github.com/pweiskircher/cmux/internal/logging"
	"github.com/pweiskircher/cmux/internal/mux"
	"github.com/pweiskircher/cmux/internal/muxerr"
	"github.com/pweiskircher/cmux/internal/terminal"
	"github.com/pweiskircher/cmux/internal/termkeys"
)

func listSurfaces(c *call) (Result, error) {
	r, err := c.resolve()
	if err != nil {
		return nil, err
	}
	var surfaces []*mux.Surface
	if c.args.Selectors().Pane != "" {
		surfaces = c.state.Surfaces(r.Pane.ID)
	} else {
		surfaces = c.state.WorkspaceSurfaces(r.Workspace.ID)
	}
	focused := c.state.FocusedSurface(r.Workspace.ID)
	rows := make([]map[string]any, 0, len(surfaces))
	for i, surface := range surfaces {
		rows = append(rows, surfaceRow(c.state, i, surface, focused))
	}
	out := workspaceFields(Result{}, r.Workspace)
	out["surfaces"] = rows
	return out, nil
}

func currentSurface(c *call) (Result, error) {
	r, err := c.resolve()
	if err != nil {
		return nil, err
	}
	out := resolvedFields(Result{}, r)
	out["title"] = r.Surface.Title
	return out, nil
}

// createSurface adds a tab to the target pane and selects it there.
func createSurface(c *call) (Result, error) {
	r, err := c.resolve()
	if err != nil {
		return nil, err
	}
	surface, err := c.state.NewSurface(r.Pane.ID, c.args.String("title"), c.args.String("command"))
	if err != nil {
		return nil, err
	}
	out := workspaceFields(Result{}, r.Workspace)
	paneFields(out, r.Pane)
	return surfaceFields(out, surface), nil
}

func focusSurface(c *call) (Result, error) {
	if c.args.Selectors().Surface == "" {
		return nil, muxerr.InvalidArgument("%s requires a surface", c.name)
	}
	r, err := c.resolve()
	if err != nil {
		return nil, err
	}
	if err := c.state.FocusSurface(r.Surface.ID); err != nil {
		return nil, err
	}
	return resolvedFields(Result{}, r), nil
}

func closeSurface(c *call) (Result, error) {
	r, err := c.resolve()
	if err != nil {
		return nil, err
	}
	out := resolvedFields(Result{}, r)
	if err := c.state.CloseSurface(r.Surface.ID); err != nil {
		return nil, err
	}
	out["closed"] = true
	out["workspace_closed"] = c.state.Workspace(r.Workspace.ID) == nil
	return out, nil
}

func renameSurface(c *call) (Result, error) {
	title, err := c.text("title", "name")
	if err != nil {
		return nil, err
	}
	r, err := c.resolve()
	if err != nil {
		return nil, err
	}
	if err := c.state.RenameSurface(r.Surface.ID, title); err != nil {
		return nil, err
	}
	out := resolvedFields(Result{}, r)
	out["title"] = title
	return out, nil
}

// sendText writes text to the surface as if typed. Escapes like \n are
// interpreted, key names in "key" follow the text and enter=true appends
// a newline.
func sendText(c *call) (Result, error) {
	text := unescape(c.args.String("text", "data"))
	if keys := c.args.String("key", "keys"); keys != "" {
		seq, err := termkeys.EncodeList(keys)
		if err != nil {
			return nil, muxerr.InvalidArgument("%s: %v", c.name, err)
		}
		text += seq
	}
	enter, err := c.args.Bool("enter")
	if err != nil {
		return nil, err
	}
	if enter {
		text += "\n"
	}
	if text == "" {
		return nil, muxerr.InvalidArgument("%s requires text", c.name)
	}
	r, err := c.resolve()
	if err != nil {
		return nil, err
	}
	if err := c.d.engine.SendText(r.Surface.ID, text); err != nil {
		return nil, err
	}
	slog.Debug("command: sent text",
		slog.String("surface_id", r.Surface.ID),
		logging.PayloadAttr("payload", []byte(text)))
	out := resolvedFields(Result{}, r)
	out["bytes"] = len(text)
	return out, nil
}

func readOptions(c *call) (terminal.ReadOptions, error) {
	scrollback, err := c.args.Bool("scrollback")
	if err != nil {
		return terminal.ReadOptions{}, err
	}
	lines, set, err := c.args.Int("lines")
	if err != nil {
		return terminal.ReadOptions{}, err
	}
	opts := terminal.ReadOptions{Scrollback: scrollback, Lines: lines}
	return opts, opts.Validate(set)
}

func readText(c *call) (Result, error) {
	opts, err := readOptions(c)
	if err != nil {
		return nil, err
	}
	r, err := c.resolve()
	if err != nil {
		return nil, err
	}
	text, err := c.d.engine.ReadText(r.Surface.ID, opts)
	if err != nil {
		return nil, err
	}
	out := resolvedFields(Result{}, r)
	out["text"] = text
	return out, nil
}

func clearHistory(c *call) (Result, error) {
	r, err := c.resolve()
	if err != nil {
		return nil, err
	}
	if err := c.d.engine.ClearHistory(r.Surface.ID); err != nil {
		return nil, err
	}
	return resolvedFields(Result{}, r), nil
}

// respawnSurface restarts the surface process. An empty command starts the
// default shell.
func respawnSurface(c *call) (Result, error) {
	r, err := c.resolve()
	if err != nil {
		return nil, err
	}
	command := strings.TrimSpace(c.args.String("command"))
	if err := c.state.SetSurfaceCommand(r.Surface.ID, command); err != nil {
		return nil, err
	}
	if err := c.d.engine.Respawn(c.ctx, r.Surface.ID, c.d.startOptions(c.state, r.Surface)); err != nil {
		return nil, err
	}
	slog.Info("command: respawned surface",
		slog.String("surface_id", r.Surface.ID),
		slog.String("command", logging.SanitizeCommand(command)))
	out := resolvedFields(Result{}, r)
	out["command"] = command
	return out, nil
}

// pipeSurface feeds the surface's scrollback to a shell command once. The
// command runs after the session lock is released.
func pipeSurface(c *call) (Result, error) {
	command, err := c.text("command")
	if err != nil {
		return nil, err
	}
	r, err := c.resolve()
	if err != nil {
		return nil, err
	}
	text, err := c.d.engine.ReadText(r.Surface.ID, terminal.ReadOptions{Scrollback: true})
	if err != nil {
		return nil, err
	}
	if text != "" && !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	env := c.d.surfaceEnv(c.state, r.Surface)
	c.after = append(c.after, func(ctx context.Context) error {
		slog.Debug("command: pipe surface",
			slog.String("surface_id", r.Surface.ID),
			slog.String("command", logging.SanitizeCommand(command)))
		return terminal.PipeText(ctx, command, text, env)
	})
	out := resolvedFields(Result{}, r)
	out["bytes"] = len(text)
	return out, nil
}

// tabAction applies one action to a tab. Reapplying a state action (pin
// when pinned) succeeds without change.
func tabAction(c *call) (Result, error) {
	action, err := c.text("action")
	if err != nil {
		return nil, err
	}
	action = normalizeAction(action)
	r, err := c.resolve()
	if err != nil {
		return nil, err
	}
	id := r.Surface.ID
	out := resolvedFields(Result{}, r)
	switch action {
	case "rename":
		title := strings.TrimSpace(c.args.String("title", "name"))
		if title == "" {
			return nil, muxerr.InvalidArgument("%s rename requires a title", c.name)
		}
		err = c.state.RenameSurface(id, title)
	case "clear-name":
		err = c.state.ClearSurfaceName(id)
	case "pin":
		err = c.state.SetPinned(id, true)
	case "unpin":
		err = c.state.SetPinned(id, false)
	case "mark-read":
		err = c.state.SetUnread(id, false)
	case "mark-unread":
		err = c.state.SetUnread(id, true)
	case "new-terminal-right", "new-terminal-down":
		axis := layout.AxisHorizontal
		if action == "new-terminal-down" {
			axis = layout.AxisVertical
		}
		var pane *mux.Pane
		pane, err = c.state.SplitPane(r.Pane.ID, mux.SplitOptions{Axis: axis, Command: c.args.String("command")})
		if err == nil {
			created := c.state.Surface(pane.Selected)
			out["new_pane_id"] = pane.ID
			out["new_pane_ref"] = pane.Ref().String()
			out["new_surface_id"] = created.ID
			out["new_surface_ref"] = created.Ref().String()
			out["new_tab_ref"] = created.Ref().TabRef()
		}
	case "close":
		err = c.state.CloseSurface(id)
		out["closed"] = true
	default:
		return nil, muxerr.InvalidArgument("unknown tab action %q", action)
	}
	if err != nil {
		return nil, err
	}
	out["action"] = action
	if surface := c.state.Surface(id); surface != nil {
		out["title"] = surface.Title
		out["pinned"] = surface.Pinned
		out["unread"] = surface.Unread
	}
	return out, nil
}
