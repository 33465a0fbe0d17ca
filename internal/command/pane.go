package command

import (
	"errors"
	"strings"

	"github.com/pweiskircher/cmux/internal/layout"
	"github.com/pweiskircher/cmux/internal/mux"
	"github.com/pweiskircher/cmux/internal/muxerr"
	"github.com/pweiskircher/cmux/internal/target"
)

// defaultResizeAmount is in layout units, half the default minimum width.
const defaultResizeAmount = 20

func listPanes(c *call) (Result, error) {
	r, err := c.resolve()
	if err != nil {
		return nil, err
	}
	tree := r.Workspace.Tree
	rects := tree.Rects()
	rows := make([]map[string]any, 0)
	for i, pane := range c.state.Panes(r.Workspace.ID) {
		rows = append(rows, map[string]any{
			"index":               i,
			"id":                  pane.ID,
			"ref":                 pane.Ref().String(),
			"surface_count":       len(pane.Surfaces),
			"selected_surface_id": pane.Selected,
			"focused":             r.Workspace.FocusedPane == pane.ID,
			"zoomed":              tree.ZoomedPaneID == pane.ID,
			"frame":               frame(rects[pane.ID]),
		})
	}
	out := workspaceFields(Result{}, r.Workspace)
	out["panes"] = rows
	return out, nil
}

// splitPane splits the target pane. The new pane takes focus inside its
// workspace unless focus=false; the global selection never moves.
func splitPane(c *call) (Result, error) {
	direction := strings.ToLower(strings.TrimSpace(c.args.String("direction")))
	if direction == "" {
		direction = "right"
	}
	axis, err := layout.ParseAxis(direction)
	if err != nil {
		return nil, muxerr.InvalidArgument("unknown direction %q (want left, right, up or down)", direction)
	}
	percent, set, err := c.args.Int("percent")
	if err != nil {
		return nil, err
	}
	if set && (percent < 1 || percent > 99) {
		return nil, muxerr.InvalidArgument("--percent must be between 1 and 99")
	}
	focus := true
	if _, present := c.args["focus"]; present {
		if focus, err = c.args.Bool("focus"); err != nil {
			return nil, err
		}
	}
	r, err := c.resolve()
	if err != nil {
		return nil, err
	}
	pane, err := c.state.SplitPane(r.Pane.ID, mux.SplitOptions{
		Axis:         axis,
		Percent:      percent,
		Before:       direction == "left" || direction == "up",
		Focus:        focus,
		SurfaceTitle: c.args.String("title"),
		Command:      c.args.String("command"),
	})
	if err != nil {
		return nil, splitError(err)
	}
	out := workspaceFields(Result{}, r.Workspace)
	paneFields(out, pane)
	surfaceFields(out, c.state.Surface(pane.Selected))
	out["source_pane_id"] = r.Pane.ID
	out["source_pane_ref"] = r.Pane.Ref().String()
	return out, nil
}

// splitError maps layout refusals (no room for another pane) onto the
// error taxonomy.
func splitError(err error) error {
	if muxerr.CodeOf(err) != muxerr.CodeInternal {
		return err
	}
	return muxerr.InvalidArgument("%v", err)
}

func focusPane(c *call) (Result, error) {
	if !c.args.Has("pane") && !c.args.Has("pane_id") && c.args.Selectors().Surface == "" {
		return nil, muxerr.InvalidArgument("%s requires a pane", c.name)
	}
	r, err := c.resolve()
	if err != nil {
		return nil, err
	}
	if c.args.Selectors().Surface != "" {
		err = c.state.FocusSurface(r.Surface.ID)
	} else {
		err = c.state.FocusPane(r.Pane.ID)
	}
	if err != nil {
		return nil, err
	}
	return resolvedFields(Result{}, targetOf(c.state, r.Workspace)), nil
}

func lastPane(c *call) (Result, error) {
	r, err := c.resolve()
	if err != nil {
		return nil, err
	}
	if _, err := c.state.LastPane(r.Workspace.ID); err != nil {
		return nil, err
	}
	return resolvedFields(Result{}, targetOf(c.state, r.Workspace)), nil
}

// targetPane resolves the --target-pane argument. Indexes count panes of
// the source workspace. A destination that does not exist is an invalid
// target for the operation rather than a lookup miss.
func (c *call) targetPane(ws *mux.Workspace) (*mux.Pane, error) {
	value, err := c.text("target_pane", "target_pane_id", "target")
	if err != nil {
		return nil, err
	}
	pane, err := target.Pane(c.state, ws, value)
	if errors.Is(err, muxerr.ErrNotFound) {
		return nil, muxerr.InvalidTarget("target pane %s does not exist", value)
	}
	return pane, err
}

func swapPanes(c *call) (Result, error) {
	r, err := c.resolve()
	if err != nil {
		return nil, err
	}
	other, err := c.targetPane(r.Workspace)
	if err != nil {
		return nil, err
	}
	if err := c.state.SwapPanes(r.Pane.ID, other.ID); err != nil {
		return nil, err
	}
	out := workspaceFields(Result{}, r.Workspace)
	paneFields(out, r.Pane)
	out["target_pane_id"] = other.ID
	out["target_pane_ref"] = other.Ref().String()
	return out, nil
}

// breakPane moves the target surface into a new workspace. The new
// workspace is reported; the selection stays where it was.
func breakPane(c *call) (Result, error) {
	r, err := c.resolve()
	if err != nil {
		return nil, err
	}
	ws, err := c.state.BreakSurface(r.Surface.ID, c.args.String("title", "name"))
	if err != nil {
		return nil, err
	}
	out := workspaceFields(Result{}, ws)
	paneFields(out, c.state.FocusedPane(ws.ID))
	surfaceFields(out, r.Surface)
	out["source_workspace_id"] = r.Workspace.ID
	out["source_workspace_ref"] = r.Workspace.Ref().String()
	return out, nil
}

func joinPane(c *call) (Result, error) {
	r, err := c.resolve()
	if err != nil {
		return nil, err
	}
	dest, err := c.targetPane(r.Workspace)
	if err != nil {
		return nil, err
	}
	if err := c.state.JoinSurface(r.Surface.ID, dest.ID); err != nil {
		return nil, err
	}
	out := workspaceFields(Result{}, c.state.Workspace(dest.WorkspaceID))
	paneFields(out, dest)
	surfaceFields(out, r.Surface)
	return out, nil
}

func resizePane(c *call) (Result, error) {
	zoom, err := c.args.Bool("zoom")
	if err != nil {
		return nil, err
	}
	if zoom {
		return zoomPane(c)
	}
	direction := strings.TrimSpace(c.args.String("direction"))
	if direction == "" {
		return nil, muxerr.InvalidArgument("%s requires a direction (-L, -R, -U or -D)", c.name)
	}
	edge, ok := layout.ParseResizeEdge(strings.ToLower(direction))
	if !ok {
		if edge, ok = layout.ParseResizeEdge(direction); !ok {
			return nil, muxerr.InvalidArgument("unknown direction %q", direction)
		}
	}
	amount, set, err := c.args.Int("amount")
	if err != nil {
		return nil, err
	}
	if !set {
		amount = defaultResizeAmount
	}
	if amount <= 0 {
		return nil, muxerr.InvalidArgument("--amount must be greater than 0")
	}
	r, err := c.resolve()
	if err != nil {
		return nil, err
	}
	changed, err := c.state.ResizePane(r.Pane.ID, edge, amount)
	if err != nil {
		return nil, err
	}
	out := workspaceFields(Result{}, r.Workspace)
	paneFields(out, r.Pane)
	out["changed"] = changed
	if rect, ok := r.Workspace.Tree.Rect(r.Pane.ID); ok {
		out["frame"] = frame(rect)
	}
	return out, nil
}

func zoomPane(c *call) (Result, error) {
	r, err := c.resolve()
	if err != nil {
		return nil, err
	}
	zoomed, err := c.state.ZoomPane(r.Pane.ID)
	if err != nil {
		return nil, err
	}
	out := workspaceFields(Result{}, r.Workspace)
	paneFields(out, r.Pane)
	out["zoomed"] = zoomed
	return out, nil
}

func closePane(c *call) (Result, error) {
	r, err := c.resolve()
	if err != nil {
		return nil, err
	}
	out := workspaceFields(Result{}, r.Workspace)
	paneFields(out, r.Pane)
	if err := c.state.ClosePane(r.Pane.ID); err != nil {
		return nil, err
	}
	out["closed"] = true
	out["workspace_closed"] = c.state.Workspace(r.Workspace.ID) == nil
	return out, nil
}
