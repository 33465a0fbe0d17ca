package command

import (
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/pweiskircher/cmux/internal/layout"
	"github.com/pweiskircher/cmux/internal/mux"
	"github.com/pweiskircher/cmux/internal/muxerr"
)

func listWorkspaces(c *call) (Result, error) {
	selected := c.state.Selected()
	rows := make([]map[string]any, 0)
	for i, ws := range c.state.Workspaces() {
		rows = append(rows, workspaceRow(c.state, i, ws, selected))
	}
	return Result{"workspaces": rows}, nil
}

func currentWorkspace(c *call) (Result, error) {
	r, err := c.resolve()
	if err != nil {
		return nil, err
	}
	out := resolvedFields(Result{}, r)
	out["title"] = r.Workspace.DisplayTitle()
	return out, nil
}

// createWorkspace never moves the selection, except for the very first
// workspace which becomes selected because nothing else is.
func createWorkspace(c *call) (Result, error) {
	title := strings.TrimSpace(c.args.String("title", "name"))
	if title == "" {
		title = c.d.defaultTitle
	}
	ws := c.state.CreateWorkspace(mux.CreateOptions{
		Title:        title,
		SurfaceTitle: c.args.String("tab_title"),
		Command:      c.args.String("command"),
	})
	out := resolvedFields(Result{}, targetOf(c.state, ws))
	out["title"] = ws.DisplayTitle()
	return out, nil
}

func selectWorkspace(c *call) (Result, error) {
	if !c.args.Has("workspace") && !c.args.Has("workspace_id") {
		return nil, muxerr.InvalidArgument("%s requires a workspace", c.name)
	}
	r, err := c.resolve()
	if err != nil {
		return nil, err
	}
	if err := c.state.SelectWorkspace(r.Workspace.ID); err != nil {
		return nil, err
	}
	return resolvedFields(Result{}, targetOf(c.state, r.Workspace)), nil
}

func nextWorkspace(c *call) (Result, error) {
	return stepped(c, c.state.NextWorkspace)
}

func previousWorkspace(c *call) (Result, error) {
	return stepped(c, c.state.PreviousWorkspace)
}

func lastWorkspace(c *call) (Result, error) {
	return stepped(c, c.state.LastWorkspace)
}

func stepped(c *call, step func() (*mux.Workspace, error)) (Result, error) {
	ws, err := step()
	if err != nil {
		return nil, err
	}
	out := resolvedFields(Result{}, targetOf(c.state, ws))
	out["title"] = ws.DisplayTitle()
	return out, nil
}

func renameWorkspace(c *call) (Result, error) {
	title, err := c.text("title", "name")
	if err != nil {
		return nil, err
	}
	r, err := c.resolve()
	if err != nil {
		return nil, err
	}
	if err := c.state.RenameWorkspace(r.Workspace.ID, title); err != nil {
		return nil, err
	}
	out := workspaceFields(Result{}, r.Workspace)
	out["title"] = title
	return out, nil
}

func closeWorkspace(c *call) (Result, error) {
	r, err := c.resolve()
	if err != nil {
		return nil, err
	}
	out := workspaceFields(Result{}, r.Workspace)
	if err := c.state.CloseWorkspace(r.Workspace.ID); err != nil {
		return nil, err
	}
	out["closed"] = true
	if selected := c.state.Selected(); selected != nil {
		out["selected_workspace_id"] = selected.ID
		out["selected_workspace_ref"] = selected.Ref().String()
	}
	return out, nil
}

func normalizeAction(action string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(action)), "_", "-")
}

func workspaceAction(c *call) (Result, error) {
	action, err := c.text("action")
	if err != nil {
		return nil, err
	}
	action = normalizeAction(action)
	var res Result
	switch action {
	case "select":
		c.args["workspace"] = firstNonEmpty(c.args.String("workspace", "workspace_id"), c.caller.Ambient.Workspace)
		if c.args.String("workspace") == "" {
			return nil, muxerr.InvalidArgument("%s select requires a workspace", c.name)
		}
		res, err = selectWorkspace(c)
	case "rename":
		if strings.TrimSpace(c.args.String("title", "name")) == "" {
			return nil, muxerr.InvalidArgument("%s rename requires a title", c.name)
		}
		res, err = renameWorkspace(c)
	case "close":
		res, err = closeWorkspace(c)
	default:
		return nil, muxerr.InvalidArgument("unknown workspace action %q", action)
	}
	if err != nil {
		return nil, err
	}
	res["action"] = action
	return res, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// resizeWorkspace sets the bounds a workspace is laid out in. GUIs report
// their viewport here so frames come back in their units.
func resizeWorkspace(c *call) (Result, error) {
	width, _, err := c.args.Int("width")
	if err != nil {
		return nil, err
	}
	height, _, err := c.args.Int("height")
	if err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 {
		return nil, muxerr.InvalidArgument("%s requires a positive width and height", c.name)
	}
	x, _, err := c.args.Int("x")
	if err != nil {
		return nil, err
	}
	y, _, err := c.args.Int("y")
	if err != nil {
		return nil, err
	}
	r, err := c.resolve()
	if err != nil {
		return nil, err
	}
	affected, err := c.state.ResizeWorkspace(r.Workspace.ID, layout.Rect{X: x, Y: y, W: width, H: height})
	if err != nil {
		return nil, muxerr.InvalidArgument("%v", err)
	}
	out := workspaceFields(Result{}, r.Workspace)
	out["resized_panes"] = affected
	return out, nil
}

func workspaceLayout(c *call) (Result, error) {
	r, err := c.resolve()
	if err != nil {
		return nil, err
	}
	tree := r.Workspace.Tree
	visible := tree.ViewRects()
	panes := make([]map[string]any, 0)
	for _, pane := range c.state.Panes(r.Workspace.ID) {
		rect, shown := visible[pane.ID]
		if !shown {
			rect, _ = tree.Rect(pane.ID)
		}
		panes = append(panes, map[string]any{
			"pane_id":  pane.ID,
			"pane_ref": pane.Ref().String(),
			"frame":    frame(rect),
			"visible":  shown,
			"focused":  r.Workspace.FocusedPane == pane.ID,
		})
	}
	out := workspaceFields(Result{}, r.Workspace)
	out["layout"] = map[string]any{
		"bounds":         frame(tree.Bounds),
		"zoomed_pane_id": tree.ZoomedPaneID,
		"panes":          panes,
	}
	return out, nil
}

// titleSource feeds workspace and tab titles to the fuzzy matcher.
type titleSource struct {
	titles []string
	rows   []map[string]any
}

func (s titleSource) String(i int) string { return s.titles[i] }
func (s titleSource) Len() int            { return len(s.titles) }

func findWindow(c *call) (Result, error) {
	query, err := c.text("query")
	if err != nil {
		return nil, err
	}
	var src titleSource
	for _, ws := range c.state.Workspaces() {
		src.titles = append(src.titles, ws.DisplayTitle())
		src.rows = append(src.rows, workspaceFields(Result{"kind": "workspace", "title": ws.DisplayTitle()}, ws))
		for _, surface := range c.state.WorkspaceSurfaces(ws.ID) {
			if surface.Title == "" {
				continue
			}
			src.titles = append(src.titles, surface.Title)
			row := workspaceFields(Result{"kind": "tab", "title": surface.Title}, ws)
			src.rows = append(src.rows, surfaceFields(row, surface))
		}
	}
	matches := make([]map[string]any, 0)
	for _, m := range fuzzy.FindFrom(query, src) {
		row := src.rows[m.Index]
		row["score"] = m.Score
		matches = append(matches, row)
	}
	return Result{"query": query, "matches": matches}, nil
}
