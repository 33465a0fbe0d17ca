package command

import (
	"github.com/pweiskircher/cmux/internal/layout"
	"github.com/pweiskircher/cmux/internal/mux"
	"github.com/pweiskircher/cmux/internal/target"
)

// Result keys carrying canonical ids and refs. Every command that acts on an
// entity reports both, so callers can check what was actually targeted.
const (
	KeyWorkspaceID  = "workspace_id"
	KeyWorkspaceRef = "workspace_ref"
	KeyPaneID       = "pane_id"
	KeyPaneRef      = "pane_ref"
	KeySurfaceID    = "surface_id"
	KeySurfaceRef   = "surface_ref"
	KeyTabRef       = "tab_ref"
)

func workspaceFields(out Result, ws *mux.Workspace) Result {
	if ws == nil {
		return out
	}
	out[KeyWorkspaceID] = ws.ID
	out[KeyWorkspaceRef] = ws.Ref().String()
	return out
}

func paneFields(out Result, pane *mux.Pane) Result {
	if pane == nil {
		return out
	}
	out[KeyPaneID] = pane.ID
	out[KeyPaneRef] = pane.Ref().String()
	return out
}

func surfaceFields(out Result, surface *mux.Surface) Result {
	if surface == nil {
		return out
	}
	out[KeySurfaceID] = surface.ID
	out[KeySurfaceRef] = surface.Ref().String()
	out[KeyTabRef] = surface.Ref().TabRef()
	return out
}

func resolvedFields(out Result, r target.Resolved) Result {
	workspaceFields(out, r.Workspace)
	paneFields(out, r.Pane)
	return surfaceFields(out, r.Surface)
}

// targetOf reports the entities a workspace currently focuses.
func targetOf(state *mux.SessionState, ws *mux.Workspace) target.Resolved {
	if ws == nil {
		return target.Resolved{}
	}
	return target.Resolved{
		Workspace: ws,
		Pane:      state.FocusedPane(ws.ID),
		Surface:   state.FocusedSurface(ws.ID),
	}
}

func frame(r layout.Rect) map[string]any {
	return map[string]any{"x": r.X, "y": r.Y, "width": r.W, "height": r.H}
}

func workspaceRow(state *mux.SessionState, index int, ws *mux.Workspace, selected *mux.Workspace) map[string]any {
	return map[string]any{
		"index":    index,
		"id":       ws.ID,
		"ref":      ws.Ref().String(),
		"title":    ws.DisplayTitle(),
		"selected": selected != nil && selected.ID == ws.ID,
		"panes":    len(state.Panes(ws.ID)),
		"surfaces": len(state.WorkspaceSurfaces(ws.ID)),
	}
}

func surfaceRow(state *mux.SessionState, index int, surface *mux.Surface, focused *mux.Surface) map[string]any {
	row := map[string]any{
		"index":    index,
		"id":       surface.ID,
		"ref":      surface.Ref().String(),
		"tab_ref":  surface.Ref().TabRef(),
		"title":    surface.Title,
		"pane_id":  surface.PaneID,
		"pinned":   surface.Pinned,
		"unread":   surface.Unread,
		"focused":  focused != nil && focused.ID == surface.ID,
		"selected": false,
	}
	if pane := state.Pane(surface.PaneID); pane != nil {
		row["pane_ref"] = pane.Ref().String()
		row["selected"] = pane.Selected == surface.ID
	}
	if surface.Command != "" {
		row["command"] = surface.Command
	}
	return row
}
