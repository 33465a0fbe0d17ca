// Package target resolves workspace, pane and surface selectors against a
// SessionState. Precedence, highest first: explicit selectors, the ambient
// ids inherited from the environment, then the global selection.
package target

import (
	"strconv"
	"strings"

	"github.com/pweiskircher/cmux/internal/mux"
	"github.com/pweiskircher/cmux/internal/muxerr"
)

// minPrefix is the shortest id prefix accepted in place of a full id.
const minPrefix = 4

// Selectors are the raw values of the target flags or arguments.
type Selectors struct {
	Workspace string
	Pane      string
	Surface   string
}

func (s Selectors) Empty() bool {
	return strings.TrimSpace(s.Workspace) == "" && strings.TrimSpace(s.Pane) == "" && strings.TrimSpace(s.Surface) == ""
}

// Request pairs explicit selectors with the caller's ambient ids.
type Request struct {
	Explicit Selectors
	Ambient  Selectors
}

// Resolved is the outcome of a resolution. All three are set whenever the
// workspace has at least one pane.
type Resolved struct {
	Workspace *mux.Workspace
	Pane      *mux.Pane
	Surface   *mux.Surface
}

// Resolve picks the workspace first, then the pane and surface inside it.
// A pane or surface selector that names an entity in a specific workspace
// scopes the whole request to that workspace without touching selection.
func Resolve(state *mux.SessionState, req Request) (Resolved, error) {
	var out Resolved
	explicit := trimSelectors(req.Explicit)
	ambient := trimSelectors(req.Ambient)

	if explicit.Workspace != "" {
		ws, err := Workspace(state, explicit.Workspace)
		if err != nil {
			return Resolved{}, err
		}
		out.Workspace = ws
	}
	// Positional pane and surface selectors count inside the workspace the
	// caller is in: explicit, then ambient, then the selection.
	scope := out.Workspace
	if scope == nil && (isOrdinal(explicit.Surface) || isOrdinal(explicit.Pane)) {
		ws, err := ambientWorkspace(state, ambient)
		if err != nil {
			return Resolved{}, err
		}
		scope = ws
	}
	if explicit.Surface != "" {
		surface, err := Surface(state, scope, explicit.Surface)
		if err != nil {
			return Resolved{}, err
		}
		out.Surface = surface
	}
	if explicit.Pane != "" {
		pane, err := Pane(state, scope, explicit.Pane)
		if err != nil {
			return Resolved{}, err
		}
		out.Pane = pane
	}
	if out.Workspace == nil {
		out.Workspace = ownerWorkspace(state, out.Pane, out.Surface)
	}
	if out.Workspace == nil {
		ws, err := ambientWorkspace(state, ambient)
		if err != nil {
			return Resolved{}, err
		}
		out.Workspace = ws
	}
	if out.Workspace == nil {
		return Resolved{}, muxerr.NotFound("no workspace selected")
	}
	if out.Surface != nil && state.WorkspaceOfSurface(out.Surface.ID) != out.Workspace {
		return Resolved{}, muxerr.NotFound("%s is not in %s", out.Surface.Ref(), out.Workspace.Ref())
	}
	if out.Pane != nil && out.Pane.WorkspaceID != out.Workspace.ID {
		return Resolved{}, muxerr.NotFound("%s is not in %s", out.Pane.Ref(), out.Workspace.Ref())
	}

	if out.Surface == nil && out.Pane == nil {
		out.Surface = ambientSurface(state, out.Workspace, ambient)
		if out.Surface == nil {
			out.Pane = ambientPane(state, out.Workspace, ambient)
		}
	}
	switch {
	case out.Surface != nil && out.Pane == nil:
		out.Pane = state.Pane(out.Surface.PaneID)
	case out.Surface != nil && out.Pane != nil:
		if out.Surface.PaneID != out.Pane.ID {
			return Resolved{}, muxerr.InvalidTarget("%s is not in %s", out.Surface.Ref().TabRef(), out.Pane.Ref())
		}
	case out.Pane != nil:
		out.Surface = state.Surface(out.Pane.Selected)
	default:
		out.Pane = state.FocusedPane(out.Workspace.ID)
		out.Surface = state.FocusedSurface(out.Workspace.ID)
	}
	return out, nil
}

func trimSelectors(s Selectors) Selectors {
	return Selectors{
		Workspace: strings.TrimSpace(s.Workspace),
		Pane:      strings.TrimSpace(s.Pane),
		Surface:   strings.TrimSpace(s.Surface),
	}
}

func ownerWorkspace(state *mux.SessionState, pane *mux.Pane, surface *mux.Surface) *mux.Workspace {
	if surface != nil {
		return state.WorkspaceOfSurface(surface.ID)
	}
	if pane != nil {
		return state.Workspace(pane.WorkspaceID)
	}
	return nil
}

func ambientWorkspace(state *mux.SessionState, ambient Selectors) (*mux.Workspace, error) {
	if ambient.Workspace != "" {
		return Workspace(state, ambient.Workspace)
	}
	if ambient.Surface != "" {
		surface, err := Surface(state, nil, ambient.Surface)
		if err != nil {
			return nil, err
		}
		return state.WorkspaceOfSurface(surface.ID), nil
	}
	if ambient.Pane != "" {
		pane, err := Pane(state, nil, ambient.Pane)
		if err != nil {
			return nil, err
		}
		return state.Workspace(pane.WorkspaceID), nil
	}
	return state.Selected(), nil
}

// ambientSurface returns the inherited surface when it lives in ws. A stale
// or foreign ambient id is ignored in favour of the workspace focus.
func ambientSurface(state *mux.SessionState, ws *mux.Workspace, ambient Selectors) *mux.Surface {
	if ambient.Surface == "" {
		return nil
	}
	surface, err := Surface(state, ws, ambient.Surface)
	if err != nil || state.WorkspaceOfSurface(surface.ID) != ws {
		return nil
	}
	return surface
}

func ambientPane(state *mux.SessionState, ws *mux.Workspace, ambient Selectors) *mux.Pane {
	if ambient.Pane == "" {
		return nil
	}
	pane, err := Pane(state, ws, ambient.Pane)
	if err != nil || pane.WorkspaceID != ws.ID {
		return nil
	}
	return pane
}

// Workspace resolves a workspace id, id prefix, "workspace:N" ref or
// creation-order index.
func Workspace(state *mux.SessionState, value string) (*mux.Workspace, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, muxerr.InvalidArgument("workspace selector is empty")
	}
	if ws := state.Workspace(value); ws != nil {
		return ws, nil
	}
	if ref, ok := mux.ParseRef(value); ok {
		if ref.Kind != mux.KindWorkspace {
			return nil, muxerr.InvalidTarget("%s is not a workspace", value)
		}
		if id, ok := state.LookupRef(ref); ok {
			return state.Workspace(id), nil
		}
		return nil, muxerr.NotFound("workspace %s not found", value)
	}
	all := state.Workspaces()
	if idx, ok := ordinal(value); ok {
		if idx >= len(all) {
			return nil, muxerr.NotFound("workspace %s not found", value)
		}
		return all[idx], nil
	}
	ids := make([]string, 0, len(all))
	for _, ws := range all {
		ids = append(ids, ws.ID)
	}
	id, err := byPrefix("workspace", value, ids)
	if err != nil {
		return nil, err
	}
	return state.Workspace(id), nil
}

// Pane resolves a pane selector. Indexes count panes of ws in tree order;
// with no ws they count panes of the selected workspace.
func Pane(state *mux.SessionState, ws *mux.Workspace, value string) (*mux.Pane, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, muxerr.InvalidArgument("pane selector is empty")
	}
	if pane := state.Pane(value); pane != nil {
		return pane, nil
	}
	if ref, ok := mux.ParseRef(value); ok {
		if ref.Kind != mux.KindPane {
			return nil, muxerr.InvalidTarget("%s is not a pane", value)
		}
		if id, ok := state.LookupRef(ref); ok {
			return state.Pane(id), nil
		}
		return nil, muxerr.NotFound("pane %s not found", value)
	}
	scope := scopeOf(state, ws)
	if idx, ok := ordinal(value); ok {
		if scope == nil {
			return nil, muxerr.NotFound("pane %s not found", value)
		}
		panes := state.Panes(scope.ID)
		if idx >= len(panes) {
			return nil, muxerr.NotFound("pane %s not found in %s", value, scope.Ref())
		}
		return panes[idx], nil
	}
	var ids []string
	for _, ws := range state.Workspaces() {
		for _, pane := range state.Panes(ws.ID) {
			ids = append(ids, pane.ID)
		}
	}
	id, err := byPrefix("pane", value, ids)
	if err != nil {
		return nil, err
	}
	return state.Pane(id), nil
}

// Surface resolves a surface or tab selector. Indexes count the surfaces of
// ws pane by pane.
func Surface(state *mux.SessionState, ws *mux.Workspace, value string) (*mux.Surface, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, muxerr.InvalidArgument("surface selector is empty")
	}
	if surface := state.Surface(value); surface != nil {
		return surface, nil
	}
	if ref, ok := mux.ParseRef(value); ok {
		if ref.Kind != mux.KindSurface {
			return nil, muxerr.InvalidTarget("%s is not a surface or tab", value)
		}
		if id, ok := state.LookupRef(ref); ok {
			return state.Surface(id), nil
		}
		return nil, muxerr.NotFound("surface %s not found", value)
	}
	scope := scopeOf(state, ws)
	if idx, ok := ordinal(value); ok {
		if scope == nil {
			return nil, muxerr.NotFound("surface %s not found", value)
		}
		surfaces := state.WorkspaceSurfaces(scope.ID)
		if idx >= len(surfaces) {
			return nil, muxerr.NotFound("surface %s not found in %s", value, scope.Ref())
		}
		return surfaces[idx], nil
	}
	var ids []string
	for _, ws := range state.Workspaces() {
		for _, surface := range state.WorkspaceSurfaces(ws.ID) {
			ids = append(ids, surface.ID)
		}
	}
	id, err := byPrefix("surface", value, ids)
	if err != nil {
		return nil, err
	}
	return state.Surface(id), nil
}

func scopeOf(state *mux.SessionState, ws *mux.Workspace) *mux.Workspace {
	if ws != nil {
		return ws
	}
	return state.Selected()
}

func isOrdinal(value string) bool {
	_, ok := ordinal(value)
	return ok
}

func ordinal(value string) (int, bool) {
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// byPrefix matches a unique id prefix. More than one match is ambiguous.
func byPrefix(kind, value string, ids []string) (string, error) {
	if len(value) < minPrefix {
		return "", muxerr.NotFound("%s %s not found", kind, value)
	}
	match := ""
	for _, id := range ids {
		if !strings.HasPrefix(id, value) {
			continue
		}
		if match != "" {
			return "", muxerr.Ambiguous("%s %s matches more than one %s", kind, value, kind)
		}
		match = id
	}
	if match == "" {
		return "", muxerr.NotFound("%s %s not found", kind, value)
	}
	return match, nil
}
