package mux

import (
	"strings"

	"github.com/pweiskircher/cmux/internal/layout"
	"github.com/pweiskircher/cmux/internal/muxerr"
	"github.com/pweiskircher/cmux/internal/sessionpolicy"
)

// CreateOptions describes a new workspace.
type CreateOptions struct {
	Title        string
	SurfaceTitle string
	Command      string
}

// CreateWorkspace adds a workspace holding one pane with one surface. It
// never changes the selection unless there was nothing selected.
func (s *SessionState) CreateWorkspace(opts CreateOptions) *Workspace {
	surface := s.newSurface(opts.SurfaceTitle, opts.Command)
	ws := s.adoptSurface(strings.TrimSpace(opts.Title), surface)
	s.emit(EventSurfaceCreated, ws.ID, surface.PaneID, surface.ID)
	return ws
}

func (s *SessionState) newSurface(title, command string) *Surface {
	surface := &Surface{
		ID:      s.opts.NewID(),
		Seq:     s.nextSeq(KindSurface),
		Title:   title,
		Command: command,
	}
	s.surfaces[surface.ID] = surface
	return surface
}

func (s *SessionState) newPane(id, workspaceID string, surface *Surface) *Pane {
	pane := &Pane{
		ID:          id,
		Seq:         s.nextSeq(KindPane),
		WorkspaceID: workspaceID,
		Surfaces:    []string{surface.ID},
		Selected:    surface.ID,
	}
	surface.PaneID = pane.ID
	s.panes[pane.ID] = pane
	return pane
}

// adoptSurface builds a workspace around an existing, detached surface.
func (s *SessionState) adoptSurface(title string, surface *Surface) *Workspace {
	ws := &Workspace{
		ID:    s.opts.NewID(),
		Seq:   s.nextSeq(KindWorkspace),
		Title: title,
	}
	pane := s.newPane(s.opts.NewID(), ws.ID, surface)
	ws.Tree = layout.NewTree(pane.ID)
	ws.Tree.Bounds = s.opts.Bounds
	ws.Tree.Constraints = s.opts.Constraints
	ws.Tree.Recompute()
	ws.FocusedPane = pane.ID
	ws.FocusHistory = []string{pane.ID}

	s.workspaces[ws.ID] = ws
	s.order = append(s.order, ws.ID)
	if s.selected == "" {
		s.selected = ws.ID
	}
	s.emit(EventWorkspaceCreated, ws.ID, pane.ID, surface.ID)
	return ws
}

// SelectWorkspace makes id the selected workspace. The old selection moves
// to the previous slot.
func (s *SessionState) SelectWorkspace(id string) error {
	if _, err := s.workspaceOrErr(id); err != nil {
		return err
	}
	s.selectWorkspace(id)
	return nil
}

func (s *SessionState) selectWorkspace(id string) {
	if id == s.selected {
		return
	}
	if s.selected != "" {
		s.previous = s.selected
	}
	s.selected = id
	s.emit(EventWorkspaceSelected, id, "", "")
}

// NextWorkspace moves the selection forward in creation order, wrapping.
func (s *SessionState) NextWorkspace() (*Workspace, error) {
	return s.stepWorkspace(1)
}

// PreviousWorkspace moves the selection backward in creation order, wrapping.
func (s *SessionState) PreviousWorkspace() (*Workspace, error) {
	return s.stepWorkspace(-1)
}

func (s *SessionState) stepWorkspace(delta int) (*Workspace, error) {
	n := len(s.order)
	if n == 0 {
		return nil, muxerr.NotFound("no workspaces")
	}
	idx := s.orderIndex(s.selected)
	if idx < 0 {
		idx = 0
	}
	next := s.order[((idx+delta)%n+n)%n]
	s.selectWorkspace(next)
	return s.workspaces[next], nil
}

// LastWorkspace swaps the selection with the previous slot.
func (s *SessionState) LastWorkspace() (*Workspace, error) {
	if s.previous == "" || s.workspaces[s.previous] == nil || s.previous == s.selected {
		return nil, muxerr.NoHistory("no previously selected workspace")
	}
	target := s.previous
	s.selectWorkspace(target)
	return s.workspaces[target], nil
}

func (s *SessionState) orderIndex(id string) int {
	for i, candidate := range s.order {
		if candidate == id {
			return i
		}
	}
	return -1
}

// RenameWorkspace sets a workspace title. An empty title is rejected.
func (s *SessionState) RenameWorkspace(id, title string) error {
	ws, err := s.workspaceOrErr(id)
	if err != nil {
		return err
	}
	title, err = sessionpolicy.Title("rename-workspace", title)
	if err != nil {
		return err
	}
	if ws.Title == title {
		return nil
	}
	ws.Title = title
	s.emit(EventWorkspaceRenamed, ws.ID, "", "")
	return nil
}

// ResizeWorkspace sets the bounds the workspace tree is laid out in.
func (s *SessionState) ResizeWorkspace(id string, bounds layout.Rect) ([]string, error) {
	ws, err := s.workspaceOrErr(id)
	if err != nil {
		return nil, err
	}
	res, err := layout.NewEngine(ws.Tree).Apply(layout.BoundsOp{Bounds: bounds})
	if err != nil {
		return nil, err
	}
	for _, paneID := range res.Affected {
		s.emit(EventPaneResized, ws.ID, paneID, "")
	}
	return res.Affected, nil
}

// CloseWorkspace destroys a workspace with all its panes and surfaces. If
// it was selected, the previous slot (or the nearest neighbour in creation
// order) becomes selected.
func (s *SessionState) CloseWorkspace(id string) error {
	ws, err := s.workspaceOrErr(id)
	if err != nil {
		return err
	}
	for _, paneID := range ws.Tree.PaneIDs() {
		pane := s.panes[paneID]
		if pane == nil {
			continue
		}
		for _, surfaceID := range pane.Surfaces {
			delete(s.surfaces, surfaceID)
			s.emit(EventSurfaceClosed, ws.ID, paneID, surfaceID)
		}
		delete(s.panes, paneID)
		s.emit(EventPaneClosed, ws.ID, paneID, "")
	}
	s.dropWorkspace(ws)
	return nil
}

// dropWorkspace unlinks an already emptied workspace and repairs selection.
func (s *SessionState) dropWorkspace(ws *Workspace) {
	idx := s.orderIndex(ws.ID)
	if idx >= 0 {
		s.order = append(s.order[:idx], s.order[idx+1:]...)
	}
	delete(s.workspaces, ws.ID)
	s.emit(EventWorkspaceClosed, ws.ID, "", "")

	if s.previous == ws.ID {
		s.previous = ""
	}
	if s.selected != ws.ID {
		return
	}
	s.selected = ""
	switch {
	case s.previous != "":
		s.selected = s.previous
		s.previous = ""
	case len(s.order) > 0:
		if idx >= len(s.order) {
			idx = len(s.order) - 1
		}
		if idx < 0 {
			idx = 0
		}
		s.selected = s.order[idx]
	}
	if s.selected != "" {
		s.emit(EventWorkspaceSelected, s.selected, "", "")
	}
}
