package mux

import (
	"github.com/pweiskircher/cmux/internal/layout"
	"github.com/pweiskircher/cmux/internal/muxerr"
)

// SplitOptions describes a split. Percent is the new pane's share.
type SplitOptions struct {
	Axis         layout.Axis
	Percent      int
	Before       bool
	Focus        bool
	SurfaceTitle string
	Command      string
}

// SplitPane splits paneID and puts a fresh surface in the new pane.
func (s *SessionState) SplitPane(paneID string, opts SplitOptions) (*Pane, error) {
	pane, err := s.paneOrErr(paneID)
	if err != nil {
		return nil, err
	}
	ws, err := s.workspaceOrErr(pane.WorkspaceID)
	if err != nil {
		return nil, err
	}
	newID := s.opts.NewID()
	res, err := layout.NewEngine(ws.Tree).Apply(layout.SplitOp{
		PaneID:    pane.ID,
		NewPaneID: newID,
		Axis:      opts.Axis,
		Percent:   opts.Percent,
		Before:    opts.Before,
	})
	if err != nil {
		return nil, err
	}
	surface := s.newSurface(opts.SurfaceTitle, opts.Command)
	created := s.newPane(newID, ws.ID, surface)
	s.emit(EventPaneSplit, ws.ID, created.ID, "")
	s.emit(EventSurfaceCreated, ws.ID, created.ID, surface.ID)
	s.emitResized(ws.ID, res.Affected)
	if opts.Focus {
		s.focusPane(ws, created.ID)
	}
	return created, nil
}

func (s *SessionState) emitResized(workspaceID string, paneIDs []string) {
	for _, id := range paneIDs {
		if s.panes[id] != nil {
			s.emit(EventPaneResized, workspaceID, id, "")
		}
	}
}

// ResizePane moves the nearest matching divider. It reports whether any
// geometry changed; a missing matching split is not an error.
func (s *SessionState) ResizePane(paneID string, edge layout.ResizeEdge, amount int) (bool, error) {
	pane, err := s.paneOrErr(paneID)
	if err != nil {
		return false, err
	}
	ws, err := s.workspaceOrErr(pane.WorkspaceID)
	if err != nil {
		return false, err
	}
	res, err := layout.NewEngine(ws.Tree).Apply(layout.ResizeOp{PaneID: pane.ID, Edge: edge, Delta: amount})
	if err != nil {
		return false, err
	}
	s.emitResized(ws.ID, res.Affected)
	return res.Changed, nil
}

// ZoomPane toggles zoom and reports the new state.
func (s *SessionState) ZoomPane(paneID string) (bool, error) {
	pane, err := s.paneOrErr(paneID)
	if err != nil {
		return false, err
	}
	ws, err := s.workspaceOrErr(pane.WorkspaceID)
	if err != nil {
		return false, err
	}
	if _, err := layout.NewEngine(ws.Tree).Apply(layout.ZoomOp{PaneID: pane.ID}); err != nil {
		return false, err
	}
	s.emitResized(ws.ID, ws.Tree.PaneIDs())
	return ws.Tree.ZoomedPaneID == pane.ID, nil
}

// SwapPanes exchanges the surface stacks of two panes. Tree shape and
// geometry stay as they are.
func (s *SessionState) SwapPanes(a, b string) error {
	paneA, err := s.paneOrErr(a)
	if err != nil {
		return err
	}
	paneB, err := s.paneOrErr(b)
	if err != nil {
		return err
	}
	if paneA.ID == paneB.ID {
		return nil
	}
	paneA.Surfaces, paneB.Surfaces = paneB.Surfaces, paneA.Surfaces
	paneA.Selected, paneB.Selected = paneB.Selected, paneA.Selected
	for _, id := range paneA.Surfaces {
		s.surfaces[id].PaneID = paneA.ID
	}
	for _, id := range paneB.Surfaces {
		s.surfaces[id].PaneID = paneB.ID
	}
	return nil
}

// BreakSurface moves a surface into a brand new workspace and returns it.
// The selection is left alone.
func (s *SessionState) BreakSurface(surfaceID, title string) (*Workspace, error) {
	surface, err := s.surfaceOrErr(surfaceID)
	if err != nil {
		return nil, err
	}
	s.detachSurface(surface)
	return s.adoptSurface(title, surface), nil
}

// JoinSurface appends a surface to targetPaneID's stack and selects it.
func (s *SessionState) JoinSurface(surfaceID, targetPaneID string) error {
	surface, err := s.surfaceOrErr(surfaceID)
	if err != nil {
		return err
	}
	target, err := s.paneOrErr(targetPaneID)
	if err != nil {
		return err
	}
	if surface.PaneID == target.ID {
		target.Selected = surface.ID
		return nil
	}
	s.detachSurface(surface)
	target.Surfaces = append(target.Surfaces, surface.ID)
	target.Selected = surface.ID
	surface.PaneID = target.ID
	return nil
}

// NewSurface appends a fresh surface to paneID and selects it.
func (s *SessionState) NewSurface(paneID, title, command string) (*Surface, error) {
	pane, err := s.paneOrErr(paneID)
	if err != nil {
		return nil, err
	}
	surface := s.newSurface(title, command)
	surface.PaneID = pane.ID
	pane.Surfaces = append(pane.Surfaces, surface.ID)
	pane.Selected = surface.ID
	s.emit(EventSurfaceCreated, pane.WorkspaceID, pane.ID, surface.ID)
	return surface, nil
}

// CloseSurface destroys a surface, collapsing its pane and workspace when
// it was the last occupant.
func (s *SessionState) CloseSurface(surfaceID string) error {
	surface, err := s.surfaceOrErr(surfaceID)
	if err != nil {
		return err
	}
	pane := s.panes[surface.PaneID]
	workspaceID := ""
	if pane != nil {
		workspaceID = pane.WorkspaceID
	}
	paneID := surface.PaneID
	s.detachSurface(surface)
	delete(s.surfaces, surface.ID)
	s.emit(EventSurfaceClosed, workspaceID, paneID, surface.ID)
	return nil
}

// ClosePane destroys a pane and its surfaces. Closing the last pane closes
// the workspace.
func (s *SessionState) ClosePane(paneID string) error {
	pane, err := s.paneOrErr(paneID)
	if err != nil {
		return err
	}
	for _, id := range pane.Surfaces {
		delete(s.surfaces, id)
		s.emit(EventSurfaceClosed, pane.WorkspaceID, pane.ID, id)
	}
	pane.Surfaces = nil
	s.removePane(pane)
	return nil
}

// detachSurface unlinks a surface from its pane. An emptied pane is removed
// and an emptied workspace closed.
func (s *SessionState) detachSurface(surface *Surface) {
	pane := s.panes[surface.PaneID]
	surface.PaneID = ""
	if pane == nil {
		return
	}
	idx := pane.indexOf(surface.ID)
	if idx < 0 {
		return
	}
	pane.Surfaces = append(pane.Surfaces[:idx:idx], pane.Surfaces[idx+1:]...)
	if len(pane.Surfaces) == 0 {
		s.removePane(pane)
		return
	}
	if pane.Selected == surface.ID {
		if idx >= len(pane.Surfaces) {
			idx = len(pane.Surfaces) - 1
		}
		pane.Selected = pane.Surfaces[idx]
	}
}

func (s *SessionState) removePane(pane *Pane) {
	ws := s.workspaces[pane.WorkspaceID]
	delete(s.panes, pane.ID)
	s.emit(EventPaneClosed, pane.WorkspaceID, pane.ID, "")
	if ws == nil {
		return
	}
	res, err := layout.NewEngine(ws.Tree).Apply(layout.CloseOp{PaneID: pane.ID})
	if err != nil {
		return
	}
	if ws.Tree.Empty() {
		s.dropWorkspace(ws)
		return
	}
	ws.FocusHistory = dropFromHistory(ws.FocusHistory, pane.ID)
	if ws.FocusedPane == pane.ID {
		next := ""
		if n := len(ws.FocusHistory); n > 0 {
			next = ws.FocusHistory[n-1]
		} else {
			next = ws.Tree.PaneIDs()[0]
		}
		ws.FocusedPane = ""
		s.focusPane(ws, next)
	}
	s.emitResized(ws.ID, res.Affected)
}

// FocusPane focuses paneID within its workspace. The global selection is
// not touched.
func (s *SessionState) FocusPane(paneID string) error {
	pane, err := s.paneOrErr(paneID)
	if err != nil {
		return err
	}
	ws, err := s.workspaceOrErr(pane.WorkspaceID)
	if err != nil {
		return err
	}
	s.focusPane(ws, pane.ID)
	return nil
}

// FocusSurface selects a surface in its pane and focuses that pane.
func (s *SessionState) FocusSurface(surfaceID string) error {
	surface, err := s.surfaceOrErr(surfaceID)
	if err != nil {
		return err
	}
	pane := s.panes[surface.PaneID]
	pane.Selected = surface.ID
	return s.FocusPane(pane.ID)
}

// LastPane focuses the pane below the current one in the focus history.
func (s *SessionState) LastPane(workspaceID string) (*Pane, error) {
	ws, err := s.workspaceOrErr(workspaceID)
	if err != nil {
		return nil, err
	}
	n := len(ws.FocusHistory)
	if n < 2 {
		return nil, muxerr.NoHistory("no previously focused pane")
	}
	target := ws.FocusHistory[n-2]
	s.focusPane(ws, target)
	return s.panes[target], nil
}

func (s *SessionState) focusPane(ws *Workspace, paneID string) {
	if ws.FocusedPane == paneID {
		return
	}
	ws.FocusedPane = paneID
	ws.FocusHistory = pushHistory(ws.FocusHistory, paneID, s.opts.FocusHistory)
	s.emit(EventPaneFocused, ws.ID, paneID, "")
}

func pushHistory(history []string, paneID string, limit int) []string {
	if n := len(history); n > 0 && history[n-1] == paneID {
		return history
	}
	history = append(history, paneID)
	if len(history) > limit {
		history = append([]string(nil), history[len(history)-limit:]...)
	}
	return history
}

// dropFromHistory removes paneID and merges the duplicates that become
// adjacent.
func dropFromHistory(history []string, paneID string) []string {
	out := history[:0:0]
	for _, id := range history {
		if id == paneID {
			continue
		}
		if n := len(out); n > 0 && out[n-1] == id {
			continue
		}
		out = append(out, id)
	}
	return out
}
