package mux

import "github.com/pweiskircher/cmux/internal/sessionpolicy"

// RenameSurface sets a tab title. An empty title is rejected.
func (s *SessionState) RenameSurface(id, title string) error {
	surface, err := s.surfaceOrErr(id)
	if err != nil {
		return err
	}
	title, err = sessionpolicy.Title("rename-tab", title)
	if err != nil {
		return err
	}
	s.setSurfaceTitle(surface, title)
	return nil
}

// ClearSurfaceName drops a user-set title.
func (s *SessionState) ClearSurfaceName(id string) error {
	surface, err := s.surfaceOrErr(id)
	if err != nil {
		return err
	}
	s.setSurfaceTitle(surface, "")
	return nil
}

func (s *SessionState) setSurfaceTitle(surface *Surface, title string) {
	if surface.Title == title {
		return
	}
	surface.Title = title
	workspaceID := ""
	if ws := s.WorkspaceOfSurface(surface.ID); ws != nil {
		workspaceID = ws.ID
	}
	s.emit(EventSurfaceRenamed, workspaceID, surface.PaneID, surface.ID)
}

// SetPinned pins or unpins a surface. Reapplying the same state is a no-op.
func (s *SessionState) SetPinned(id string, pinned bool) error {
	surface, err := s.surfaceOrErr(id)
	if err != nil {
		return err
	}
	surface.Pinned = pinned
	return nil
}

// SetUnread marks a surface unread or read.
func (s *SessionState) SetUnread(id string, unread bool) error {
	surface, err := s.surfaceOrErr(id)
	if err != nil {
		return err
	}
	surface.Unread = unread
	return nil
}

// SetSurfaceCommand records the command a surface was (re)started with.
func (s *SessionState) SetSurfaceCommand(id, command string) error {
	surface, err := s.surfaceOrErr(id)
	if err != nil {
		return err
	}
	surface.Command = command
	return nil
}
