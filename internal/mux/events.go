package mux

// Lifecycle event names. They double as hook event names.
const (
	EventWorkspaceCreated  = "workspace-created"
	EventWorkspaceClosed   = "workspace-closed"
	EventWorkspaceRenamed  = "workspace-renamed"
	EventWorkspaceSelected = "workspace-selected"
	EventPaneSplit         = "pane-split"
	EventPaneClosed        = "pane-closed"
	EventPaneFocused       = "pane-focused"
	EventPaneResized       = "pane-resized"
	EventSurfaceCreated    = "surface-created"
	EventSurfaceClosed     = "surface-closed"
	EventSurfaceRenamed    = "surface-renamed"
	EventBufferSet         = "buffer-set"
)

// EventNames lists every event in a stable order.
func EventNames() []string {
	return []string{
		EventWorkspaceCreated,
		EventWorkspaceClosed,
		EventWorkspaceRenamed,
		EventWorkspaceSelected,
		EventPaneSplit,
		EventPaneClosed,
		EventPaneFocused,
		EventPaneResized,
		EventSurfaceCreated,
		EventSurfaceClosed,
		EventSurfaceRenamed,
		EventBufferSet,
	}
}

// IsEvent reports whether name is a known event.
func IsEvent(name string) bool {
	for _, known := range EventNames() {
		if known == name {
			return true
		}
	}
	return false
}

// Event records one state change. Events queue on the state until drained,
// so a discarded clone drops its events with it.
type Event struct {
	Name        string `json:"event"`
	WorkspaceID string `json:"workspace_id,omitempty"`
	PaneID      string `json:"pane_id,omitempty"`
	SurfaceID   string `json:"surface_id,omitempty"`
}

func (s *SessionState) emit(name, workspaceID, paneID, surfaceID string) {
	s.events = append(s.events, Event{Name: name, WorkspaceID: workspaceID, PaneID: paneID, SurfaceID: surfaceID})
}

// DrainEvents returns and clears the queued events.
func (s *SessionState) DrainEvents() []Event {
	out := s.events
	s.events = nil
	return out
}
