package mux

import (
	"github.com/google/uuid"

	"github.com/pweiskircher/cmux/internal/layout"
	"github.com/pweiskircher/cmux/internal/muxerr"
)

const DefaultFocusHistory = 32

// Options tunes a new SessionState.
type Options struct {
	Bounds       layout.Rect
	Constraints  layout.Constraints
	FocusHistory int
	// NewID overrides id generation; tests use it for stable ids.
	NewID func() string
}

func (o Options) normalized() Options {
	if o.Bounds.Empty() {
		o.Bounds = layout.Rect{W: layout.LayoutBaseSize, H: layout.LayoutBaseSize}
	}
	if o.Constraints.MinWidth <= 0 || o.Constraints.MinHeight <= 0 {
		o.Constraints = layout.DefaultConstraints()
	}
	if o.FocusHistory <= 1 {
		o.FocusHistory = DefaultFocusHistory
	}
	if o.NewID == nil {
		o.NewID = uuid.NewString
	}
	return o
}

// SessionState is the whole mutable session: workspaces in creation order,
// the global selection with its two-slot history, and every pane and
// surface indexed by id.
type SessionState struct {
	opts       Options
	order      []string
	workspaces map[string]*Workspace
	panes      map[string]*Pane
	surfaces   map[string]*Surface
	selected   string
	previous   string
	seq        map[Kind]int
	events     []Event
}

func NewState(opts Options) *SessionState {
	return &SessionState{
		opts:       opts.normalized(),
		workspaces: make(map[string]*Workspace),
		panes:      make(map[string]*Pane),
		surfaces:   make(map[string]*Surface),
		seq:        make(map[Kind]int),
	}
}

func (s *SessionState) nextSeq(kind Kind) int {
	s.seq[kind]++
	return s.seq[kind]
}

// Selected returns the selected workspace, or nil in the zero-workspace state.
func (s *SessionState) Selected() *Workspace {
	return s.workspaces[s.selected]
}

// PreviousSelected returns the other slot of the last-selected record.
func (s *SessionState) PreviousSelected() *Workspace {
	return s.workspaces[s.previous]
}

func (s *SessionState) Workspace(id string) *Workspace { return s.workspaces[id] }
func (s *SessionState) Pane(id string) *Pane           { return s.panes[id] }
func (s *SessionState) Surface(id string) *Surface     { return s.surfaces[id] }

// Workspaces returns workspaces in creation order.
func (s *SessionState) Workspaces() []*Workspace {
	out := make([]*Workspace, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.workspaces[id])
	}
	return out
}

// Panes returns a workspace's panes in tree order.
func (s *SessionState) Panes(workspaceID string) []*Pane {
	ws := s.workspaces[workspaceID]
	if ws == nil {
		return nil
	}
	ids := ws.Tree.PaneIDs()
	out := make([]*Pane, 0, len(ids))
	for _, id := range ids {
		if pane := s.panes[id]; pane != nil {
			out = append(out, pane)
		}
	}
	return out
}

// Surfaces returns a pane's surface stack in order.
func (s *SessionState) Surfaces(paneID string) []*Surface {
	pane := s.panes[paneID]
	if pane == nil {
		return nil
	}
	out := make([]*Surface, 0, len(pane.Surfaces))
	for _, id := range pane.Surfaces {
		out = append(out, s.surfaces[id])
	}
	return out
}

// WorkspaceSurfaces returns every surface of a workspace, pane by pane.
func (s *SessionState) WorkspaceSurfaces(workspaceID string) []*Surface {
	var out []*Surface
	for _, pane := range s.Panes(workspaceID) {
		out = append(out, s.Surfaces(pane.ID)...)
	}
	return out
}

// FocusedPane returns the focused pane of a workspace.
func (s *SessionState) FocusedPane(workspaceID string) *Pane {
	ws := s.workspaces[workspaceID]
	if ws == nil {
		return nil
	}
	return s.panes[ws.FocusedPane]
}

// FocusedSurface returns the selected surface of the focused pane.
func (s *SessionState) FocusedSurface(workspaceID string) *Surface {
	pane := s.FocusedPane(workspaceID)
	if pane == nil {
		return nil
	}
	return s.surfaces[pane.Selected]
}

// WorkspaceOfSurface returns the workspace that currently holds surfaceID.
func (s *SessionState) WorkspaceOfSurface(surfaceID string) *Workspace {
	surface := s.surfaces[surfaceID]
	if surface == nil {
		return nil
	}
	pane := s.panes[surface.PaneID]
	if pane == nil {
		return nil
	}
	return s.workspaces[pane.WorkspaceID]
}

// LookupRef finds the entity with the given ref and returns its id.
func (s *SessionState) LookupRef(ref Ref) (string, bool) {
	switch ref.Kind {
	case KindWorkspace:
		for _, ws := range s.workspaces {
			if ws.Seq == ref.Seq {
				return ws.ID, true
			}
		}
	case KindPane:
		for _, pane := range s.panes {
			if pane.Seq == ref.Seq {
				return pane.ID, true
			}
		}
	case KindSurface, KindTab:
		for _, surface := range s.surfaces {
			if surface.Seq == ref.Seq {
				return surface.ID, true
			}
		}
	}
	return "", false
}

func (s *SessionState) workspaceOrErr(id string) (*Workspace, error) {
	ws := s.workspaces[id]
	if ws == nil {
		return nil, muxerr.NotFound("workspace %s not found", id)
	}
	return ws, nil
}

func (s *SessionState) paneOrErr(id string) (*Pane, error) {
	pane := s.panes[id]
	if pane == nil {
		return nil, muxerr.InvalidTarget("pane %s not found", id)
	}
	return pane, nil
}

func (s *SessionState) surfaceOrErr(id string) (*Surface, error) {
	surface := s.surfaces[id]
	if surface == nil {
		return nil, muxerr.NotFound("surface %s not found", id)
	}
	return surface, nil
}

// Clone returns a deep copy, events included.
func (s *SessionState) Clone() *SessionState {
	out := &SessionState{
		opts:       s.opts,
		order:      append([]string(nil), s.order...),
		workspaces: make(map[string]*Workspace, len(s.workspaces)),
		panes:      make(map[string]*Pane, len(s.panes)),
		surfaces:   make(map[string]*Surface, len(s.surfaces)),
		selected:   s.selected,
		previous:   s.previous,
		seq:        make(map[Kind]int, len(s.seq)),
		events:     append([]Event(nil), s.events...),
	}
	for id, ws := range s.workspaces {
		copied := *ws
		copied.Tree = ws.Tree.Clone()
		copied.FocusHistory = append([]string(nil), ws.FocusHistory...)
		out.workspaces[id] = &copied
	}
	for id, pane := range s.panes {
		copied := *pane
		copied.Surfaces = append([]string(nil), pane.Surfaces...)
		out.panes[id] = &copied
	}
	for id, surface := range s.surfaces {
		copied := *surface
		out.surfaces[id] = &copied
	}
	for kind, n := range s.seq {
		out.seq[kind] = n
	}
	return out
}

// Validate checks cross-index consistency. It is used by tests and by the
// dispatcher before committing a mutation.
func (s *SessionState) Validate() error {
	if len(s.order) != len(s.workspaces) {
		return muxerr.New(muxerr.CodeInternal, "workspace order has %d entries for %d workspaces", len(s.order), len(s.workspaces))
	}
	if len(s.workspaces) == 0 {
		if s.selected != "" {
			return muxerr.New(muxerr.CodeInternal, "selection %s without workspaces", s.selected)
		}
	} else if s.workspaces[s.selected] == nil {
		return muxerr.New(muxerr.CodeInternal, "selected workspace %q is not live", s.selected)
	}
	paneCount := 0
	for _, ws := range s.workspaces {
		if err := ws.Tree.Validate(); err != nil {
			return muxerr.New(muxerr.CodeInternal, "workspace %s: %v", ws.ID, err)
		}
		if ws.Tree.Empty() {
			return muxerr.New(muxerr.CodeInternal, "workspace %s has no panes", ws.ID)
		}
		if !ws.Tree.HasPane(ws.FocusedPane) {
			return muxerr.New(muxerr.CodeInternal, "workspace %s focuses missing pane %s", ws.ID, ws.FocusedPane)
		}
		for _, paneID := range ws.Tree.PaneIDs() {
			pane := s.panes[paneID]
			if pane == nil || pane.WorkspaceID != ws.ID {
				return muxerr.New(muxerr.CodeInternal, "pane %s is not owned by workspace %s", paneID, ws.ID)
			}
			paneCount++
		}
	}
	if paneCount != len(s.panes) {
		return muxerr.New(muxerr.CodeInternal, "%d panes in trees, %d indexed", paneCount, len(s.panes))
	}
	surfaceCount := 0
	for _, pane := range s.panes {
		if len(pane.Surfaces) == 0 {
			return muxerr.New(muxerr.CodeInternal, "pane %s has no surfaces", pane.ID)
		}
		if pane.indexOf(pane.Selected) < 0 {
			return muxerr.New(muxerr.CodeInternal, "pane %s selects foreign surface %s", pane.ID, pane.Selected)
		}
		for _, id := range pane.Surfaces {
			surface := s.surfaces[id]
			if surface == nil || surface.PaneID != pane.ID {
				return muxerr.New(muxerr.CodeInternal, "surface %s is not owned by pane %s", id, pane.ID)
			}
			surfaceCount++
		}
	}
	if surfaceCount != len(s.surfaces) {
		return muxerr.New(muxerr.CodeInternal, "%d surfaces in panes, %d indexed", surfaceCount, len(s.surfaces))
	}
	return nil
}
