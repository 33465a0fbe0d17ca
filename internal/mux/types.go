// Package mux holds the session core: workspaces, their pane trees, the
// surface stacks of each pane and the global selection. SessionState is a
// plain value with no locking; callers serialize access to it.
package mux

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pweiskircher/cmux/internal/layout"
)

// Kind names an entity family in refs.
type Kind string

const (
	KindWorkspace Kind = "workspace"
	KindPane      Kind = "pane"
	KindSurface   Kind = "surface"
	// KindTab is accepted on input and shares identity with KindSurface.
	KindTab Kind = "tab"
)

// Ref is the stable typed identifier "kind:seq".
type Ref struct {
	Kind Kind
	Seq  int
}

func (r Ref) String() string {
	if r.Kind == "" || r.Seq <= 0 {
		return ""
	}
	return string(r.Kind) + ":" + strconv.Itoa(r.Seq)
}

// TabRef renders a surface ref in its tab form.
func (r Ref) TabRef() string {
	if r.Kind != KindSurface {
		return r.String()
	}
	return Ref{Kind: KindTab, Seq: r.Seq}.String()
}

// ParseRef parses "kind:seq". Tab refs come back with KindSurface.
func ParseRef(value string) (Ref, bool) {
	kind, num, ok := strings.Cut(strings.TrimSpace(value), ":")
	if !ok {
		return Ref{}, false
	}
	seq, err := strconv.Atoi(num)
	if err != nil || seq <= 0 {
		return Ref{}, false
	}
	switch Kind(strings.ToLower(kind)) {
	case KindWorkspace:
		return Ref{Kind: KindWorkspace, Seq: seq}, true
	case KindPane:
		return Ref{Kind: KindPane, Seq: seq}, true
	case KindSurface, KindTab:
		return Ref{Kind: KindSurface, Seq: seq}, true
	default:
		return Ref{}, false
	}
}

// Surface is one terminal tab. It belongs to exactly one pane.
type Surface struct {
	ID      string
	Seq     int
	Title   string
	Pinned  bool
	Unread  bool
	Command string
	PaneID  string
}

func (s *Surface) Ref() Ref { return Ref{Kind: KindSurface, Seq: s.Seq} }

// Pane is a leaf of a workspace tree holding a non-empty surface stack.
type Pane struct {
	ID          string
	Seq         int
	WorkspaceID string
	Surfaces    []string
	Selected    string
}

func (p *Pane) Ref() Ref { return Ref{Kind: KindPane, Seq: p.Seq} }

func (p *Pane) indexOf(surfaceID string) int {
	for i, id := range p.Surfaces {
		if id == surfaceID {
			return i
		}
	}
	return -1
}

// Workspace owns one pane tree, a focus cursor and focus history.
type Workspace struct {
	ID           string
	Seq          int
	Title        string
	Tree         *layout.Tree
	FocusedPane  string
	FocusHistory []string
}

func (w *Workspace) Ref() Ref { return Ref{Kind: KindWorkspace, Seq: w.Seq} }

// DisplayTitle falls back to the ref when no title is set.
func (w *Workspace) DisplayTitle() string {
	if w.Title != "" {
		return w.Title
	}
	return fmt.Sprintf("workspace %d", w.Seq)
}
