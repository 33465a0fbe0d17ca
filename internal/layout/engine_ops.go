package layout

import (
	"errors"

	"github.com/pweiskircher/cmux/internal/muxerr"
)

type OpKind string

const (
	OpSplit  OpKind = "split"
	OpResize OpKind = "resize"
	OpClose  OpKind = "close"
	OpZoom   OpKind = "zoom"
	OpBounds OpKind = "bounds"
)

type Op interface {
	Kind() OpKind
}

type ResizeEdge int

const (
	ResizeEdgeLeft ResizeEdge = iota
	ResizeEdgeRight
	ResizeEdgeUp
	ResizeEdgeDown
)

func (e ResizeEdge) Axis() Axis {
	switch e {
	case ResizeEdgeUp, ResizeEdgeDown:
		return AxisVertical
	default:
		return AxisHorizontal
	}
}

func (e ResizeEdge) sign() int {
	if e == ResizeEdgeLeft || e == ResizeEdgeUp {
		return -1
	}
	return 1
}

// ParseResizeEdge maps direction names (and tmux's L/R/U/D flags) to edges.
func ParseResizeEdge(value string) (ResizeEdge, bool) {
	switch value {
	case "left", "L":
		return ResizeEdgeLeft, true
	case "right", "R":
		return ResizeEdgeRight, true
	case "up", "U":
		return ResizeEdgeUp, true
	case "down", "D":
		return ResizeEdgeDown, true
	default:
		return ResizeEdgeLeft, false
	}
}

// SplitOp turns PaneID into an interior node. NewPaneID receives Percent of
// the extent (default 50) and is placed after PaneID unless Before is set.
type SplitOp struct {
	PaneID    string
	NewPaneID string
	Axis      Axis
	Percent   int
	Before    bool
}

func (SplitOp) Kind() OpKind { return OpSplit }

// ResizeOp moves the divider of the nearest ancestor split on the edge's
// axis by Delta layout units. Right and Down move it forward.
type ResizeOp struct {
	PaneID string
	Edge   ResizeEdge
	Delta  int
}

func (ResizeOp) Kind() OpKind { return OpResize }

type CloseOp struct {
	PaneID string
}

func (CloseOp) Kind() OpKind { return OpClose }

// ZoomOp toggles the zoom state of PaneID.
type ZoomOp struct {
	PaneID string
}

func (ZoomOp) Kind() OpKind { return OpZoom }

type BoundsOp struct {
	Bounds Rect
}

func (BoundsOp) Kind() OpKind { return OpBounds }

type Result struct {
	Changed  bool
	Affected []string
}

type Engine struct {
	Tree *Tree
}

func NewEngine(tree *Tree) *Engine {
	if tree == nil {
		tree = NewTree("")
	}
	return &Engine{Tree: tree}
}

// Apply validates op before touching the tree, so a failed op leaves it
// unchanged. Geometry is recomputed after every change.
func (e *Engine) Apply(op Op) (Result, error) {
	if e == nil || e.Tree == nil {
		return Result{}, errors.New("layout: engine has no tree")
	}
	var (
		res Result
		err error
	)
	switch typed := op.(type) {
	case SplitOp:
		res, err = e.applySplit(typed)
	case ResizeOp:
		res, err = e.applyResize(typed)
	case CloseOp:
		res, err = e.applyClose(typed)
	case ZoomOp:
		res, err = e.applyZoom(typed)
	case BoundsOp:
		res, err = e.applyBounds(typed)
	default:
		return Result{}, muxerr.InvalidArgument("layout: unsupported op %T", op)
	}
	if err != nil {
		return Result{}, err
	}
	if res.Changed {
		e.Tree.Recompute()
	}
	return res, nil
}

func (e *Engine) applySplit(op SplitOp) (Result, error) {
	t := e.Tree
	leaf := t.Leaf(op.PaneID)
	if leaf == nil {
		return Result{}, muxerr.InvalidTarget("pane %s is not in this workspace", op.PaneID)
	}
	if op.NewPaneID == "" || t.HasPane(op.NewPaneID) {
		return Result{}, muxerr.InvalidArgument("invalid new pane id %q", op.NewPaneID)
	}
	percent := op.Percent
	if percent == 0 {
		percent = int(DefaultRatio * 100)
	}
	if percent < 1 || percent > 99 {
		return Result{}, muxerr.InvalidArgument("--percent must be between 1 and 99")
	}
	total := leaf.Rect.Extent(op.Axis)
	minSize := t.Constraints.Min(op.Axis)
	if total < 2*minSize {
		return Result{}, muxerr.InvalidArgument("pane %s is too small to split", op.PaneID)
	}
	share := clamp(total*percent/100, minSize, total-minSize)

	keep := &Node{ID: t.newNodeID(), Parent: leaf.ID, PaneID: leaf.PaneID}
	t.Nodes[keep.ID] = keep
	t.Panes[keep.PaneID] = keep.ID
	added := t.newLeaf(op.NewPaneID, leaf.ID)

	leaf.PaneID = ""
	leaf.Axis = op.Axis
	if op.Before {
		leaf.Children = [2]string{added.ID, keep.ID}
		leaf.Ratio = float64(share) / float64(total)
	} else {
		leaf.Children = [2]string{keep.ID, added.ID}
		leaf.Ratio = float64(total-share) / float64(total)
	}
	t.ZoomedPaneID = ""
	return Result{Changed: true, Affected: []string{op.PaneID, op.NewPaneID}}, nil
}

func (e *Engine) applyResize(op ResizeOp) (Result, error) {
	t := e.Tree
	leaf := t.Leaf(op.PaneID)
	if leaf == nil {
		return Result{}, muxerr.InvalidTarget("pane %s is not in this workspace", op.PaneID)
	}
	if op.Delta < 0 {
		return Result{}, muxerr.InvalidArgument("resize amount must not be negative")
	}
	axis := op.Edge.Axis()
	split := t.Node(leaf.Parent)
	for split != nil && split.Axis != axis {
		split = t.Node(split.Parent)
	}
	if split == nil || op.Delta == 0 {
		return Result{}, nil
	}
	total := split.Rect.Extent(axis)
	lo, hi := t.headRange(split, total)
	if lo > hi {
		return Result{}, nil
	}
	head := t.Node(split.Children[0]).Rect.Extent(axis)
	next := clamp(head+op.Edge.sign()*op.Delta, lo, hi)
	if next == head {
		return Result{}, nil
	}
	split.Ratio = float64(next) / float64(total)
	return Result{Changed: true, Affected: subtreePanes(t, split.ID)}, nil
}

func (e *Engine) applyClose(op CloseOp) (Result, error) {
	t := e.Tree
	leaf := t.Leaf(op.PaneID)
	if leaf == nil {
		return Result{}, muxerr.InvalidTarget("pane %s is not in this workspace", op.PaneID)
	}
	delete(t.Panes, leaf.PaneID)
	delete(t.Nodes, leaf.ID)
	t.ZoomedPaneID = ""
	parent := t.Node(leaf.Parent)
	if parent == nil {
		t.Root = ""
		return Result{Changed: true, Affected: []string{op.PaneID}}, nil
	}
	sibling := t.Node(parent.Children[1-childIndex(parent, leaf.ID)])
	grand := t.Node(parent.Parent)
	sibling.Parent = parent.Parent
	if grand == nil {
		t.Root = sibling.ID
	} else {
		grand.Children[childIndex(grand, parent.ID)] = sibling.ID
	}
	delete(t.Nodes, parent.ID)
	affected := append([]string{op.PaneID}, subtreePanes(t, sibling.ID)...)
	return Result{Changed: true, Affected: affected}, nil
}

func (e *Engine) applyZoom(op ZoomOp) (Result, error) {
	t := e.Tree
	if !t.HasPane(op.PaneID) {
		return Result{}, muxerr.InvalidTarget("pane %s is not in this workspace", op.PaneID)
	}
	if t.ZoomedPaneID == op.PaneID {
		t.ZoomedPaneID = ""
	} else {
		t.ZoomedPaneID = op.PaneID
	}
	return Result{Changed: true, Affected: []string{op.PaneID}}, nil
}

func (e *Engine) applyBounds(op BoundsOp) (Result, error) {
	if op.Bounds.Empty() {
		return Result{}, muxerr.InvalidArgument("bounds must have a positive width and height")
	}
	if e.Tree.Bounds == op.Bounds {
		return Result{}, nil
	}
	e.Tree.Bounds = op.Bounds
	return Result{Changed: true, Affected: e.Tree.PaneIDs()}, nil
}

func subtreePanes(t *Tree, nodeID string) []string {
	var out []string
	var walk func(id string)
	walk = func(id string) {
		node := t.Node(id)
		if node == nil {
			return
		}
		if node.IsLeaf() {
			out = append(out, node.PaneID)
			return
		}
		walk(node.Children[0])
		walk(node.Children[1])
	}
	walk(nodeID)
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
