package layout

import (
	"fmt"
	"math"
	"strconv"
)

// Tree is the arena-backed split layout of one workspace.
type Tree struct {
	Root         string
	Nodes        map[string]*Node
	Panes        map[string]string
	Bounds       Rect
	Constraints  Constraints
	ZoomedPaneID string
	nextNode     int
}

// NewTree returns a tree holding a single leaf for paneID. An empty paneID
// yields an empty tree.
func NewTree(paneID string) *Tree {
	t := &Tree{
		Nodes:       make(map[string]*Node),
		Panes:       make(map[string]string),
		Bounds:      Rect{W: LayoutBaseSize, H: LayoutBaseSize},
		Constraints: DefaultConstraints(),
	}
	if paneID != "" {
		leaf := t.newLeaf(paneID, "")
		t.Root = leaf.ID
		t.Recompute()
	}
	return t
}

func (t *Tree) Empty() bool {
	return t == nil || t.Root == ""
}

func (t *Tree) newNodeID() string {
	t.nextNode++
	return "n" + strconv.Itoa(t.nextNode)
}

func (t *Tree) newLeaf(paneID, parent string) *Node {
	node := &Node{ID: t.newNodeID(), Parent: parent, PaneID: paneID}
	t.Nodes[node.ID] = node
	t.Panes[paneID] = node.ID
	return node
}

// Node returns the arena entry for id.
func (t *Tree) Node(id string) *Node {
	if t == nil || id == "" {
		return nil
	}
	return t.Nodes[id]
}

// Leaf returns the leaf node holding paneID.
func (t *Tree) Leaf(paneID string) *Node {
	if t == nil {
		return nil
	}
	return t.Node(t.Panes[paneID])
}

func (t *Tree) HasPane(paneID string) bool {
	return t.Leaf(paneID) != nil
}

// PaneIDs lists the leaves in depth-first order, first child before second.
func (t *Tree) PaneIDs() []string {
	if t.Empty() {
		return nil
	}
	out := make([]string, 0, len(t.Panes))
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
	walk(t.Root)
	return out
}

// Rect returns the geometry of paneID ignoring zoom.
func (t *Tree) Rect(paneID string) (Rect, bool) {
	leaf := t.Leaf(paneID)
	if leaf == nil {
		return Rect{}, false
	}
	return leaf.Rect, true
}

// Rects returns the geometry of every leaf ignoring zoom.
func (t *Tree) Rects() map[string]Rect {
	out := make(map[string]Rect, len(t.Panes))
	for paneID, nodeID := range t.Panes {
		if node := t.Nodes[nodeID]; node != nil {
			out[paneID] = node.Rect
		}
	}
	return out
}

// ViewRects returns the visible geometry. A zoomed pane covers the bounds
// and every other pane is hidden.
func (t *Tree) ViewRects() map[string]Rect {
	if t.ZoomedPaneID != "" && t.HasPane(t.ZoomedPaneID) {
		return map[string]Rect{t.ZoomedPaneID: t.Bounds}
	}
	return t.Rects()
}

// Recompute assigns geometry top-down from the split ratios. Children always
// partition their parent exactly, and no pane drops below the minimum extent
// while the bounds can hold every minimum.
func (t *Tree) Recompute() {
	if t.Empty() {
		return
	}
	var walk func(id string, rect Rect)
	walk = func(id string, rect Rect) {
		node := t.Node(id)
		if node == nil {
			return
		}
		node.Rect = rect
		if node.IsLeaf() {
			return
		}
		total := rect.Extent(node.Axis)
		head := int(math.Round(float64(total) * node.Ratio))
		lo, hi := t.headRange(node, total)
		if lo <= hi {
			head = clamp(head, lo, hi)
		}
		first, second := splitRect(rect, node.Axis, clamp(head, 0, total))
		walk(node.Children[0], first)
		walk(node.Children[1], second)
	}
	walk(t.Root, t.Bounds)
}

// MinExtent is the smallest extent along axis that the subtree rooted at id
// can occupy without shrinking a pane below the constraints.
func (t *Tree) MinExtent(id string, axis Axis) int {
	node := t.Node(id)
	if node == nil {
		return 0
	}
	if node.IsLeaf() {
		return t.Constraints.Min(axis)
	}
	a := t.MinExtent(node.Children[0], axis)
	b := t.MinExtent(node.Children[1], axis)
	if node.Axis == axis {
		return a + b
	}
	return max(a, b)
}

// headRange bounds the first child's extent of an interior node.
func (t *Tree) headRange(node *Node, total int) (int, int) {
	lo := t.MinExtent(node.Children[0], node.Axis)
	hi := total - t.MinExtent(node.Children[1], node.Axis)
	return lo, hi
}

func splitRect(rect Rect, axis Axis, head int) (Rect, Rect) {
	if axis == AxisVertical {
		return Rect{X: rect.X, Y: rect.Y, W: rect.W, H: head},
			Rect{X: rect.X, Y: rect.Y + head, W: rect.W, H: rect.H - head}
	}
	return Rect{X: rect.X, Y: rect.Y, W: head, H: rect.H},
		Rect{X: rect.X + head, Y: rect.Y, W: rect.W - head, H: rect.H}
}

// childIndex reports which slot of parent holds childID.
func childIndex(parent *Node, childID string) int {
	if parent.Children[0] == childID {
		return 0
	}
	if parent.Children[1] == childID {
		return 1
	}
	return -1
}

// Clone returns a deep copy.
func (t *Tree) Clone() *Tree {
	if t == nil {
		return nil
	}
	out := &Tree{
		Root:         t.Root,
		Nodes:        make(map[string]*Node, len(t.Nodes)),
		Panes:        make(map[string]string, len(t.Panes)),
		Bounds:       t.Bounds,
		Constraints:  t.Constraints,
		ZoomedPaneID: t.ZoomedPaneID,
		nextNode:     t.nextNode,
	}
	for id, node := range t.Nodes {
		copied := *node
		out.Nodes[id] = &copied
	}
	for paneID, nodeID := range t.Panes {
		out.Panes[paneID] = nodeID
	}
	return out
}

// Validate checks structural links and the partition of every interior
// node's rect by its children.
func (t *Tree) Validate() error {
	if t.Empty() {
		if len(t.Panes) != 0 {
			return fmt.Errorf("layout: empty tree with %d panes", len(t.Panes))
		}
		return nil
	}
	root := t.Node(t.Root)
	if root == nil {
		return fmt.Errorf("layout: missing root %s", t.Root)
	}
	if root.Parent != "" {
		return fmt.Errorf("layout: root %s has parent %s", root.ID, root.Parent)
	}
	if root.Rect != t.Bounds {
		return fmt.Errorf("layout: root rect %+v does not match bounds %+v", root.Rect, t.Bounds)
	}
	seen := 0
	var walk func(id string) error
	walk = func(id string) error {
		node := t.Node(id)
		if node == nil {
			return fmt.Errorf("layout: dangling node %s", id)
		}
		seen++
		if node.IsLeaf() {
			if t.Panes[node.PaneID] != node.ID {
				return fmt.Errorf("layout: pane %s not indexed to %s", node.PaneID, node.ID)
			}
			return nil
		}
		a, b := t.Node(node.Children[0]), t.Node(node.Children[1])
		if a == nil || b == nil {
			return fmt.Errorf("layout: node %s missing a child", node.ID)
		}
		if a.Parent != node.ID || b.Parent != node.ID {
			return fmt.Errorf("layout: node %s children have wrong parent", node.ID)
		}
		if !partitions(node.Rect, node.Axis, a.Rect, b.Rect) {
			return fmt.Errorf("layout: node %s children %+v %+v do not partition %+v", node.ID, a.Rect, b.Rect, node.Rect)
		}
		if err := walk(a.ID); err != nil {
			return err
		}
		return walk(b.ID)
	}
	if err := walk(t.Root); err != nil {
		return err
	}
	if seen != len(t.Nodes) {
		return fmt.Errorf("layout: %d nodes reachable, %d stored", seen, len(t.Nodes))
	}
	return nil
}

func partitions(parent Rect, axis Axis, a, b Rect) bool {
	if axis == AxisVertical {
		return a.X == parent.X && b.X == parent.X && a.W == parent.W && b.W == parent.W &&
			a.Y == parent.Y && b.Y == a.Y+a.H && a.H+b.H == parent.H
	}
	return a.Y == parent.Y && b.Y == parent.Y && a.H == parent.H && b.H == parent.H &&
		a.X == parent.X && b.X == a.X+a.W && a.W+b.W == parent.W
}
