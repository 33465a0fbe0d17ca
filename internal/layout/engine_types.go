package layout

import "fmt"

// LayoutBaseSize is the default width and height of a tree's bounds, in
// abstract layout units.
const LayoutBaseSize = 1000

const (
	DefaultMinWidth  = 40
	DefaultMinHeight = 20
	DefaultRatio     = 0.5
)

// Axis is the direction along which an interior node lays out its children.
// AxisHorizontal places them side by side, AxisVertical stacks them.
type Axis int

const (
	AxisHorizontal Axis = iota
	AxisVertical
)

func (a Axis) String() string {
	switch a {
	case AxisHorizontal:
		return "horizontal"
	case AxisVertical:
		return "vertical"
	default:
		return "unknown"
	}
}

// ParseAxis accepts the names used by commands and config.
func ParseAxis(value string) (Axis, error) {
	switch value {
	case "horizontal", "h", "right", "left":
		return AxisHorizontal, nil
	case "vertical", "v", "down", "up":
		return AxisVertical, nil
	default:
		return AxisHorizontal, fmt.Errorf("layout: unknown axis %q", value)
	}
}

type Rect struct {
	X int
	Y int
	W int
	H int
}

func (r Rect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// Extent returns the size of r along axis.
func (r Rect) Extent(axis Axis) int {
	if axis == AxisVertical {
		return r.H
	}
	return r.W
}

// Node is one arena entry. Parent is a non-owning back-reference used for
// ancestor lookup; ownership flows from Tree.Nodes only.
type Node struct {
	ID       string
	Parent   string
	PaneID   string
	Axis     Axis
	Ratio    float64
	Children [2]string
	Rect     Rect
}

func (n *Node) IsLeaf() bool {
	return n != nil && n.PaneID != ""
}

type Constraints struct {
	MinWidth  int
	MinHeight int
}

func DefaultConstraints() Constraints {
	return Constraints{MinWidth: DefaultMinWidth, MinHeight: DefaultMinHeight}
}

func (c Constraints) normalized() Constraints {
	if c.MinWidth <= 0 {
		c.MinWidth = DefaultMinWidth
	}
	if c.MinHeight <= 0 {
		c.MinHeight = DefaultMinHeight
	}
	return c
}

// Min returns the minimum extent along axis.
func (c Constraints) Min(axis Axis) int {
	c = c.normalized()
	if axis == AxisVertical {
		return c.MinHeight
	}
	return c.MinWidth
}
