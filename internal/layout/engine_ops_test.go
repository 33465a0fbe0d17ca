package layout

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/pweiskircher/cmux/internal/muxerr"
)

func newTwoPaneEngine(t *testing.T) *Engine {
	t.Helper()
	engine := NewEngine(NewTree("p1"))
	if _, err := engine.Apply(SplitOp{PaneID: "p1", NewPaneID: "p2", Axis: AxisHorizontal}); err != nil {
		t.Fatalf("Apply(split) error: %v", err)
	}
	return engine
}

func TestSplitHalvesPane(t *testing.T) {
	engine := newTwoPaneEngine(t)
	rects := engine.Tree.Rects()
	left, right := rects["p1"], rects["p2"]
	if left.W != LayoutBaseSize/2 || right.W != LayoutBaseSize/2 {
		t.Fatalf("unexpected widths: %#v %#v", left, right)
	}
	if left.X != 0 || right.X != left.W || left.H != LayoutBaseSize || right.H != LayoutBaseSize {
		t.Fatalf("unexpected positions: %#v %#v", left, right)
	}
	if got := engine.Tree.PaneIDs(); fmt.Sprint(got) != "[p1 p2]" {
		t.Fatalf("PaneIDs() = %v", got)
	}
	if err := engine.Tree.Validate(); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
}

func TestSplitPercentAndBefore(t *testing.T) {
	engine := NewEngine(NewTree("p1"))
	if _, err := engine.Apply(SplitOp{PaneID: "p1", NewPaneID: "p2", Axis: AxisVertical, Percent: 30}); err != nil {
		t.Fatalf("Apply(split) error: %v", err)
	}
	rects := engine.Tree.Rects()
	if rects["p1"].H != 700 || rects["p2"].H != 300 || rects["p2"].Y != 700 {
		t.Fatalf("unexpected rects: %#v", rects)
	}
	if _, err := engine.Apply(SplitOp{PaneID: "p2", NewPaneID: "p3", Axis: AxisHorizontal, Before: true}); err != nil {
		t.Fatalf("Apply(split before) error: %v", err)
	}
	if got := engine.Tree.PaneIDs(); fmt.Sprint(got) != "[p1 p3 p2]" {
		t.Fatalf("PaneIDs() = %v", got)
	}
	rects = engine.Tree.Rects()
	if rects["p3"].X != 0 || rects["p2"].X != 500 {
		t.Fatalf("unexpected rects after before-split: %#v", rects)
	}
}

func TestSplitErrors(t *testing.T) {
	engine := newTwoPaneEngine(t)
	_, err := engine.Apply(SplitOp{PaneID: "missing", NewPaneID: "p3"})
	if !errors.Is(err, muxerr.ErrInvalidTarget) {
		t.Fatalf("expected invalid target, got %v", err)
	}
	_, err = engine.Apply(SplitOp{PaneID: "p1", NewPaneID: "p2"})
	if !errors.Is(err, muxerr.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument for duplicate id, got %v", err)
	}
	_, err = engine.Apply(SplitOp{PaneID: "p1", NewPaneID: "p3", Percent: 100})
	if !errors.Is(err, muxerr.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument for percent, got %v", err)
	}
	if len(engine.Tree.Panes) != 2 {
		t.Fatalf("failed split mutated tree: %#v", engine.Tree.Panes)
	}
}

func TestSplitTooSmall(t *testing.T) {
	engine := NewEngine(NewTree("p1"))
	if _, err := engine.Apply(BoundsOp{Bounds: Rect{W: 60, H: 100}}); err != nil {
		t.Fatalf("Apply(bounds) error: %v", err)
	}
	_, err := engine.Apply(SplitOp{PaneID: "p1", NewPaneID: "p2", Axis: AxisHorizontal})
	if !errors.Is(err, muxerr.ErrInvalidArgument) {
		t.Fatalf("expected too small error, got %v", err)
	}
}

func TestResizeMovesDivider(t *testing.T) {
	engine := newTwoPaneEngine(t)
	result, err := engine.Apply(ResizeOp{PaneID: "p1", Edge: ResizeEdgeRight, Delta: 100})
	if err != nil {
		t.Fatalf("Apply(resize) error: %v", err)
	}
	if !result.Changed {
		t.Fatalf("expected change")
	}
	rects := engine.Tree.Rects()
	if rects["p1"].W != 600 || rects["p2"].W != 400 {
		t.Fatalf("unexpected resize rects: %#v", rects)
	}

	// The right pane grows when its divider moves left.
	if _, err := engine.Apply(ResizeOp{PaneID: "p2", Edge: ResizeEdgeLeft, Delta: 300}); err != nil {
		t.Fatalf("Apply(resize left) error: %v", err)
	}
	rects = engine.Tree.Rects()
	if rects["p1"].W != 300 || rects["p2"].W != 700 {
		t.Fatalf("unexpected rects: %#v", rects)
	}
}

func TestResizeClampsToMinimum(t *testing.T) {
	engine := newTwoPaneEngine(t)
	if _, err := engine.Apply(ResizeOp{PaneID: "p1", Edge: ResizeEdgeLeft, Delta: 5000}); err != nil {
		t.Fatalf("Apply(resize) error: %v", err)
	}
	rects := engine.Tree.Rects()
	if rects["p1"].W != DefaultMinWidth || rects["p2"].W != LayoutBaseSize-DefaultMinWidth {
		t.Fatalf("unexpected clamped rects: %#v", rects)
	}
	result, err := engine.Apply(ResizeOp{PaneID: "p1", Edge: ResizeEdgeLeft, Delta: 10})
	if err != nil {
		t.Fatalf("Apply(resize) error: %v", err)
	}
	if result.Changed {
		t.Fatalf("expected no change at the minimum")
	}
}

func TestResizeWithoutMatchingAncestorIsNoop(t *testing.T) {
	engine := newTwoPaneEngine(t)
	before := engine.Tree.Rects()
	result, err := engine.Apply(ResizeOp{PaneID: "p1", Edge: ResizeEdgeDown, Delta: 50})
	if err != nil {
		t.Fatalf("Apply(resize) error: %v", err)
	}
	if result.Changed {
		t.Fatalf("expected no-op, got %#v", result)
	}
	if fmt.Sprint(engine.Tree.Rects()) != fmt.Sprint(before) {
		t.Fatalf("rects changed on no-op resize")
	}
	single := NewEngine(NewTree("solo"))
	if result, err := single.Apply(ResizeOp{PaneID: "solo", Edge: ResizeEdgeRight, Delta: 10}); err != nil || result.Changed {
		t.Fatalf("single pane resize = %#v, %v", result, err)
	}
}

func TestResizeUsesNearestMatchingAncestor(t *testing.T) {
	engine := newTwoPaneEngine(t)
	if _, err := engine.Apply(SplitOp{PaneID: "p2", NewPaneID: "p3", Axis: AxisVertical}); err != nil {
		t.Fatalf("Apply(split) error: %v", err)
	}
	if _, err := engine.Apply(ResizeOp{PaneID: "p3", Edge: ResizeEdgeRight, Delta: 100}); err != nil {
		t.Fatalf("Apply(resize) error: %v", err)
	}
	rects := engine.Tree.Rects()
	if rects["p1"].W != 600 || rects["p3"].W != 400 || rects["p2"].W != 400 {
		t.Fatalf("unexpected rects: %#v", rects)
	}
	if _, err := engine.Apply(ResizeOp{PaneID: "p3", Edge: ResizeEdgeUp, Delta: 100}); err != nil {
		t.Fatalf("Apply(resize up) error: %v", err)
	}
	rects = engine.Tree.Rects()
	if rects["p2"].H != 400 || rects["p3"].H != 600 || rects["p1"].H != LayoutBaseSize {
		t.Fatalf("unexpected rects after vertical resize: %#v", rects)
	}
}

func TestCloseCollapsesSibling(t *testing.T) {
	engine := newTwoPaneEngine(t)
	if _, err := engine.Apply(SplitOp{PaneID: "p2", NewPaneID: "p3", Axis: AxisVertical}); err != nil {
		t.Fatalf("Apply(split) error: %v", err)
	}
	if _, err := engine.Apply(CloseOp{PaneID: "p2"}); err != nil {
		t.Fatalf("Apply(close) error: %v", err)
	}
	rects := engine.Tree.Rects()
	if len(rects) != 2 || rects["p3"] != (Rect{X: 500, Y: 0, W: 500, H: LayoutBaseSize}) {
		t.Fatalf("unexpected rects after close: %#v", rects)
	}
	if err := engine.Tree.Validate(); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if _, err := engine.Apply(CloseOp{PaneID: "p1"}); err != nil {
		t.Fatalf("Apply(close) error: %v", err)
	}
	root := engine.Tree.Node(engine.Tree.Root)
	if root == nil || root.PaneID != "p3" || root.Rect != engine.Tree.Bounds || root.Parent != "" {
		t.Fatalf("unexpected root after collapse: %#v", root)
	}
	if _, err := engine.Apply(CloseOp{PaneID: "p3"}); err != nil {
		t.Fatalf("Apply(close last) error: %v", err)
	}
	if !engine.Tree.Empty() || len(engine.Tree.Nodes) != 0 {
		t.Fatalf("expected empty tree, got %#v", engine.Tree)
	}
	if _, err := engine.Apply(CloseOp{PaneID: "p3"}); !errors.Is(err, muxerr.ErrInvalidTarget) {
		t.Fatalf("expected invalid target, got %v", err)
	}
}

func TestZoomToggle(t *testing.T) {
	engine := newTwoPaneEngine(t)
	if _, err := engine.Apply(ZoomOp{PaneID: "p2"}); err != nil {
		t.Fatalf("Apply(zoom) error: %v", err)
	}
	view := engine.Tree.ViewRects()
	if len(view) != 1 || view["p2"] != engine.Tree.Bounds {
		t.Fatalf("unexpected zoomed view: %#v", view)
	}
	if _, err := engine.Apply(ZoomOp{PaneID: "p2"}); err != nil {
		t.Fatalf("Apply(unzoom) error: %v", err)
	}
	if len(engine.Tree.ViewRects()) != 2 {
		t.Fatalf("expected unzoomed view")
	}
	if _, err := engine.Apply(ZoomOp{PaneID: "p1"}); err != nil {
		t.Fatalf("Apply(zoom) error: %v", err)
	}
	if _, err := engine.Apply(SplitOp{PaneID: "p1", NewPaneID: "p3", Axis: AxisVertical}); err != nil {
		t.Fatalf("Apply(split) error: %v", err)
	}
	if engine.Tree.ZoomedPaneID != "" {
		t.Fatalf("expected split to clear zoom")
	}
}

func TestBoundsRescalesGeometry(t *testing.T) {
	engine := newTwoPaneEngine(t)
	if _, err := engine.Apply(BoundsOp{Bounds: Rect{W: 201, H: 50}}); err != nil {
		t.Fatalf("Apply(bounds) error: %v", err)
	}
	rects := engine.Tree.Rects()
	if rects["p1"].W+rects["p2"].W != 201 || rects["p1"].H != 50 {
		t.Fatalf("unexpected rects: %#v", rects)
	}
	if _, err := engine.Apply(BoundsOp{}); !errors.Is(err, muxerr.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	engine := newTwoPaneEngine(t)
	clone := engine.Tree.Clone()
	if _, err := engine.Apply(CloseOp{PaneID: "p2"}); err != nil {
		t.Fatalf("Apply(close) error: %v", err)
	}
	if len(clone.Panes) != 2 || !clone.HasPane("p2") {
		t.Fatalf("clone was mutated: %#v", clone.Panes)
	}
	if err := clone.Validate(); err != nil {
		t.Fatalf("clone Validate() error: %v", err)
	}
}

func TestRandomOpsKeepPartition(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	engine := NewEngine(NewTree("p0"))
	next := 1
	edges := []ResizeEdge{ResizeEdgeLeft, ResizeEdgeRight, ResizeEdgeUp, ResizeEdgeDown}
	for i := 0; i < 400; i++ {
		panes := engine.Tree.PaneIDs()
		if len(panes) == 0 {
			engine = NewEngine(NewTree(fmt.Sprintf("p%d", next)))
			next++
			continue
		}
		pane := panes[rng.Intn(len(panes))]
		var op Op
		switch rng.Intn(4) {
		case 0, 1:
			op = SplitOp{PaneID: pane, NewPaneID: fmt.Sprintf("p%d", next), Axis: Axis(rng.Intn(2)), Percent: 1 + rng.Intn(99)}
			next++
		case 2:
			op = ResizeOp{PaneID: pane, Edge: edges[rng.Intn(len(edges))], Delta: rng.Intn(300)}
		default:
			op = CloseOp{PaneID: pane}
		}
		if _, err := engine.Apply(op); err != nil && !errors.Is(err, muxerr.ErrInvalidArgument) {
			t.Fatalf("step %d Apply(%#v) error: %v", i, op, err)
		}
		if err := engine.Tree.Validate(); err != nil {
			t.Fatalf("step %d after %#v: %v", i, op, err)
		}
		for id, rect := range engine.Tree.Rects() {
			if rect.Empty() {
				t.Fatalf("step %d pane %s has empty rect %#v", i, id, rect)
			}
		}
	}
}

func TestParseHelpers(t *testing.T) {
	if edge, ok := ParseResizeEdge("R"); !ok || edge != ResizeEdgeRight {
		t.Fatalf("ParseResizeEdge(R) = %v %v", edge, ok)
	}
	if _, ok := ParseResizeEdge("sideways"); ok {
		t.Fatalf("expected unknown edge")
	}
	if axis, err := ParseAxis("down"); err != nil || axis != AxisVertical {
		t.Fatalf("ParseAxis(down) = %v %v", axis, err)
	}
	if _, err := ParseAxis("diagonal"); err == nil {
		t.Fatalf("expected error")
	}
}
